package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/flowave-io/devconsole/internal/console"
	"github.com/flowave-io/devconsole/internal/executor"
)

// registerBuiltins binds the commands the console answers itself and
// returns their names for completion.
func registerBuiltins(d *executor.Dispatcher, r *REPL) []string {
	d.Register(console.ToggleCommand, func(_ context.Context, args []string) (string, error) {
		if len(args) != 1 {
			return "", errors.New("usage: " + console.ToggleCommand + " <panel>")
		}
		name := args[0]
		// panels belong to the presentation thread
		r.Post(func() {
			if err := r.panels.Toggle(name); err != nil {
				r.fail("%v", err)
			}
		})
		return "", nil
	})
	d.Register("echo", func(_ context.Context, args []string) (string, error) {
		return strings.Join(args, " "), nil
	})
	return d.Names()
}
