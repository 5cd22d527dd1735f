package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/flowave-io/devconsole/internal/config"
	"github.com/flowave-io/devconsole/internal/monitor"
)

// RunWatchCommand validates a configuration file on every save until
// interrupted.
func RunWatchCommand(args []string, version string) error {
	path := config.DefaultFileName
	if len(args) > 0 {
		path = args[0]
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, _ := os.Getwd()
	opts := config.Options{AppVersion: version, CacheDir: filepath.Join(cwd, stateDirName, "includes")}
	w, err := monitor.New(0, path)
	if err != nil {
		return err
	}
	defer w.Close()
	go func() { _ = w.Run(ctx) }()

	fmt.Println("Watching", path)
	checkConfig(ctx, os.Stdout, path, opts)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.Changes():
			checkConfig(ctx, os.Stdout, path, opts)
		}
	}
}

func checkConfig(ctx context.Context, out io.Writer, path string, opts config.Options) {
	cfg, err := config.Load(ctx, path, opts)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, "invalid:", err)
		}
		return
	}
	args := 0
	for _, v := range cfg.Arguments {
		args += len(v)
	}
	fmt.Fprintf(out, "ok: %d commands, %d arguments, scrollback %d, history %d\n",
		len(cfg.Commands), args, cfg.Scrollback, cfg.HistorySize)
}
