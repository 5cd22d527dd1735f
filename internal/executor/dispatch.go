package executor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/flowave-io/devconsole/internal/console"
)

// ErrUnknownCommand is returned for commands with no handler and no fallback.
var ErrUnknownCommand = errors.New("unknown command")

// CommandFunc runs a registered command with its whitespace-split arguments.
type CommandFunc func(ctx context.Context, args []string) (string, error)

// Dispatcher routes a command by its first token. Commands without a
// registered func go to the fallback handler.
type Dispatcher struct {
	mu       sync.RWMutex
	funcs    map[string]CommandFunc
	fallback Handler
}

// NewDispatcher returns a dispatcher; fallback may be nil.
func NewDispatcher(fallback Handler) *Dispatcher {
	return &Dispatcher{funcs: map[string]CommandFunc{}, fallback: fallback}
}

// Register binds name to fn, replacing any previous binding.
func (d *Dispatcher) Register(name string, fn CommandFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.funcs[name] = fn
}

// Names returns the registered command names, sorted.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.funcs))
	for n := range d.funcs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// SetFallback replaces the handler for unregistered commands.
func (d *Dispatcher) SetFallback(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fallback = h
}

func (d *Dispatcher) Handle(ctx context.Context, cmd console.Command) (string, error) {
	fields := strings.Fields(cmd.Text)
	if len(fields) == 0 {
		return "", nil
	}
	d.mu.RLock()
	fn, ok := d.funcs[fields[0]]
	fallback := d.fallback
	d.mu.RUnlock()
	if ok {
		return fn(ctx, fields[1:])
	}
	if fallback != nil {
		return fallback.Handle(ctx, cmd)
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
}
