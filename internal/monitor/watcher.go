// Package monitor reports changes to the configuration files so the console
// can reload its command definitions while running.
package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/flowave-io/devconsole/pkg/log"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 75 * time.Millisecond

// Watcher signals on Changes after any watched file was written, created,
// renamed or removed, once no further event arrived for the debounce period.
type Watcher struct {
	fs       *fsnotify.Watcher
	targets  map[string]bool
	debounce time.Duration
	changes  chan struct{}
}

// New watches the given files. Their parent directories are watched, since
// editors often replace a file instead of writing it in place.
func New(debounce time.Duration, files ...string) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fs:       fs,
		targets:  map[string]bool{},
		debounce: debounce,
		changes:  make(chan struct{}, 1),
	}
	dirs := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fs.Close()
			return nil, err
		}
		w.targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Changes delivers at most one pending signal; extra changes before it is
// received are folded into it.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.matches(ev) {
				continue
			}
			log.Debug("[watch]", ev.Op, ev.Name)
			timer.Reset(w.debounce)
		case <-timer.C:
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warn("[watch] error:", err)
		}
	}
}

func (w *Watcher) matches(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return w.targets[abs]
}

func (w *Watcher) Close() error { return w.fs.Close() }
