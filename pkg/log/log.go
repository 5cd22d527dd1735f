package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
)

var debug atomic.Bool

// Init sends log output to path, creating parent directories as needed. The
// console owns the terminal in raw mode, so logs cannot share stdout. The
// returned func restores stderr and closes the file.
func Init(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) { log.SetOutput(w) }

// SetDebug enables Debug output.
func SetDebug(on bool) { debug.Store(on) }

func Fatal(v ...any) {
	logln("[FATAL]", v...)
}

func Warn(v ...any) {
	logln("[WARN]", v...)
}

func Info(v ...any) {
	logln("[INFO]", v...)
}

func Debug(v ...any) {
	if debug.Load() {
		logln("[DEBUG]", v...)
	}
}

func logln(level string, v ...any) {
	args := make([]any, 0, len(v)+1)
	args = append(args, level)
	args = append(args, v...)
	log.Println(args...)
}
