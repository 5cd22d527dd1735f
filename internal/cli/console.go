package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/flowave-io/devconsole/internal/config"
	"github.com/flowave-io/devconsole/internal/console"
	"github.com/flowave-io/devconsole/internal/executor"
	"github.com/flowave-io/devconsole/internal/monitor"
	"github.com/flowave-io/devconsole/internal/panel"
	"github.com/flowave-io/devconsole/internal/scanner"
	"github.com/flowave-io/devconsole/internal/theme"
	"github.com/flowave-io/devconsole/pkg/log"
)

const (
	stateDirName  = ".devconsole"
	shutdownGrace = 2 * time.Second
)

// RunConsoleCommand starts the interactive console.
func RunConsoleCommand(args []string, version string) error {
	fset := flag.NewFlagSet("console", flag.ContinueOnError)
	fset.SetOutput(os.Stdout)
	fset.Usage = printConsoleHelp
	configPath := fset.String("config", config.DefaultFileName, "Configuration file")
	useReadline := fset.Bool("readline", false, "Use the line editor instead of raw key handling")
	logPath := fset.String("log", "", "Log file (default .devconsole/devconsole.log)")
	debug := fset.Bool("debug", false, "Log debug messages")
	if err := fset.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, _ := os.Getwd()
	stateDir := filepath.Join(cwd, stateDirName)
	opts := config.Options{AppVersion: version, CacheDir: filepath.Join(stateDir, "includes")}
	cfg, err := loadConfig(ctx, *configPath, *configPath != config.DefaultFileName, opts)
	if err != nil {
		return err
	}

	logFile := *logPath
	if logFile == "" {
		logFile = cfg.LogFile
	}
	if logFile == "" {
		logFile = filepath.Join(stateDir, "devconsole.log")
	}
	closeLog, err := log.Init(logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	log.SetDebug(*debug)
	log.Info("Starting devconsole", version, "config:", cfg.Path)

	a, err := newApp(cfg, os.Stdout, func() int { return detectTermWidth(os.Stdout) })
	if err != nil {
		return err
	}
	defer a.shutdown()

	if cfg.ScannerListen != "" {
		a.serveScanner(cfg.ScannerListen)
	}
	if cfg.Path != "" {
		a.watchConfig(ctx, cfg.Path, opts)
	}

	if !*useReadline {
		tty, restore, err := acquireTTY()
		if err == nil {
			defer restore()
			return ignoreCanceled(a.repl.Run(ctx, tty))
		}
		log.Warn("[warn] raw terminal unavailable, using line editor:", err)
	}
	return ignoreCanceled(a.repl.RunReadline(ctx, nil))
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadConfig falls back to defaults when the default file is absent. An
// explicitly named file must exist.
func loadConfig(ctx context.Context, path string, explicit bool, opts config.Options) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !explicit {
		return config.Default(), nil
	}
	return config.Load(ctx, path, opts)
}

// app is one running console: session, executor, panels and front end.
type app struct {
	out        io.Writer
	session    *console.Session
	dispatcher *executor.Dispatcher
	queue      *executor.Queue
	scanner    *scanner.Scanner
	panels     *panel.Set
	repl       *REPL
	builtins   []string
	server     *http.Server
	cancel     context.CancelFunc
}

func newApp(cfg *config.Config, out io.Writer, width func() int) (*app, error) {
	a := &app{out: out, scanner: scanner.New()}
	a.dispatcher = executor.NewDispatcher(nil)
	a.queue = executor.NewQueue(a.dispatcher, func(text string, color console.Color, style console.Style) {
		a.session.Print(text, color, style)
	}, executor.QueueOptions{Size: cfg.QueueSize, Timeout: cfg.Timeout})
	a.session = console.NewSession(a.queue, console.Options{
		Scrollback:  cfg.Scrollback,
		HistorySize: cfg.HistorySize,
	})

	onToggle := func(name string, visible bool) { a.repl.OnToggle(name, visible) }
	terminal := panel.NewTerminal("terminal", "Terminal", a.session, onToggle)
	panels, err := panel.NewSet(a.session.Registry(),
		terminal,
		panel.NewScanner("scanner", "Function Scanner", a.scanner, onToggle),
	)
	if err != nil {
		return nil, err
	}
	a.panels = panels
	a.repl = NewREPL(REPLOptions{
		Session: a.session,
		Panels:  panels,
		Scanner: a.scanner,
		Theme:   theme.New(out, cfg.Colors),
		Out:     out,
		Width:   width,
	})
	a.builtins = registerBuiltins(a.dispatcher, a.repl)

	panels.AttachAll()
	terminal.SetVisible(true)
	a.apply(cfg)
	return a, nil
}

// apply installs cfg. It must run on the presentation thread once the REPL
// is running.
func (a *app) apply(cfg *config.Config) {
	commands := slices.Concat(a.builtins, cfg.Commands)
	a.session.Registry().Replace(commands, cfg.Arguments)
	a.panels.RegisterNames()
	if !a.session.SetScrollback(cfg.Scrollback) {
		a.repl.fail("scrollback %d rejected", cfg.Scrollback)
	}
	if !a.session.SetHistorySize(cfg.HistorySize) {
		a.repl.fail("history_size %d rejected", cfg.HistorySize)
	}
	if cfg.Endpoint != "" {
		a.dispatcher.SetFallback(executor.NewHTTPHandler(cfg.Endpoint))
	} else {
		a.dispatcher.SetFallback(nil)
	}
	a.repl.theme = theme.New(a.out, cfg.Colors)
	a.repl.describe = cfg.Descriptions
	a.repl.exportDir = cfg.ExportDir
}

// watchConfig reloads the configuration when its file changes.
func (a *app) watchConfig(ctx context.Context, path string, opts config.Options) {
	w, err := monitor.New(0, path)
	if err != nil {
		log.Warn("[warn] config watch disabled:", err)
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go func() {
		defer w.Close()
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("[watch]", err)
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.Changes():
			}
			cfg, err := config.Load(ctx, path, opts)
			a.repl.Post(func() {
				if err != nil {
					log.Warn("[reload]", err)
					a.repl.fail("reload failed: %v", err)
					return
				}
				a.apply(cfg)
				a.repl.info("configuration reloaded: %d commands", len(cfg.Commands))
			})
		}
	}()
}

// serveScanner accepts function events pushed by the host.
func (a *app) serveScanner(addr string) {
	a.server = &http.Server{Addr: addr, Handler: a.scanner.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("[scanner] listen:", err)
		}
	}()
	log.Info("Function scanner listening on", addr)
}

func (a *app) shutdown() {
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if a.server != nil {
		_ = a.server.Shutdown(ctx)
	}
	if err := a.queue.Close(ctx); err != nil {
		log.Warn("[warn] executor shutdown:", err)
	}
	a.panels.DetachAll()
}

func printConsoleHelp() {
	fmt.Print(`devconsole console: interactive developer console

Usage: devconsole console [-config devconsole.hcl] [-readline] [-log file] [-debug]

Type a command and press ENTER to run it. TAB completes the highlighted
candidate, UP/DOWN walk the history or the candidate list, CTRL+C clears
the line and CTRL+D leaves. Lines starting with "." are console commands;
see .help.

The configuration file is reloaded whenever it changes.
`)
}
