package cli

import (
	"strings"

	"github.com/aymanbagabas/go-osc52/v2"

	"github.com/flowave-io/devconsole/internal/console"
	"github.com/flowave-io/devconsole/internal/panel"
)

const dotHelp = `.help                 list commands
.clear                clear the scrollback
.history [clear]      show or clear the command history
.copy                 copy the visible scrollback to the clipboard
.filter [expr]        show only matching lines, e.g. ".filter error,-debug"
.export [dir]         write the scrollback to ConsoleDump_<time>.txt
.panels               list panels; toggle them with imgui_toggle <name>
.scan start|stop|clear|show
.scan include|exclude [expr]
.scan export [dir]    write the scanned functions to FunctionDump_<time>.txt
.quit                 leave the console`

// dotCommand runs a console-local command. These never reach the executor.
func (r *REPL) dotCommand(line string) {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case ".help":
		r.help()
	case ".clear":
		r.session.Log().Clear()
		r.redrawAll()
	case ".history":
		if rest == "clear" {
			r.session.History().Clear()
			r.info("history cleared")
			return
		}
		for i, h := range r.session.History().Entries() {
			r.info("%4d  %s", i+1, h)
		}
	case ".copy":
		r.copyVisible()
	case ".filter":
		r.session.SetDisplayFilter(rest)
		r.redrawAll()
		if rest != "" {
			r.info("filter: %s", rest)
		}
	case ".export":
		r.export(rest)
	case ".panels":
		for _, n := range r.panels.Names() {
			state := "hidden"
			if r.panels.Get(n).Visible() {
				state = "shown"
			}
			r.info("%-12s %s", n, state)
		}
	case ".scan":
		r.scanCommand(rest)
	case ".quit", ".exit":
		r.quit = true
	default:
		r.fail("unknown console command %s, try .help", name)
	}
}

func (r *REPL) help() {
	for _, l := range strings.Split(dotHelp, "\n") {
		r.info("%s", l)
	}
	for _, c := range r.session.Registry().Commands() {
		if d := r.describe[c]; d != "" {
			r.info("%-21s %s", c, d)
		} else {
			r.info("%s", c)
		}
	}
}

func (r *REPL) export(dir string) {
	if dir == "" {
		dir = r.exportDir
	}
	path, err := r.session.Export(dir)
	switch {
	case err != nil:
		r.fail("export failed: %v", err)
	case path == "":
		r.info("nothing to export")
	default:
		r.session.AddLine("exported to "+path, console.ColorGreen, console.StyleRegular)
	}
}

// copyVisible hands the filtered scrollback to the terminal clipboard with
// an OSC 52 sequence.
func (r *REPL) copyVisible() {
	var lines []string
	for line := range r.session.Visible() {
		lines = append(lines, line.Text)
	}
	if len(lines) == 0 {
		r.info("nothing to copy")
		return
	}
	if _, err := osc52.New(strings.Join(lines, "\n")).WriteTo(r.out); err != nil {
		r.fail("copy failed: %v", err)
		return
	}
	r.info("copied %d lines to the clipboard", len(lines))
}

func (r *REPL) scanCommand(args string) {
	if r.scanner == nil {
		r.fail("function scanner is not available")
		return
	}
	sub, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)
	switch sub {
	case "start":
		// monitoring only runs while the panel is shown
		if p := r.scannerPanel(); p != nil && !p.Visible() {
			p.SetVisible(true)
		}
		r.scanner.Start()
		r.info("scanner: monitoring")
	case "stop":
		r.scanner.Stop()
		r.info("scanner: stopped")
	case "clear":
		r.scanner.Clear()
	case "include":
		r.scanner.SetWhitelist(rest)
	case "exclude":
		r.scanner.SetBlacklist(rest)
	case "show", "":
		r.showScanner()
	case "export":
		dir := rest
		if dir == "" {
			dir = r.exportDir
		}
		path, err := r.scanner.Export(dir)
		switch {
		case err != nil:
			r.fail("export failed: %v", err)
		case path == "":
			r.info("nothing to export")
		default:
			r.session.AddLine("exported to "+path, console.ColorGreen, console.StyleRegular)
		}
	default:
		r.fail("unknown .scan command %q", sub)
	}
}

func (r *REPL) scannerPanel() *panel.Scanner {
	if r.panels == nil {
		return nil
	}
	for _, n := range r.panels.Names() {
		if p, ok := r.panels.Get(n).(*panel.Scanner); ok {
			return p
		}
	}
	return nil
}

// showScanner prints the scanner table into the scrollback.
func (r *REPL) showScanner() {
	title := "Function Scanner"
	if p := r.scannerPanel(); p != nil {
		title = p.Title()
	}
	r.session.AddLine(title, console.ColorWhite, console.StyleBold)
	include, exclude := r.scanner.Filters()
	if include != "" || exclude != "" {
		r.info("include %q  exclude %q", include, exclude)
	}
	for ev := range r.scanner.Rows() {
		r.info("%-20s %-24s %s", ev.Package, ev.Caller, ev.Function)
	}
}
