package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/flowave-io/devconsole/internal/console"
	"github.com/flowave-io/devconsole/internal/panel"
	"github.com/flowave-io/devconsole/internal/scanner"
	"github.com/flowave-io/devconsole/internal/theme"
	"github.com/flowave-io/devconsole/pkg/log"
)

const prompt = ">> "

// postedBacklog bounds closures waiting for the presentation thread.
const postedBacklog = 64

// REPL drives a console session from a raw terminal. Everything that
// touches the session runs on the goroutine calling Run; other goroutines
// hand work over with Post.
type REPL struct {
	session   *console.Session
	panels    *panel.Set
	scanner   *scanner.Scanner
	theme     *theme.Theme
	out       io.Writer
	width     func() int
	exportDir string
	describe  map[string]string

	posted chan func()
	quit   bool

	buf    string
	cursor int

	// printed is the scrollback append counter already written out.
	printed   uint64
	popupRows int
}

// REPLOptions wires a REPL.
type REPLOptions struct {
	Session   *console.Session
	Panels    *panel.Set
	Scanner   *scanner.Scanner
	Theme     *theme.Theme
	Out       io.Writer
	Width     func() int
	ExportDir string
	// Descriptions is shown by .help next to command names.
	Descriptions map[string]string
}

func NewREPL(opts REPLOptions) *REPL {
	if opts.Width == nil {
		opts.Width = func() int { return 80 }
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	return &REPL{
		session:   opts.Session,
		panels:    opts.Panels,
		scanner:   opts.Scanner,
		theme:     opts.Theme,
		out:       opts.Out,
		width:     opts.Width,
		exportDir: opts.ExportDir,
		describe:  opts.Descriptions,
		posted:    make(chan func(), postedBacklog),
	}
}

// Post schedules fn on the presentation thread. It is safe from any
// goroutine and blocks only while the backlog is full.
func (r *REPL) Post(fn func()) {
	r.posted <- fn
}

// Run reads keys from in until Ctrl+D, .quit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	keys := make(chan KeyEvent)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		br := bufio.NewReader(in)
		for {
			ev, err := readKey(br)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case keys <- ev:
			case <-done:
				return
			}
		}
	}()

	r.session.SetReady(true)
	defer r.session.SetReady(false)
	r.refresh()
	for !r.quit {
		select {
		case <-ctx.Done():
			r.finish()
			return ctx.Err()
		case err := <-readErr:
			r.drainPosted()
			r.finish()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read terminal: %w", err)
		case ev := <-keys:
			r.handleKey(ev)
		case fn := <-r.posted:
			fn()
		case <-r.session.Output().Ready():
		}
		r.refresh()
	}
	r.finish()
	return nil
}

func (r *REPL) drainPosted() {
	for {
		select {
		case fn := <-r.posted:
			fn()
		default:
			return
		}
	}
}

func (r *REPL) finish() {
	r.session.Flush()
	r.printNew()
	r.clearPopup()
	r.write("\r\x1b[2K[exit]\r\n")
}

func (r *REPL) handleKey(ev KeyEvent) {
	switch ev.Key {
	case KeyRune:
		ch := string(ev.Char)
		r.buf = r.buf[:r.cursor] + ch + r.buf[r.cursor:]
		r.cursor += len(ch)
		r.edited()
	case KeyBackspace:
		if r.cursor > 0 {
			_, n := utf8.DecodeLastRuneInString(r.buf[:r.cursor])
			r.buf = r.buf[:r.cursor-n] + r.buf[r.cursor:]
			r.cursor -= n
			r.edited()
		}
	case KeyDelete:
		if r.cursor < len(r.buf) {
			_, n := utf8.DecodeRuneInString(r.buf[r.cursor:])
			r.buf = r.buf[:r.cursor] + r.buf[r.cursor+n:]
			r.edited()
		}
	case KeyLeft:
		if r.cursor > 0 {
			_, n := utf8.DecodeLastRuneInString(r.buf[:r.cursor])
			r.cursor -= n
		}
	case KeyRight:
		if r.cursor < len(r.buf) {
			_, n := utf8.DecodeRuneInString(r.buf[r.cursor:])
			r.cursor += n
		}
	case KeyHome:
		r.cursor = 0
	case KeyEnd:
		r.cursor = len(r.buf)
	case KeyTab:
		r.buf, r.cursor = r.session.OnCompletionKey(r.buf, r.cursor)
	case KeyUp:
		r.buf, r.cursor = r.session.OnHistoryKey(r.buf, r.cursor, console.Up)
	case KeyDown:
		r.buf, r.cursor = r.session.OnHistoryKey(r.buf, r.cursor, console.Down)
	case KeyEscape:
		r.session.ResetAutoComplete()
	case KeyCtrlC, KeyCtrlU:
		// Ctrl+C behaves like bash: drop the line, keep the session
		r.buf, r.cursor = "", 0
		r.session.ResetAutoComplete()
		r.session.History().ResetCursor()
	case KeyCtrlD:
		r.quit = true
	case KeyCtrlL:
		r.redrawAll()
	case KeyEnter:
		line := strings.TrimSpace(r.buf)
		r.buf, r.cursor = "", 0
		r.session.ResetAutoComplete()
		if line == "" {
			return
		}
		r.submit(line)
	}
}

func (r *REPL) edited() {
	r.buf, r.cursor = r.session.OnContentEdit(r.buf, r.cursor)
}

func (r *REPL) submit(line string) {
	if strings.HasPrefix(line, ".") {
		r.session.History().ResetCursor()
		r.session.History().Record(line)
		r.dotCommand(line)
		return
	}
	if err := r.session.Submit(line, console.StyleRegular); err != nil {
		log.Warn("submit:", err)
	}
}

// refresh moves queued output into the scrollback, prints what is new and
// redraws the prompt.
func (r *REPL) refresh() {
	r.session.Flush()
	r.printNew()
	r.render()
}

func (r *REPL) printNew() {
	logb := r.session.Log()
	appended := logb.Appended()
	n := appended - r.printed
	if n == 0 {
		return
	}
	r.printed = appended
	if n > uint64(logb.Len()) {
		n = uint64(logb.Len())
	}
	r.clearPopup()
	r.write("\r\x1b[2K")
	filter := r.session.DisplayFilter()
	for line := range logb.Tail(int(n)) {
		if !filter.Passes(line.Text) {
			continue
		}
		r.write(r.theme.Line(line) + "\r\n")
	}
}

// redrawAll clears the screen and prints the visible scrollback.
func (r *REPL) redrawAll() {
	r.popupRows = 0
	r.write("\x1b[2J\x1b[H")
	for line := range r.session.Visible() {
		r.write(r.theme.Line(line) + "\r\n")
	}
	r.printed = r.session.Log().Appended()
}

func (r *REPL) render() {
	r.clearPopup()
	r.write("\r\x1b[2K" + r.theme.Prompt.Render(prompt) + r.buf)
	if cands := r.session.Candidates(); len(cands) > 0 {
		r.write("\r\n\x1b[2K" + r.popupLine(cands) + "\x1b[1A")
		r.popupRows = 1
	}
	r.write("\r")
	if col := len(prompt) + runewidth.StringWidth(r.buf[:r.cursor]); col > 0 {
		r.write(fmt.Sprintf("\x1b[%dC", col))
	}
}

// popupLine keeps as many candidates as fit the terminal width, always
// including the selected one.
func (r *REPL) popupLine(cands []console.Candidate) string {
	width := r.width()
	start := 0
	if sel := r.session.SelectedIndex(); sel > 0 {
		used := 0
		for i := sel; i >= 0; i-- {
			used += runewidth.StringWidth(cands[i].Text) + 2
			if used > width {
				break
			}
			start = i
		}
	}
	used := 0
	end := start
	for end < len(cands) {
		used += runewidth.StringWidth(cands[end].Text) + 2
		if used > width && end > start {
			break
		}
		end++
	}
	return r.theme.Candidates(cands[start:end])
}

func (r *REPL) clearPopup() {
	if r.popupRows == 0 {
		return
	}
	r.write("\x1b[1B\r\x1b[2K\x1b[1A")
	r.popupRows = 0
}

func (r *REPL) write(s string) {
	_, _ = io.WriteString(r.out, s)
}

// info and fail print presentation-thread messages into the scrollback.
func (r *REPL) info(format string, args ...any) {
	r.session.AddLine(fmt.Sprintf(format, args...), console.ColorGrey, console.StyleRegular)
}

func (r *REPL) fail(format string, args ...any) {
	r.session.AddLine(fmt.Sprintf(format, args...), console.ColorRed, console.StyleRegular)
}

// OnToggle reports panel visibility changes. It runs on the presentation
// thread since toggles are posted there.
func (r *REPL) OnToggle(name string, visible bool) {
	if !visible {
		r.info("[%s] hidden", name)
		return
	}
	r.info("[%s] shown", name)
	if p := r.scannerPanel(); p != nil && p.Name() == name {
		r.showScanner()
	}
}
