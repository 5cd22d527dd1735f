package cli

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/flowave-io/devconsole/internal/console"
	"github.com/flowave-io/devconsole/pkg/log"
)

// Completer adapts the session's completion engine to readline. Every
// session access goes through mu, which the line loop shares.
type Completer struct {
	mu      *sync.Mutex
	session *console.Session
}

func NewCompleter(mu *sync.Mutex, session *console.Session) *Completer {
	return &Completer{mu: mu, session: session}
}

// Do implements readline.AutoCompleter. It returns the remainder of each
// candidate past the typed token, and the token length.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := string(line)
	cursor := len(string(line[:pos]))
	c.session.OnContentEdit(text, cursor)
	cands := c.session.Candidates()
	c.session.ResetAutoComplete()
	if len(cands) == 0 {
		return nil, 0
	}
	start := strings.LastIndexAny(text[:cursor], " \t,;") + 1
	token := text[start:cursor]
	out := make([][]rune, 0, len(cands))
	for _, cand := range cands {
		out = append(out, []rune(cand.Text[len(token):]+" "))
	}
	return out, len([]rune(token))
}

// RunReadline is the line-editor front end for terminals where raw key
// handling misbehaves. Input history and editing are readline's; submission,
// scrollback and completion stay with the session. A nil in reads the
// terminal; any other reader is read as plain lines.
func (r *REPL) RunReadline(ctx context.Context, in io.Reader) error {
	var mu sync.Mutex
	cfg := &readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "[exit]",
		HistoryLimit:    console.DefaultHistorySize,
		AutoComplete:    NewCompleter(&mu, r.session),
	}
	if in != nil {
		cfg.Stdin = io.NopCloser(in)
		cfg.Stdout = r.out
		cfg.FuncIsTerminal = func() bool { return false }
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	defer rl.Close()
	r.out = rl.Stdout()

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go readLines(rl, lines, readErr, done)

	mu.Lock()
	r.session.SetReady(true)
	mu.Unlock()
	defer func() {
		mu.Lock()
		r.session.SetReady(false)
		mu.Unlock()
	}()
	for !r.quit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, readline.ErrInterrupt) {
				go readLines(rl, lines, readErr, done)
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case line := <-lines:
			mu.Lock()
			if line = strings.TrimSpace(line); line != "" {
				r.submit(line)
			}
			mu.Unlock()
		case fn := <-r.posted:
			mu.Lock()
			fn()
			mu.Unlock()
		case <-r.session.Output().Ready():
		}
		mu.Lock()
		r.session.Flush()
		r.printPlain()
		mu.Unlock()
		rl.Refresh()
	}
	return nil
}

// readLines feeds lines until readline fails or done closes; Ctrl+C also
// ends it and the caller starts a new reader.
func readLines(rl *readline.Instance, lines chan<- string, readErr chan<- error, done <-chan struct{}) {
	for {
		line, err := rl.Readline()
		if err != nil {
			select {
			case readErr <- err:
			case <-done:
			}
			return
		}
		select {
		case lines <- line:
		case <-done:
			return
		}
	}
}

// printPlain writes new scrollback lines without touching the prompt;
// readline redraws it.
func (r *REPL) printPlain() {
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
	filter := r.session.DisplayFilter()
	for line := range logb.Tail(int(n)) {
		if filter.Passes(line.Text) {
			if _, err := io.WriteString(r.out, r.theme.Line(line)+"\n"); err != nil {
				log.Warn("write scrollback:", err)
				return
			}
		}
	}
}
