package console

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/flowave-io/devconsole/internal/dump"
)

// EchoPrefix marks a submitted command when it is echoed into the scrollback.
const EchoPrefix = "# "

// EchoColor is the color of echoed commands.
const EchoColor = ColorYellow

// ErrDetached is returned when a detached session is asked to submit.
var ErrDetached = errors.New("console session is detached")

// Command is a submitted line handed to the Executor.
type Command struct {
	Text  string
	Style Style
}

// Executor runs submitted commands away from the presentation thread.
// Enqueue must not block; output comes back through Session.Print.
type Executor interface {
	Enqueue(cmd Command) error
}

// Options configures a Session.
type Options struct {
	// Scrollback is the capacity of the console log.
	Scrollback int
	// HistorySize is the capacity of the command history.
	HistorySize int
	// Now stamps export file names. Defaults to time.Now.
	Now func() time.Time
}

// Session is the console's input state. Everything except Print must be
// called from the presentation thread.
type Session struct {
	log      *BoundedLog
	history  *History
	registry *Registry
	engine   *Engine
	queue    *OutputQueue
	display  *TextFilter
	executor Executor
	opts     Options

	attached bool
	ready    bool
}

// NewSession builds a detached session that submits to executor.
func NewSession(executor Executor, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	registry := NewRegistry()
	history := NewHistory(opts.HistorySize)
	return &Session{
		log:      NewBoundedLog(opts.Scrollback),
		history:  history,
		registry: registry,
		engine:   NewEngine(registry, history),
		queue:    NewOutputQueue(),
		display:  NewTextFilter(""),
		executor: executor,
		opts:     opts,
	}
}

// Attach readies the session for input.
func (s *Session) Attach() {
	s.history.ResetCursor()
	s.engine.Reset()
	s.attached = true
}

// Detach clears the scrollback, history, registered commands and
// candidates. The containers survive for the next Attach.
func (s *Session) Detach() {
	if !s.attached {
		return
	}
	s.registry.ClearCommands()
	s.log.Clear()
	s.history.Clear()
	s.engine.Reset()
	s.attached = false
}

// Attached reports whether the session accepts input.
func (s *Session) Attached() bool { return s.attached }

// Registry returns the command registry used for completion.
func (s *Session) Registry() *Registry { return s.registry }

// Log returns the scrollback.
func (s *Session) Log() *BoundedLog { return s.log }

// History returns the command history.
func (s *Session) History() *History { return s.history }

// Engine returns the completion engine.
func (s *Session) Engine() *Engine { return s.engine }

// Output returns the queue fed by Print.
func (s *Session) Output() *OutputQueue { return s.queue }

// SetScrollback changes the scrollback capacity. Sizes above MaxCapacity
// are rejected and reported as false.
func (s *Session) SetScrollback(n int) bool { return s.log.SetCapacity(n) }

// SetHistorySize changes the command history capacity, with the same cap.
func (s *Session) SetHistorySize(n int) bool { return s.history.SetCapacity(n) }

// SetDisplayFilter changes the scrollback display filter.
func (s *Session) SetDisplayFilter(expr string) { s.display.Set(expr) }

// DisplayFilter returns the scrollback display filter.
func (s *Session) DisplayFilter() *TextFilter { return s.display }

// Visible yields the scrollback lines passing the display filter.
func (s *Session) Visible() iter.Seq[StyledLine] {
	return func(yield func(StyledLine) bool) {
		for line := range s.log.All() {
			if !s.display.Passes(line.Text) {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// OnHistoryKey handles up/down for the input line.
func (s *Session) OnHistoryKey(text string, cursor int, dir Direction) (string, int) {
	buf := Buffer{Text: text, Cursor: cursor}
	s.engine.OnHistoryKey(&buf, dir)
	return buf.Text, buf.Cursor
}

// OnCompletionKey handles tab for the input line.
func (s *Session) OnCompletionKey(text string, cursor int) (string, int) {
	buf := Buffer{Text: text, Cursor: cursor}
	s.engine.OnCompletionKey(&buf)
	return buf.Text, buf.Cursor
}

// OnContentEdit recomputes candidates after the input line changed.
func (s *Session) OnContentEdit(text string, cursor int) (string, int) {
	buf := Buffer{Text: text, Cursor: cursor}
	s.engine.OnContentEdit(&buf)
	return buf.Text, buf.Cursor
}

// Candidates returns the current completion candidates.
func (s *Session) Candidates() []Candidate { return s.engine.Candidates() }

// SelectedIndex returns the highlighted candidate index.
func (s *Session) SelectedIndex() int { return s.engine.SelectedIndex() }

// ResetAutoComplete drops candidates and the argument category.
func (s *Session) ResetAutoComplete() { s.engine.Reset() }

// Submit echoes command into the scrollback, records it in the history and
// hands it to the executor without waiting for it. A refused command is
// reported in the scrollback and returned; the session stays usable.
func (s *Session) Submit(command string, style Style) error {
	if !s.attached {
		return ErrDetached
	}
	s.engine.Reset()
	s.AddLine(EchoPrefix+command, EchoColor, style)
	s.history.ResetCursor()
	s.history.Record(command)
	if s.executor == nil {
		return nil
	}
	if err := s.executor.Enqueue(Command{Text: command, Style: style}); err != nil {
		s.AddLine(fmt.Sprintf("command not dispatched: %v", err), ColorRed, StyleRegular)
		return fmt.Errorf("submit %q: %w", command, err)
	}
	return nil
}

// AddLine appends directly to the scrollback.
func (s *Session) AddLine(text string, color Color, style Style) {
	s.log.Append(StyledLine{Text: text, Color: color, Style: style})
}

// Print queues a line for display. It is safe from any goroutine; the line
// reaches the scrollback on the next Flush once the session is ready.
func (s *Session) Print(text string, color Color, style Style) {
	s.queue.Push(text, color, style)
}

// SetReady marks whether the display is able to show lines.
func (s *Session) SetReady(ready bool) { s.ready = ready }

// Ready reports whether queued lines are being replayed.
func (s *Session) Ready() bool { return s.ready }

// Flush replays queued lines into the scrollback in FIFO order. It does
// nothing until the session is ready and returns how many lines it moved.
func (s *Session) Flush() int {
	if !s.ready {
		return 0
	}
	queued := s.queue.Drain()
	for _, q := range queued {
		s.AddLine(q.Line.Text, q.ColorID, q.Line.Style)
	}
	return len(queued)
}

// Export writes the scrollback to ConsoleDump_<unix>.txt in dir and returns
// the path written. An empty scrollback writes nothing.
func (s *Session) Export(dir string) (string, error) {
	if s.log.Len() == 0 {
		return "", nil
	}
	texts := func(yield func(string) bool) {
		for line := range s.log.All() {
			if !yield(line.Text) {
				return
			}
		}
	}
	return dump.WriteLines(dir, "ConsoleDump", s.opts.Now(), texts)
}
