package console

import (
	"sync"
)

// QueuedLine is a line produced before the console could display it. ColorID
// keeps the requested color so the line is replayed exactly as asked.
type QueuedLine struct {
	Line    StyledLine
	ColorID Color
}

// OutputQueue buffers lines produced off the presentation thread. Push is
// safe from any goroutine; Drain hands back everything queued in FIFO order.
type OutputQueue struct {
	mu    sync.Mutex
	lines []QueuedLine
	// notify receives a token whenever the queue goes from empty to non-empty
	notify chan struct{}
}

// NewOutputQueue returns an empty queue.
func NewOutputQueue() *OutputQueue {
	return &OutputQueue{notify: make(chan struct{}, 1)}
}

// Push appends a line to the queue.
func (q *OutputQueue) Push(text string, color Color, style Style) {
	q.mu.Lock()
	q.lines = append(q.lines, QueuedLine{
		Line:    StyledLine{Text: text, Color: color, Style: style},
		ColorID: color,
	})
	wasEmpty := len(q.lines) == 1
	q.mu.Unlock()
	if wasEmpty {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
}

// Drain removes and returns every queued line.
func (q *OutputQueue) Drain() []QueuedLine {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.lines
	q.lines = nil
	return out
}

// Len returns the number of queued lines.
func (q *OutputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}

// Ready returns a channel signalled when lines become available. Renderers
// select on it to wake up without polling.
func (q *OutputQueue) Ready() <-chan struct{} { return q.notify }
