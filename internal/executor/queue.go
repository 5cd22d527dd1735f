// Package executor runs submitted console commands off the presentation
// thread and feeds their output back to the console.
package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/flowave-io/devconsole/internal/console"
	"github.com/flowave-io/devconsole/pkg/log"
)

var (
	// ErrQueueFull is returned by Enqueue when no slot is free.
	ErrQueueFull = errors.New("executor queue is full")
	// ErrClosed is returned by Enqueue after Close.
	ErrClosed = errors.New("executor is closed")
)

const (
	DefaultQueueSize = 32
	DefaultTimeout   = 15 * time.Second
)

// Handler runs one command and returns its textual output.
type Handler interface {
	Handle(ctx context.Context, cmd console.Command) (string, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, cmd console.Command) (string, error)

func (f HandlerFunc) Handle(ctx context.Context, cmd console.Command) (string, error) {
	return f(ctx, cmd)
}

// Output receives command output. It must be safe from any goroutine;
// console.Session.Print is the usual target.
type Output func(text string, color console.Color, style console.Style)

// QueueOptions configures a Queue.
type QueueOptions struct {
	Size    int
	Timeout time.Duration
}

// Queue is a bounded single-worker executor. Enqueue never blocks.
type Queue struct {
	handler Handler
	output  Output
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan console.Command
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewQueue starts the worker goroutine.
func NewQueue(handler Handler, output Output, opts QueueOptions) *Queue {
	if opts.Size <= 0 {
		opts.Size = DefaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		handler: handler,
		output:  output,
		timeout: opts.Timeout,
		jobs:    make(chan console.Command, opts.Size),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	go q.run()
	return q
}

// Enqueue hands cmd to the worker without waiting.
func (q *Queue) Enqueue(cmd console.Command) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.jobs <- cmd:
		return nil
	default:
		log.Warn("executor queue full, dropping:", cmd.Text)
		return ErrQueueFull
	}
}

// Close stops accepting commands and waits for queued ones to finish. When
// ctx expires first the running command is cancelled and ctx.Err returned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for cmd := range q.jobs {
		q.execute(cmd)
	}
}

func (q *Queue) execute(cmd console.Command) {
	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()

	out, err := q.handler.Handle(ctx, cmd)
	if err != nil {
		log.Warn("command failed:", cmd.Text, err)
		q.output(err.Error(), console.ColorRed, console.StyleRegular)
		return
	}
	out = strings.TrimRight(out, "\r\n")
	if out == "" {
		return
	}
	for _, line := range strings.Split(out, "\n") {
		q.output(strings.TrimRight(line, "\r"), console.ColorDefault, cmd.Style)
	}
}
