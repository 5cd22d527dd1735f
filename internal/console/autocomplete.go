package console

import (
	"strings"
)

// Buffer is the editable input line. Cursor is a byte offset into Text.
type Buffer struct {
	Text   string
	Cursor int
}

func (b *Buffer) clampCursor() {
	if b.Cursor < 0 {
		b.Cursor = 0
	}
	if b.Cursor > len(b.Text) {
		b.Cursor = len(b.Text)
	}
}

// Direction is the direction of a history key.
type Direction int

const (
	Up Direction = iota
	Down
)

// Candidate is one completion suggestion.
type Candidate struct {
	Text       string
	IsSelected bool
}

// Engine computes completion candidates for the input line and routes the
// history keys either to candidate selection or to the History.
type Engine struct {
	registry   *Registry
	history    *History
	candidates []Candidate
	selected   int
	category   CategoryID
}

// NewEngine returns an engine completing from registry and walking history.
func NewEngine(registry *Registry, history *History) *Engine {
	return &Engine{registry: registry, history: history}
}

// Candidates returns a copy of the current candidates.
func (e *Engine) Candidates() []Candidate {
	out := make([]Candidate, len(e.candidates))
	copy(out, e.candidates)
	return out
}

// SelectedIndex returns the index of the highlighted candidate. It is only
// meaningful while Candidates is non-empty.
func (e *Engine) SelectedIndex() int { return e.selected }

// Category returns the argument category of the current line.
func (e *Engine) Category() CategoryID { return e.category }

// Reset drops the candidates and the argument category.
func (e *Engine) Reset() {
	e.selected = 0
	e.category = CategoryNone
	e.candidates = e.candidates[:0]
}

// OnHistoryKey handles up/down. Without candidates it walks the history and
// replaces the whole buffer whenever the history cursor moved. With
// candidates it moves the selection, wrapping at both ends.
func (e *Engine) OnHistoryKey(buf *Buffer, dir Direction) {
	if len(e.candidates) == 0 {
		before := e.history.pos
		var entry string
		switch dir {
		case Up:
			entry = e.history.Prev()
		case Down:
			entry = e.history.Next()
		}
		if e.history.pos != before {
			buf.Text = entry
			buf.Cursor = len(entry)
		}
		return
	}

	last := len(e.candidates) - 1
	if e.selected < 0 || e.selected > last {
		e.selected = 0
	}
	switch dir {
	case Up:
		if e.selected == 0 {
			e.selected = last
		} else {
			e.selected--
		}
	case Down:
		if e.selected == last {
			e.selected = 0
		} else {
			e.selected++
		}
	}
	for i := range e.candidates {
		e.candidates[i].IsSelected = i == e.selected
	}
}

// OnCompletionKey replaces the token under the cursor with the selected
// candidate plus a trailing space and resets the engine. Without candidates
// it does nothing.
func (e *Engine) OnCompletionKey(buf *Buffer) {
	if len(e.candidates) == 0 {
		return
	}
	buf.clampCursor()
	idx := e.selected
	if idx < 0 || idx >= len(e.candidates) {
		idx = 0
	}
	insert := e.candidates[idx].Text + " "
	start, _ := tokenStart(buf.Text, buf.Cursor)
	buf.Text = buf.Text[:start] + insert + buf.Text[buf.Cursor:]
	buf.Cursor = start + len(insert)
	e.Reset()
}

// OnContentEdit recomputes the candidates after the buffer changed.
//
// The first token completes from the registered commands. A token preceded
// by a space completes from the argument category of the line's command, but
// only while the line holds a single space; past that nothing is offered and
// the state stays as left by the reset at the top of the edit.
func (e *Engine) OnContentEdit(buf *Buffer) {
	if buf.Text == "" {
		e.Reset()
		return
	}
	buf.clampCursor()
	start, isArgument := tokenStart(buf.Text, buf.Cursor)
	e.Reset()

	// an empty token still matches everything while text follows the cursor
	if buf.Text[start:] == "" && !isArgument {
		return
	}
	if !isArgument {
		e.fill(e.registry.commands, buf.Text[start:buf.Cursor])
		return
	}

	if strings.Count(buf.Text, " ") > 1 {
		return
	}
	argStart := strings.LastIndexByte(buf.Text[:buf.Cursor], ' ') + 1
	first, _, _ := strings.Cut(buf.Text, " ")
	cat, ok := argumentTriggers[first]
	if !ok {
		e.category = CategoryNone
		return
	}
	e.category = cat
	e.fill(e.registry.arguments[cat], buf.Text[argStart:buf.Cursor])
}

func (e *Engine) fill(options []string, prefix string) {
	for _, opt := range options {
		if hasPrefixFold(opt, prefix) {
			e.candidates = append(e.candidates, Candidate{Text: opt, IsSelected: len(e.candidates) == 0})
		}
	}
}

// tokenStart walks back from cursor to the nearest separator and reports
// whether that separator is a space.
func tokenStart(text string, cursor int) (start int, afterSpace bool) {
	start = cursor
	for start > 0 {
		switch text[start-1] {
		case ' ':
			return start, true
		case '\t', ',', ';':
			return start, false
		}
		start--
	}
	return start, false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
