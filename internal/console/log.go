package console

import (
	"iter"
)

// MaxCapacity is the hard cap for scrollback and history capacities.
const MaxCapacity = 5120

// DefaultScrollback is the scrollback capacity of a freshly attached session.
const DefaultScrollback = 256

// Color is the semantic color of a console line.
type Color int

const (
	ColorDefault Color = iota
	ColorWhite
	ColorGrey
	ColorRed
	ColorGreen
	ColorBlue
	ColorYellow
	ColorOrange
	ColorPurple
)

var colorNames = map[Color]string{
	ColorDefault: "default",
	ColorWhite:   "white",
	ColorGrey:    "grey",
	ColorRed:     "red",
	ColorGreen:   "green",
	ColorBlue:    "blue",
	ColorYellow:  "yellow",
	ColorOrange:  "orange",
	ColorPurple:  "purple",
}

func (c Color) String() string {
	if n, ok := colorNames[c]; ok {
		return n
	}
	return "default"
}

// ParseColor maps a color name back to its Color.
func ParseColor(name string) (Color, bool) {
	for c, n := range colorNames {
		if n == name {
			return c, true
		}
	}
	return ColorDefault, false
}

// Style is the font style of a console line. It doubles as the style tag
// handed to the executor with a submitted command.
type Style int

const (
	StyleRegular Style = iota
	StyleItalic
	StyleBold
	StyleBoldItalic
)

func (s Style) String() string {
	switch s {
	case StyleItalic:
		return "italic"
	case StyleBold:
		return "bold"
	case StyleBoldItalic:
		return "bold-italic"
	default:
		return "regular"
	}
}

// StyledLine is one immutable scrollback entry.
type StyledLine struct {
	Text  string
	Color Color
	Style Style
}

// BoundedLog is an insertion-ordered scrollback holding at most Capacity
// lines. Appending to a full log drops the oldest line.
type BoundedLog struct {
	lines    []StyledLine
	capacity int
	appended uint64
}

// NewBoundedLog returns an empty log. capacity is clamped to [1, MaxCapacity].
func NewBoundedLog(capacity int) *BoundedLog {
	if capacity <= 0 {
		capacity = DefaultScrollback
	}
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}
	return &BoundedLog{capacity: capacity}
}

// Append adds line at the tail. When the log is full every entry shifts one
// slot toward the head and line overwrites the last slot. A log left above
// capacity by SetCapacity is trimmed to capacity here.
func (l *BoundedLog) Append(line StyledLine) {
	l.appended++
	l.lines = appendBounded(l.lines, l.capacity, line)
}

func appendBounded[T any](s []T, capacity int, v T) []T {
	n := len(s)
	if n < capacity {
		return append(s, v)
	}
	keep := capacity - 1
	copy(s, s[n-keep:])
	clear(s[keep:])
	return append(s[:keep], v)
}

// SetCapacity changes the capacity. Requests above MaxCapacity are rejected
// and leave the log untouched. Shrinking does not truncate: existing lines
// stay until an overflowing append trims them.
func (l *BoundedLog) SetCapacity(n int) bool {
	if n <= 0 || n > MaxCapacity {
		return false
	}
	l.capacity = n
	return true
}

// Capacity returns the configured capacity.
func (l *BoundedLog) Capacity() int { return l.capacity }

// Len returns the number of lines held.
func (l *BoundedLog) Len() int { return len(l.lines) }

// Appended returns how many lines were ever appended. Renderers use it to
// find lines they have not shown yet.
func (l *BoundedLog) Appended() uint64 { return l.appended }

// Clear drops every line. The appended counter keeps running.
func (l *BoundedLog) Clear() {
	clear(l.lines)
	l.lines = l.lines[:0]
}

// All yields the lines oldest first. Each call starts a fresh iteration.
func (l *BoundedLog) All() iter.Seq[StyledLine] {
	return func(yield func(StyledLine) bool) {
		for _, line := range l.lines {
			if !yield(line) {
				return
			}
		}
	}
}

// Tail yields the last n lines oldest first.
func (l *BoundedLog) Tail(n int) iter.Seq[StyledLine] {
	if n > len(l.lines) {
		n = len(l.lines)
	}
	if n < 0 {
		n = 0
	}
	start := len(l.lines) - n
	return func(yield func(StyledLine) bool) {
		for _, line := range l.lines[start:] {
			if !yield(line) {
				return
			}
		}
	}
}
