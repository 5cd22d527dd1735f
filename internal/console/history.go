package console

// DefaultHistorySize is the number of submitted commands remembered.
const DefaultHistorySize = 64

// notBrowsing is the cursor value outside of history navigation.
const notBrowsing = -1

// History is a bounded list of submitted commands with an index-based walk.
// It follows the same shift-on-overflow policy as BoundedLog.
type History struct {
	entries  []string
	capacity int
	pos      int
}

// NewHistory returns an empty history. capacity is clamped to
// [1, MaxCapacity]; zero or negative selects DefaultHistorySize.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}
	return &History{capacity: capacity, pos: notBrowsing}
}

// Record appends command, dropping the oldest entry when full.
func (h *History) Record(command string) {
	h.entries = appendBounded(h.entries, h.capacity, command)
}

// SetCapacity changes the capacity; requests above MaxCapacity are rejected.
func (h *History) SetCapacity(n int) bool {
	if n <= 0 || n > MaxCapacity {
		return false
	}
	h.capacity = n
	return true
}

// ResetCursor leaves browsing mode.
func (h *History) ResetCursor() { h.pos = notBrowsing }

// Browsing reports whether the cursor points into the history.
func (h *History) Browsing() bool { return h.pos != notBrowsing }

// Prev steps toward older entries. The first call after a reset lands on the
// newest entry; at the oldest entry further calls stay there. An empty
// history yields "" and stays out of browsing mode.
func (h *History) Prev() string {
	if len(h.entries) == 0 {
		return ""
	}
	if h.pos == notBrowsing {
		h.pos = len(h.entries) - 1
	} else if h.pos > 0 {
		h.pos--
	}
	return h.entries[h.pos]
}

// Next steps toward newer entries. Stepping past the newest entry leaves
// browsing mode and yields "".
func (h *History) Next() string {
	if h.pos == notBrowsing {
		return ""
	}
	h.pos++
	if h.pos >= len(h.entries) {
		h.pos = notBrowsing
		return ""
	}
	return h.entries[h.pos]
}

// Entries returns a copy of the history, oldest first.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Clear drops every entry and resets the cursor.
func (h *History) Clear() {
	h.entries = h.entries[:0]
	h.pos = notBrowsing
}
