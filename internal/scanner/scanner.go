// Package scanner keeps a filtered table of function calls reported by the
// host while monitoring is switched on.
package scanner

import (
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/flowave-io/devconsole/internal/console"
	"github.com/flowave-io/devconsole/internal/dump"
)

// Event is one observed call.
type Event struct {
	FullName string
	Package  string
	Caller   string
	Function string
}

// Scanner records events. Observe may be called from any goroutine.
type Scanner struct {
	mu       sync.Mutex
	filter   *console.FilterPair
	events   []Event
	scanning bool
	now      func() time.Time
}

// New returns a stopped scanner with inactive filters.
func New() *Scanner {
	return &Scanner{filter: console.NewFilterPair(), now: time.Now}
}

// Start switches monitoring on.
func (s *Scanner) Start() {
	s.mu.Lock()
	s.scanning = true
	s.mu.Unlock()
}

// Stop switches monitoring off. Recorded rows are kept.
func (s *Scanner) Stop() {
	s.mu.Lock()
	s.scanning = false
	s.mu.Unlock()
}

func (s *Scanner) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Observe records ev if monitoring is on and the filters accept its full
// name. It reports whether the event was kept.
func (s *Scanner) Observe(ev Event) bool {
	if ev.FullName == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scanning || !s.filter.Accepts(ev.FullName) {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

// Len counts every recorded row, filtered or not.
func (s *Scanner) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// SetWhitelist changes the include filter, e.g. "Engine,-Tick".
func (s *Scanner) SetWhitelist(expr string) {
	s.mu.Lock()
	s.filter.Whitelist.Set(expr)
	s.mu.Unlock()
}

// SetBlacklist changes the exclude filter.
func (s *Scanner) SetBlacklist(expr string) {
	s.mu.Lock()
	s.filter.Blacklist.Set(expr)
	s.mu.Unlock()
}

// Filters returns the current whitelist and blacklist expressions.
func (s *Scanner) Filters() (whitelist, blacklist string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Whitelist.Expr(), s.filter.Blacklist.Expr()
}

// Rows yields the recorded rows that pass the current filters. The filters
// may have changed since a row was recorded.
func (s *Scanner) Rows() iter.Seq[Event] {
	s.mu.Lock()
	rows := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		if s.filter.Accepts(ev.FullName) {
			rows = append(rows, ev)
		}
	}
	s.mu.Unlock()
	return slices.Values(rows)
}

func (s *Scanner) Clear() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

// Export writes every recorded full name to FunctionDump_<unix>.txt in dir.
// Nothing is written when the table is empty.
func (s *Scanner) Export(dir string) (string, error) {
	s.mu.Lock()
	names := make([]string, len(s.events))
	for i, ev := range s.events {
		names[i] = ev.FullName
	}
	at := s.now()
	s.mu.Unlock()

	if len(names) == 0 {
		return "", nil
	}
	lines := func(yield func(string) bool) {
		for _, n := range names {
			if !yield(n) {
				return
			}
		}
	}
	return dump.WriteLines(dir, "FunctionDump", at, lines)
}
