// Package panel holds the console's toggleable panels and the set that
// exposes their names to imgui_toggle completion.
package panel

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/flowave-io/devconsole/internal/console"
	"github.com/flowave-io/devconsole/internal/scanner"
)

// ErrUnknownPanel is returned when a name matches no panel in the set.
var ErrUnknownPanel = errors.New("unknown panel")

// ToggleFunc is told whenever a panel is shown or hidden.
type ToggleFunc func(name string, visible bool)

// Panel is implemented by Terminal and Scanner.
type Panel interface {
	Name() string
	Title() string
	Attach()
	Detach()
	Attached() bool
	// Visible reports whether the panel is attached and shown.
	Visible() bool
	SetVisible(visible bool)
	Toggle()
}

type base struct {
	name     string
	title    string
	attached bool
	shown    bool
	onToggle ToggleFunc
}

func (b *base) Name() string   { return b.name }
func (b *base) Attached() bool { return b.attached }
func (b *base) Visible() bool  { return b.attached && b.shown }

func (b *base) setVisible(visible bool) {
	b.shown = visible
	if b.onToggle != nil {
		b.onToggle(b.name, visible)
	}
}

// Terminal is the console panel. Its lifecycle drives the session.
type Terminal struct {
	base
	session *console.Session
}

func NewTerminal(name, title string, session *console.Session, onToggle ToggleFunc) *Terminal {
	return &Terminal{base: base{name: name, title: title, onToggle: onToggle}, session: session}
}

func (t *Terminal) Title() string { return t.title }

func (t *Terminal) Attach() {
	t.session.Attach()
	t.attached = true
}

// Detach clears the session's commands, scrollback and history.
func (t *Terminal) Detach() {
	if !t.attached {
		return
	}
	t.session.Detach()
	t.attached = false
}

func (t *Terminal) SetVisible(visible bool) { t.setVisible(visible) }
func (t *Terminal) Toggle()                 { t.setVisible(!t.shown) }

// Scanner shows a scanner table. Hiding it stops monitoring.
type Scanner struct {
	base
	scanner *scanner.Scanner
}

func NewScanner(name, title string, sc *scanner.Scanner, onToggle ToggleFunc) *Scanner {
	return &Scanner{base: base{name: name, title: title, onToggle: onToggle}, scanner: sc}
}

// Title includes the row count once anything was recorded.
func (s *Scanner) Title() string {
	if n := s.scanner.Len(); n > 0 {
		return s.title + " - " + strconv.Itoa(n) + " Functions"
	}
	return s.title
}

func (s *Scanner) Attach() {
	s.scanner.Stop()
	s.attached = true
}

func (s *Scanner) Detach() {
	if !s.attached {
		return
	}
	s.scanner.Stop()
	s.attached = false
}

func (s *Scanner) SetVisible(visible bool) {
	if !visible {
		s.scanner.Stop()
	}
	s.setVisible(visible)
}

func (s *Scanner) Toggle() { s.SetVisible(!s.shown) }

// Table returns the scanner behind the panel.
func (s *Scanner) Table() *scanner.Scanner { return s.scanner }

// Set is an ordered collection of panels with unique names.
type Set struct {
	registry *console.Registry
	panels   []Panel
}

// NewSet registers every panel name as an interfaces argument in registry.
func NewSet(registry *console.Registry, panels ...Panel) (*Set, error) {
	s := &Set{registry: registry}
	for _, p := range panels {
		if err := s.Add(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends p and makes its name completable.
func (s *Set) Add(p Panel) error {
	if s.Get(p.Name()) != nil {
		return fmt.Errorf("panel %q already registered", p.Name())
	}
	s.panels = append(s.panels, p)
	s.registry.AddArgument(console.CategoryInterfaces, p.Name())
	return nil
}

// Remove detaches the named panel and drops it from completion.
func (s *Set) Remove(name string) error {
	for i, p := range s.panels {
		if p.Name() != name {
			continue
		}
		p.Detach()
		s.panels = append(s.panels[:i], s.panels[i+1:]...)
		s.registry.RemoveArgument(console.CategoryInterfaces, name)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownPanel, name)
}

func (s *Set) Get(name string) Panel {
	for _, p := range s.panels {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Toggle flips the visibility of the named panel.
func (s *Set) Toggle(name string) error {
	p := s.Get(name)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPanel, name)
	}
	p.Toggle()
	return nil
}

// Names lists panel names in registration order.
func (s *Set) Names() []string {
	out := make([]string, len(s.panels))
	for i, p := range s.panels {
		out[i] = p.Name()
	}
	return out
}

func (s *Set) AttachAll() {
	for _, p := range s.panels {
		p.Attach()
	}
}

func (s *Set) DetachAll() {
	for _, p := range s.panels {
		p.Detach()
	}
}

// RegisterNames re-adds every panel name to the interfaces arguments, for
// use after the registry content was replaced.
func (s *Set) RegisterNames() {
	for _, p := range s.panels {
		if !slices.Contains(s.registry.Arguments(console.CategoryInterfaces), p.Name()) {
			s.registry.AddArgument(console.CategoryInterfaces, p.Name())
		}
	}
}
