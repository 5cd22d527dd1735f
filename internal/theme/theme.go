// Package theme maps console colors and font styles to terminal styles.
package theme

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/flowave-io/devconsole/internal/console"
)

// Palette is the default foreground of each console color. ColorDefault has
// no entry and renders with the terminal's own foreground.
var Palette = map[console.Color]string{
	console.ColorWhite:  "#f2f2f2",
	console.ColorGrey:   "#8a8a8a",
	console.ColorRed:    "#ff5f5f",
	console.ColorGreen:  "#5fd75f",
	console.ColorBlue:   "#5f87ff",
	console.ColorYellow: "#ffd75f",
	console.ColorOrange: "#ffaf5f",
	console.ColorPurple: "#af87ff",
}

// Theme renders styled lines for one output.
type Theme struct {
	renderer *lipgloss.Renderer
	colors   map[console.Color]lipgloss.Color

	Prompt    lipgloss.Style
	Candidate lipgloss.Style
	Selected  lipgloss.Style
}

// New builds a theme for w. overrides replaces palette entries by color.
func New(w io.Writer, overrides map[console.Color]string) *Theme {
	r := lipgloss.NewRenderer(w)
	t := &Theme{renderer: r, colors: map[console.Color]lipgloss.Color{}}
	for c, hex := range Palette {
		t.colors[c] = lipgloss.Color(hex)
	}
	for c, hex := range overrides {
		t.colors[c] = lipgloss.Color(hex)
	}
	t.Prompt = r.NewStyle().Bold(true)
	if c, ok := t.colors[console.ColorBlue]; ok {
		t.Prompt = t.Prompt.Foreground(c)
	}
	t.Candidate = r.NewStyle().Foreground(t.colors[console.ColorGrey])
	t.Selected = r.NewStyle().Reverse(true)
	return t
}

// Style returns the terminal style for a console color and font style.
func (t *Theme) Style(color console.Color, style console.Style) lipgloss.Style {
	s := t.renderer.NewStyle()
	if c, ok := t.colors[color]; ok {
		s = s.Foreground(c)
	}
	switch style {
	case console.StyleBold:
		s = s.Bold(true)
	case console.StyleItalic:
		s = s.Italic(true)
	case console.StyleBoldItalic:
		s = s.Bold(true).Italic(true)
	}
	return s
}

func (t *Theme) Line(l console.StyledLine) string {
	return t.Style(l.Color, l.Style).Render(l.Text)
}

// Candidates renders the completion popup as one row, highlighting the
// selected entry.
func (t *Theme) Candidates(cands []console.Candidate) string {
	parts := make([]string, len(cands))
	for i, c := range cands {
		if c.IsSelected {
			parts[i] = t.Selected.Render(c.Text)
		} else {
			parts[i] = t.Candidate.Render(c.Text)
		}
	}
	return strings.Join(parts, "  ")
}
