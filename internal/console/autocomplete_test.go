package console

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine() (*Engine, *Registry, *History) {
	r := NewRegistry()
	r.AddCommand("imgui_toggle")
	r.AddCommand("imgui_reset")
	r.AddCommand("echo")
	r.AddArgument(CategoryInterfaces, "terminal")
	r.AddArgument(CategoryInterfaces, "textwindow")
	r.AddArgument(CategoryInterfaces, "scanner")
	h := NewHistory(DefaultHistorySize)
	return NewEngine(r, h), r, h
}

func edit(e *Engine, text string) *Buffer {
	buf := &Buffer{Text: text, Cursor: len(text)}
	e.OnContentEdit(buf)
	return buf
}

func candidateTexts(e *Engine) []string {
	var out []string
	for _, c := range e.Candidates() {
		out = append(out, c.Text)
	}
	return out
}

func TestEngine_CommandCompletion(t *testing.T) {
	e, _, _ := newTestEngine()

	buf := edit(e, "imgui_tog")
	require.Equal(t, []string{"imgui_toggle"}, candidateTexts(e))
	require.True(t, e.Candidates()[0].IsSelected)

	e.OnCompletionKey(buf)
	require.Equal(t, "imgui_toggle ", buf.Text)
	require.Equal(t, 13, buf.Cursor)
	require.Empty(t, e.Candidates())
}

func TestEngine_CommandPrefixIsCaseInsensitive(t *testing.T) {
	e, _, _ := newTestEngine()
	edit(e, "IMGUI_")
	require.Equal(t, []string{"imgui_toggle", "imgui_reset"}, candidateTexts(e))

	c := e.Candidates()
	require.True(t, c[0].IsSelected)
	require.False(t, c[1].IsSelected)
}

func TestEngine_ArgumentCompletion(t *testing.T) {
	e, _, _ := newTestEngine()

	buf := edit(e, "imgui_toggle te")
	require.Equal(t, []string{"terminal", "textwindow"}, candidateTexts(e))
	require.Equal(t, CategoryInterfaces, e.Category())

	e.OnHistoryKey(buf, Down)
	e.OnCompletionKey(buf)
	require.Equal(t, "imgui_toggle textwindow ", buf.Text)
	require.Equal(t, len(buf.Text), buf.Cursor)
	require.Equal(t, CategoryNone, e.Category())
}

func TestEngine_ArgumentPositionEmptyToken(t *testing.T) {
	e, _, _ := newTestEngine()
	edit(e, "imgui_toggle ")
	require.Equal(t, []string{"terminal", "textwindow", "scanner"}, candidateTexts(e))
}

func TestEngine_MultiSpaceGuard(t *testing.T) {
	e, _, _ := newTestEngine()
	edit(e, "imgui_toggle te")
	require.NotEmpty(t, e.Candidates())

	edit(e, "imgui_toggle te x")
	require.Empty(t, e.Candidates())
	require.Equal(t, CategoryNone, e.Category())
}

func TestEngine_UnknownTrigger(t *testing.T) {
	e, _, _ := newTestEngine()
	edit(e, "echo te")
	require.Empty(t, e.Candidates())
	require.Equal(t, CategoryNone, e.Category())
}

func TestEngine_EmptyBufferResets(t *testing.T) {
	e, _, _ := newTestEngine()
	edit(e, "im")
	require.NotEmpty(t, e.Candidates())

	edit(e, "")
	require.Empty(t, e.Candidates())
}

func TestEngine_TokenAfterSeparator(t *testing.T) {
	e, _, _ := newTestEngine()
	// a token after ';' is still a first token
	buf := edit(e, "echo;im")
	require.Equal(t, []string{"imgui_toggle", "imgui_reset"}, candidateTexts(e))

	e.OnCompletionKey(buf)
	require.Equal(t, "echo;imgui_toggle ", buf.Text)
}

func TestEngine_CursorInsideLine(t *testing.T) {
	e, _, _ := newTestEngine()
	buf := &Buffer{Text: "ecXYZ", Cursor: 2}
	e.OnContentEdit(buf)
	require.Equal(t, []string{"echo"}, candidateTexts(e))

	e.OnCompletionKey(buf)
	require.Equal(t, "echo XYZ", buf.Text)
	require.Equal(t, 5, buf.Cursor)
}

func TestEngine_EmptyTokenBeforeText(t *testing.T) {
	all := []string{"imgui_toggle", "imgui_reset", "echo"}
	for _, tc := range []struct {
		name string
		buf  Buffer
		want []string
	}{
		{"cursor at start", Buffer{Text: "abc", Cursor: 0}, all},
		{"cursor after separator", Buffer{Text: "echo;x", Cursor: 5}, all},
		{"separator at end", Buffer{Text: "echo;", Cursor: 5}, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e, _, _ := newTestEngine()
			buf := tc.buf
			e.OnContentEdit(&buf)
			require.Equal(t, tc.want, candidateTexts(e))
		})
	}
}

func TestEngine_CandidateSelectionWraps(t *testing.T) {
	e, _, _ := newTestEngine()
	buf := edit(e, "imgui_toggle ")

	e.OnHistoryKey(buf, Up)
	require.Equal(t, 2, e.SelectedIndex())
	e.OnHistoryKey(buf, Down)
	require.Equal(t, 0, e.SelectedIndex())
	e.OnHistoryKey(buf, Down)
	require.Equal(t, 1, e.SelectedIndex())

	selected := 0
	for _, c := range e.Candidates() {
		if c.IsSelected {
			selected++
		}
	}
	require.Equal(t, 1, selected)
	require.True(t, e.Candidates()[1].IsSelected)
	require.Equal(t, "imgui_toggle ", buf.Text)
}

func TestEngine_HistoryKeysWithoutCandidates(t *testing.T) {
	e, _, h := newTestEngine()
	h.Record("echo one")
	h.Record("echo two")

	buf := &Buffer{}
	e.OnHistoryKey(buf, Up)
	require.Equal(t, "echo two", buf.Text)
	require.Equal(t, len("echo two"), buf.Cursor)

	e.OnHistoryKey(buf, Up)
	require.Equal(t, "echo one", buf.Text)

	e.OnHistoryKey(buf, Down)
	require.Equal(t, "echo two", buf.Text)

	e.OnHistoryKey(buf, Down)
	require.Equal(t, "", buf.Text)
	require.Zero(t, buf.Cursor)
}

func TestEngine_DownOutsideHistoryKeepsBuffer(t *testing.T) {
	e, _, h := newTestEngine()
	h.Record("echo one")

	buf := &Buffer{Text: "draft", Cursor: 5}
	e.OnHistoryKey(buf, Down)
	require.Equal(t, "draft", buf.Text)
}

func TestEngine_CompletionWithoutCandidatesIsNoop(t *testing.T) {
	e, _, _ := newTestEngine()
	buf := &Buffer{Text: "zzz", Cursor: 3}
	e.OnContentEdit(buf)
	e.OnCompletionKey(buf)
	require.Equal(t, "zzz", buf.Text)
	require.Equal(t, 3, buf.Cursor)
}

func TestEngine_ResetIdempotent(t *testing.T) {
	e, _, _ := newTestEngine()
	edit(e, "imgui_toggle t")
	e.Reset()
	once := *e
	e.Reset()

	require.Empty(t, e.Candidates())
	require.Equal(t, CategoryNone, e.Category())
	require.Zero(t, e.SelectedIndex())
	require.Equal(t, once.selected, e.selected)
	require.Equal(t, once.category, e.category)
	require.Equal(t, len(once.candidates), len(e.candidates))
}

func TestEngine_SeesRegistryChanges(t *testing.T) {
	e, r, _ := newTestEngine()
	r.AddCommand("imgui_demo")
	edit(e, "imgui_d")
	require.Equal(t, []string{"imgui_demo"}, candidateTexts(e))

	r.RemoveCommand("imgui_demo")
	edit(e, "imgui_d")
	require.Empty(t, e.Candidates())
}
