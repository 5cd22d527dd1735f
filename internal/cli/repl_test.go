package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowave-io/devconsole/internal/config"
	"github.com/flowave-io/devconsole/internal/console"
	"github.com/flowave-io/devconsole/internal/panel"
	"github.com/flowave-io/devconsole/internal/scanner"
	"github.com/flowave-io/devconsole/internal/theme"
)

// syncExecutor answers on the calling goroutine.
type syncExecutor struct {
	session *console.Session
	got     []string
}

func (e *syncExecutor) Enqueue(cmd console.Command) error {
	e.got = append(e.got, cmd.Text)
	e.session.Print("ran "+cmd.Text, console.ColorDefault, cmd.Style)
	return nil
}

type fixture struct {
	repl    *REPL
	session *console.Session
	exec    *syncExecutor
	scanner *scanner.Scanner
	out     *bytes.Buffer
}

func newFixture(t *testing.T, commands ...string) *fixture {
	t.Helper()
	exec := &syncExecutor{}
	session := console.NewSession(exec, console.Options{})
	exec.session = session
	sc := scanner.New()
	out := &bytes.Buffer{}

	f := &fixture{session: session, exec: exec, scanner: sc, out: out}
	onToggle := func(name string, visible bool) { f.repl.OnToggle(name, visible) }
	panels, err := panel.NewSet(session.Registry(),
		panel.NewTerminal("terminal", "Terminal", session, onToggle),
		panel.NewScanner("scanner", "Function Scanner", sc, onToggle),
	)
	require.NoError(t, err)
	f.repl = NewREPL(REPLOptions{
		Session:   session,
		Panels:    panels,
		Scanner:   sc,
		Theme:     theme.New(out, nil),
		Out:       out,
		ExportDir: t.TempDir(),
	})
	panels.AttachAll()
	for _, c := range commands {
		session.Registry().AddCommand(c)
	}
	return f
}

func (f *fixture) run(t *testing.T, input string) {
	t.Helper()
	require.NoError(t, f.repl.Run(context.Background(), strings.NewReader(input)))
}

func (f *fixture) logTexts() []string {
	var out []string
	for l := range f.session.Log().All() {
		out = append(out, l.Text)
	}
	return out
}

func TestREPL_CompleteAndSubmit(t *testing.T) {
	f := newFixture(t, console.ToggleCommand, "echo")
	f.run(t, "imgui_tog\t\r")

	require.Equal(t, []string{"imgui_toggle"}, f.exec.got)
	require.Equal(t, []string{"# imgui_toggle", "ran imgui_toggle"}, f.logTexts())
	require.Contains(t, f.out.String(), "ran imgui_toggle\r\n")
}

func TestREPL_PopupShowsCandidates(t *testing.T) {
	f := newFixture(t, "echo", "exit")
	f.run(t, "e")
	require.Contains(t, f.out.String(), "echo  exit")
}

func TestREPL_History(t *testing.T) {
	f := newFixture(t)
	f.run(t, "a\rb\r\x1b[A\x1b[A\r\x1b[A\x1b[B\x1b[B\r")
	// walking off the end clears the line, so the last ENTER submits nothing
	require.Equal(t, []string{"a", "b", "a"}, f.exec.got)
}

func TestREPL_EditingKeys(t *testing.T) {
	f := newFixture(t)
	// "helo", left, insert "l", end, backspace twice, "lo"
	f.run(t, "helo\x1b[Dl\x1b[F\x7f\x7flo\r")
	require.Equal(t, []string{"hello"}, f.exec.got)

	f = newFixture(t)
	f.run(t, "xyz\x1b[H\x1b[3~\r")
	require.Equal(t, []string{"yz"}, f.exec.got)
}

func TestREPL_EditingMultibyte(t *testing.T) {
	f := newFixture(t)
	f.run(t, "xé\x7f\x7fñ\x1b[Dé\x1b[C!\r")
	require.Equal(t, []string{"éñ!"}, f.exec.got)

	f = newFixture(t)
	f.run(t, "aé\x1b[H\x1b[C\x1b[3~\r")
	require.Equal(t, []string{"a"}, f.exec.got)

	// completed names are stepped over by character, not by byte
	f = newFixture(t, "größe")
	f.run(t, "gr\t\x7f\x7f\x1b[D\x7f\r")
	require.Equal(t, []string{"grß"}, f.exec.got)
}

func TestREPL_CtrlCDropsLine(t *testing.T) {
	f := newFixture(t)
	f.run(t, "abc\x03   \rok\r")
	require.Equal(t, []string{"ok"}, f.exec.got)
}

func TestREPL_CtrlDAndQuitStop(t *testing.T) {
	f := newFixture(t)
	f.run(t, "a\r\x04b\r")
	require.Equal(t, []string{"a"}, f.exec.got)
	require.Contains(t, f.out.String(), "[exit]")

	f = newFixture(t)
	f.run(t, ".quit\rb\r")
	require.Empty(t, f.exec.got)
}

func TestREPL_DotCommandsStayLocal(t *testing.T) {
	f := newFixture(t)
	f.run(t, "one\rtwo\r.history\r")
	require.Equal(t, []string{"one", "two"}, f.exec.got)
	require.Contains(t, f.logTexts(), "   2  two")
	require.Equal(t, []string{"one", "two", ".history"}, f.session.History().Entries())

	f = newFixture(t)
	f.run(t, ".bogus\r")
	require.Contains(t, f.logTexts(), "unknown console command .bogus, try .help")
}

func TestREPL_HistoryClear(t *testing.T) {
	f := newFixture(t)
	f.run(t, "one\rtwo\r.history clear\r")
	require.Empty(t, f.session.History().Entries())
	require.Contains(t, f.logTexts(), "history cleared")
	require.Equal(t, []string{"one", "two"}, f.exec.got)
}

func TestREPL_CopyVisible(t *testing.T) {
	f := newFixture(t)
	f.run(t, "alpha\rbeta\r.filter alpha\r.copy\r")
	// the filter notice itself matches the filter
	want := base64.StdEncoding.EncodeToString([]byte("# alpha\nran alpha\nfilter: alpha"))
	require.Contains(t, f.out.String(), "\x1b]52;c;"+want+"\x07")
	require.Contains(t, f.logTexts(), "copied 3 lines to the clipboard")

	f = newFixture(t)
	f.run(t, ".copy\r")
	require.NotContains(t, f.out.String(), "\x1b]52;")
	require.Contains(t, f.logTexts(), "nothing to copy")
}

func TestREPL_FilterAndClear(t *testing.T) {
	f := newFixture(t)
	f.run(t, "alpha\rbeta\r.filter alpha\r")
	out := f.out.String()
	idx := strings.LastIndex(out, "\x1b[2J")
	require.GreaterOrEqual(t, idx, 0)
	redrawn := out[idx:]
	require.Contains(t, redrawn, "ran alpha")
	require.NotContains(t, redrawn, "ran beta")

	f = newFixture(t)
	f.run(t, "alpha\r.clear\r")
	require.Zero(t, f.session.Log().Len())
}

func TestREPL_Export(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	f.run(t, "alpha\r.export "+dir+"\r")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasPrefix(entries[0].Name(), "ConsoleDump_"))
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Equal(t, "# alpha\nran alpha\n", string(data))
}

func TestREPL_ScanCommands(t *testing.T) {
	f := newFixture(t)
	f.run(t, ".scan exclude tick\r.scan start\r")
	require.True(t, f.scanner.Scanning())
	require.True(t, f.repl.panels.Get("scanner").Visible())

	f.scanner.Observe(scanner.Event{FullName: "Function A.Tick", Package: "A", Caller: "Actor", Function: "Tick"})
	f.scanner.Observe(scanner.Event{FullName: "Function A.Jump", Package: "A", Caller: "Actor", Function: "Jump"})
	f.run(t, ".scan show\r.scan export\r.scan stop\r")

	texts := strings.Join(f.logTexts(), "\n")
	require.Contains(t, texts, "Function Scanner - 1 Functions")
	require.Contains(t, texts, "Jump")
	require.Contains(t, texts, "exported to ")
	require.False(t, f.scanner.Scanning())
}

func TestREPL_PostedWorkRunsOnLoop(t *testing.T) {
	f := newFixture(t)
	f.repl.Post(func() { f.session.AddLine("posted", console.ColorGreen, console.StyleRegular) })
	f.run(t, "")
	require.Contains(t, f.out.String(), "posted\r\n")
}

func TestREPL_PrintFromOtherGoroutine(t *testing.T) {
	f := newFixture(t)
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() { done <- f.repl.Run(context.Background(), pr) }()

	go f.session.Print("from worker", console.ColorDefault, console.StyleRegular)

	require.Eventually(t, func() bool {
		res := make(chan bool, 1)
		f.repl.Post(func() { res <- strings.Contains(f.out.String(), "from worker\r\n") })
		return <-res
	}, 2*time.Second, 10*time.Millisecond)

	_ = pw.Close()
	require.NoError(t, <-done)
}

func TestRunReadline_CancelStopsDisplay(t *testing.T) {
	f := newFixture(t)
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.repl.RunReadline(ctx, pr) }()

	require.Eventually(t, func() bool {
		res := make(chan bool, 1)
		f.repl.Post(func() { res <- f.session.Ready() })
		select {
		case ok := <-res:
			return ok
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("line editor did not stop")
	}
	require.False(t, f.session.Ready())
}

func TestCompleter(t *testing.T) {
	session := console.NewSession(nil, console.Options{})
	session.Attach()
	session.Registry().AddCommand(console.ToggleCommand)
	session.Registry().AddArgument(console.CategoryInterfaces, "terminal")
	session.Registry().AddArgument(console.CategoryInterfaces, "textwindow")
	c := NewCompleter(&sync.Mutex{}, session)

	got, n := c.Do([]rune("imgui_tog"), 9)
	require.Equal(t, [][]rune{[]rune("gle ")}, got)
	require.Equal(t, 9, n)

	got, n = c.Do([]rune("imgui_toggle te"), 15)
	require.Equal(t, [][]rune{[]rune("rminal "), []rune("xtwindow ")}, got)
	require.Equal(t, 2, n)
	require.Empty(t, session.Candidates())

	got, _ = c.Do([]rune("zzz"), 3)
	require.Empty(t, got)
}

func TestNewAppRunsBuiltins(t *testing.T) {
	out := &bytes.Buffer{}
	cfg := config.Default()
	cfg.Commands = []string{"spawn"}
	cfg.Arguments[console.CategoryInterfaces] = []string{"extra"}
	a, err := newApp(cfg, out, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"echo", console.ToggleCommand, "spawn"}, a.session.Registry().Commands())
	require.ElementsMatch(t, []string{"extra", "terminal", "scanner"}, a.session.Registry().Arguments(console.CategoryInterfaces))
	require.True(t, a.panels.Get("terminal").Visible())

	require.NoError(t, a.repl.Run(context.Background(), strings.NewReader("echo hi there\rimgui_toggle scanner\rspawn\r")))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, a.queue.Close(ctx))
	a.repl.drainPosted()
	require.True(t, a.panels.Get("scanner").Visible())

	a.session.SetReady(true)
	a.session.Flush()
	var texts []string
	for l := range a.session.Log().All() {
		texts = append(texts, l.Text)
	}
	require.Contains(t, texts, "hi there")
	require.Contains(t, texts, "[scanner] shown")
	require.Contains(t, texts, "unknown command: spawn")
}

func TestAppApplyReload(t *testing.T) {
	a, err := newApp(config.Default(), &bytes.Buffer{}, nil)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Commands = []string{"net_stat"}
	cfg.Scrollback = 10
	cfg.ExportDir = "dumps"
	a.apply(cfg)

	require.Equal(t, []string{"echo", console.ToggleCommand, "net_stat"}, a.session.Registry().Commands())
	require.Equal(t, []string{"terminal", "scanner"}, a.session.Registry().Arguments(console.CategoryInterfaces))
	require.Equal(t, 10, a.session.Log().Capacity())
	require.Equal(t, "dumps", a.repl.exportDir)
	a.shutdown()
	require.False(t, a.session.Attached())
}
