package scanner

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ev(full string) Event {
	return Event{FullName: full, Package: "Engine", Caller: "Actor", Function: full}
}

func names(s *Scanner) []string {
	var out []string
	for e := range s.Rows() {
		out = append(out, e.FullName)
	}
	return out
}

func TestObserveOnlyWhileScanning(t *testing.T) {
	s := New()
	require.False(t, s.Observe(ev("Function Engine.Actor.Tick")))
	require.Zero(t, s.Len())

	s.Start()
	require.True(t, s.Scanning())
	require.True(t, s.Observe(ev("Function Engine.Actor.Tick")))
	require.False(t, s.Observe(Event{}))

	s.Stop()
	require.False(t, s.Observe(ev("Function Engine.Actor.BeginPlay")))
	require.Equal(t, []string{"Function Engine.Actor.Tick"}, names(s))
}

func TestObserveAppliesFilters(t *testing.T) {
	s := New()
	s.Start()
	s.SetWhitelist("actor")
	s.SetBlacklist("tick")

	require.False(t, s.Observe(ev("Function Engine.Actor.Tick")))
	require.True(t, s.Observe(ev("Function Engine.Actor.BeginPlay")))
	require.False(t, s.Observe(ev("Function Engine.Pawn.Jump")))

	w, b := s.Filters()
	require.Equal(t, "actor", w)
	require.Equal(t, "tick", b)
}

func TestRowsUseCurrentFilters(t *testing.T) {
	s := New()
	s.Start()
	s.Observe(ev("Function A.Tick"))
	s.Observe(ev("Function B.Jump"))

	s.SetBlacklist("tick")
	require.Equal(t, []string{"Function B.Jump"}, names(s))
	require.Equal(t, 2, s.Len())

	s.SetBlacklist("")
	require.Len(t, slices.Collect(s.Rows()), 2)

	s.Clear()
	require.Empty(t, names(s))
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	s := New()
	s.now = func() time.Time { return time.Unix(1700000000, 0) }

	path, err := s.Export(dir)
	require.NoError(t, err)
	require.Empty(t, path)

	s.Start()
	s.Observe(ev("Function A.Tick"))
	s.Observe(ev("Function B.Jump"))
	s.SetWhitelist("jump")

	path, err = s.Export(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "FunctionDump_1700000000.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Function A.Tick\nFunction B.Jump\n", string(data))
}

func TestHandler(t *testing.T) {
	s := New()
	s.Start()
	s.SetBlacklist("tick")

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	body := `[{"full_name":"Function A.Tick"},{"full_name":"Function B.Jump","package":"B","caller":"Pawn","function":"Jump"}]`
	resp, err := http.Post(srv.URL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := slices.Collect(s.Rows())
	require.Equal(t, []Event{{FullName: "Function B.Jump", Package: "B", Caller: "Pawn", Function: "Jump"}}, rows)

	bad, err := http.Post(srv.URL, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	bad.Body.Close()
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)

	get, err := http.Get(srv.URL)
	require.NoError(t, err)
	get.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, get.StatusCode)
}
