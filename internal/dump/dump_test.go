package dump

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var at = time.Unix(1700000000, 0)

func TestFileName(t *testing.T) {
	require.Equal(t, "ConsoleDump_1700000000.txt", FileName("ConsoleDump", at))
}

func TestWriteLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dumps")
	path, err := WriteLines(dir, "ConsoleDump", at, slices.Values([]string{"one", "", "three"}))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "ConsoleDump_1700000000.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "one\n\nthree\n", string(data))

	// the staging directory is gone
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteLines_DirNotCreatable(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0o600))

	_, err := WriteLines(filepath.Join(parent, "dumps"), "ConsoleDump", at, slices.Values([]string{"a"}))
	require.ErrorContains(t, err, "create dump dir")
}

func TestWriteLines_FinalizeFails(t *testing.T) {
	dir := t.TempDir()
	// a non-empty directory occupies the target name
	blocker := filepath.Join(dir, FileName("ConsoleDump", at))
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0o700))

	_, err := WriteLines(dir, "ConsoleDump", at, slices.Values([]string{"a"}))
	require.ErrorContains(t, err, "finalize dump")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].IsDir())
}
