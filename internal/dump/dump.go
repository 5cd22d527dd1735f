// Package dump writes line-oriented text exports next to the running process.
package dump

import (
	"bufio"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-safetemp"
)

// FileName returns "<prefix>_<unix seconds>.txt".
func FileName(prefix string, at time.Time) string {
	return prefix + "_" + strconv.FormatInt(at.Unix(), 10) + ".txt"
}

// WriteLines writes every line, newline-terminated, to dir/FileName(prefix,
// at). The file is staged in a private temp directory inside dir and renamed
// into place, so readers never observe a partial dump.
func WriteLines(dir, prefix string, at time.Time, lines iter.Seq[string]) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create dump dir: %w", err)
	}
	tmpDir, cleanup, err := safetemp.Dir(dir, "dump-")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer func() { _ = cleanup.Close() }()
	if err := os.MkdirAll(tmpDir, 0o700); err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}

	name := FileName(prefix, at)
	tmp := filepath.Join(tmpDir, name)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("open dump: %w", err)
	}
	w := bufio.NewWriter(f)
	for line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			f.Close()
			return "", fmt.Errorf("write dump: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("write dump: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close dump: %w", err)
	}
	dest := filepath.Join(dir, name)
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("finalize dump: %w", err)
	}
	return dest, nil
}
