//go:build !windows

package cli

import (
	"fmt"
	"os"
)

func openTTY() (*os.File, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}
	return tty, nil
}

func closeTTY(tty *os.File) { _ = tty.Close() }
