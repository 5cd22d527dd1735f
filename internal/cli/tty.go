package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// acquireTTY opens the controlling terminal and puts it in raw mode,
// returning the terminal and a restore func.
func acquireTTY() (*os.File, func(), error) {
	tty, err := openTTY()
	if err != nil {
		return nil, nil, err
	}
	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		closeTTY(tty)
		return nil, nil, fmt.Errorf("%s is not a terminal", tty.Name())
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		closeTTY(tty)
		return nil, nil, fmt.Errorf("raw mode: %w", err)
	}
	restore := func() {
		_ = term.Restore(fd, state)
		closeTTY(tty)
	}
	return tty, restore, nil
}

// detectTermWidth falls back to 80 columns when the size is unknown.
func detectTermWidth(f *os.File) int {
	if f != nil {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 80
}
