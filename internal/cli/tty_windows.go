//go:build windows

package cli

import "os"

// openTTY on Windows uses standard input; the console has no /dev/tty.
func openTTY() (*os.File, error) {
	return os.Stdin, nil
}

// closeTTY leaves standard input open.
func closeTTY(*os.File) {}
