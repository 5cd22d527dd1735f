package cli

import (
	"bufio"
	"unicode/utf8"
)

// Key is a decoded keypress.
type Key int

const (
	KeyUnknown Key = iota
	KeyRune
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyEscape
	KeyCtrlC
	KeyCtrlD
	KeyCtrlL
	KeyCtrlU
)

// KeyEvent carries the typed character for KeyRune.
type KeyEvent struct {
	Key  Key
	Char rune
}

// readKey decodes one keypress from a raw terminal. Escape sequences arrive
// in a single write, so a lone ESC is recognised by an empty buffer after it.
func readKey(r *bufio.Reader) (KeyEvent, error) {
	b, err := r.ReadByte()
	if err != nil {
		return KeyEvent{}, err
	}
	switch b {
	case 3:
		return KeyEvent{Key: KeyCtrlC}, nil
	case 4:
		return KeyEvent{Key: KeyCtrlD}, nil
	case 9:
		return KeyEvent{Key: KeyTab}, nil
	case 12:
		return KeyEvent{Key: KeyCtrlL}, nil
	case 21:
		return KeyEvent{Key: KeyCtrlU}, nil
	case '\r', '\n':
		// swallow the LF of a CRLF pair
		if b == '\r' && r.Buffered() > 0 {
			if next, _ := r.Peek(1); next[0] == '\n' {
				_, _ = r.ReadByte()
			}
		}
		return KeyEvent{Key: KeyEnter}, nil
	case 127, 8:
		return KeyEvent{Key: KeyBackspace}, nil
	case 27:
		return readEscape(r)
	}
	if b >= 32 && b <= 126 {
		return KeyEvent{Key: KeyRune, Char: rune(b)}, nil
	}
	if b >= utf8.RuneSelf {
		_ = r.UnreadByte()
		ch, _, err := r.ReadRune()
		if err != nil {
			return KeyEvent{}, err
		}
		if ch != utf8.RuneError {
			return KeyEvent{Key: KeyRune, Char: ch}, nil
		}
	}
	return KeyEvent{Key: KeyUnknown}, nil
}

func readEscape(r *bufio.Reader) (KeyEvent, error) {
	if r.Buffered() == 0 {
		return KeyEvent{Key: KeyEscape}, nil
	}
	intro, err := r.ReadByte()
	if err != nil {
		return KeyEvent{}, err
	}
	if intro != '[' && intro != 'O' {
		return KeyEvent{Key: KeyUnknown}, nil
	}
	final, err := r.ReadByte()
	if err != nil {
		return KeyEvent{}, err
	}
	switch final {
	case 'A':
		return KeyEvent{Key: KeyUp}, nil
	case 'B':
		return KeyEvent{Key: KeyDown}, nil
	case 'C':
		return KeyEvent{Key: KeyRight}, nil
	case 'D':
		return KeyEvent{Key: KeyLeft}, nil
	case 'H':
		return KeyEvent{Key: KeyHome}, nil
	case 'F':
		return KeyEvent{Key: KeyEnd}, nil
	}
	if final >= '0' && final <= '9' {
		// CSI n ~
		code := final
		for {
			c, err := r.ReadByte()
			if err != nil {
				return KeyEvent{}, err
			}
			if c == '~' {
				break
			}
			if c < '0' || c > '9' {
				return KeyEvent{Key: KeyUnknown}, nil
			}
			code = 0
		}
		switch code {
		case '1', '7':
			return KeyEvent{Key: KeyHome}, nil
		case '3':
			return KeyEvent{Key: KeyDelete}, nil
		case '4', '8':
			return KeyEvent{Key: KeyEnd}, nil
		}
	}
	return KeyEvent{Key: KeyUnknown}, nil
}
