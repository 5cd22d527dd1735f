// Package jsonx is the JSON codec for the executor and scanner wire formats.
// Building with the fastjson tag swaps encoding/json for sonic.
package jsonx

import (
	"errors"
	"fmt"
	"io"
)

// ErrTooLarge is returned by Decode when the body exceeds its limit.
var ErrTooLarge = errors.New("json body too large")

// Decode reads at most limit bytes from r and unmarshals them into v.
func Decode(r io.Reader, limit int64, v any) error {
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > limit {
		return ErrTooLarge
	}
	return Unmarshal(raw, v)
}
