//go:build fastjson

package jsonx

import "github.com/bytedance/sonic"

// std keeps encoding/json behaviour for map key order and HTML escaping.
var std = sonic.ConfigStd

func Marshal(v any) ([]byte, error)   { return std.Marshal(v) }
func Unmarshal(b []byte, v any) error { return std.Unmarshal(b, v) }
