// Copyright (c) 2026 Oxide Computer Company
//
// json.go — JSON codec implementation wrapping encoding/json; primarily
// used in tests and when human-readable payloads are preferred.

package codec

import "encoding/json"

// JSON is a codec using standard library encoding/json.
type JSON struct{}

// Marshal serializes v to JSON bytes.
func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal deserializes JSON bytes into v.
func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Name returns "json".
func (JSON) Name() string { return "json" }
