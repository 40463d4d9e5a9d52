// Copyright (c) 2026 Oxide Computer Company
//
// packed.go — Codec adapter over the packed wire format. The zero value
// encodes little-endian, matching the format's convention.

package codec

import (
	"encoding/binary"

	"github.com/oxidecomputer/ispf"
)

// Packed is the fixed-layout binary codec. Order selects the byte order for
// multi-byte integers; nil means little-endian.
type Packed struct {
	Order binary.ByteOrder
}

func (p Packed) order() binary.ByteOrder {
	if p.Order == nil {
		return binary.LittleEndian
	}
	return p.Order
}

// Marshal serializes v into packed bytes.
func (p Packed) Marshal(v any) ([]byte, error) {
	return ispf.Marshal(v, p.order())
}

// Unmarshal deserializes packed bytes into v.
func (p Packed) Unmarshal(data []byte, v any) error {
	return ispf.Unmarshal(data, v, p.order())
}

// Name returns "packed-le" or "packed-be" depending on the byte order.
func (p Packed) Name() string {
	if p.order() == binary.BigEndian {
		return "packed-be"
	}
	return "packed-le"
}
