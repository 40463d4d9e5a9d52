// Copyright (c) 2026 Oxide Computer Company
//
// wire.go — append-only encode buffer and bounds-checked decode cursor.
// All multi-byte integers pass through the binary.ByteOrder selected by
// the caller; nothing here knows about structs or strategies.

// Package wire implements the byte-level primitives for the packed format:
// a growable output Buffer and a sequential input Cursor.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// ErrShort is returned when a Cursor has fewer bytes than a read requires.
// The public API translates it into its own truncation error.
var ErrShort = errors.New("wire: insufficient data in buffer")

// ────────────────────────────────────────────────────────────────────────────
// Buffer
// ────────────────────────────────────────────────────────────────────────────

// Buffer accumulates encoded output. Multi-byte integers are written in the
// byte order fixed at construction time.
type Buffer struct {
	order binary.ByteOrder
	data  []byte
}

// NewBuffer returns an empty Buffer writing in the given byte order.
func NewBuffer(order binary.ByteOrder) *Buffer {
	return &Buffer{order: order}
}

// Order returns the byte order the buffer writes in.
func (b *Buffer) Order() binary.ByteOrder { return b.order }

// Bytes returns the accumulated encoded bytes.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.data) }

// Reset clears the buffer for reuse.
func (b *Buffer) Reset() { b.data = b.data[:0] }

// grow ensures room for n additional bytes, returning the write offset.
func (b *Buffer) grow(n int) int {
	off := len(b.data)
	need := off + n
	if need <= cap(b.data) {
		b.data = b.data[:need]
		return off
	}
	newCap := cap(b.data) * 2
	if newCap < need {
		newCap = need
	}
	tmp := make([]byte, need, newCap)
	copy(tmp, b.data)
	b.data = tmp
	return off
}

// PutUint8 appends a single byte.
func (b *Buffer) PutUint8(v uint8) {
	off := b.grow(1)
	b.data[off] = v
}

// PutUint16 appends a 16-bit unsigned integer.
func (b *Buffer) PutUint16(v uint16) {
	off := b.grow(2)
	b.order.PutUint16(b.data[off:], v)
}

// PutUint32 appends a 32-bit unsigned integer.
func (b *Buffer) PutUint32(v uint32) {
	off := b.grow(4)
	b.order.PutUint32(b.data[off:], v)
}

// PutUint64 appends a 64-bit unsigned integer.
func (b *Buffer) PutUint64(v uint64) {
	off := b.grow(8)
	b.order.PutUint64(b.data[off:], v)
}

// PutBytes appends raw bytes with no length prefix.
func (b *Buffer) PutBytes(p []byte) {
	off := b.grow(len(p))
	copy(b.data[off:], p)
}

// PutString appends the raw bytes of s with no prefix or terminator.
func (b *Buffer) PutString(s string) {
	off := b.grow(len(s))
	copy(b.data[off:], s)
}

// ────────────────────────────────────────────────────────────────────────────
// Cursor
// ────────────────────────────────────────────────────────────────────────────

// Cursor provides sequential, zero-copy reads over encoded input. Every read
// is bounds checked; overrunning the input yields ErrShort.
type Cursor struct {
	order  binary.ByteOrder
	data   []byte
	offset int
}

// NewCursor wraps an existing byte slice for decoding in the given order.
func NewCursor(data []byte, order binary.ByteOrder) *Cursor {
	return &Cursor{order: order, data: data}
}

// Order returns the byte order the cursor reads in.
func (c *Cursor) Order() binary.ByteOrder { return c.order }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.offset }

// Offset returns the current read position.
func (c *Cursor) Offset() int { return c.offset }

// need checks that at least n bytes remain and returns the current offset.
func (c *Cursor) need(n int) (int, error) {
	if n < 0 || c.offset+n > len(c.data) {
		return 0, ErrShort
	}
	off := c.offset
	c.offset += n
	return off, nil
}

// Uint8 reads a single byte.
func (c *Cursor) Uint8() (uint8, error) {
	off, err := c.need(1)
	if err != nil {
		return 0, err
	}
	return c.data[off], nil
}

// Uint16 reads a 16-bit unsigned integer.
func (c *Cursor) Uint16() (uint16, error) {
	off, err := c.need(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(c.data[off:]), nil
}

// Uint32 reads a 32-bit unsigned integer.
func (c *Cursor) Uint32() (uint32, error) {
	off, err := c.need(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(c.data[off:]), nil
}

// Uint64 reads a 64-bit unsigned integer.
func (c *Cursor) Uint64() (uint64, error) {
	off, err := c.need(8)
	if err != nil {
		return 0, err
	}
	return c.order.Uint64(c.data[off:]), nil
}

// Take consumes exactly n bytes and returns them as a sub-slice of the
// underlying input. Callers that retain the result must copy it.
func (c *Cursor) Take(n int) ([]byte, error) {
	off, err := c.need(n)
	if err != nil {
		return nil, err
	}
	return c.data[off : off+n], nil
}

// TakeUntil consumes bytes up to and including the first occurrence of
// delim, returning the bytes before it. ErrShort if delim never appears.
func (c *Cursor) TakeUntil(delim byte) ([]byte, error) {
	i := bytes.IndexByte(c.data[c.offset:], delim)
	if i < 0 {
		return nil, ErrShort
	}
	p := c.data[c.offset : c.offset+i]
	c.offset += i + 1
	return p, nil
}

// Sub consumes exactly n bytes and returns a new Cursor bounded to them,
// reading in the same byte order.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	p, err := c.Take(n)
	if err != nil {
		return nil, err
	}
	return &Cursor{order: c.order, data: p}, nil
}
