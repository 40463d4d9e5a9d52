// Copyright (c) 2026 Oxide Computer Company
//
// encode.go — the encode half of the traversal engine: walks a compiled
// schema against a wire.Buffer in field declaration order, applying each
// field's framing strategy. Byte-measured sequences are encoded to a
// scratch buffer first so the prefix can be written before the content.

package ispf

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"

	"github.com/oxidecomputer/ispf/internal/schema"
	"github.com/oxidecomputer/ispf/internal/wire"
)

func marshal(v any, order binary.ByteOrder) ([]byte, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil pointer", ErrInvalidValue)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T is not a struct", ErrInvalidValue, v)
	}
	s, err := schema.For(rv.Type())
	if err != nil {
		return nil, err
	}
	buf := wire.NewBuffer(order)
	if err := encodeFields(buf, s.Fields, rv); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeFields(buf *wire.Buffer, fields []schema.Field, rv reflect.Value) error {
	for i := range fields {
		f := &fields[i]
		if err := encodeField(buf, f, rv.Field(f.Index)); err != nil {
			return err
		}
	}
	return nil
}

func encodeField(buf *wire.Buffer, f *schema.Field, fv reflect.Value) error {
	switch f.Kind {
	case schema.KindUint8:
		buf.PutUint8(uint8(fv.Uint()))
	case schema.KindUint16:
		buf.PutUint16(uint16(fv.Uint()))
	case schema.KindUint32:
		buf.PutUint32(uint32(fv.Uint()))
	case schema.KindUint64:
		buf.PutUint64(fv.Uint())
	case schema.KindInt8:
		buf.PutUint8(uint8(fv.Int()))
	case schema.KindInt16:
		buf.PutUint16(uint16(fv.Int()))
	case schema.KindInt32:
		buf.PutUint32(uint32(fv.Int()))
	case schema.KindInt64:
		buf.PutUint64(uint64(fv.Int()))
	case schema.KindString:
		return encodeString(buf, f, fv.String())
	case schema.KindBytes:
		return encodeBytes(buf, f, fv.Bytes())
	case schema.KindSlice:
		return encodeSlice(buf, f, fv)
	case schema.KindArray:
		for i := 0; i < f.ArrayLen; i++ {
			if err := encodeField(buf, f.Elem, fv.Index(i)); err != nil {
				return fmt.Errorf("%s[%d]: %w", f.Name, i, err)
			}
		}
	case schema.KindStruct:
		return encodeFields(buf, f.Fields, fv)
	}
	return nil
}

func encodeString(buf *wire.Buffer, f *schema.Field, s string) error {
	if f.Strategy.Unit == schema.UnitCString {
		if strings.IndexByte(s, 0) >= 0 {
			return fmt.Errorf("%w: field %q contains a NUL byte", ErrInvalidValue, f.Name)
		}
		buf.PutString(s)
		buf.PutUint8(0)
		return nil
	}
	if err := checkPrefix(f, len(s)); err != nil {
		return err
	}
	putPrefix(buf, f.Strategy.Width, uint64(len(s)))
	buf.PutString(s)
	return nil
}

// encodeBytes handles []byte under any strategy. The element is a byte, so
// count and byte units produce the same prefix.
func encodeBytes(buf *wire.Buffer, f *schema.Field, p []byte) error {
	if err := checkPrefix(f, len(p)); err != nil {
		return err
	}
	putPrefix(buf, f.Strategy.Width, uint64(len(p)))
	buf.PutBytes(p)
	return nil
}

func encodeSlice(buf *wire.Buffer, f *schema.Field, fv reflect.Value) error {
	n := fv.Len()
	switch f.Strategy.Unit {
	case schema.UnitCount:
		if err := checkPrefix(f, n); err != nil {
			return err
		}
		putPrefix(buf, f.Strategy.Width, uint64(n))
		for i := 0; i < n; i++ {
			if err := encodeField(buf, f.Elem, fv.Index(i)); err != nil {
				return fmt.Errorf("%s[%d]: %w", f.Name, i, err)
			}
		}
	case schema.UnitBytes:
		scratch := wire.NewBuffer(buf.Order())
		for i := 0; i < n; i++ {
			if err := encodeField(scratch, f.Elem, fv.Index(i)); err != nil {
				return fmt.Errorf("%s[%d]: %w", f.Name, i, err)
			}
		}
		if err := checkPrefix(f, scratch.Len()); err != nil {
			return err
		}
		putPrefix(buf, f.Strategy.Width, uint64(scratch.Len()))
		buf.PutBytes(scratch.Bytes())
	}
	return nil
}

// checkPrefix rejects lengths the field's prefix width cannot represent
// before any prefix byte is written.
func checkPrefix(f *schema.Field, n int) error {
	if uint64(n) > f.Strategy.Width.Max() {
		return fmt.Errorf("%w: field %q length %d exceeds %d-bit prefix",
			ErrLengthOverflow, f.Name, n, f.Strategy.Width)
	}
	return nil
}

func putPrefix(buf *wire.Buffer, w schema.Width, n uint64) {
	switch w {
	case schema.W8:
		buf.PutUint8(uint8(n))
	case schema.W16:
		buf.PutUint16(uint16(n))
	case schema.W32:
		buf.PutUint32(uint32(n))
	case schema.W64:
		buf.PutUint64(n)
	}
}
