// Copyright (c) 2026 Oxide Computer Company
//
// decode.go — the decode half of the traversal engine. Reads are strict:
// every field must be satisfiable from the remaining input, byte-measured
// blocks must be consumed exactly, and nothing may be left over at the top
// level. Length prefixes are checked against configurable guards before any
// allocation sized from untrusted input.

package ispf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"

	"github.com/oxidecomputer/ispf/internal/schema"
	"github.com/oxidecomputer/ispf/internal/wire"
)

type decodeLimits struct {
	maxElements int
	maxBytes    int
}

type decodeState struct {
	limits decodeLimits
	log    Logger
}

func unmarshal(data []byte, v any, order binary.ByteOrder, lim decodeLimits, log Logger) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: target must be a non-nil pointer to a struct", ErrInvalidValue)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("%w: target %s is not a struct", ErrInvalidValue, rv.Type())
	}
	s, err := schema.For(rv.Type())
	if err != nil {
		return err
	}

	cur := wire.NewCursor(data, order)
	d := &decodeState{limits: lim, log: log}
	err = d.fields(cur, s.Fields, rv)
	if err == nil && cur.Remaining() > 0 {
		err = fmt.Errorf("%w: %d bytes beyond offset %d",
			ErrTrailingBytes, cur.Remaining(), cur.Offset())
	}
	if err != nil {
		d.log.Debug("decode rejected", "type", s.Name, "offset", cur.Offset(), "error", err)
		return err
	}
	return nil
}

func (d *decodeState) fields(cur *wire.Cursor, fields []schema.Field, rv reflect.Value) error {
	for i := range fields {
		f := &fields[i]
		if err := d.field(cur, f, rv.Field(f.Index)); err != nil {
			return err
		}
	}
	return nil
}

func (d *decodeState) field(cur *wire.Cursor, f *schema.Field, fv reflect.Value) error {
	switch f.Kind {
	case schema.KindUint8:
		v, err := cur.Uint8()
		if err != nil {
			return truncated(f, cur)
		}
		fv.SetUint(uint64(v))
	case schema.KindUint16:
		v, err := cur.Uint16()
		if err != nil {
			return truncated(f, cur)
		}
		fv.SetUint(uint64(v))
	case schema.KindUint32:
		v, err := cur.Uint32()
		if err != nil {
			return truncated(f, cur)
		}
		fv.SetUint(uint64(v))
	case schema.KindUint64:
		v, err := cur.Uint64()
		if err != nil {
			return truncated(f, cur)
		}
		fv.SetUint(v)
	case schema.KindInt8:
		v, err := cur.Uint8()
		if err != nil {
			return truncated(f, cur)
		}
		fv.SetInt(int64(int8(v)))
	case schema.KindInt16:
		v, err := cur.Uint16()
		if err != nil {
			return truncated(f, cur)
		}
		fv.SetInt(int64(int16(v)))
	case schema.KindInt32:
		v, err := cur.Uint32()
		if err != nil {
			return truncated(f, cur)
		}
		fv.SetInt(int64(int32(v)))
	case schema.KindInt64:
		v, err := cur.Uint64()
		if err != nil {
			return truncated(f, cur)
		}
		fv.SetInt(int64(v))
	case schema.KindString:
		return d.stringField(cur, f, fv)
	case schema.KindBytes:
		return d.bytesField(cur, f, fv)
	case schema.KindSlice:
		return d.sliceField(cur, f, fv)
	case schema.KindArray:
		for i := 0; i < f.ArrayLen; i++ {
			if err := d.field(cur, f.Elem, fv.Index(i)); err != nil {
				return fmt.Errorf("%s[%d]: %w", f.Name, i, err)
			}
		}
	case schema.KindStruct:
		return d.fields(cur, f.Fields, fv)
	}
	return nil
}

func (d *decodeState) stringField(cur *wire.Cursor, f *schema.Field, fv reflect.Value) error {
	if f.Strategy.Unit == schema.UnitCString {
		p, err := cur.TakeUntil(0)
		if err != nil {
			return fmt.Errorf("%w: unterminated string in field %q", ErrTruncatedInput, f.Name)
		}
		fv.SetString(string(p))
		return nil
	}
	n, err := d.prefix(cur, f)
	if err != nil {
		return err
	}
	if n > uint64(d.limits.maxBytes) {
		return fmt.Errorf("%w: field %q declares %d bytes (limit %d)",
			ErrLimitExceeded, f.Name, n, d.limits.maxBytes)
	}
	p, err := cur.Take(int(n))
	if err != nil {
		return truncated(f, cur)
	}
	fv.SetString(string(p))
	return nil
}

func (d *decodeState) bytesField(cur *wire.Cursor, f *schema.Field, fv reflect.Value) error {
	n, err := d.prefix(cur, f)
	if err != nil {
		return err
	}
	if n > uint64(d.limits.maxBytes) {
		return fmt.Errorf("%w: field %q declares %d bytes (limit %d)",
			ErrLimitExceeded, f.Name, n, d.limits.maxBytes)
	}
	p, err := cur.Take(int(n))
	if err != nil {
		return truncated(f, cur)
	}
	fv.SetBytes(bytes.Clone(p))
	return nil
}

func (d *decodeState) sliceField(cur *wire.Cursor, f *schema.Field, fv reflect.Value) error {
	n, err := d.prefix(cur, f)
	if err != nil {
		return err
	}
	switch f.Strategy.Unit {
	case schema.UnitCount:
		if n > uint64(d.limits.maxElements) {
			return fmt.Errorf("%w: field %q declares %d elements (limit %d)",
				ErrLimitExceeded, f.Name, n, d.limits.maxElements)
		}
		// Fixed-size elements let a lying prefix fail before the loop.
		if f.Elem.Size > 0 && n > uint64(cur.Remaining()/f.Elem.Size) {
			return truncated(f, cur)
		}
		hint := int(n)
		if hint > cur.Remaining() {
			hint = cur.Remaining()
		}
		out := reflect.MakeSlice(fv.Type(), 0, hint)
		for i := 0; i < int(n); i++ {
			ev := reflect.New(fv.Type().Elem()).Elem()
			if err := d.field(cur, f.Elem, ev); err != nil {
				return fmt.Errorf("%s[%d]: %w", f.Name, i, err)
			}
			out = reflect.Append(out, ev)
		}
		fv.Set(out)
	case schema.UnitBytes:
		if n > uint64(d.limits.maxBytes) {
			return fmt.Errorf("%w: field %q declares %d bytes (limit %d)",
				ErrLimitExceeded, f.Name, n, d.limits.maxBytes)
		}
		sub, err := cur.Sub(int(n))
		if err != nil {
			return truncated(f, cur)
		}
		out := reflect.MakeSlice(fv.Type(), 0, 0)
		for sub.Remaining() > 0 {
			if out.Len() >= d.limits.maxElements {
				return fmt.Errorf("%w: field %q block holds more than %d elements",
					ErrLimitExceeded, f.Name, d.limits.maxElements)
			}
			before := sub.Offset()
			ev := reflect.New(fv.Type().Elem()).Elem()
			if err := d.field(sub, f.Elem, ev); err != nil {
				// An element overrunning its block means the block's byte
				// length and its contents disagree.
				if errors.Is(err, ErrTruncatedInput) {
					return fmt.Errorf("%w: field %q: element overruns %d-byte block: %v",
						ErrInvalidEncoding, f.Name, n, err)
				}
				return fmt.Errorf("%s[%d]: %w", f.Name, out.Len(), err)
			}
			if sub.Offset() == before {
				return fmt.Errorf("%w: field %q: %d bytes in block cannot be consumed",
					ErrTrailingBytes, f.Name, sub.Remaining())
			}
			out = reflect.Append(out, ev)
		}
		fv.Set(out)
	}
	return nil
}

func (d *decodeState) prefix(cur *wire.Cursor, f *schema.Field) (uint64, error) {
	var n uint64
	var err error
	switch f.Strategy.Width {
	case schema.W8:
		var v uint8
		v, err = cur.Uint8()
		n = uint64(v)
	case schema.W16:
		var v uint16
		v, err = cur.Uint16()
		n = uint64(v)
	case schema.W32:
		var v uint32
		v, err = cur.Uint32()
		n = uint64(v)
	case schema.W64:
		n, err = cur.Uint64()
	}
	if err != nil {
		return 0, fmt.Errorf("%w: length prefix of field %q at offset %d",
			ErrTruncatedInput, f.Name, cur.Offset())
	}
	return n, nil
}

func truncated(f *schema.Field, cur *wire.Cursor) error {
	return fmt.Errorf("%w: field %q at offset %d", ErrTruncatedInput, f.Name, cur.Offset())
}
