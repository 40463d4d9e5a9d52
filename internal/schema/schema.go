// Copyright (c) 2026 Oxide Computer Company
//
// schema.go — struct introspection for the packed format: field kind
// classification, strategy tag parsing, and compilation of a struct type
// into the ordered field descriptors the encode and decode engines walk.

// Package schema compiles Go struct types into wire layout descriptions.
//
// A struct compiles into an ordered list of Field descriptors, one per
// exported field, in declaration order. Fixed-width integers need no tag.
// Variable-length fields declare their framing through the `ispf` struct
// tag; a bare string defaults to a NUL-terminated C string, matching the
// format's conventions. Unexported fields and fields tagged `ispf:"-"` are
// not part of the wire layout.
package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

// Compilation errors. The root package re-exports these.
var (
	ErrUnsupportedType  = errors.New("ispf: unsupported field type")
	ErrUnknownStrategy  = errors.New("ispf: unknown strategy tag")
	ErrStrategyMismatch = errors.New("ispf: strategy does not apply to field type")
	ErrMissingStrategy  = errors.New("ispf: sequence field requires a strategy tag")
)

// ────────────────────────────────────────────────────────────────────────────
// Kinds and strategies
// ────────────────────────────────────────────────────────────────────────────

// Kind classifies a field for the traversal engines.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindString
	KindBytes  // []byte
	KindSlice  // []T, T described by Field.Elem
	KindArray  // [N]T, fixed element count, no prefix
	KindStruct // nested struct, fields concatenated in order
)

// Width is the bit width of a length prefix.
type Width uint8

const (
	W8  Width = 8
	W16 Width = 16
	W32 Width = 32
	W64 Width = 64
)

// Bytes returns the encoded size of a prefix of this width.
func (w Width) Bytes() int { return int(w) / 8 }

// Max returns the largest length representable by a prefix of this width.
func (w Width) Max() uint64 {
	if w == W64 {
		return math.MaxUint64
	}
	return 1<<w - 1
}

// Unit says what a field's framing measures.
type Unit uint8

const (
	UnitNone    Unit = iota // fixed layout, no framing
	UnitCString             // content followed by a NUL terminator
	UnitCount               // prefix holds the element count
	UnitBytes               // prefix holds the encoded byte length
)

// Strategy is a field's framing rule: how the decoder knows where the
// field's content ends.
type Strategy struct {
	Unit  Unit
	Width Width // meaningful for UnitCount and UnitBytes
}

// tag families restrict which tags may appear on which field types
type family uint8

const (
	famNone family = iota
	famCStr
	famStr
	famVec
)

var strategyTags = map[string]struct {
	strategy Strategy
	fam      family
}{
	"cstr":      {Strategy{Unit: UnitCString}, famCStr},
	"str_lv8":   {Strategy{UnitBytes, W8}, famStr},
	"str_lv16":  {Strategy{UnitBytes, W16}, famStr},
	"str_lv32":  {Strategy{UnitBytes, W32}, famStr},
	"str_lv64":  {Strategy{UnitBytes, W64}, famStr},
	"vec_lv8":   {Strategy{UnitCount, W8}, famVec},
	"vec_lv16":  {Strategy{UnitCount, W16}, famVec},
	"vec_lv32":  {Strategy{UnitCount, W32}, famVec},
	"vec_lv64":  {Strategy{UnitCount, W64}, famVec},
	"vec_lv8b":  {Strategy{UnitBytes, W8}, famVec},
	"vec_lv16b": {Strategy{UnitBytes, W16}, famVec},
	"vec_lv32b": {Strategy{UnitBytes, W32}, famVec},
	"vec_lv64b": {Strategy{UnitBytes, W64}, famVec},
}

// ────────────────────────────────────────────────────────────────────────────
// Descriptors
// ────────────────────────────────────────────────────────────────────────────

// Field describes one struct field's place in the wire layout.
type Field struct {
	Name     string // Go field name, for diagnostics
	Index    int    // position within the struct
	Kind     Kind
	Strategy Strategy
	Elem     *Field  // element descriptor for KindSlice and KindArray
	Fields   []Field // nested descriptors for KindStruct
	ArrayLen int     // element count for KindArray
	Size     int     // encoded byte size when fixed, 0 when variable
}

// Schema is the compiled wire layout of one struct type.
type Schema struct {
	Name   string // struct type name, for diagnostics
	Type   reflect.Type
	Fields []Field
	Size   int // total encoded size when every field is fixed, 0 otherwise
}

var fixedSizes = map[Kind]int{
	KindUint8:  1,
	KindInt8:   1,
	KindUint16: 2,
	KindInt16:  2,
	KindUint32: 4,
	KindInt32:  4,
	KindUint64: 8,
	KindInt64:  8,
}

// ────────────────────────────────────────────────────────────────────────────
// Compilation
// ────────────────────────────────────────────────────────────────────────────

// Compile derives the wire layout of the given struct type.
func Compile(t reflect.Type) (*Schema, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v is not a struct", ErrUnsupportedType, t)
	}
	return compile(t, map[reflect.Type]bool{})
}

func compile(t reflect.Type, seen map[reflect.Type]bool) (*Schema, error) {
	if seen[t] {
		return nil, fmt.Errorf("%w: recursive type %s", ErrUnsupportedType, t)
	}
	seen[t] = true
	defer delete(seen, t)

	s := &Schema{Name: t.Name(), Type: t}
	size := 0
	fixed := true
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}
		tag := sf.Tag.Get("ispf")
		if tag == "-" {
			continue
		}
		f, err := compileField(sf, tag, seen)
		if err != nil {
			return nil, err
		}
		f.Index = i
		s.Fields = append(s.Fields, f)
		if f.Size == 0 {
			fixed = false
		}
		size += f.Size
	}
	if fixed {
		s.Size = size
	}
	return s, nil
}

func compileField(sf reflect.StructField, tag string, seen map[reflect.Type]bool) (Field, error) {
	fam := famNone
	var strat Strategy
	if tag != "" {
		entry, ok := strategyTags[tag]
		if !ok {
			return Field{}, fmt.Errorf("%w: %q on field %q", ErrUnknownStrategy, tag, sf.Name)
		}
		fam, strat = entry.fam, entry.strategy
	}

	f := Field{Name: sf.Name, Strategy: strat}
	t := sf.Type

	switch t.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fam != famNone {
			return Field{}, mismatch(tag, sf)
		}
		f.Kind = integerKinds[t.Kind()]
		f.Size = fixedSizes[f.Kind]

	case reflect.String:
		f.Kind = KindString
		switch fam {
		case famNone:
			f.Strategy = Strategy{Unit: UnitCString}
		case famCStr, famStr:
		default:
			return Field{}, mismatch(tag, sf)
		}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			f.Kind = KindBytes
			if fam == famNone {
				return Field{}, fmt.Errorf("%w: field %q", ErrMissingStrategy, sf.Name)
			}
			if fam == famCStr {
				return Field{}, mismatch(tag, sf)
			}
			break
		}
		f.Kind = KindSlice
		if fam == famNone {
			return Field{}, fmt.Errorf("%w: field %q", ErrMissingStrategy, sf.Name)
		}
		if fam != famVec {
			return Field{}, mismatch(tag, sf)
		}
		elem, err := elemField(t.Elem(), sf.Name, seen)
		if err != nil {
			return Field{}, err
		}
		f.Elem = &elem

	case reflect.Array:
		if fam != famNone {
			return Field{}, mismatch(tag, sf)
		}
		elem, err := elemField(t.Elem(), sf.Name, seen)
		if err != nil {
			return Field{}, err
		}
		f.Kind = KindArray
		f.Elem = &elem
		f.ArrayLen = t.Len()
		if elem.Size > 0 {
			f.Size = t.Len() * elem.Size
		}

	case reflect.Struct:
		if fam != famNone {
			return Field{}, mismatch(tag, sf)
		}
		sub, err := compile(t, seen)
		if err != nil {
			return Field{}, fmt.Errorf("field %q: %w", sf.Name, err)
		}
		f.Kind = KindStruct
		f.Fields = sub.Fields
		f.Size = sub.Size

	default:
		return Field{}, fmt.Errorf("%w: field %q has type %s", ErrUnsupportedType, sf.Name, t)
	}
	return f, nil
}

// elemField builds the descriptor for a slice or array element. Elements
// cannot carry tags of their own, so only kinds with a fixed layout or a
// default framing are allowed: integers, strings (NUL-terminated), arrays,
// and nested structs. Inner sequences have no way to declare a prefix.
func elemField(t reflect.Type, owner string, seen map[reflect.Type]bool) (Field, error) {
	switch t.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		k := integerKinds[t.Kind()]
		return Field{Name: owner, Kind: k, Size: fixedSizes[k]}, nil
	case reflect.String:
		return Field{Name: owner, Kind: KindString, Strategy: Strategy{Unit: UnitCString}}, nil
	case reflect.Array:
		elem, err := elemField(t.Elem(), owner, seen)
		if err != nil {
			return Field{}, err
		}
		f := Field{Name: owner, Kind: KindArray, Elem: &elem, ArrayLen: t.Len()}
		if elem.Size > 0 {
			f.Size = t.Len() * elem.Size
		}
		return f, nil
	case reflect.Struct:
		sub, err := compile(t, seen)
		if err != nil {
			return Field{}, fmt.Errorf("elements of %q: %w", owner, err)
		}
		return Field{Name: owner, Kind: KindStruct, Fields: sub.Fields, Size: sub.Size}, nil
	case reflect.Slice:
		return Field{}, fmt.Errorf("%w: elements of %q are sequences", ErrMissingStrategy, owner)
	default:
		return Field{}, fmt.Errorf("%w: elements of %q have type %s", ErrUnsupportedType, owner, t)
	}
}

var integerKinds = map[reflect.Kind]Kind{
	reflect.Uint8:  KindUint8,
	reflect.Uint16: KindUint16,
	reflect.Uint32: KindUint32,
	reflect.Uint64: KindUint64,
	reflect.Int8:   KindInt8,
	reflect.Int16:  KindInt16,
	reflect.Int32:  KindInt32,
	reflect.Int64:  KindInt64,
}

func mismatch(tag string, sf reflect.StructField) error {
	return fmt.Errorf("%w: %q on field %q of type %s", ErrStrategyMismatch, tag, sf.Name, sf.Type)
}
