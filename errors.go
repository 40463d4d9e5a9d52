// Copyright (c) 2026 Oxide Computer Company
//
// errors.go — sentinel error variables returned by the public API, covering
// truncated or malformed input, length prefix overflow, decode guards, and
// schema compilation failures.

// Package ispf encodes and decodes packed, fixed-layout binary structures of
// the kind drawn in protocol RFC diagrams: fields laid out in declaration
// order with no padding, multi-byte integers in an explicit byte order, and
// length-value framing for variable-length content.
package ispf

import (
	"errors"

	"github.com/oxidecomputer/ispf/internal/schema"
)

// Decode errors
var (
	ErrTruncatedInput  = errors.New("ispf: truncated input")
	ErrTrailingBytes   = errors.New("ispf: trailing bytes after decode")
	ErrInvalidEncoding = errors.New("ispf: invalid encoding")
	ErrLimitExceeded   = errors.New("ispf: decode limit exceeded")
)

// Encode errors
var (
	ErrLengthOverflow = errors.New("ispf: length exceeds prefix range")
	ErrInvalidValue   = errors.New("ispf: invalid value")
)

// Schema errors, surfaced from field discovery
var (
	ErrUnsupportedType  = schema.ErrUnsupportedType
	ErrUnknownStrategy  = schema.ErrUnknownStrategy
	ErrStrategyMismatch = schema.ErrStrategyMismatch
	ErrMissingStrategy  = schema.ErrMissingStrategy
)
