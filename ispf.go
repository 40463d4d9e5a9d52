// Copyright (c) 2026 Oxide Computer Company
//
// ispf.go — public entry points: one-shot Marshal/Unmarshal helpers in
// either byte order, and configurable Encoder/Decoder instances carrying
// decode guards, a logger, and operation counters.

package ispf

import (
	"encoding/binary"
	"reflect"
	"sync/atomic"

	"github.com/oxidecomputer/ispf/internal/metrics"
)

// Re-export so callers only import this package.
type MetricsRecorder = metrics.Recorder

// Default decode guards. A length prefix may legally declare more data than
// the input holds; these caps bound what a hostile prefix can make the
// decoder allocate before truncation is detected.
const (
	DefaultMaxElements = 65536
	DefaultMaxBytes    = 16 << 20
)

// ────────────────────────────────────────────────────────────────────────────
// Options
// ────────────────────────────────────────────────────────────────────────────

// Options configures an Encoder or Decoder.
type Options struct {
	// Order is the byte order for every multi-byte integer.
	// Defaults to binary.LittleEndian.
	Order binary.ByteOrder

	// MaxElements caps the element count a single length prefix may declare
	// during decode. Zero means DefaultMaxElements.
	MaxElements int

	// MaxBytes caps the byte length a single length prefix may declare
	// during decode. Zero means DefaultMaxBytes.
	MaxBytes int

	// Logger receives diagnostics for rejected input. nil disables logging.
	Logger Logger

	// Metrics receives per-operation counts and sizes. nil discards them.
	Metrics MetricsRecorder
}

func (o *Options) defaults() {
	if o.Order == nil {
		o.Order = binary.LittleEndian
	}
	if o.MaxElements <= 0 {
		o.MaxElements = DefaultMaxElements
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.Logger == nil {
		o.Logger = noopLogger{}
	}
	if o.Metrics == nil {
		o.Metrics = metrics.Noop{}
	}
}

func (o *Options) limits() decodeLimits {
	return decodeLimits{maxElements: o.MaxElements, maxBytes: o.MaxBytes}
}

// ────────────────────────────────────────────────────────────────────────────
// Stats
// ────────────────────────────────────────────────────────────────────────────

type codecStats struct {
	Ops    atomic.Int64
	Bytes  atomic.Int64
	Errors atomic.Int64
}

// Stats is the snapshot returned by Encoder.Stats and Decoder.Stats.
type Stats struct {
	Ops    int64 // calls made
	Bytes  int64 // wire bytes produced or consumed by successful calls
	Errors int64 // calls that returned an error
}

func (s *codecStats) snapshot() Stats {
	return Stats{
		Ops:    s.Ops.Load(),
		Bytes:  s.Bytes.Load(),
		Errors: s.Errors.Load(),
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Encoder / Decoder
// ────────────────────────────────────────────────────────────────────────────

// typeName labels metrics with the struct type behind v, however many
// pointers deep it sits.
func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}

// Encoder marshals values in a byte order fixed at construction.
// Safe for concurrent use.
type Encoder struct {
	opts  Options
	stats codecStats
}

// NewEncoder returns an Encoder using the given options.
func NewEncoder(opts Options) *Encoder {
	opts.defaults()
	return &Encoder{opts: opts}
}

// Marshal encodes v into its packed wire representation.
func (e *Encoder) Marshal(v any) ([]byte, error) {
	e.stats.Ops.Add(1)
	p, err := marshal(v, e.opts.Order)
	if err != nil {
		e.stats.Errors.Add(1)
		e.opts.Metrics.RecordError("encode", typeName(v))
		e.opts.Logger.Debug("encode rejected", "error", err)
		return nil, err
	}
	e.stats.Bytes.Add(int64(len(p)))
	e.opts.Metrics.RecordEncode(typeName(v), len(p))
	return p, nil
}

// Stats returns a snapshot of the encoder's counters.
func (e *Encoder) Stats() Stats { return e.stats.snapshot() }

// Decoder unmarshals values in a byte order fixed at construction, applying
// the configured decode guards. Safe for concurrent use.
type Decoder struct {
	opts  Options
	stats codecStats
}

// NewDecoder returns a Decoder using the given options.
func NewDecoder(opts Options) *Decoder {
	opts.defaults()
	return &Decoder{opts: opts}
}

// Unmarshal decodes data into v, which must be a non-nil pointer to a
// struct. The entire input must be consumed.
func (d *Decoder) Unmarshal(data []byte, v any) error {
	d.stats.Ops.Add(1)
	if err := unmarshal(data, v, d.opts.Order, d.opts.limits(), d.opts.Logger); err != nil {
		d.stats.Errors.Add(1)
		d.opts.Metrics.RecordError("decode", typeName(v))
		return err
	}
	d.stats.Bytes.Add(int64(len(data)))
	d.opts.Metrics.RecordDecode(typeName(v), len(data))
	return nil
}

// Stats returns a snapshot of the decoder's counters.
func (d *Decoder) Stats() Stats { return d.stats.snapshot() }

// ────────────────────────────────────────────────────────────────────────────
// One-shot helpers
// ────────────────────────────────────────────────────────────────────────────

// Marshal encodes v into its packed wire representation in the given byte
// order. v must be a struct or a non-nil pointer to one.
func Marshal(v any, order binary.ByteOrder) ([]byte, error) {
	return marshal(v, order)
}

// MarshalLE is Marshal in little-endian byte order.
func MarshalLE(v any) ([]byte, error) { return marshal(v, binary.LittleEndian) }

// MarshalBE is Marshal in big-endian byte order.
func MarshalBE(v any) ([]byte, error) { return marshal(v, binary.BigEndian) }

// Unmarshal decodes data into v, which must be a non-nil pointer to a
// struct, reading multi-byte integers in the given byte order. Input not
// consumed by the last field is an error.
func Unmarshal(data []byte, v any, order binary.ByteOrder) error {
	return unmarshal(data, v, order,
		decodeLimits{maxElements: DefaultMaxElements, maxBytes: DefaultMaxBytes}, noopLogger{})
}

// UnmarshalLE is Unmarshal in little-endian byte order.
func UnmarshalLE(data []byte, v any) error {
	return Unmarshal(data, v, binary.LittleEndian)
}

// UnmarshalBE is Unmarshal in big-endian byte order.
func UnmarshalBE(data []byte, v any) error {
	return Unmarshal(data, v, binary.BigEndian)
}

// Decode unmarshals data into a fresh value of type T and returns it.
func Decode[T any](data []byte, order binary.ByteOrder) (T, error) {
	var v T
	err := Unmarshal(data, &v, order)
	return v, err
}
