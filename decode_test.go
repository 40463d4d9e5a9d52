package ispf_test

import (
	"encoding/binary"
	"testing"

	"github.com/oxidecomputer/ispf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────────────────────────────────
// Truncation
// ────────────────────────────────────────────────────────────────────────────

func TestUnmarshal_TruncationSweep_StrLV16(t *testing.T) {
	full, err := ispf.MarshalLE(versionLV16{Size: 47, Typ: 9, Tag: 15, Msize: 99, Version: "muffin"})
	require.NoError(t, err)

	for i := 0; i < len(full); i++ {
		var got versionLV16
		err := ispf.UnmarshalLE(full[:i], &got)
		assert.ErrorIs(t, err, ispf.ErrTruncatedInput, "cut at %d", i)
	}
}

func TestUnmarshal_TruncationSweep_CString(t *testing.T) {
	full, err := ispf.MarshalLE(version{Size: 47, Typ: 9, Tag: 15, Msize: 99, Version: "muffin"})
	require.NoError(t, err)

	for i := 0; i < len(full); i++ {
		var got version
		err := ispf.UnmarshalLE(full[:i], &got)
		assert.ErrorIs(t, err, ispf.ErrTruncatedInput, "cut at %d", i)
	}
}

func TestUnmarshal_TruncationSweep_ByteUnit(t *testing.T) {
	full, err := ispf.MarshalLE(readdir8b{Size: 47, Typ: 9, Tag: 15, Data: sampleDirents()})
	require.NoError(t, err)

	for i := 0; i < len(full); i++ {
		var got readdir8b
		err := ispf.UnmarshalLE(full[:i], &got)
		assert.ErrorIs(t, err, ispf.ErrTruncatedInput, "cut at %d", i)
	}
}

func TestUnmarshal_PrefixBeyondInput(t *testing.T) {
	type msg struct {
		S string `ispf:"str_lv16"`
	}
	// The prefix declares 100 bytes; only 3 follow.
	err := ispf.UnmarshalLE([]byte{100, 0, 'a', 'b', 'c'}, &msg{})
	assert.ErrorIs(t, err, ispf.ErrTruncatedInput)
}

func TestUnmarshal_EmptyInput(t *testing.T) {
	var got version
	assert.ErrorIs(t, ispf.UnmarshalLE(nil, &got), ispf.ErrTruncatedInput)
	assert.ErrorIs(t, ispf.UnmarshalLE([]byte{}, &got), ispf.ErrTruncatedInput)
}

// ────────────────────────────────────────────────────────────────────────────
// Trailing bytes
// ────────────────────────────────────────────────────────────────────────────

func TestUnmarshal_TrailingBytes(t *testing.T) {
	full, err := ispf.MarshalLE(versionLV8{Size: 47, Typ: 9, Tag: 15, Msize: 99, Version: "muffin"})
	require.NoError(t, err)

	var got versionLV8
	err = ispf.UnmarshalLE(append(full, 0xFF), &got)
	assert.ErrorIs(t, err, ispf.ErrTrailingBytes)
}

func TestUnmarshal_TrailingBytesAfterEmptyStruct(t *testing.T) {
	type empty struct{}
	err := ispf.UnmarshalLE([]byte{1}, &empty{})
	assert.ErrorIs(t, err, ispf.ErrTrailingBytes)
}

// ────────────────────────────────────────────────────────────────────────────
// Malformed byte-unit blocks
// ────────────────────────────────────────────────────────────────────────────

func TestUnmarshal_ElementOverrunsBlock(t *testing.T) {
	type msg struct {
		V []uint16 `ispf:"vec_lv8b"`
	}
	// A 3-byte block cannot hold a whole number of 16-bit elements.
	var got msg
	err := ispf.UnmarshalLE([]byte{3, 1, 0, 2}, &got)
	assert.ErrorIs(t, err, ispf.ErrInvalidEncoding)
}

func TestUnmarshal_BlockConsumedExactly(t *testing.T) {
	type msg struct {
		V []uint16 `ispf:"vec_lv8b"`
	}
	var got msg
	require.NoError(t, ispf.UnmarshalLE([]byte{4, 1, 0, 2, 0}, &got))
	assert.Equal(t, []uint16{1, 2}, got.V)
}

func TestUnmarshal_BlockElementsMakeNoProgress(t *testing.T) {
	type nothing struct{}
	type msg struct {
		V []nothing `ispf:"vec_lv8b"`
	}
	// Zero-size elements can never consume the declared block.
	var got msg
	err := ispf.UnmarshalLE([]byte{2, 0xAA, 0xBB}, &got)
	assert.ErrorIs(t, err, ispf.ErrTrailingBytes)
}

// ────────────────────────────────────────────────────────────────────────────
// Decode guards
// ────────────────────────────────────────────────────────────────────────────

func TestDecoder_MaxElements(t *testing.T) {
	type msg struct {
		V []uint16 `ispf:"vec_lv16"`
	}
	dec := ispf.NewDecoder(ispf.Options{MaxElements: 4})

	var got msg
	err := dec.Unmarshal([]byte{5, 0, 1, 0, 2, 0, 3, 0, 4, 0, 5, 0}, &got)
	assert.ErrorIs(t, err, ispf.ErrLimitExceeded)

	require.NoError(t, dec.Unmarshal([]byte{4, 0, 1, 0, 2, 0, 3, 0, 4, 0}, &got))
	assert.Equal(t, []uint16{1, 2, 3, 4}, got.V)
}

func TestDecoder_MaxBytes(t *testing.T) {
	type msg struct {
		S string `ispf:"str_lv8"`
	}
	dec := ispf.NewDecoder(ispf.Options{MaxBytes: 8})

	var got msg
	err := dec.Unmarshal([]byte{9, 'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i'}, &got)
	assert.ErrorIs(t, err, ispf.ErrLimitExceeded)
}

func TestUnmarshal_DefaultByteLimit(t *testing.T) {
	type msg struct {
		S string `ispf:"str_lv32"`
	}
	// A prefix one past DefaultMaxBytes is rejected before any allocation.
	n := uint32(ispf.DefaultMaxBytes + 1)
	in := binary.LittleEndian.AppendUint32(nil, n)

	var got msg
	err := ispf.UnmarshalLE(in, &got)
	assert.ErrorIs(t, err, ispf.ErrLimitExceeded)
}

func TestDecoder_MaxElementsInsideBlock(t *testing.T) {
	type msg struct {
		V []uint16 `ispf:"vec_lv8b"`
	}
	dec := ispf.NewDecoder(ispf.Options{MaxElements: 2})

	var got msg
	err := dec.Unmarshal([]byte{6, 1, 0, 2, 0, 3, 0}, &got)
	assert.ErrorIs(t, err, ispf.ErrLimitExceeded)
}

// ────────────────────────────────────────────────────────────────────────────
// Targets
// ────────────────────────────────────────────────────────────────────────────

func TestUnmarshal_RejectsBadTargets(t *testing.T) {
	b, err := ispf.MarshalLE(version{Version: "v"})
	require.NoError(t, err)

	var v version
	assert.ErrorIs(t, ispf.UnmarshalLE(b, v), ispf.ErrInvalidValue)
	assert.ErrorIs(t, ispf.UnmarshalLE(b, nil), ispf.ErrInvalidValue)

	var p *version
	assert.ErrorIs(t, ispf.UnmarshalLE(b, p), ispf.ErrInvalidValue)

	var n int
	assert.ErrorIs(t, ispf.UnmarshalLE(b, &n), ispf.ErrInvalidValue)
}

func TestDecode_GenericReturnsZeroOnError(t *testing.T) {
	got, err := ispf.Decode[version]([]byte{1, 2}, binary.LittleEndian)
	require.Error(t, err)
	assert.Equal(t, version{}, got)
}

// ────────────────────────────────────────────────────────────────────────────
// Instances and stats
// ────────────────────────────────────────────────────────────────────────────

func TestEncoder_OrderAndStats(t *testing.T) {
	enc := ispf.NewEncoder(ispf.Options{Order: binary.BigEndian})

	v := versionLV16{Size: 47, Typ: 9, Tag: 15, Msize: 99, Version: "muffin"}
	got, err := enc.Marshal(v)
	require.NoError(t, err)
	want, err := ispf.MarshalBE(v)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = enc.Marshal(42)
	require.Error(t, err)

	st := enc.Stats()
	assert.Equal(t, int64(2), st.Ops)
	assert.Equal(t, int64(len(want)), st.Bytes)
	assert.Equal(t, int64(1), st.Errors)
}

func TestDecoder_OrderAndStats(t *testing.T) {
	v := readdir8{Size: 47, Typ: 9, Tag: 15, Data: sampleDirents()}
	b, err := ispf.MarshalBE(v)
	require.NoError(t, err)

	dec := ispf.NewDecoder(ispf.Options{Order: binary.BigEndian})
	var got readdir8
	require.NoError(t, dec.Unmarshal(b, &got))
	assert.Equal(t, v, got)

	require.Error(t, dec.Unmarshal(b[:3], &got))

	st := dec.Stats()
	assert.Equal(t, int64(2), st.Ops)
	assert.Equal(t, int64(len(b)), st.Bytes)
	assert.Equal(t, int64(1), st.Errors)
}

type captureLogger struct {
	msgs []string
}

func (l *captureLogger) Info(msg string, _ ...any)  { l.msgs = append(l.msgs, msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.msgs = append(l.msgs, msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.msgs = append(l.msgs, msg) }
func (l *captureLogger) Debug(msg string, _ ...any) { l.msgs = append(l.msgs, msg) }

func TestDecoder_LogsRejectedInput(t *testing.T) {
	log := &captureLogger{}
	dec := ispf.NewDecoder(ispf.Options{Logger: log})

	var got version
	require.Error(t, dec.Unmarshal([]byte{1, 2}, &got))
	require.NotEmpty(t, log.msgs)
	assert.Equal(t, "decode rejected", log.msgs[0])
}

type captureMetrics struct {
	encodes, decodes, bytes int
	errs                    []string
}

func (m *captureMetrics) RecordEncode(schema string, n int) { m.encodes++; m.bytes += n }
func (m *captureMetrics) RecordDecode(schema string, n int) { m.decodes++; m.bytes += n }
func (m *captureMetrics) RecordError(op, schema string) {
	m.errs = append(m.errs, op+" "+schema)
}

func TestCodec_RecordsMetrics(t *testing.T) {
	rec := &captureMetrics{}
	enc := ispf.NewEncoder(ispf.Options{Metrics: rec})
	dec := ispf.NewDecoder(ispf.Options{Metrics: rec})

	b, err := enc.Marshal(version{Size: 47, Typ: 9, Tag: 15, Msize: 99, Version: "muffin"})
	require.NoError(t, err)

	var got version
	require.NoError(t, dec.Unmarshal(b, &got))
	require.Error(t, dec.Unmarshal(b[:2], &got))

	assert.Equal(t, 1, rec.encodes)
	assert.Equal(t, 1, rec.decodes)
	assert.Equal(t, 2*len(b), rec.bytes)
	assert.Equal(t, []string{"decode version"}, rec.errs)
}
