// Package metrics provides the Recorder interface and a noop implementation.
package metrics

// Recorder is the interface for recording codec activity.
type Recorder interface {
	RecordEncode(schema string, bytes int)
	RecordDecode(schema string, bytes int)
	RecordError(op, schema string)
}

// Noop is a Recorder that discards all data.
type Noop struct{}

func (Noop) RecordEncode(schema string, bytes int) {}
func (Noop) RecordDecode(schema string, bytes int) {}
func (Noop) RecordError(op, schema string)         {}
