// Package codec provides pluggable serializers behind one interface, so
// hosts can swap the packed wire format for JSON or MessagePack payloads
// without touching call sites.
package codec

// Codec encodes and decodes values for transport or storage.
type Codec interface {
	// Marshal serializes v into bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes data into v (must be a pointer).
	Unmarshal(data []byte, v any) error
	// Name returns the codec identifier used for diagnostics.
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = Packed{}
