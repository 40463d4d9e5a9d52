package schema

import (
	"reflect"
	"sync"
)

// registry caches compiled schemas per struct type. Compilation is pure, so
// a losing racer simply discards its copy and adopts the cached one.
type registry struct {
	mu      sync.RWMutex
	schemas map[reflect.Type]*Schema
}

func newRegistry() *registry {
	return &registry{schemas: make(map[reflect.Type]*Schema)}
}

var global = newRegistry()

// For returns the compiled schema for the given struct type, compiling it on
// first use. Safe for concurrent use from any number of goroutines.
func For(t reflect.Type) (*Schema, error) {
	global.mu.RLock()
	s, ok := global.schemas[t]
	global.mu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := Compile(t)
	if err != nil {
		return nil, err
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	if prior, ok := global.schemas[t]; ok {
		return prior, nil
	}
	global.schemas[t] = s
	return s, nil
}
