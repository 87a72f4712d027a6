package providers

import (
	"reflect"
	"sync"

	"github.com/niubilitynetcore/EmitMapper/internal/typekey"
)

// StaticRegistry is a table of free-function scalar conversions (F,T) → f.
// A process-default instance is consulted by Collection's
// different-element-type path when a configuration hasn't overridden it:
// the configuration's own registry is tried first, then the process
// default, then resolution fails.
type StaticRegistry struct {
	mu    sync.RWMutex
	funcs map[typekey.Key]ConverterFunc
}

// NewStaticRegistry returns an empty, independent registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{funcs: make(map[typekey.Key]ConverterFunc)}
}

// Register installs f as the converter for (from, to). Re-registering the
// same pair overwrites the previous entry.
func (r *StaticRegistry) Register(from, to reflect.Type, f func(reflect.Value) (reflect.Value, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[typekey.New(from, to)] = func(v reflect.Value, _ State) (reflect.Value, error) {
		return f(v)
	}
}

// RegisterStateful is Register for converters that need the per-call state
// value.
func (r *StaticRegistry) RegisterStateful(from, to reflect.Type, f ConverterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[typekey.New(from, to)] = f
}

// Lookup returns the registered converter for (from, to), if any.
func (r *StaticRegistry) Lookup(from, to reflect.Type) (ConverterFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[typekey.New(from, to)]
	return f, ok
}

var processDefault = NewStaticRegistry()

// DefaultStaticRegistry returns the process-wide fallback registry.
func DefaultStaticRegistry() *StaticRegistry {
	return processDefault
}

// Resolve looks up a scalar conversion for a generic provider: the
// configuration's registry first, then the process default, then fail.
func Resolve(cfgRegistry *StaticRegistry, from, to reflect.Type) (ConverterFunc, bool) {
	if cfgRegistry != nil {
		if f, ok := cfgRegistry.Lookup(from, to); ok {
			return f, true
		}
	}
	return processDefault.Lookup(from, to)
}
