package emitmapper

import (
	"reflect"

	"github.com/niubilitynetcore/EmitMapper/providers"
)

// StaticConverters is the public alias for the engine's static scalar
// conversion registry. See providers.StaticRegistry for the implementation
// shared with the built-in generic converter providers.
type StaticConverters = providers.StaticRegistry

// NewStaticConverters returns an empty, independent registry.
func NewStaticConverters() *StaticConverters {
	return providers.NewStaticRegistry()
}

// DefaultStaticConverters returns the process-wide fallback registry
// consulted when a configuration doesn't provide its own.
func DefaultStaticConverters() *StaticConverters {
	return providers.DefaultStaticRegistry()
}

// RegisterStaticConverter is a convenience wrapper over
// StaticConverters.Register for the common case of a pure F → T function.
func RegisterStaticConverter[F, T any](registry *StaticConverters, f func(F) T) {
	fromType := reflect.TypeOf((*F)(nil)).Elem()
	toType := reflect.TypeOf((*T)(nil)).Elem()
	registry.Register(fromType, toType, func(v reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(f(v.Interface().(F))), nil
	})
}
