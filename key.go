package emitmapper

import (
	"reflect"

	"github.com/niubilitynetcore/EmitMapper/internal/typekey"
)

// TypeKey is the public alias for the engine's type-keyed dictionary
// primitive. See internal/typekey for the implementation shared with the
// providers package.
type TypeKey = typekey.Key

// NewTypeKey builds a TypeKey from an ordered list of types.
func NewTypeKey(types ...reflect.Type) TypeKey {
	return typekey.New(types...)
}
