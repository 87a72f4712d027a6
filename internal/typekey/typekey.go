// Package typekey implements the type-keyed dictionary primitive used
// throughout the engine: an ordered tuple of reflect.Type values used as a
// map key — (from, to) for converters and generic provider registrations,
// (to) for constructors, (src, dst) for ignored-member sets.
//
// It is its own leaf package because both the root emitmapper package and
// the providers package need it without importing each other.
package typekey

import (
	"reflect"
	"strings"
)

// Key is a hashable, comparable tuple of types. Equality is element-wise
// type identity; two Keys built from the same ordered type sequence are
// equal regardless of when or where they were built.
type Key string

// New builds a Key from an ordered list of types. A nil entry is permitted
// and participates in identity like any other element.
func New(types ...reflect.Type) Key {
	var b strings.Builder
	for i, t := range types {
		if i > 0 {
			b.WriteByte('\x00')
		}
		if t == nil {
			b.WriteString("<nil>")
			continue
		}
		b.WriteString(t.PkgPath())
		b.WriteByte('.')
		b.WriteString(t.String())
	}
	return Key(b.String())
}
