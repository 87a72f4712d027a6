// Package emitmapper implements an object-to-object mapping engine: given a
// source value of type S and a destination type D, it builds and caches an
// executor that populates an instance of D from a matching instance of S
// according to a user-declared Configuration (member ignores, null
// substitution, custom constructors, custom converters, generic converter
// providers, filters, post-processors).
//
// Member matching is name-based (with recognize-prefixes, manual field
// overrides, and ignore lists) and works over runtime reflect.Type values
// rather than flat field pairs, producing a full tree of mapping operations
// that Manager caches per (source type, destination type, configuration
// name).
package emitmapper
