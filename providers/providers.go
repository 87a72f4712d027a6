// Package providers implements the converter-provider protocol: a
// GenericConverterProvider matches a (From, To) type pair and produces a
// ConverterDescriptor whose bound method converts a value of type From
// into a value of type To.
//
// This package is a leaf with no dependency on the root emitmapper
// package — it talks to the plan builder only through the
// SubMapperResolver and StaticRegistry interfaces/types defined here, so
// emitmapper can depend on providers without a cycle.
package providers

import "reflect"

// State is the caller-supplied context threaded through a mapping
// invocation; kept as an independent alias (rather than importing
// emitmapper.State) so this package has zero dependency on the root
// package.
type State = any

// ConverterFunc converts one value.
type ConverterFunc func(value reflect.Value, state State) (reflect.Value, error)

// ConverterDescriptor is what a GenericConverterProvider produces for a
// concrete (From, To) pair: a record of which provider and type arguments
// produced it (useful for diagnostics) plus the bound, callable conversion
// function itself.
type ConverterDescriptor struct {
	// ImplType/TypeArgs/MethodName describe provenance only (useful for
	// diagnostics); Convert is authoritative.
	ImplType   reflect.Type
	TypeArgs   []reflect.Type
	MethodName string

	Convert ConverterFunc
}

// SubMapperResolver lets a provider recursively ask the manager for an
// executor between two element types, planned under the same configuration
// as the mapping that triggered it. Implemented in package emitmapper by a
// per-build resolver that pairs a Manager with the active configuration.
type SubMapperResolver interface {
	ResolveScalarConverter(from, to reflect.Type) (ConverterFunc, error)
}

// MatchContext is the bundle of collaborators a provider needs to build a
// ConverterDescriptor: the active static registry (the configuration's own,
// or the process default when it has none; Resolve falls back to the
// process default for pairs it lacks) and a resolver for recursive
// element-type sub-mappers.
type MatchContext struct {
	Statics      *StaticRegistry
	Resolver     SubMapperResolver
	ShallowCopy  bool // the configuration's ShallowCopy flag (Configuration.WithShallowCopy)
}

// GenericConverterProvider is the protocol for generic converters: a
// provider matches when From and To satisfy its type pattern (open
// generic, array, or concrete).
type GenericConverterProvider interface {
	// Match reports whether this provider can produce a converter for
	// (from, to) at all (the type-pattern test).
	Match(from, to reflect.Type) bool
	// Build produces the ConverterDescriptor for a matched (from, to)
	// pair. Called only after Match returned true.
	Build(from, to reflect.Type, ctx MatchContext) (ConverterDescriptor, error)
}
