package emitmapper

import "reflect"

// State is the free-form, caller-supplied context threaded through a single
// mapping invocation and visible to every converter, null-substitutor,
// constructor, filter and post-processor.
type State = any

// ConverterFunc converts a single value, optionally consulting state.
type ConverterFunc func(value reflect.Value, state State) (reflect.Value, error)

// NullSubstitutorFunc produces a replacement value for an absent source.
type NullSubstitutorFunc func(state State) (reflect.Value, error)

// ConstructorFunc produces a fresh destination (or nested destination)
// value.
type ConstructorFunc func(state State) (reflect.Value, error)

// PostProcessorFunc replaces a just-populated value with its own result.
type PostProcessorFunc func(value reflect.Value, state State) (reflect.Value, error)

// FilterFunc vetoes a read or a write: false suppresses it.
type FilterFunc func(value reflect.Value, state State) bool

// OperationKind tags the variant a MappingOperation carries. EmitMapper
// represents the operation tree as one tagged sum with a per-variant
// execution path in executor.go, rather than a class hierarchy.
type OperationKind int

const (
	OpReadWriteSimple OperationKind = iota
	OpReadWriteComplex
	OpOperationsBlock
	OpRoot
	OpSrcRead
	OpDstWrite
)

func (k OperationKind) String() string {
	switch k {
	case OpReadWriteSimple:
		return "ReadWriteSimple"
	case OpReadWriteComplex:
		return "ReadWriteComplex"
	case OpOperationsBlock:
		return "OperationsBlock"
	case OpRoot:
		return "Root"
	case OpSrcRead:
		return "SrcRead"
	case OpDstWrite:
		return "DstWrite"
	default:
		return "Unknown"
	}
}

// MappingOperation is a node in the plan tree produced by the plan builder
// and consumed by the executor (and, read-only, by sqlupdate). Fields not
// relevant to Kind are left zero.
type MappingOperation struct {
	Kind OperationKind

	Source      *MemberDescriptor
	Destination *MemberDescriptor

	NullSubstitutor   NullSubstitutorFunc
	TargetConstructor ConstructorFunc
	Converter         ConverterFunc
	SourceFilter      FilterFunc
	DestinationFilter FilterFunc

	ValuesPostProcessor PostProcessorFunc

	Operations []*MappingOperation

	// Root-only whole-object policy fields.
	FromType reflect.Type
	ToType   reflect.Type
}

// Leaf reports whether this operation directly moves one value (as opposed
// to grouping or recursing into a nested plan).
func (op *MappingOperation) Leaf() bool {
	switch op.Kind {
	case OpReadWriteSimple, OpSrcRead, OpDstWrite:
		return true
	default:
		return false
	}
}
