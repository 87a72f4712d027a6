package emitmapper

import "reflect"

// rawExecutor is the reflect-only core of the mapper executor: it
// interprets a *MappingOperation tree against reflect.Values.
// Executor[S, D] is a thin generic facade over it for callers who know S
// and D at compile time; the manager also uses rawExecutor directly (via
// boundResolver) to build recursive sub-mappers for generic converter
// providers, where S and D are only known as reflect.Type at that point.
type rawExecutor struct {
	plan             *MappingOperation
	fromType, toType reflect.Type
}

func (e *rawExecutor) createTarget(state State) (reflect.Value, error) {
	if e.toType.Kind() != reflect.Ptr {
		if e.plan.TargetConstructor != nil {
			return e.plan.TargetConstructor(state)
		}
		return reflect.Zero(e.toType), nil
	}
	if e.plan.TargetConstructor != nil {
		v, err := e.plan.TargetConstructor(state)
		if err != nil {
			return reflect.Value{}, err
		}
		if v.Kind() != reflect.Ptr {
			ptr := reflect.New(v.Type())
			ptr.Elem().Set(v)
			v = ptr
		}
		return v, nil
	}
	if e.toType.Elem().Kind() == reflect.Interface {
		return reflect.Zero(e.toType), nil
	}
	return reflect.New(e.toType.Elem()), nil
}

// mapInto applies the plan, constructing dst via createTarget when it is
// absent (a nil pointer).
func (e *rawExecutor) mapInto(src, dst reflect.Value, state State) (reflect.Value, error) {
	var dstPtr reflect.Value
	if e.toType.Kind() == reflect.Ptr {
		if !dst.IsValid() || dst.IsNil() {
			created, err := e.createTarget(state)
			if err != nil {
				return reflect.Value{}, err
			}
			dst = created
		}
		dstPtr = dst
	} else {
		dstPtr = reflect.New(e.toType)
		if dst.IsValid() {
			dstPtr.Elem().Set(dst)
		}
	}

	result, err := executeRoot(e.plan, src, dstPtr, state)
	if err != nil {
		return reflect.Value{}, err
	}
	if e.toType.Kind() == reflect.Ptr {
		return result, nil
	}
	return result.Elem(), nil
}

func (e *rawExecutor) mapValue(src reflect.Value, state State) (reflect.Value, error) {
	target, err := e.createTarget(state)
	if err != nil {
		return reflect.Value{}, err
	}
	return e.mapInto(src, target, state)
}

func (e *rawExecutor) storedOperations() []MappingOperation {
	return flattenLeaves(e.plan)
}

// Executor is the public, compile-time-typed mapper contract: CreateTarget,
// Map, MapValue, plus StoredOperations for consumers (like sqlupdate) that
// introspect what members a plan touches.
type Executor[S, D any] struct {
	raw *rawExecutor
}

// CreateTarget produces a fresh destination.
func (e *Executor[S, D]) CreateTarget() D {
	var zero D
	v, err := e.raw.createTarget(nil)
	if err != nil || !v.IsValid() {
		return zero
	}
	return v.Interface().(D)
}

// Map applies the root operation to src, constructing dst first if it is
// absent, and returns the populated destination.
func (e *Executor[S, D]) Map(src S, dst D, state State) (D, error) {
	result, err := e.raw.mapInto(reflect.ValueOf(src), reflect.ValueOf(dst), state)
	if err != nil {
		return dst, err
	}
	return result.Interface().(D), nil
}

// MapValue creates a target and maps into it in one call.
func (e *Executor[S, D]) MapValue(src S, state State) (D, error) {
	var zero D
	result, err := e.raw.mapValue(reflect.ValueOf(src), state)
	if err != nil {
		return zero, err
	}
	return result.Interface().(D), nil
}

// StoredOperations returns the flattened leaf operations of this
// executor's plan, in declaration order.
func (e *Executor[S, D]) StoredOperations() []MappingOperation {
	return e.raw.storedOperations()
}

// executeRoot runs a Root operation: source filter, then converter or
// member operations, then post-processor.
func executeRoot(root *MappingOperation, srcVal, dstPtr reflect.Value, state State) (reflect.Value, error) {
	if root.SourceFilter != nil && !root.SourceFilter(srcVal, state) {
		return dstPtr, nil
	}

	if root.Converter != nil {
		converted, err := root.Converter(srcVal, state)
		if err != nil {
			return reflect.Value{}, err
		}
		dstPtr = asPointer(converted, dstPtr.Type())
	} else if root.DestinationFilter == nil || root.DestinationFilter(dstPtr.Elem(), state) {
		if err := executeOperations(root.Operations, srcVal, dstPtr.Elem(), state); err != nil {
			return reflect.Value{}, err
		}
	}

	if root.ValuesPostProcessor != nil {
		pp, err := root.ValuesPostProcessor(dstPtr.Elem(), state)
		if err != nil {
			return reflect.Value{}, err
		}
		dstPtr = asPointer(pp, dstPtr.Type())
	}
	return dstPtr, nil
}

func executeOperations(ops []*MappingOperation, srcParent, dstParent reflect.Value, state State) error {
	srcParent = derefValue(srcParent)
	for _, op := range ops {
		switch op.Kind {
		case OpReadWriteSimple:
			if err := executeSimple(op, srcParent, dstParent, state); err != nil {
				return err
			}
		case OpReadWriteComplex:
			if err := executeComplex(op, srcParent, dstParent, state); err != nil {
				return err
			}
		case OpOperationsBlock:
			if err := executeOperations(op.Operations, srcParent, dstParent, state); err != nil {
				return err
			}
		}
	}
	return nil
}

func executeSimple(op *MappingOperation, srcParent, dstParent reflect.Value, state State) error {
	srcVal, err := op.Source.Get(srcParent)
	if err != nil {
		return err
	}

	var outVal reflect.Value
	if isAbsent(srcVal) {
		if op.NullSubstitutor != nil {
			outVal, err = op.NullSubstitutor(state)
			if err != nil {
				return err
			}
		} else {
			outVal = reflect.Zero(op.Destination.ValueType)
		}
	} else if op.Converter != nil {
		outVal, err = op.Converter(srcVal, state)
		if err != nil {
			return err
		}
	} else {
		outVal = srcVal
	}

	if op.DestinationFilter != nil && !op.DestinationFilter(outVal, state) {
		return nil
	}
	return op.Destination.Set(dstParent, outVal)
}

func executeComplex(op *MappingOperation, srcParent, dstParent reflect.Value, state State) error {
	srcVal, err := op.Source.Get(srcParent)
	if err != nil {
		return err
	}
	if isAbsent(srcVal) {
		return nil // absent nested source with no substitutor: leave destination untouched
	}

	nestedDstPtr, err := ensureNestedDestination(op, dstParent, state)
	if err != nil {
		return err
	}

	if err := executeOperations(op.Operations, srcVal, nestedDstPtr.Elem(), state); err != nil {
		return err
	}

	result := nestedDstPtr.Elem()
	if op.ValuesPostProcessor != nil {
		pp, err := op.ValuesPostProcessor(result, state)
		if err != nil {
			return err
		}
		result = pp
	}

	finalVal := coerceTo(result, op.Destination.ValueType)
	if op.DestinationFilter != nil && !op.DestinationFilter(finalVal, state) {
		return nil
	}
	return op.Destination.Set(dstParent, finalVal)
}

func ensureNestedDestination(op *MappingOperation, dstParent reflect.Value, state State) (reflect.Value, error) {
	existing, err := op.Destination.Get(dstParent)
	if err != nil {
		return reflect.Value{}, err
	}

	destType := op.Destination.ValueType
	if destType.Kind() == reflect.Ptr {
		if existing.IsValid() && !existing.IsNil() {
			return existing, nil
		}
		if op.TargetConstructor != nil {
			v, err := op.TargetConstructor(state)
			if err != nil {
				return reflect.Value{}, err
			}
			return asPointer(v, destType), nil
		}
		return reflect.New(destType.Elem()), nil
	}

	ptr := reflect.New(destType)
	if existing.IsValid() {
		ptr.Elem().Set(existing)
	}
	if op.TargetConstructor != nil {
		if v, err := op.TargetConstructor(state); err == nil {
			ptr.Elem().Set(coerceTo(v, destType))
		}
	}
	return ptr, nil
}

func asPointer(v reflect.Value, ptrType reflect.Type) reflect.Value {
	if v.Kind() == reflect.Ptr {
		return v
	}
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return ptr
}

func coerceTo(v reflect.Value, wantType reflect.Type) reflect.Value {
	if wantType.Kind() == reflect.Ptr {
		if v.Kind() == reflect.Ptr {
			return v
		}
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		return ptr
	}
	if v.Kind() == reflect.Ptr {
		return v.Elem()
	}
	return v
}

func derefValue(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func isAbsent(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// flattenLeaves walks a plan and returns its leaf operations
// (ReadWriteSimple, SrcRead, DstWrite) in declaration order.
func flattenLeaves(op *MappingOperation) []MappingOperation {
	var out []MappingOperation
	var walk func(o *MappingOperation)
	walk = func(o *MappingOperation) {
		if o == nil {
			return
		}
		if o.Leaf() {
			out = append(out, *o)
			return
		}
		for _, c := range o.Operations {
			walk(c)
		}
	}
	walk(op)
	return out
}

// BuildReadPlan enumerates the readable members of s as a Root whose
// operations are SrcRead leaves, for consumers — like sqlupdate — that read
// member metadata without mapping into another Go type.
func BuildReadPlan(s reflect.Type, cfg *Configuration) (*MappingOperation, error) {
	snap, err := cfg.snapshot()
	if err != nil {
		return nil, err
	}
	structType := unwrapStruct(s)
	members := PublicMembers(structType, IntrospectOptions{EnableMethods: snap.enableMethods})

	ops := make([]*MappingOperation, 0, len(members))
	for i := range members {
		if !members[i].Readable {
			continue
		}
		m := members[i]
		ops = append(ops, &MappingOperation{Kind: OpSrcRead, Source: &m})
	}
	return &MappingOperation{Kind: OpRoot, FromType: s, Operations: ops}, nil
}

// ReadLeaves flattens a BuildReadPlan result into its SrcRead leaves, in
// declaration order.
func ReadLeaves(root *MappingOperation) []MappingOperation {
	return flattenLeaves(root)
}
