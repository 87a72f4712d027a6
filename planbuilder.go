package emitmapper

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/niubilitynetcore/EmitMapper/providers"
)

// planBuildContext carries the state threaded through one BuildPlan call:
// the frozen configuration, a resolver for recursive sub-mappers (used by
// generic providers like providers.Collection), a per-build memo of
// already-built (from,to) sub-plans, and the ancestor stack used for cycle
// detection.
type planBuildContext struct {
	cfg      *Configuration
	resolver providers.SubMapperResolver

	ancestors    map[TypeKey]bool
	ancestorPath []reflect.Type
	memo         map[TypeKey]*MappingOperation
}

// BuildPlan walks (from, to) member-by-member under cfg and produces the
// Root operation covering every matchable member pair. cfg must already be
// a frozen snapshot (Configuration.snapshot), not a caller-mutable
// Configuration.
func BuildPlan(from, to reflect.Type, cfg *Configuration, resolver providers.SubMapperResolver) (*MappingOperation, error) {
	ctx := &planBuildContext{
		cfg:       cfg,
		resolver:  resolver,
		ancestors: make(map[TypeKey]bool),
		memo:      make(map[TypeKey]*MappingOperation),
	}
	return ctx.buildRoot(from, to)
}

func (ctx *planBuildContext) buildRoot(from, to reflect.Type) (*MappingOperation, error) {
	root := &MappingOperation{Kind: OpRoot, FromType: from, ToType: to}

	if ns, ok := ctx.cfg.nullSubs[NewTypeKey(from, to)]; ok {
		root.NullSubstitutor = ns
	}
	if tc, ok := ctx.cfg.constructors[NewTypeKey(to)]; ok {
		root.TargetConstructor = tc
	}
	if pp, ok := ctx.cfg.postProcessors[NewTypeKey(to)]; ok {
		root.ValuesPostProcessor = pp
	}
	if sf, ok := ctx.cfg.sourceFilters[NewTypeKey(from)]; ok {
		root.SourceFilter = sf
	}
	if df, ok := ctx.cfg.destFilters[NewTypeKey(to)]; ok {
		root.DestinationFilter = df
	}

	if c, ok := ctx.cfg.converters[NewTypeKey(from, to)]; ok {
		root.Converter = c
		return root, nil
	}

	if conv, matched, err := ctx.matchGenericProvider(from, to); matched {
		if err != nil {
			return nil, err
		}
		root.Converter = conv
		return root, nil
	}

	ops, err := ctx.buildMembers(from, to)
	if err != nil {
		return nil, err
	}
	root.Operations = ops
	return root, nil
}

// buildMembers enumerates destination writable members and source readable
// members, matches them by name (after affix stripping), skips ignores,
// and emits a leaf or recurses for each matched pair.
func (ctx *planBuildContext) buildMembers(from, to reflect.Type) ([]*MappingOperation, error) {
	srcStruct := unwrapStruct(from)
	dstStruct := unwrapStruct(to)
	if srcStruct == nil || dstStruct == nil {
		return nil, nil
	}

	opts := IntrospectOptions{EnableMethods: ctx.cfg.enableMethods}
	srcMembers := PublicMembers(srcStruct, opts)
	dstMembers := PublicMembers(dstStruct, opts)

	pairKey := NewTypeKey(from, to)
	ignored := make(map[string]bool)
	for _, n := range ctx.cfg.ignoredMembers[pairKey] {
		ignored[n] = true
	}
	manual := ctx.cfg.manualFieldMaps[pairKey]

	var ops []*MappingOperation
	for _, dm := range dstMembers {
		if !dm.Writable || ignored[dm.Name] {
			continue
		}

		sm := findManualSource(dm, srcMembers, manual)
		if sm == nil {
			sm = findMatchingSource(dm, srcMembers, ctx.cfg.prefixes, ctx.cfg.postfixes)
		}
		if sm == nil || ignored[sm.Name] {
			continue // no matching source member: left unmapped, not an error
		}

		op, err := ctx.buildPair(*sm, dm)
		if err != nil {
			return nil, err
		}
		if op != nil {
			ops = append(ops, op)
		}
	}
	return ops, nil
}

func findManualSource(dm MemberDescriptor, srcMembers []MemberDescriptor, manual map[string]string) *MemberDescriptor {
	if manual == nil {
		return nil
	}
	srcName, ok := manual[dm.Name]
	if !ok {
		return nil
	}
	for i := range srcMembers {
		if srcMembers[i].Name == srcName {
			return &srcMembers[i]
		}
	}
	return nil
}

// findMatchingSource finds the source member whose name (after affix
// stripping) matches dm's. It only checks naming, not whether the matched
// pair is actually convertible — resolveMemberConversion does that finer
// check once a name match is found.
func findMatchingSource(dm MemberDescriptor, srcMembers []MemberDescriptor, prefixes, postfixes []string) *MemberDescriptor {
	dstNames := stripAffixes(dm.Name, prefixes, postfixes)
	for i := range srcMembers {
		if !srcMembers[i].Readable {
			continue
		}
		srcNames := stripAffixes(srcMembers[i].Name, prefixes, postfixes)
		for _, dn := range dstNames {
			for _, sn := range srcNames {
				if dn == sn {
					return &srcMembers[i]
				}
			}
		}
	}
	return nil
}

// buildPair resolves one matched (source, destination) member pair into a
// ReadWriteSimple leaf or a ReadWriteComplex recursion.
func (ctx *planBuildContext) buildPair(sm, dm MemberDescriptor) (*MappingOperation, error) {
	resolution, err := ctx.resolveMemberConversion(sm.ValueType, dm.ValueType)
	if err != nil {
		return nil, err
	}

	sourceCopy, destCopy := sm, dm

	if resolution.isLeaf {
		op := &MappingOperation{
			Kind:        OpReadWriteSimple,
			Source:      &sourceCopy,
			Destination: &destCopy,
			Converter:   resolution.converter,
		}
		if ns, ok := ctx.cfg.nullSubs[NewTypeKey(sm.ValueType, dm.ValueType)]; ok {
			op.NullSubstitutor = ns
		}
		if sf, ok := ctx.cfg.sourceFilters[NewTypeKey(sm.ValueType)]; ok {
			op.SourceFilter = sf
		}
		if df, ok := ctx.cfg.destFilters[NewTypeKey(dm.ValueType)]; ok {
			op.DestinationFilter = df
		}
		if tc, ok := ctx.cfg.constructors[NewTypeKey(dm.ValueType)]; ok {
			op.TargetConstructor = tc
		}
		return op, nil
	}

	return ctx.buildComplex(sourceCopy, destCopy)
}

func (ctx *planBuildContext) buildComplex(sm, dm MemberDescriptor) (*MappingOperation, error) {
	key := NewTypeKey(sm.ValueType, dm.ValueType)

	if cached, ok := ctx.memo[key]; ok {
		return &MappingOperation{
			Kind:                OpReadWriteComplex,
			Source:              &sm,
			Destination:         &dm,
			Operations:          cached.Operations,
			ValuesPostProcessor: cached.ValuesPostProcessor,
			TargetConstructor:   cached.TargetConstructor,
		}, nil
	}

	if ctx.ancestors[key] {
		return nil, newCycleError(append(ctx.ancestorPath, dm.ValueType))
	}

	ctx.ancestors[key] = true
	ctx.ancestorPath = append(ctx.ancestorPath, dm.ValueType)
	nested, err := ctx.buildMembers(sm.ValueType, dm.ValueType)
	ctx.ancestorPath = ctx.ancestorPath[:len(ctx.ancestorPath)-1]
	delete(ctx.ancestors, key)
	if err != nil {
		return nil, err
	}

	op := &MappingOperation{
		Kind:        OpReadWriteComplex,
		Source:      &sm,
		Destination: &dm,
		Operations:  nested,
	}
	if tc, ok := ctx.cfg.constructors[NewTypeKey(dm.ValueType)]; ok {
		op.TargetConstructor = tc
	}
	if pp, ok := ctx.cfg.postProcessors[NewTypeKey(dm.ValueType)]; ok {
		op.ValuesPostProcessor = pp
	}
	ctx.memo[key] = op
	return op, nil
}

type memberResolution struct {
	isLeaf    bool
	converter ConverterFunc
}

// resolveMemberConversion decides how to connect a matched member pair:
// registered converter, then generic provider, then scalar/enum/nullable
// (plain copy or a widening conversion), else recurse as ReadWriteComplex.
// A scalar destination with no way to reach it from the source type raises
// a ConfigurationError here at build time, rather than surfacing as a
// runtime surprise.
func (ctx *planBuildContext) resolveMemberConversion(from, to reflect.Type) (memberResolution, error) {
	if c, ok := ctx.cfg.converters[NewTypeKey(from, to)]; ok {
		return memberResolution{isLeaf: true, converter: c}, nil
	}

	if conv, matched, err := ctx.matchGenericProvider(from, to); matched {
		if err != nil {
			return memberResolution{}, err
		}
		return memberResolution{isLeaf: true, converter: conv}, nil
	}

	if IsScalar(from) || IsScalar(to) {
		if from == to {
			return memberResolution{isLeaf: true}, nil
		}
		if scalarAssignable(from, to) {
			return memberResolution{isLeaf: true, converter: scalarConvertFunc(from, to)}, nil
		}
		if IsNullable(from) && !IsNullable(to) {
			u := Underlying(from)
			if u == to || scalarAssignable(u, to) {
				return memberResolution{isLeaf: true, converter: derefConvertFunc(u, to)}, nil
			}
		}
		return memberResolution{}, newConfigurationError(from, to,
			errors.Errorf("no static or custom conversion between scalar types %s and %s", from, to))
	}

	if unwrapStruct(from) != nil && unwrapStruct(to) != nil {
		return memberResolution{isLeaf: false}, nil
	}

	return memberResolution{}, newConfigurationError(from, to,
		errors.Errorf("%s has no matching member type for %s: not a scalar, not a struct, no registered converter", from, to))
}

// matchGenericProvider iterates registered providers in registration order
// (caller's, then the built-in defaults appended by Configuration.snapshot);
// the first match wins, and its Build call produces the bound converter
// directly since reflect already hands us a callable function.
func (ctx *planBuildContext) matchGenericProvider(from, to reflect.Type) (ConverterFunc, bool, error) {
	for _, entry := range ctx.cfg.genericProviders {
		if !entry.provider.Match(from, to) {
			continue
		}
		desc, err := entry.provider.Build(from, to, providers.MatchContext{
			Statics:     ctx.cfg.statics,
			Resolver:    ctx.resolver,
			ShallowCopy: ctx.cfg.shallowCopy,
		})
		if err != nil {
			return nil, true, newConfigurationError(from, to, err)
		}
		return func(v reflect.Value, state State) (reflect.Value, error) {
			return desc.Convert(v, state)
		}, true, nil
	}
	return nil, false, nil
}

// scalarAssignable reports whether a value of type from can reach to
// without an implicit narrowing conversion: the same numeric family with
// to's bit width no smaller than from's, the same non-numeric kind (a named
// string or bool type and its underlying type), or a Go-assignable pair
// (covers interface targets).
func scalarAssignable(from, to reflect.Type) bool {
	if from.AssignableTo(to) {
		return true
	}
	if !from.ConvertibleTo(to) {
		return false
	}
	fu, tu := Underlying(from), Underlying(to)
	ff, tf := kindFamilyOf(fu.Kind()), kindFamilyOf(tu.Kind())
	if ff == familyNone && tf == familyNone {
		return fu.Kind() == tu.Kind() && (fu.Kind() == reflect.String || fu.Kind() == reflect.Bool)
	}
	if ff == familyNone || ff != tf {
		return false // different numeric family (e.g. int <-> uint): an implicit narrowing/sign change, not a widening
	}
	return bitWidth(tu.Kind()) >= bitWidth(fu.Kind())
}

// kindFamily groups a reflect.Kind by the numeric family a widening
// conversion is allowed to stay within: Go's int32->int64 is fine, but
// int32->uint32 changes sign semantics and is treated the same as a
// narrowing conversion — forbidden without an explicit converter.
type kindFamily int

const (
	familyNone kindFamily = iota
	familyInt
	familyUint
	familyFloat
)

func kindFamilyOf(k reflect.Kind) kindFamily {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return familyInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return familyUint
	case reflect.Float32, reflect.Float64:
		return familyFloat
	default:
		return familyNone
	}
}

func bitWidth(k reflect.Kind) int {
	switch k {
	case reflect.Int8, reflect.Uint8:
		return 8
	case reflect.Int16, reflect.Uint16:
		return 16
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 32
	case reflect.Int64, reflect.Uint64, reflect.Float64, reflect.Int, reflect.Uint:
		return 64
	default:
		return 0
	}
}

func scalarConvertFunc(from, to reflect.Type) ConverterFunc {
	return func(v reflect.Value, _ State) (reflect.Value, error) {
		if !v.IsValid() {
			return reflect.Zero(to), nil
		}
		return v.Convert(to), nil
	}
}

// derefConvertFunc unwraps a nullable scalar source down to its underlying
// value type before handing it to the destination. The nil/absent case never
// reaches this converter: executeSimple routes it to the null substitutor or
// the destination's zero value first, so this only has to handle a present
// value, dereferencing the pointer and then converting from u to to if the
// two aren't identical.
func derefConvertFunc(u, to reflect.Type) ConverterFunc {
	return func(v reflect.Value, _ State) (reflect.Value, error) {
		if !v.IsValid() {
			return reflect.Zero(to), nil
		}
		if v.Kind() == reflect.Ptr {
			v = v.Elem()
		}
		if u == to {
			return v, nil
		}
		return v.Convert(to), nil
	}
}
