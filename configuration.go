package emitmapper

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"dario.cat/mergo"
)

// genericProviderEntry pairs a registered GenericConverterProvider with the
// (from, to) types it was registered under, preserving registration order:
// providers are tried in the order they were added, and the first whose
// Match accepts the pair wins. from and to only feed the configuration
// name.
type genericProviderEntry struct {
	from, to reflect.Type
	provider GenericConverterProvider
}

// Configuration is a record of the six type-keyed maps plus the ignored-
// member set, the generic-provider registry and the derived configuration
// name. Build one with NewConfiguration and register against it with the
// package-level builder functions/methods below; pass it to a Manager once
// you're done — Get snapshots and freezes it on first use, so
// further registrations on the original Configuration have no effect on
// mappers already built from it.
type Configuration struct {
	converters       map[TypeKey]ConverterFunc
	nullSubs         map[TypeKey]NullSubstitutorFunc
	constructors     map[TypeKey]ConstructorFunc
	postProcessors   map[TypeKey]PostProcessorFunc
	sourceFilters    map[TypeKey]FilterFunc
	destFilters      map[TypeKey]FilterFunc
	ignoredMembers   map[TypeKey][]string
	manualFieldMaps  map[TypeKey]map[string]string
	genericProviders []genericProviderEntry

	prefixes  []string
	postfixes []string

	enableMethods bool
	shallowCopy   bool
	statics       *StaticConverters

	explicitName string
	frozenName   string
}

// NewConfiguration returns an empty, mutable configuration. It carries no
// built-in registrations; those are added by the manager at freeze time
// (see snapshot below) so a caller who wants a configuration with nothing
// but their own registrations can still build one and inspect it directly.
func NewConfiguration() *Configuration {
	return &Configuration{
		converters:      make(map[TypeKey]ConverterFunc),
		nullSubs:        make(map[TypeKey]NullSubstitutorFunc),
		constructors:    make(map[TypeKey]ConstructorFunc),
		postProcessors:  make(map[TypeKey]PostProcessorFunc),
		sourceFilters:   make(map[TypeKey]FilterFunc),
		destFilters:     make(map[TypeKey]FilterFunc),
		ignoredMembers:  make(map[TypeKey][]string),
		manualFieldMaps: make(map[TypeKey]map[string]string),
	}
}

// defaultConfiguration is installed by the manager underneath every
// caller-supplied configuration: it registers the two built-in generic
// converter providers, collection-to-slice and map-to-struct.
func defaultConfiguration() *Configuration {
	cfg := NewConfiguration()
	cfg.genericProviders = []genericProviderEntry{
		{from: reflect.TypeOf([]any{}), to: reflect.TypeOf([]any{}), provider: CollectionToArrayProvider()},
		{from: reflect.TypeOf(map[string]any{}), to: reflect.TypeOf(struct{}{}), provider: MapToStructProvider()},
	}
	return cfg
}

// ConvertUsing registers a strongly typed converter From → To.
func ConvertUsing[From, To any](cfg *Configuration, f func(From) To) *Configuration {
	return ConvertUsingState[From, To](cfg, func(v From, _ State) (To, error) { return f(v), nil })
}

// ConvertUsingState is ConvertUsing for a converter that needs the per-call
// state and can fail.
func ConvertUsingState[From, To any](cfg *Configuration, f func(From, State) (To, error)) *Configuration {
	fromType := reflect.TypeOf((*From)(nil)).Elem()
	toType := reflect.TypeOf((*To)(nil)).Elem()
	cfg.converters[NewTypeKey(fromType, toType)] = func(v reflect.Value, state State) (reflect.Value, error) {
		in, ok := v.Interface().(From)
		if !ok {
			return reflect.Value{}, fmt.Errorf("converter for %s->%s: unexpected input type %s", fromType, toType, v.Type())
		}
		out, err := f(in, state)
		return reflect.ValueOf(out), err
	}
	return cfg
}

// ConvertGeneric registers a generic converter provider. from and to label
// the registration in the configuration name; whether the provider applies
// to a given type pair is decided by its Match method alone.
func (cfg *Configuration) ConvertGeneric(from, to reflect.Type, provider GenericConverterProvider) *Configuration {
	cfg.genericProviders = append(cfg.genericProviders, genericProviderEntry{from: from, to: to, provider: provider})
	return cfg
}

// NullSubstitution registers a substitute value to use when the source
// member is absent.
func NullSubstitution[From, To any](cfg *Configuration, f func(State) To) *Configuration {
	fromType := reflect.TypeOf((*From)(nil)).Elem()
	toType := reflect.TypeOf((*To)(nil)).Elem()
	cfg.nullSubs[NewTypeKey(fromType, toType)] = func(state State) (reflect.Value, error) {
		return reflect.ValueOf(f(state)), nil
	}
	return cfg
}

// IgnoreMembers accumulates ignored member names for (from, to); repeated
// calls for the same pair add to the set rather than replacing it.
func (cfg *Configuration) IgnoreMembers(from, to reflect.Type, names ...string) *Configuration {
	key := NewTypeKey(from, to)
	cfg.ignoredMembers[key] = append(cfg.ignoredMembers[key], names...)
	return cfg
}

// ConstructBy registers a custom constructor for T.
func ConstructBy[T any](cfg *Configuration, f func(State) T) *Configuration {
	t := reflect.TypeOf((*T)(nil)).Elem()
	cfg.constructors[NewTypeKey(t)] = func(state State) (reflect.Value, error) {
		return reflect.ValueOf(f(state)), nil
	}
	return cfg
}

// PostProcess registers a whole-value post-processor for T.
func PostProcess[T any](cfg *Configuration, f func(T, State) T) *Configuration {
	t := reflect.TypeOf((*T)(nil)).Elem()
	cfg.postProcessors[NewTypeKey(t)] = func(v reflect.Value, state State) (reflect.Value, error) {
		in, _ := v.Interface().(T)
		return reflect.ValueOf(f(in, state)), nil
	}
	return cfg
}

// FilterSource registers a source-side filter for T.
func FilterSource[T any](cfg *Configuration, f func(T, State) bool) *Configuration {
	t := reflect.TypeOf((*T)(nil)).Elem()
	cfg.sourceFilters[NewTypeKey(t)] = func(v reflect.Value, state State) bool {
		in, _ := v.Interface().(T)
		return f(in, state)
	}
	return cfg
}

// FilterDestination registers a destination-side filter for T.
func FilterDestination[T any](cfg *Configuration, f func(T, State) bool) *Configuration {
	t := reflect.TypeOf((*T)(nil)).Elem()
	cfg.destFilters[NewTypeKey(t)] = func(v reflect.Value, state State) bool {
		in, _ := v.Interface().(T)
		return f(in, state)
	}
	return cfg
}

// RecognizePrefixes relaxes member-name matching: each prefix is stripped
// from either side's member name before the exact-name comparison, so e.g.
// "SvcName" can match "Name" when "Svc" is a recognized prefix.
func (cfg *Configuration) RecognizePrefixes(prefixes ...string) *Configuration {
	cfg.prefixes = append(cfg.prefixes, prefixes...)
	return cfg
}

// RecognizePostfixes is RecognizePrefixes' suffix counterpart.
func (cfg *Configuration) RecognizePostfixes(postfixes ...string) *Configuration {
	cfg.postfixes = append(cfg.postfixes, postfixes...)
	return cfg
}

// MapField manually pairs a destination member name with a source member
// name for (from, to), overriding automatic name matching.
func (cfg *Configuration) MapField(from, to reflect.Type, srcName, dstName string) *Configuration {
	key := NewTypeKey(from, to)
	if cfg.manualFieldMaps[key] == nil {
		cfg.manualFieldMaps[key] = make(map[string]string)
	}
	cfg.manualFieldMaps[key][dstName] = srcName
	return cfg
}

// EnableMethodMapping turns on zero-argument accessor methods as read-only
// members.
func (cfg *Configuration) EnableMethodMapping() *Configuration {
	cfg.enableMethods = true
	return cfg
}

// WithShallowCopy sets the configuration's ShallowCopy flag, handed to
// generic providers as MatchContext.ShallowCopy and consulted by
// providers.Collection to decide whether same-element-type collections may
// be copied by value instead of per-element.
func (cfg *Configuration) WithShallowCopy(shallow bool) *Configuration {
	cfg.shallowCopy = shallow
	return cfg
}

// WithStaticConverters overrides the active static scalar registry.
func (cfg *Configuration) WithStaticConverters(registry *StaticConverters) *Configuration {
	cfg.statics = registry
	return cfg
}

// SetConfigName overrides the derived configuration name.
func (cfg *Configuration) SetConfigName(name string) *Configuration {
	cfg.explicitName = name
	return cfg
}

// Name returns the configuration's cache-discriminating name, computing and
// caching it on first call: once a Configuration has been named, further
// registrations don't change the name already handed to a Manager, so a
// Configuration must not be mutated after it has been used to build a
// mapper.
func (cfg *Configuration) Name() string {
	if cfg.explicitName != "" {
		return cfg.explicitName
	}
	if cfg.frozenName == "" {
		cfg.frozenName = cfg.buildConfigurationName()
	}
	return cfg.frozenName
}

// buildConfigurationName concatenates deterministic textual summaries of
// every map with ";". Map iteration order in Go is randomized, so every
// summary is sorted before joining to guarantee two configurations built by
// the same sequence of calls produce a byte-identical name across
// processes.
func (cfg *Configuration) buildConfigurationName() string {
	var parts []string
	parts = append(parts, summarizeConverters(cfg.converters))
	parts = append(parts, summarizeKeyed("null", cfg.nullSubs))
	parts = append(parts, summarizeKeyed("ctor", cfg.constructors))
	parts = append(parts, summarizeKeyed("post", cfg.postProcessors))
	parts = append(parts, summarizeKeyed("srcfilter", cfg.sourceFilters))
	parts = append(parts, summarizeKeyed("dstfilter", cfg.destFilters))
	parts = append(parts, summarizeIgnored(cfg.ignoredMembers))
	parts = append(parts, summarizeManualFields(cfg.manualFieldMaps))
	parts = append(parts, summarizeGenericProviders(cfg.genericProviders))
	parts = append(parts, "prefixes="+strings.Join(sortedCopy(cfg.prefixes), ","))
	parts = append(parts, "postfixes="+strings.Join(sortedCopy(cfg.postfixes), ","))
	parts = append(parts, fmt.Sprintf("methods=%v", cfg.enableMethods))
	parts = append(parts, fmt.Sprintf("shallow=%v", cfg.shallowCopy))
	return strings.Join(parts, ";")
}

func summarizeConverters(m map[TypeKey]ConverterFunc) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return "conv=" + strings.Join(keys, ",")
}

func summarizeKeyed[V any](label string, m map[TypeKey]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return label + "=" + strings.Join(keys, ",")
}

func summarizeIgnored(m map[TypeKey][]string) string {
	keys := make([]string, 0, len(m))
	for k, names := range m {
		cp := sortedCopy(names)
		keys = append(keys, string(k)+"["+strings.Join(cp, ",")+"]")
	}
	sort.Strings(keys)
	return "ignore=" + strings.Join(keys, ",")
}

func summarizeManualFields(m map[TypeKey]map[string]string) string {
	keys := make([]string, 0, len(m))
	for k, mm := range m {
		inner := make([]string, 0, len(mm))
		for dst, src := range mm {
			inner = append(inner, dst+"<-"+src)
		}
		sort.Strings(inner)
		keys = append(keys, string(k)+"["+strings.Join(inner, ",")+"]")
	}
	sort.Strings(keys)
	return "mapfield=" + strings.Join(keys, ",")
}

func summarizeGenericProviders(entries []genericProviderEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%T(%s->%s)", e.provider, e.from, e.to))
	}
	// registration order matters for matching, but the name only needs to be
	// a deterministic fingerprint of configuration equivalence, so sort.
	sort.Strings(parts)
	return "providers=" + strings.Join(parts, ",")
}

func sortedCopy(s []string) []string {
	cp := append([]string{}, s...)
	sort.Strings(cp)
	return cp
}

// configDefaults is the narrow, exported-field view of a Configuration that
// dario.cat/mergo actually needs to merge: mergo skips unexported struct
// fields (it can't reflect.Set them), so the merge step operates on this
// small struct instead of Configuration itself, then the result is copied
// back.
type configDefaults struct {
	GenericProviders []genericProviderEntry
	Statics          *StaticConverters
}

// snapshot merges the built-in default configuration onto a shallow copy of
// cfg. EmitMapper wants the *user's* settings to win and the defaults to
// fill gaps only, so mergo.WithOverride is deliberately omitted;
// mergo.WithAppendSlice is kept so the default providers are appended
// after, not instead of, any providers the caller already registered.
// Called once by the manager when it first sees this configuration; the
// result, not cfg itself, is what gets planned and cached.
func (cfg *Configuration) snapshot() (*Configuration, error) {
	copyOf := *cfg
	copyOf.converters = cloneMap(cfg.converters)
	copyOf.nullSubs = cloneMap(cfg.nullSubs)
	copyOf.constructors = cloneMap(cfg.constructors)
	copyOf.postProcessors = cloneMap(cfg.postProcessors)
	copyOf.sourceFilters = cloneMap(cfg.sourceFilters)
	copyOf.destFilters = cloneMap(cfg.destFilters)
	copyOf.ignoredMembers = cloneMap(cfg.ignoredMembers)
	copyOf.manualFieldMaps = cloneMap(cfg.manualFieldMaps)
	copyOf.genericProviders = append([]genericProviderEntry{}, cfg.genericProviders...)

	def := defaultConfiguration()
	userDefaults := configDefaults{GenericProviders: copyOf.genericProviders, Statics: copyOf.statics}
	builtins := configDefaults{GenericProviders: def.genericProviders, Statics: def.statics}

	if err := mergo.Merge(&userDefaults, builtins, mergo.WithAppendSlice); err != nil {
		return nil, err
	}
	copyOf.genericProviders = userDefaults.GenericProviders
	copyOf.statics = userDefaults.Statics
	if copyOf.statics == nil {
		copyOf.statics = DefaultStaticConverters()
	}
	copyOf.frozenName = cfg.Name()
	return &copyOf, nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
