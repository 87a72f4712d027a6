package emitmapper

import (
	"reflect"
	"sync"

	"github.com/niubilitynetcore/EmitMapper/providers"
)

// Manager is the mapper cache and construction point: it owns a cache keyed
// by (S type, D type, configuration name), constructs a plan and executor
// on first request for a key, and re-raises a cached ConfigurationError
// identically on every subsequent request for that same key rather than
// attempting the build again.
//
// A *Manager also serves as the recursive sub-mapper source a generic
// provider needs when it must convert a nested element type on its own,
// via boundResolver below.
type Manager struct {
	entries sync.Map // cacheKey -> *cacheEntry
}

type cacheKey string

type cacheEntry struct {
	once sync.Once
	exec *rawExecutor
	err  error
}

// NewManager returns an isolated manager with an empty cache.
func NewManager() *Manager {
	return &Manager{}
}

var (
	defaultManagerOnce sync.Once
	defaultManagerInst *Manager
)

// Default returns the process-wide singleton manager, lazily constructed on
// first call.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManagerInst = NewManager()
	})
	return defaultManagerInst
}

// Get returns the executor for (S, D) under cfg, building and caching it on
// first call and reusing the cached executor (or re-raising the cached
// error) on every later call with the same (S, D, cfg.Name()). Get is a
// free function, not a method, because Go methods cannot carry their own
// type parameters.
func Get[S, D any](m *Manager, cfg *Configuration) (*Executor[S, D], error) {
	fromType := reflect.TypeOf((*S)(nil)).Elem()
	toType := reflect.TypeOf((*D)(nil)).Elem()
	raw, err := m.getRaw(fromType, toType, cfg)
	if err != nil {
		return nil, err
	}
	return &Executor[S, D]{raw: raw}, nil
}

func (m *Manager) getRaw(from, to reflect.Type, cfg *Configuration) (*rawExecutor, error) {
	key := cacheKey(string(NewTypeKey(from, to)) + "\x00" + cfg.Name())
	loaded, _ := m.entries.LoadOrStore(key, &cacheEntry{})
	entry := loaded.(*cacheEntry)
	entry.once.Do(func() {
		entry.exec, entry.err = m.build(from, to, cfg)
	})
	return entry.exec, entry.err
}

func (m *Manager) build(from, to reflect.Type, cfg *Configuration) (*rawExecutor, error) {
	snap, err := cfg.snapshot()
	if err != nil {
		return nil, err
	}
	resolver := boundResolver{manager: m, cfg: cfg}
	plan, err := BuildPlan(from, to, snap, resolver)
	if err != nil {
		return nil, err
	}
	return &rawExecutor{plan: plan, fromType: from, toType: to}, nil
}

// boundResolver is a per-build providers.SubMapperResolver that closes over
// the configuration active for this build, so a recursive sub-mapper
// (requested by providers.Collection for a different element type) is
// planned under the same configuration as its parent. Manager itself
// deliberately does not implement providers.SubMapperResolver directly —
// there is no single configuration to recurse with from the Manager's
// perspective alone.
type boundResolver struct {
	manager *Manager
	cfg     *Configuration
}

func (r boundResolver) ResolveScalarConverter(from, to reflect.Type) (providers.ConverterFunc, error) {
	raw, err := r.manager.getRaw(from, to, r.cfg)
	if err != nil {
		return nil, err
	}
	return func(v reflect.Value, state providers.State) (reflect.Value, error) {
		return raw.mapValue(v, state)
	}, nil
}
