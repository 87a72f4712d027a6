package emitmapper

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfiguration_NameIsDeterministicAndOrderIndependent(t *testing.T) {
	build := func(names ...string) *Configuration {
		cfg := NewConfiguration()
		ConvertUsing(cfg, func(v int) string { return "" })
		cfg.IgnoreMembers(reflect.TypeOf(struct{}{}), reflect.TypeOf(struct{}{}), names...)
		return cfg
	}

	a := build("B", "A")
	b := build("B", "A")
	c := build("A", "B")
	assert.Equal(t, a.Name(), b.Name())
	assert.Equal(t, a.Name(), c.Name())
}

func TestConfiguration_NameDiffersWhenRegistrationsDiffer(t *testing.T) {
	a := NewConfiguration()
	ConvertUsing(a, func(v int) string { return "" })

	b := NewConfiguration()
	ConvertUsing(b, func(v int32) string { return "" })

	assert.NotEqual(t, a.Name(), b.Name())
}

func TestConfiguration_NameIsFrozenAtFirstUse(t *testing.T) {
	cfg := NewConfiguration()
	first := cfg.Name()
	ConvertUsing(cfg, func(v int) string { return "" })
	assert.Equal(t, first, cfg.Name(), "Name must not change after being computed once")
}

func TestConfiguration_SetConfigNameOverridesDerivedName(t *testing.T) {
	cfg := NewConfiguration()
	cfg.SetConfigName("explicit")
	assert.Equal(t, "explicit", cfg.Name())
}

func TestConfiguration_SnapshotMergesDefaultProvidersWithoutOverridingUserOnes(t *testing.T) {
	cfg := NewConfiguration()
	cfg.ConvertGeneric(reflect.TypeOf([]int{}), reflect.TypeOf([]int{}), MapToStructProvider())

	snap, err := cfg.snapshot()
	require.NoError(t, err)

	require.True(t, len(snap.genericProviders) >= 3, "snapshot should contain the caller's provider plus the two built-in defaults")
	assert.IsType(t, MapToStructProvider(), snap.genericProviders[0].provider, "the caller's provider must be tried first")
}

func TestConfiguration_SnapshotDoesNotMutateOriginal(t *testing.T) {
	cfg := NewConfiguration()
	_, err := cfg.snapshot()
	require.NoError(t, err)
	assert.Len(t, cfg.genericProviders, 0)
}
