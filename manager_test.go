package emitmapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Caching identity: two Get calls for the same (S, D) under configurations
// with the same derived Name() share the same underlying executor.
func TestManager_GetIsCachedByTypePairAndConfigName(t *testing.T) {
	type S struct{ A int }
	type D struct{ A int }

	m := NewManager()
	cfg1 := NewConfiguration()
	cfg2 := NewConfiguration()
	require.Equal(t, cfg1.Name(), cfg2.Name())

	e1, err := Get[S, D](m, cfg1)
	require.NoError(t, err)
	e2, err := Get[S, D](m, cfg2)
	require.NoError(t, err)

	assert.Same(t, e1.raw, e2.raw, "same type pair and config name must reuse the same built executor")
}

func TestManager_GetBuildsDistinctExecutorsForDifferentConfigs(t *testing.T) {
	type S struct{ A int }
	type D struct{ A int }

	m := NewManager()
	cfg1 := NewConfiguration()
	cfg2 := NewConfiguration()
	cfg2.SetConfigName("other")

	e1, err := Get[S, D](m, cfg1)
	require.NoError(t, err)
	e2, err := Get[S, D](m, cfg2)
	require.NoError(t, err)

	assert.NotSame(t, e1.raw, e2.raw)
}

// A ConfigurationError is cached and re-raised identically rather than
// reattempting the build on every call.
func TestManager_ConfigurationErrorIsCachedAndReraised(t *testing.T) {
	type S struct{ A chan int }
	type D struct{ A string }

	m := NewManager()
	cfg := NewConfiguration()

	_, err1 := Get[S, D](m, cfg)
	require.Error(t, err1)
	_, err2 := Get[S, D](m, cfg)
	require.Error(t, err2)

	var cfgErr1, cfgErr2 *ConfigurationError
	require.ErrorAs(t, err1, &cfgErr1)
	require.ErrorAs(t, err2, &cfgErr2)
	assert.Same(t, cfgErr1, cfgErr2, "the cached error instance must be re-raised, not rebuilt")
}

func TestManager_DefaultIsASingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestManager_NewManagerIsIsolatedFromDefault(t *testing.T) {
	type S struct{ A int }
	type D struct{ A int }

	cfg := NewConfiguration()
	_, err := Get[S, D](Default(), cfg)
	require.NoError(t, err)

	isolated := NewManager()
	e, err := Get[S, D](isolated, cfg)
	require.NoError(t, err)
	assert.NotNil(t, e)
}
