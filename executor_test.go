package emitmapper

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: scalar copy.
func TestExecutor_ScalarCopy(t *testing.T) {
	type S struct {
		A int
		B string
	}
	type D struct {
		A int
		B string
	}

	m, err := Get[S, D](NewManager(), NewConfiguration())
	require.NoError(t, err)

	out, err := m.Map(S{A: 1, B: "x"}, D{}, nil)
	require.NoError(t, err)
	assert.Equal(t, D{A: 1, B: "x"}, out)
}

// S2: ignored member is left as whatever dst already had.
func TestExecutor_IgnoredMemberIsUntouched(t *testing.T) {
	type S struct {
		A int
		B string
	}
	type D struct {
		A int
		B string
	}

	cfg := NewConfiguration()
	cfg.IgnoreMembers(reflect.TypeOf(S{}), reflect.TypeOf(D{}), "B")

	m, err := Get[S, D](NewManager(), cfg)
	require.NoError(t, err)

	out, err := m.Map(S{A: 1, B: "ignored"}, D{A: 0, B: "keep"}, nil)
	require.NoError(t, err)
	assert.Equal(t, D{A: 1, B: "keep"}, out)
}

// S3: null substitution for an absent (nil pointer) source.
func TestExecutor_NullSubstitution(t *testing.T) {
	type S struct {
		V *string
	}
	type D struct {
		V string
	}

	cfg := NewConfiguration()
	NullSubstitution[*string, string](cfg, func(State) string { return "N/A" })

	m, err := Get[S, D](NewManager(), cfg)
	require.NoError(t, err)

	out, err := m.Map(S{V: nil}, D{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "N/A", out.V)

	present := "hi"
	out2, err := m.Map(S{V: &present}, D{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", out2.V)
}

// S4: collection same-type fast path.
func TestExecutor_CollectionSameType(t *testing.T) {
	type S struct {
		Xs []int
	}
	type D struct {
		Xs []int
	}

	m, err := Get[S, D](NewManager(), NewConfiguration())
	require.NoError(t, err)

	out, err := m.Map(S{Xs: []int{1, 2, 3}}, D{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out.Xs)
}

// S5: collection different-element-type path, resolved via a static converter.
func TestExecutor_CollectionDifferentElementType(t *testing.T) {
	type S struct {
		Xs []int
	}
	type D struct {
		Xs []string
	}

	cfg := NewConfiguration()
	statics := NewStaticConverters()
	RegisterStaticConverter(statics, func(n int) string { return "n=" + itoa(n) })
	cfg.WithStaticConverters(statics)

	m, err := Get[S, D](NewManager(), cfg)
	require.NoError(t, err)

	out, err := m.Map(S{Xs: []int{1, 2}}, D{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"n=1", "n=2"}, out.Xs)
}

func TestExecutor_NestedStructRecursion(t *testing.T) {
	type innerS struct{ X int }
	type innerD struct{ X int }
	type outerS struct{ Inner innerS }
	type outerD struct{ Inner innerD }

	m, err := Get[outerS, outerD](NewManager(), NewConfiguration())
	require.NoError(t, err)

	out, err := m.Map(outerS{Inner: innerS{X: 5}}, outerD{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, out.Inner.X)
}

func TestExecutor_MapValueCreatesPointerDestination(t *testing.T) {
	type S struct{ A int }
	type D struct{ A int }

	m, err := Get[S, *D](NewManager(), NewConfiguration())
	require.NoError(t, err)

	out, err := m.MapValue(S{A: 9}, nil)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 9, out.A)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
