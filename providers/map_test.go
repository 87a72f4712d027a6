package providers

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapTestDst struct {
	Name string
	Age  int
}

func TestMapToStruct_Match(t *testing.T) {
	p := MapToStruct{}
	assert.True(t, p.Match(reflect.TypeOf(map[string]any{}), reflect.TypeOf(mapTestDst{})))
	assert.True(t, p.Match(reflect.TypeOf(map[string]any{}), reflect.TypeOf(&mapTestDst{})))
	assert.False(t, p.Match(reflect.TypeOf(map[int]any{}), reflect.TypeOf(mapTestDst{})))
	assert.False(t, p.Match(reflect.TypeOf(map[string]int{}), reflect.TypeOf(mapTestDst{})))
	assert.False(t, p.Match(reflect.TypeOf(map[string]any{}), reflect.TypeOf(42)))
}

func TestMapToStruct_Build_ValueDestination(t *testing.T) {
	p := MapToStruct{}
	from := reflect.TypeOf(map[string]any{})
	to := reflect.TypeOf(mapTestDst{})

	desc, err := p.Build(from, to, MatchContext{})
	require.NoError(t, err)

	src := map[string]any{"Name": "Ada", "Age": 30}
	out, err := desc.Convert(reflect.ValueOf(src), nil)
	require.NoError(t, err)

	result := out.Interface().(mapTestDst)
	assert.Equal(t, mapTestDst{Name: "Ada", Age: 30}, result)
}

func TestMapToStruct_Build_PointerDestination(t *testing.T) {
	p := MapToStruct{}
	from := reflect.TypeOf(map[string]any{})
	to := reflect.TypeOf(&mapTestDst{})

	desc, err := p.Build(from, to, MatchContext{})
	require.NoError(t, err)

	src := map[string]any{"Name": "Grace"}
	out, err := desc.Convert(reflect.ValueOf(src), nil)
	require.NoError(t, err)

	result := out.Interface().(*mapTestDst)
	require.NotNil(t, result)
	assert.Equal(t, "Grace", result.Name)
}

func TestMapToStruct_Build_NilSource(t *testing.T) {
	p := MapToStruct{}
	from := reflect.TypeOf(map[string]any{})
	to := reflect.TypeOf(mapTestDst{})

	desc, err := p.Build(from, to, MatchContext{})
	require.NoError(t, err)

	var src map[string]any
	out, err := desc.Convert(reflect.ValueOf(src), nil)
	require.NoError(t, err)
	assert.Equal(t, mapTestDst{}, out.Interface().(mapTestDst))
}

// A registered static converter is consulted through the decode hook, so a
// field whose raw map value doesn't share the destination field's type
// still converts (e.g. an int age stored as a string).
func TestMapToStruct_Build_UsesStaticRegistryDecodeHook(t *testing.T) {
	p := MapToStruct{}
	from := reflect.TypeOf(map[string]any{})
	to := reflect.TypeOf(mapTestDst{})

	statics := NewStaticRegistry()
	statics.Register(reflect.TypeOf(""), reflect.TypeOf(0), func(v reflect.Value) (reflect.Value, error) {
		switch v.Interface().(string) {
		case "thirty":
			return reflect.ValueOf(30), nil
		default:
			return reflect.ValueOf(0), nil
		}
	})

	desc, err := p.Build(from, to, MatchContext{Statics: statics})
	require.NoError(t, err)

	src := map[string]any{"Name": "Ada", "Age": "thirty"}
	out, err := desc.Convert(reflect.ValueOf(src), nil)
	require.NoError(t, err)

	result := out.Interface().(mapTestDst)
	assert.Equal(t, mapTestDst{Name: "Ada", Age: 30}, result)
}
