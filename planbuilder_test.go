package emitmapper

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pbSrc struct {
	A int
	B string
	C int32
}

type pbDst struct {
	A int
	B string
	C int64
}

func TestBuildPlan_ScalarCopyAndWidening(t *testing.T) {
	cfg := NewConfiguration()
	root, err := BuildPlan(reflect.TypeOf(pbSrc{}), reflect.TypeOf(pbDst{}), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, OpRoot, root.Kind)
	require.Len(t, root.Operations, 3)

	byName := make(map[string]*MappingOperation)
	for _, op := range root.Operations {
		byName[op.Destination.Name] = op
	}
	assert.Equal(t, OpReadWriteSimple, byName["A"].Kind)
	assert.Nil(t, byName["A"].Converter, "identical scalar types need no converter")
	assert.NotNil(t, byName["C"].Converter, "int32 -> int64 is a widening conversion and needs one")
}

func TestBuildPlan_IgnoredMemberIsUnmapped(t *testing.T) {
	cfg := NewConfiguration()
	cfg.IgnoreMembers(reflect.TypeOf(pbSrc{}), reflect.TypeOf(pbDst{}), "B")
	root, err := BuildPlan(reflect.TypeOf(pbSrc{}), reflect.TypeOf(pbDst{}), cfg, nil)
	require.NoError(t, err)

	for _, op := range root.Operations {
		assert.NotEqual(t, "B", op.Destination.Name)
	}
}

func TestBuildPlan_NoMatchingSourceLeavesDestinationUnmapped(t *testing.T) {
	type onlyDst struct {
		NotOnSource string
	}
	cfg := NewConfiguration()
	root, err := BuildPlan(reflect.TypeOf(struct{ A int }{}), reflect.TypeOf(onlyDst{}), cfg, nil)
	require.NoError(t, err)
	assert.Len(t, root.Operations, 0)
}

func TestBuildPlan_IncompatibleScalarsIsConfigurationError(t *testing.T) {
	type src struct{ A chan int }
	type dst struct{ A string }
	cfg := NewConfiguration()
	_, err := BuildPlan(reflect.TypeOf(src{}), reflect.TypeOf(dst{}), cfg, nil)
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBuildPlan_NullableScalarSourceDereferencesToPlainDestination(t *testing.T) {
	type src struct{ V *string }
	type dst struct{ V string }
	cfg := NewConfiguration()
	root, err := BuildPlan(reflect.TypeOf(src{}), reflect.TypeOf(dst{}), cfg, nil)
	require.NoError(t, err)
	require.Len(t, root.Operations, 1)
	op := root.Operations[0]
	assert.Equal(t, OpReadWriteSimple, op.Kind)
	require.NotNil(t, op.Converter)

	present := "hi"
	out, err := op.Converter(reflect.ValueOf(&present), nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Interface())
}

func TestBuildPlan_NestedStructBecomesReadWriteComplex(t *testing.T) {
	type innerSrc struct{ X int }
	type innerDst struct{ X int }
	type outerSrc struct{ Inner innerSrc }
	type outerDst struct{ Inner innerDst }

	cfg := NewConfiguration()
	root, err := BuildPlan(reflect.TypeOf(outerSrc{}), reflect.TypeOf(outerDst{}), cfg, nil)
	require.NoError(t, err)
	require.Len(t, root.Operations, 1)
	assert.Equal(t, OpReadWriteComplex, root.Operations[0].Kind)
	assert.Len(t, root.Operations[0].Operations, 1)
}

func TestBuildPlan_CycleWithoutConverterIsCycleError(t *testing.T) {
	type node struct {
		Name  string
		Child *node
	}
	cfg := NewConfiguration()
	_, err := BuildPlan(reflect.TypeOf(node{}), reflect.TypeOf(node{}), cfg, nil)
	require.Error(t, err)
	var cycleErr *CycleError
	assert.ErrorAs(t, err, &cycleErr)
}

func TestBuildPlan_ManualFieldOverrideWinsOverNameMatch(t *testing.T) {
	type src struct {
		FieldTwo string
	}
	type dst struct {
		Field2 string
	}
	cfg := NewConfiguration()
	cfg.MapField(reflect.TypeOf(src{}), reflect.TypeOf(dst{}), "FieldTwo", "Field2")

	root, err := BuildPlan(reflect.TypeOf(src{}), reflect.TypeOf(dst{}), cfg, nil)
	require.NoError(t, err)
	require.Len(t, root.Operations, 1)
	assert.Equal(t, "FieldTwo", root.Operations[0].Source.Name)
	assert.Equal(t, "Field2", root.Operations[0].Destination.Name)
}

func TestBuildPlan_PrefixRecognitionMatchesAcrossNaming(t *testing.T) {
	type src struct {
		SvcName string
	}
	type dst struct {
		Name string
	}
	cfg := NewConfiguration()
	cfg.RecognizePrefixes("Svc")

	root, err := BuildPlan(reflect.TypeOf(src{}), reflect.TypeOf(dst{}), cfg, nil)
	require.NoError(t, err)
	require.Len(t, root.Operations, 1)
	assert.Equal(t, "SvcName", root.Operations[0].Source.Name)
	assert.Equal(t, "Name", root.Operations[0].Destination.Name)
}
