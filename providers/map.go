package providers

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// MapToStruct is the second built-in generic converter provider: a
// map[string]any source decoded into a struct destination via
// mitchellh/mapstructure's NewDecoder and a DecodeHookFunc chain, showing
// that the generic converter provider protocol isn't collection-specific.
type MapToStruct struct{}

var _ GenericConverterProvider = MapToStruct{}

func (MapToStruct) Match(from, to reflect.Type) bool {
	return isStringAnyMap(from) && to != nil && structOrPtrToStruct(to)
}

func isStringAnyMap(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Map && t.Key().Kind() == reflect.String &&
		(t.Elem().Kind() == reflect.Interface && t.Elem().NumMethod() == 0)
}

func structOrPtrToStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func (MapToStruct) Build(from, to reflect.Type, ctx MatchContext) (ConverterDescriptor, error) {
	destIsPtr := to.Kind() == reflect.Ptr
	structType := to
	if destIsPtr {
		structType = to.Elem()
	}

	desc := ConverterDescriptor{
		ImplType:   reflect.TypeOf(MapToStruct{}),
		TypeArgs:   []reflect.Type{from, to},
		MethodName: "Convert",
	}

	desc.Convert = func(src reflect.Value, state State) (reflect.Value, error) {
		if !src.IsValid() || src.IsNil() {
			return reflect.Zero(to), nil
		}

		target := reflect.New(structType)
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           target.Interface(),
			WeaklyTypedInput: false,
			DecodeHook:       staticRegistryDecodeHook(ctx.Statics, state),
		})
		if err != nil {
			return reflect.Value{}, errors.Wrap(err, "map provider: building decoder")
		}
		if err := decoder.Decode(src.Interface()); err != nil {
			return reflect.Value{}, errors.Wrap(err, "map provider: decoding")
		}

		if destIsPtr {
			return target, nil
		}
		return target.Elem(), nil
	}
	return desc, nil
}

// staticRegistryDecodeHook adapts the configuration's static converter
// registry into a mapstructure.DecodeHookFunc, so a registered scalar
// converter (e.g. int → string) also applies to map-sourced values.
func staticRegistryDecodeHook(statics *StaticRegistry, state State) mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from == to {
			return data, nil
		}
		f, ok := Resolve(statics, from, to)
		if !ok {
			return data, nil
		}
		out, err := f(reflect.ValueOf(data), state)
		if err != nil {
			return nil, err
		}
		return out.Interface(), nil
	}
}
