package providers

import (
	"reflect"

	"github.com/pkg/errors"
)

// Collection is the built-in generic converter provider for
// Collection<T> → U[]. "Collection" in Go terms is any slice or array; the
// destination must be a slice, the Go idiom for a growable array rather
// than the fixed-size array type.
type Collection struct{}

var _ GenericConverterProvider = Collection{}

func (Collection) Match(from, to reflect.Type) bool {
	return isSliceLike(from) && to != nil && to.Kind() == reflect.Slice
}

func isSliceLike(t reflect.Type) bool {
	return t != nil && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array)
}

// Build implements the two shapes a collection conversion can take: a
// same-element-type linear copy, or a different-element-type conversion
// that resolves a per-element converter first.
func (Collection) Build(from, to reflect.Type, ctx MatchContext) (ConverterDescriptor, error) {
	elemFrom := from.Elem()
	elemTo := to.Elem()

	desc := ConverterDescriptor{
		ImplType:   reflect.TypeOf(Collection{}),
		TypeArgs:   []reflect.Type{elemFrom, elemTo},
		MethodName: "Convert",
	}

	// Same-element-type fast path: a value type, or the whole-object
	// ShallowCopy flag, permits a linear copy preserving element identity.
	if elemFrom == elemTo && (ctx.ShallowCopy || isValueType(elemFrom)) {
		desc.Convert = func(src reflect.Value, _ State) (reflect.Value, error) {
			if !src.IsValid() || (isNilable(src) && src.IsNil()) {
				return reflect.Zero(to), nil
			}
			n := src.Len()
			out := reflect.MakeSlice(to, n, n)
			reflect.Copy(out, src)
			return out, nil
		}
		return desc, nil
	}

	// Different-element-type path: resolve an element converter g, then
	// allocate and fill once.
	g, err := resolveElementConverter(elemFrom, elemTo, ctx)
	if err != nil {
		return ConverterDescriptor{}, errors.Wrapf(err, "collection provider: no converter from %s to %s", elemFrom, elemTo)
	}

	desc.Convert = func(src reflect.Value, state State) (reflect.Value, error) {
		if !src.IsValid() || (isNilable(src) && src.IsNil()) {
			return reflect.Zero(to), nil
		}
		n := src.Len()
		out := reflect.MakeSlice(to, n, n)
		for i := 0; i < n; i++ {
			converted, err := g(src.Index(i), state)
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "converting element %d", i)
			}
			out.Index(i).Set(converted)
		}
		return out, nil
	}
	return desc, nil
}

func resolveElementConverter(from, to reflect.Type, ctx MatchContext) (ConverterFunc, error) {
	if f, ok := Resolve(ctx.Statics, from, to); ok {
		return f, nil
	}
	if ctx.Resolver != nil {
		f, err := ctx.Resolver.ResolveScalarConverter(from, to)
		if err == nil && f != nil {
			return f, nil
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, errors.Errorf("no static or recursive converter from %s to %s", from, to)
}

func isValueType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return false
	default:
		return true
	}
}

func isNilable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}
