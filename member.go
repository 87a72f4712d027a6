package emitmapper

import (
	"reflect"

	"github.com/pkg/errors"
)

// MemberKind distinguishes a struct field from a zero-argument accessor
// method surfaced as a read-only "property" when method mapping is enabled.
type MemberKind int

const (
	FieldMember MemberKind = iota
	MethodMember
)

// MemberDescriptor is the language-neutral record for a field-or-property of
// a type. A collection-typed property is writable even without a setter
// because the destination collection may be filled in place.
type MemberDescriptor struct {
	Name          string
	DeclaringType reflect.Type
	Kind          MemberKind
	ValueType     reflect.Type
	Readable      bool
	Writable      bool

	fieldIndex  []int
	methodIndex int
}

// Get reads the member off v, which must be assignable to DeclaringType (or
// a pointer to it). A panic raised inside a method member is not recovered.
// Get returns an error when the member is not readable or when a method
// member returns no values.
func (m MemberDescriptor) Get(v reflect.Value) (reflect.Value, error) {
	if !m.Readable {
		return reflect.Value{}, errors.Errorf("member %q of %s is not readable", m.Name, m.DeclaringType)
	}
	v = indirectOrZero(v, m.DeclaringType)
	if !v.IsValid() {
		return reflect.Zero(m.ValueType), nil
	}
	switch m.Kind {
	case MethodMember:
		method := v.Method(m.methodIndex)
		if !method.IsValid() && v.CanAddr() {
			method = v.Addr().Method(m.methodIndex)
		}
		out := method.Call(nil)
		if len(out) == 0 {
			return reflect.Value{}, errors.Errorf("method %q of %s returned no values", m.Name, m.DeclaringType)
		}
		return out[0], nil
	default:
		return v.FieldByIndex(m.fieldIndex), nil
	}
}

// Set writes value into the member addressed on v, which must be
// addressable. Writing through a MethodMember is not supported; the plan
// builder never emits a writable descriptor for one.
func (m MemberDescriptor) Set(v reflect.Value, value reflect.Value) error {
	if !m.Writable {
		return errors.Errorf("member %q of %s is not writable", m.Name, m.DeclaringType)
	}
	v = indirectOrAlloc(v, m.DeclaringType)
	field := v.FieldByIndex(m.fieldIndex)
	if !field.CanSet() {
		return errors.Errorf("member %q of %s is not settable", m.Name, m.DeclaringType)
	}
	if !value.IsValid() {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if value.Type() != field.Type() && value.Type().ConvertibleTo(field.Type()) {
		value = value.Convert(field.Type())
	}
	field.Set(value)
	return nil
}

func indirectOrZero(v reflect.Value, want reflect.Type) reflect.Value {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func indirectOrAlloc(v reflect.Value, want reflect.Type) reflect.Value {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}
	return v
}

// IntrospectOptions controls PublicMembers' behavior; EnableMethods turns on
// discovery of zero-argument accessor methods as read-only members.
type IntrospectOptions struct {
	EnableMethods bool
}

// PublicMembers enumerates every instance-public field of T plus, when
// embedded anonymous struct (or pointer-to-struct) fields are present, their
// fields promoted transitively. An embedded interface is listed as one field
// under its type name; its methods are not promoted as members (they appear
// only when EnableMethods is set). Duplicates by name are de-duplicated, preferring the member
// that is both readable and writable, else the first one encountered.
func PublicMembers(t reflect.Type, opts IntrospectOptions) []MemberDescriptor {
	t = Underlying(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	order := make([]string, 0, t.NumField())
	byName := make(map[string]MemberDescriptor)

	var walk func(t reflect.Type, prefix []int)
	walk = func(t reflect.Type, prefix []int) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" && !f.Anonymous {
				continue // unexported, non-promoted
			}
			path := append(append([]int{}, prefix...), i)

			if f.Anonymous {
				ft := f.Type
				if ft.Kind() == reflect.Ptr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					walk(ft, path)
					continue
				}
			}

			if f.PkgPath != "" {
				continue
			}

			desc := MemberDescriptor{
				Name:          f.Name,
				DeclaringType: t,
				Kind:          FieldMember,
				ValueType:     f.Type,
				Readable:      true,
				Writable:      true,
				fieldIndex:    path,
			}
			mergeMember(&order, byName, desc)
		}
	}
	walk(t, nil)

	if opts.EnableMethods {
		walkMethods(t, &order, byName)
	}

	out := make([]MemberDescriptor, 0, len(order))
	for _, n := range order {
		out = append(out, byName[n])
	}
	return out
}

func walkMethods(t reflect.Type, order *[]string, byName map[string]MemberDescriptor) {
	for _, recv := range []reflect.Type{t, reflect.PtrTo(t)} {
		for i := 0; i < recv.NumMethod(); i++ {
			m := recv.Method(i)
			if m.PkgPath != "" {
				continue
			}
			// zero-argument (besides the receiver, which reflect.Type.Method
			// includes as sig.In(0)), single return value.
			sig := m.Type
			if sig.NumIn() != 1 || sig.NumOut() != 1 {
				continue
			}
			desc := MemberDescriptor{
				Name:          m.Name,
				DeclaringType: t,
				Kind:          MethodMember,
				ValueType:     sig.Out(0),
				Readable:      true,
				Writable:      false,
				methodIndex:   i,
			}
			mergeMember(order, byName, desc)
		}
	}
}

func mergeMember(order *[]string, byName map[string]MemberDescriptor, desc MemberDescriptor) {
	existing, ok := byName[desc.Name]
	if !ok {
		*order = append(*order, desc.Name)
		byName[desc.Name] = desc
		return
	}
	if existing.Readable && existing.Writable {
		return // keep the first readable+writable one
	}
	if desc.Readable && desc.Writable {
		byName[desc.Name] = desc
	}
}

// IsNullable reports whether T is EmitMapper's notion of nullable: a pointer
// type. Go has no built-in Nullable<T>; see DESIGN.md's Open Question note.
func IsNullable(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Ptr
}

// Underlying unwraps one level of pointer, the underlying value type of a
// nullable (pointer) wrapper.
func Underlying(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

// IsCollection reports whether T is a slice or array (maps are handled by
// providers.MapToStruct, not the collection provider).
func IsCollection(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// IsScalar reports whether T is a primitive, string, enum-like named basic
// type, or a pointer/nullable thereof — the set a ReadWriteSimple leaf can
// carry without a registered converter.
func IsScalar(t reflect.Type) bool {
	t = Underlying(t)
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

// HasDefaultConstructor reports whether T (a possibly-pointer type) can be
// constructed with its zero/default value: true for structs, slices, maps
// and scalars; false for interfaces, which have no meaningful zero value to
// map into.
func HasDefaultConstructor(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() != reflect.Interface
}
