package emitmapper

import "reflect"

// unwrapPointer strips one level of pointer indirection, or returns t
// unchanged if it isn't a pointer.
func unwrapPointer(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

// unwrapStruct follows pointers down to the underlying struct type, or
// reports none.
func unwrapStruct(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

func stripAffixes(name string, prefixes, postfixes []string) []string {
	names := []string{name}
	for _, p := range prefixes {
		if p != "" && len(name) > len(p) && name[:len(p)] == p {
			names = append(names, name[len(p):])
		}
	}
	for _, s := range postfixes {
		if s != "" && len(name) > len(s) && name[len(name)-len(s):] == s {
			names = append(names, name[:len(name)-len(s)])
		}
	}
	return names
}
