// Package codegen is a build-time alternative to interpreting a
// *emitmapper.MappingOperation tree at runtime: EmitSource renders the
// subset of it that has a static source-code representation as a
// standalone Go function, using jennifer to build the Code tree.
package codegen

import (
	"bytes"
	"reflect"

	. "github.com/dave/jennifer/jen"
	"github.com/pkg/errors"

	emitmapper "github.com/niubilitynetcore/EmitMapper"
)

// EmitSource renders root — which must be an OpRoot with no whole-object
// Converter, filters or post-processor, none of which have a useful static
// form — as the source of a package-level function:
//
//	func <funcName>(src <S>) (<D>, error)
//
// Only straight field-copy leaves (no converter of any kind, so a widening
// conversion is rejected too) and value-typed nested struct recursion
// survive the translation. A leaf carrying a Converter, NullSubstitutor,
// filter or constructor, a nested destination carrying a constructor,
// filter or post-processor, or a pointer-typed nested destination, has no
// serializable source form;
// EmitSource returns an error naming the first one it encounters rather than
// silently dropping it — the caller falls back to the runtime interpreter
// for that (S, D) pair.
func EmitSource(root *emitmapper.MappingOperation, pkgName, funcName string) (string, error) {
	if root.Kind != emitmapper.OpRoot {
		return "", errors.New("codegen: EmitSource requires a Root operation")
	}
	if root.Converter != nil || root.SourceFilter != nil || root.DestinationFilter != nil || root.ValuesPostProcessor != nil {
		return "", errors.New("codegen: root carries a converter, filter or post-processor; not representable as static source")
	}

	assignments, err := genAssignments(root.Operations, nil, nil)
	if err != nil {
		return "", err
	}

	f := NewFile(pkgName)
	body := append([]Code{Var().Id("dst").Add(genType(root.ToType))}, assignments...)
	body = append(body, Return(Id("dst"), Nil()))

	f.Func().Id(funcName).Params(
		Id("src").Add(genType(root.FromType)),
	).Params(genType(root.ToType), Error()).Block(body...)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", errors.Wrap(err, "codegen: rendering")
	}
	return buf.String(), nil
}

func genAssignments(ops []*emitmapper.MappingOperation, srcPath, dstPath []string) ([]Code, error) {
	var out []Code
	for _, op := range ops {
		switch op.Kind {
		case emitmapper.OpReadWriteSimple:
			if op.Converter != nil || op.NullSubstitutor != nil || op.SourceFilter != nil || op.DestinationFilter != nil || op.TargetConstructor != nil {
				return nil, errors.Errorf("codegen: member %s has a registered converter, filter, null-substitutor or constructor; not representable as static source", op.Destination.Name)
			}
			out = append(out,
				fieldChain("dst", append(dstPath, op.Destination.Name)).
					Op("=").
					Add(fieldChain("src", append(srcPath, op.Source.Name))),
			)
		case emitmapper.OpReadWriteComplex:
			if op.Destination.ValueType.Kind() == reflect.Ptr {
				return nil, errors.Errorf("codegen: member %s is a pointer-typed nested destination; not representable as static source", op.Destination.Name)
			}
			if op.TargetConstructor != nil || op.ValuesPostProcessor != nil || op.DestinationFilter != nil {
				return nil, errors.Errorf("codegen: nested member %s has a registered constructor, filter or post-processor; not representable as static source", op.Destination.Name)
			}
			nested, err := genAssignments(op.Operations, append(srcPath, op.Source.Name), append(dstPath, op.Destination.Name))
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		case emitmapper.OpOperationsBlock:
			nested, err := genAssignments(op.Operations, srcPath, dstPath)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
	}
	return out, nil
}

func fieldChain(root string, path []string) *Statement {
	s := Id(root)
	for _, p := range path {
		s = s.Dot(p)
	}
	return s
}

// genType renders t's Go type syntax. EmitSource only ever sees struct,
// pointer-to-struct and slice types reachable from a plan's FromType/ToType,
// so this is deliberately narrower than a general reflect.Type-to-AST
// renderer.
func genType(t reflect.Type) *Statement {
	if t == nil {
		return Id("any")
	}
	switch t.Kind() {
	case reflect.Ptr:
		return Op("*").Add(genType(t.Elem()))
	case reflect.Slice:
		return Index().Add(genType(t.Elem()))
	case reflect.Array:
		return Index(Lit(t.Len())).Add(genType(t.Elem()))
	default:
		if t.PkgPath() == "" {
			return Id(t.String())
		}
		return Qual(t.PkgPath(), t.Name())
	}
}
