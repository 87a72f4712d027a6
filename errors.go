package emitmapper

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// ConfigurationError is raised synchronously at first Get[S, D](m, cfg)
// for an unresolvable member type, a missing scalar converter, or a
// generic provider that matched but failed to build. The manager caches
// the failure and re-raises an equivalent error on every subsequent call
// for the same key, rather than attempting the build again.
type ConfigurationError struct {
	From, To reflect.Type
	cause    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("emitmapper: configuration error mapping %s -> %s: %v", e.From, e.To, e.cause)
}

func (e *ConfigurationError) Unwrap() error { return e.cause }

func newConfigurationError(from, to reflect.Type, cause error) *ConfigurationError {
	return &ConfigurationError{From: from, To: to, cause: errors.WithStack(cause)}
}

// CycleError is raised at plan-build time for a cyclic nested destination
// type with no user-supplied converter to break the recursion.
type CycleError struct {
	Path []reflect.Type
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, t := range e.Path {
		parts[i] = t.String()
	}
	return fmt.Sprintf("emitmapper: cyclic nested mapping: %v", parts)
}

func newCycleError(path []reflect.Type) *CycleError {
	cp := append([]reflect.Type{}, path...)
	return &CycleError{Path: cp}
}
