package container

import (
	"errors"
	"fmt"
	"strings"
)

const Namespace = "container"

// Sentinel errors for the failure taxonomy. Match with errors.Is; the
// concrete error types below carry the offending id/parameter/chain.
var (
	ErrNotFound              = errors.New(Namespace + ": not found")
	ErrCircularReference     = errors.New(Namespace + ": circular reference")
	ErrUnresolvableParameter = errors.New(Namespace + ": unresolvable parameter")
	ErrTypeMismatch          = errors.New(Namespace + ": type mismatch")
	ErrBuildFailure          = errors.New(Namespace + ": build failure")
	ErrInvariant             = errors.New(Namespace + ": invariant violation")
)

// NotFoundError: the id has neither a binding nor a loadable type.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no binding or loadable type for %q", Namespace, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// CircularReferenceError: a type was re-entered while already building.
// Chain is the ordered build chain ending in the repeated type.
type CircularReferenceError struct {
	Chain []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("%s: circular reference: %s", Namespace, strings.Join(e.Chain, " -> "))
}

func (e *CircularReferenceError) Is(target error) bool { return target == ErrCircularReference }

// UnresolvableParameterError: a required parameter had no supplied value,
// no resolvable type, no default and is not nullable.
type UnresolvableParameterError struct {
	Class string
	Param string
}

func (e *UnresolvableParameterError) Error() string {
	return fmt.Sprintf("%s: cannot resolve parameter %q of %s", Namespace, e.Param, e.Class)
}

func (e *UnresolvableParameterError) Is(target error) bool { return target == ErrUnresolvableParameter }

// TypeMismatchError: an explicitly supplied value failed its declared check.
type TypeMismatchError struct {
	Param    string
	Expected string
	Value    any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: parameter %q wants %s, got %T", Namespace, e.Param, e.Expected, e.Value)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// BuildError wraps an error raised while constructing the instance for ID.
type BuildError struct {
	ID  string
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: building %q: %T: %v", Namespace, e.ID, e.Err, e.Err)
}

func (e *BuildError) Is(target error) bool { return target == ErrBuildFailure }

func (e *BuildError) Unwrap() error { return e.Err }

// InvariantError: a mutation on a locked registry, an illegal auto-bind id,
// an ambiguous multi-interface auto-bind, or a malformed variadic argument.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", Namespace, e.Reason)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

func invariantf(format string, args ...any) error {
	return &InvariantError{Reason: fmt.Sprintf(format, args...)}
}
