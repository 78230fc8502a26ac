package arbor

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrServiceNotRegistered is returned when Resolve is called for a key
	// that has no declaration.
	ErrServiceNotRegistered = errors.New("service not registered")

	// ErrUnresolvableDependency is returned when a constructor cannot be
	// used or one of its parameter types has no declaration. The concrete
	// error is an [*UnresolvableError].
	ErrUnresolvableDependency = errors.New("unresolvable dependency")

	// ErrCircularDependency is returned when resolution revisits a key that
	// is already being constructed on the same call chain. The concrete
	// error is a [*CircularError].
	ErrCircularDependency = errors.New("circular dependency detected")

	// ErrDuplicateRegistration is returned by [Builder.Register] when the key
	// is already declared. It is informational: the first declaration wins
	// and the builder stays usable.
	ErrDuplicateRegistration = errors.New("duplicate registration")

	// ErrInvalidDeclaration is returned for nil declarations or keys.
	ErrInvalidDeclaration = errors.New("invalid declaration")

	// ErrAlreadyBuilt is returned when Register or Build is called after the
	// builder has produced its container.
	ErrAlreadyBuilt = errors.New("builder already built")

	// ErrTypeMismatch is returned when an activator produces a value that is
	// not assignable to the requested key.
	ErrTypeMismatch = errors.New("instance not assignable to service key")

	// ErrScopeClosed is returned when resolving from a closed scope.
	ErrScopeClosed = errors.New("scope closed")

	// ErrContainerClosed is returned when resolving from a scope whose
	// container has been closed.
	ErrContainerClosed = errors.New("container closed")

	// ErrAlreadyClosed is returned by a second Close or CloseAsync call.
	ErrAlreadyClosed = errors.New("already closed")
)

// UnresolvableError reports a declaration that cannot be activated: either
// its constructor is unusable or a constructor parameter has no
// declaration.
type UnresolvableError struct {
	// Key is the missing (or unusable) type.
	Key reflect.Type
	// RequiredBy is the service key whose activation needed Key.
	RequiredBy reflect.Type
	// Reason is set when the constructor itself is unusable.
	Reason string
}

func (e *UnresolvableError) Error() string {
	msg := fmt.Sprintf("%s: %s required by %s", ErrUnresolvableDependency, typeName(e.Key), typeName(e.RequiredBy))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *UnresolvableError) Unwrap() error { return ErrUnresolvableDependency }

// CircularError reports a dependency cycle. Chain starts at the first key
// of the cycle as seen by the caller and ends with the revisited key.
type CircularError struct {
	Chain []reflect.Type
}

func (e *CircularError) Error() string {
	chain := make([]string, len(e.Chain))
	for i, t := range e.Chain {
		chain[i] = typeName(t)
	}
	return fmt.Sprintf("%s: %s", ErrCircularDependency, strings.Join(chain, " -> "))
}

func (e *CircularError) Unwrap() error { return ErrCircularDependency }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
