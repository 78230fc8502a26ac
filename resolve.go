package arbor

import "fmt"

// Resolve is a generic helper that resolves T from r. It is the recommended
// way to retrieve values, both from a [*Scope] and inside factories:
//
//	repo, err := arbor.Resolve[Repository](scope)
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	t := KeyOf[T]()

	inst, err := r.Resolve(t)
	if err != nil {
		return zero, err
	}
	if inst == nil {
		return zero, nil
	}

	out, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("%w: cannot convert %T to %s", ErrTypeMismatch, inst, t)
	}
	return out, nil
}

// MustResolve is like [Resolve] but panics on error. It suits factories and
// wiring code where a missing service is a programming error.
func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(fmt.Sprintf("arbor: resolve %s: %v", KeyOf[T](), err))
	}
	return v
}
