package arbor

// Lifetime controls how many instances of a declaration a container creates
// and which scope owns them.
type Lifetime int

const (
	// Transient means a new instance is activated on every
	// [Scope.Resolve] call. Transients are never cached, but disposable
	// ones are still released when the resolving scope closes.
	Transient Lifetime = iota

	// Scoped means one instance per scope. Two child scopes of the same
	// container never share a scoped instance.
	Scoped

	// Singleton means one instance for the lifetime of the container. It
	// is always built and cached by the root scope, whichever scope asked
	// for it.
	Singleton
)

func (l Lifetime) valid() bool {
	return l >= Transient && l <= Singleton
}

// String returns the human-readable name of the lifetime.
func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Scoped:
		return "scoped"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}
