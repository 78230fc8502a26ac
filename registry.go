package arbor

import "reflect"

// Registry is the immutable set of declarations a container resolves from.
// It is produced by [Builder.Build] and safe for concurrent use.
type Registry struct {
	entries map[reflect.Type]registryEntry
	order   []reflect.Type
}

type registryEntry struct {
	decl    Declaration
	ordinal int
}

func newRegistry(decls []Declaration) *Registry {
	r := &Registry{
		entries: make(map[reflect.Type]registryEntry, len(decls)),
		order:   make([]reflect.Type, 0, len(decls)),
	}
	for i, d := range decls {
		r.entries[d.Key()] = registryEntry{decl: d, ordinal: i}
		r.order = append(r.order, d.Key())
	}
	return r
}

// Lookup returns the declaration for key.
func (r *Registry) Lookup(key reflect.Type) (Declaration, bool) {
	e, ok := r.entries[key]
	return e.decl, ok
}

// Len returns the number of declarations.
func (r *Registry) Len() int { return len(r.order) }

// Keys returns the declared keys in registration order.
func (r *Registry) Keys() []reflect.Type {
	keys := make([]reflect.Type, len(r.order))
	copy(keys, r.order)
	return keys
}

func (r *Registry) ordinal(key reflect.Type) int {
	return r.entries[key].ordinal
}
