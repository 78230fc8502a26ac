package arbor

import "reflect"

// Declaration describes how to satisfy one service key. It is a closed set:
// the only implementations are [*TypeDeclaration], [*FactoryDeclaration] and
// [*InstanceDeclaration].
type Declaration interface {
	// Key is the contract the declaration satisfies.
	Key() reflect.Type
	// Lifetime governs caching and disposal ownership.
	Lifetime() Lifetime

	declaration()
}

// Factory builds an instance from the current resolution context.
type Factory func(r Resolver) (any, error)

// TypeDeclaration satisfies a key by calling a constructor function whose
// parameters are resolved by type. The constructor must have the signature
// func(deps...) T or func(deps...) (T, error), with T assignable to the key.
type TypeDeclaration struct {
	key         reflect.Type
	constructor any
	lifetime    Lifetime
}

// FactoryDeclaration satisfies a key by calling a user-supplied [Factory].
type FactoryDeclaration struct {
	key      reflect.Type
	factory  Factory
	lifetime Lifetime
}

// InstanceDeclaration satisfies a key with a pre-built value. It is always a
// [Singleton].
type InstanceDeclaration struct {
	key      reflect.Type
	instance any
}

// TypeBased declares key as satisfied by constructor. The constructor is
// not inspected here; an unusable one fails on first resolution.
func TypeBased(key reflect.Type, constructor any, l Lifetime) *TypeDeclaration {
	return &TypeDeclaration{key: key, constructor: constructor, lifetime: l}
}

// FactoryBased declares key as satisfied by fn.
func FactoryBased(key reflect.Type, fn Factory, l Lifetime) *FactoryDeclaration {
	return &FactoryDeclaration{key: key, factory: fn, lifetime: l}
}

// InstanceBased declares key as satisfied by instance for the lifetime of
// the container.
func InstanceBased(key reflect.Type, instance any) *InstanceDeclaration {
	return &InstanceDeclaration{key: key, instance: instance}
}

func (d *TypeDeclaration) Key() reflect.Type  { return d.key }
func (d *TypeDeclaration) Lifetime() Lifetime { return d.lifetime }
func (d *TypeDeclaration) declaration()       {}

// Constructor returns the constructor function as registered.
func (d *TypeDeclaration) Constructor() any { return d.constructor }

func (d *FactoryDeclaration) Key() reflect.Type  { return d.key }
func (d *FactoryDeclaration) Lifetime() Lifetime { return d.lifetime }
func (d *FactoryDeclaration) declaration()       {}

func (d *InstanceDeclaration) Key() reflect.Type  { return d.key }
func (d *InstanceDeclaration) Lifetime() Lifetime { return Singleton }
func (d *InstanceDeclaration) declaration()       {}

// Instance returns the pre-built value.
func (d *InstanceDeclaration) Instance() any { return d.instance }

// ---------------------------------------------------------------------------
// Generic helpers
// ---------------------------------------------------------------------------

// KeyOf returns the service key for T. Interfaces are supported:
//
//	key := arbor.KeyOf[io.Reader]()
func KeyOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Provide declares S as satisfied by constructor:
//
//	b.Register(arbor.Provide[Repository](NewPostgresRepository, arbor.Scoped))
func Provide[S any](constructor any, l Lifetime) *TypeDeclaration {
	return TypeBased(KeyOf[S](), constructor, l)
}

// ProvideFunc declares S as satisfied by a typed factory.
func ProvideFunc[S any](fn func(r Resolver) (S, error), l Lifetime) *FactoryDeclaration {
	return FactoryBased(KeyOf[S](), func(r Resolver) (any, error) {
		v, err := fn(r)
		if err != nil {
			return nil, err
		}
		return v, nil
	}, l)
}

// ProvideInstance declares S as satisfied by v.
func ProvideInstance[S any](v S) *InstanceDeclaration {
	return InstanceBased(KeyOf[S](), v)
}
