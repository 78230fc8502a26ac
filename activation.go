package arbor

import (
	"fmt"
	"reflect"
)

// Activator is the compiled form of a [Declaration]: given a resolution
// context it produces one instance.
type Activator func(r Resolver) (any, error)

// Compiler turns a declaration into an [Activator]. The registry is the one
// the activator will resolve against; strategies may use it to check that
// constructor parameters are declared.
//
// Implementations must be free of side effects: a container may compile the
// same declaration more than once and keep only one result.
type Compiler interface {
	Compile(d Declaration, reg *Registry) (Activator, error)
}

// compileDeclaration dispatches on the declaration variant. Instance and
// factory declarations compile the same way for every strategy; typed
// handles constructor declarations.
func compileDeclaration(d Declaration, reg *Registry, typed func(*TypeDeclaration, *Registry) (Activator, error)) (Activator, error) {
	switch d := d.(type) {
	case *InstanceDeclaration:
		inst := d.instance
		return func(Resolver) (any, error) { return inst, nil }, nil
	case *FactoryDeclaration:
		if d.factory == nil {
			return nil, &UnresolvableError{Key: d.key, RequiredBy: d.key, Reason: "nil factory"}
		}
		return Activator(d.factory), nil
	case *TypeDeclaration:
		return typed(d, reg)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidDeclaration, d)
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// constructorOf validates the constructor of d and returns it together with
// whether it has a trailing error result.
func constructorOf(d *TypeDeclaration) (reflect.Value, bool, error) {
	unusable := func(implType reflect.Type, reason string) error {
		return &UnresolvableError{Key: implType, RequiredBy: d.key, Reason: reason}
	}

	if d.constructor == nil {
		return reflect.Value{}, false, unusable(d.key, "nil constructor")
	}

	fn := reflect.ValueOf(d.constructor)
	typ := fn.Type()

	if typ.Kind() != reflect.Func {
		return reflect.Value{}, false, unusable(typ, "constructor must be a function")
	}
	if fn.IsNil() {
		return reflect.Value{}, false, unusable(typ, "nil constructor")
	}
	if typ.IsVariadic() {
		return reflect.Value{}, false, unusable(typ, "variadic constructors are not supported")
	}
	if typ.NumOut() == 0 || typ.NumOut() > 2 {
		return reflect.Value{}, false, unusable(typ, "constructor must return (T) or (T, error)")
	}
	if typ.NumOut() == 2 && !typ.Out(1).Implements(errorType) {
		return reflect.Value{}, false, unusable(typ, "second return value must implement error")
	}
	if !typ.Out(0).AssignableTo(d.key) {
		return reflect.Value{}, false, unusable(typ.Out(0), fmt.Sprintf("not assignable to %s", d.key))
	}

	return fn, typ.NumOut() == 2, nil
}

// invoke calls a validated constructor.
func invoke(fn reflect.Value, args []reflect.Value, hasErr bool) (any, error) {
	results := fn.Call(args)
	if hasErr && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// argument converts a resolved instance into a call argument of type t.
func argument(t reflect.Type, inst any) reflect.Value {
	if inst == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(inst)
}

func dependencyError(dep, key reflect.Type, err error) error {
	return fmt.Errorf("resolving %s for %s: %w", dep, key, err)
}

func compilerName(c Compiler) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}
