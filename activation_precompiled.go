package arbor

import (
	"reflect"
	"sync"
)

type precompiledCompiler struct{}

// PrecompiledCompiler returns the default activation strategy. Compiling a
// constructor declaration validates the constructor once, checks that every
// parameter is declared and prepares one resolve step per parameter, so an
// activation only resolves arguments and calls the constructor.
func PrecompiledCompiler() Compiler { return precompiledCompiler{} }

func (precompiledCompiler) String() string { return "precompiled" }

func (precompiledCompiler) Compile(d Declaration, reg *Registry) (Activator, error) {
	return compileDeclaration(d, reg, compileConstructor)
}

// step resolves one constructor argument.
type step func(r Resolver) (reflect.Value, error)

func compileConstructor(td *TypeDeclaration, reg *Registry) (Activator, error) {
	fn, hasErr, err := constructorOf(td)
	if err != nil {
		return nil, err
	}

	fnType := fn.Type()
	n := fnType.NumIn()
	if n == 0 {
		return func(Resolver) (any, error) {
			return invoke(fn, nil, hasErr)
		}, nil
	}

	steps := make([]step, n)
	for i := range steps {
		depType := fnType.In(i)
		if _, ok := reg.Lookup(depType); !ok {
			return nil, &UnresolvableError{Key: depType, RequiredBy: td.key}
		}
		steps[i] = resolveStep(depType, td.key)
	}

	args := &sync.Pool{
		New: func() any {
			s := make([]reflect.Value, n)
			return &s
		},
	}

	return func(r Resolver) (any, error) {
		buf := args.Get().(*[]reflect.Value)
		defer func() {
			clear(*buf)
			args.Put(buf)
		}()

		for i, resolve := range steps {
			v, err := resolve(r)
			if err != nil {
				return nil, err
			}
			(*buf)[i] = v
		}
		return invoke(fn, *buf, hasErr)
	}, nil
}

func resolveStep(depType, key reflect.Type) step {
	return func(r Resolver) (reflect.Value, error) {
		inst, err := r.Resolve(depType)
		if err != nil {
			return reflect.Value{}, dependencyError(depType, key, err)
		}
		return argument(depType, inst), nil
	}
}
