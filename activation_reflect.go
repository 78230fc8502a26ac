package arbor

import "reflect"

type reflectCompiler struct{}

// ReflectCompiler returns the introspecting activation strategy. Compiling
// a constructor declaration only remembers the constructor; each activation
// inspects its signature, checks that every parameter is declared and
// resolves the parameters from the current context.
//
// It does the most work per call and exists mainly as a reference for
// [PrecompiledCompiler], which must behave identically.
func ReflectCompiler() Compiler { return reflectCompiler{} }

func (reflectCompiler) String() string { return "reflect" }

func (reflectCompiler) Compile(d Declaration, reg *Registry) (Activator, error) {
	return compileDeclaration(d, reg, func(td *TypeDeclaration, reg *Registry) (Activator, error) {
		return func(r Resolver) (any, error) {
			fn, hasErr, err := constructorOf(td)
			if err != nil {
				return nil, err
			}

			fnType := fn.Type()
			args := make([]reflect.Value, fnType.NumIn())
			for i := range args {
				depType := fnType.In(i)
				if _, ok := reg.Lookup(depType); !ok {
					return nil, &UnresolvableError{Key: depType, RequiredBy: td.key}
				}

				inst, err := r.Resolve(depType)
				if err != nil {
					return nil, dependencyError(depType, td.key, err)
				}
				args[i] = argument(depType, inst)
			}

			return invoke(fn, args, hasErr)
		}, nil
	})
}
