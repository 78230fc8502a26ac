// Package arbor provides a scoped, reflection-based dependency resolution
// runtime for Go.
//
// Declarations say which constructor, factory or pre-built instance
// satisfies a service key and under which [Lifetime]. A [Builder] freezes
// them into a [Container]; instances are resolved from a [Scope] and
// released, newest first, when the scope closes.
//
// # Quick Start
//
//	b := arbor.NewBuilder()
//	b.Register(arbor.Provide[*Config](NewConfig, arbor.Singleton))
//	b.Register(arbor.Provide[Repository](NewRepository, arbor.Scoped))
//	c, _ := b.Build()
//	defer c.Close()
//
//	s := c.NewScope()
//	defer s.Close()
//	repo, err := arbor.Resolve[Repository](s)
//
// # Lifetimes
//
// [Transient]: a fresh instance on every resolve.
//
// [Scoped]: one instance per scope.
//
// [Singleton]: one instance per container, owned by the root scope.
//
// # Activation Strategies
//
// A [Compiler] turns each declaration into an [Activator] the first time its
// key is resolved. [PrecompiledCompiler] (the default) inspects constructors
// once; [ReflectCompiler] inspects them on every call. Both produce the same
// object graphs and the same errors.
//
//	b := arbor.NewBuilder(arbor.WithCompiler(arbor.ReflectCompiler()))
//
// # Disposal
//
// Instances implementing [io.Closer] or [AsyncCloser] are recorded by the
// scope that created them. [Scope.Close] and [Scope.CloseAsync] release them
// in reverse creation order; [Container.Close] does the same for the root
// scope and therefore for every singleton.
//
// # Concurrency
//
// Resolve is safe for concurrent use. Compilation of an activator happens
// at most once per key. Whether a scoped or singleton activator may run more
// than once under racing first resolutions is chosen with
// [WithInstanceDiscipline].
package arbor
