package arbor

import "testing"

func BenchmarkRegister(b *testing.B) {
	for i := 0; i < b.N; i++ {
		bld := NewBuilder()
		_ = bld.Register(Provide[*testLogger](newTestLogger, Singleton))
		_ = bld.Register(Provide[*testConfig](newTestConfig, Singleton))
		_ = bld.Register(Provide[*testDatabase](newTestDatabase, Scoped))
	}
}

func BenchmarkBuild(b *testing.B) {
	for i := 0; i < b.N; i++ {
		bld := NewBuilder()
		for _, d := range appDeclarations() {
			_ = bld.Register(d)
		}
		_, _ = bld.Build()
	}
}

// benchmarkResolve resolves key K on a warm scope once per iteration for
// each activation strategy.
func benchmarkResolve[K any](b *testing.B, l Lifetime) {
	for _, comp := range []Compiler{PrecompiledCompiler(), ReflectCompiler()} {
		b.Run(compilerName(comp), func(b *testing.B) {
			c := buildContainer(b, []Declaration{
				Provide[*testConfig](newTestConfig, Singleton),
				Provide[*testLogger](newTestLogger, Singleton),
				Provide[*testDatabase](newTestDatabase, l),
				Provide[testService](newTestUserService, l),
				Provide[*testController](newTestController, l),
			}, WithCompiler(comp))
			s := c.NewScope()
			if _, err := Resolve[K](s); err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = Resolve[K](s)
			}
		})
	}
}

func BenchmarkResolve_Transient(b *testing.B) {
	benchmarkResolve[*testController](b, Transient)
}

func BenchmarkResolve_Scoped(b *testing.B) {
	benchmarkResolve[*testController](b, Scoped)
}

func BenchmarkResolve_Singleton(b *testing.B) {
	benchmarkResolve[*testController](b, Singleton)
}

func BenchmarkNewScope(b *testing.B) {
	c := buildContainer(b, appDeclarations())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := c.NewScope()
		_, _ = Resolve[testService](s)
		_ = s.Close()
	}
}
