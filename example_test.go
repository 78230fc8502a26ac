package arbor_test

import (
	"context"
	"fmt"

	"github.com/ARTM2000/arbor"
)

// Types used in examples only.
type Logger struct{ Prefix string }
type Config struct{ DSN string }
type Database struct {
	Config *Config
	Logger *Logger
}

type Greeter interface {
	Greet() string
}
type englishGreeter struct{}

func (g *englishGreeter) Greet() string { return "hello" }

// Conn announces its own release.
type Conn struct{ Name string }

func (c *Conn) Close() error {
	fmt.Println("closed", c.Name)
	return nil
}

func ExampleNewBuilder() {
	b := arbor.NewBuilder()
	_ = b.Register(arbor.Provide[*Logger](func() *Logger { return &Logger{Prefix: "app"} }, arbor.Singleton))

	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	defer c.Close()

	logger, _ := arbor.Resolve[*Logger](c.NewScope())
	fmt.Println(logger.Prefix)
	// Output: app
}

func ExampleProvide() {
	b := arbor.NewBuilder()
	_ = b.Register(arbor.Provide[*Config](func() *Config { return &Config{DSN: "postgres://localhost"} }, arbor.Singleton))
	_ = b.Register(arbor.Provide[*Logger](func() *Logger { return &Logger{Prefix: "app"} }, arbor.Transient))
	_ = b.Register(arbor.Provide[*Database](func(cfg *Config, log *Logger) *Database {
		return &Database{Config: cfg, Logger: log}
	}, arbor.Scoped))
	c, _ := b.Build()

	s1, s2 := c.NewScope(), c.NewScope()
	db1 := arbor.MustResolve[*Database](s1)
	db2 := arbor.MustResolve[*Database](s1)
	db3 := arbor.MustResolve[*Database](s2)

	fmt.Println(db1.Config.DSN)
	fmt.Println(db1 == db2, db1 == db3)
	fmt.Println(db1.Config == db3.Config, db1.Logger == db3.Logger)
	// Output:
	// postgres://localhost
	// true false
	// true false
}

func ExampleProvideInstance() {
	b := arbor.NewBuilder()
	_ = b.Register(arbor.ProvideInstance[Greeter](&englishGreeter{}))
	c, _ := b.Build()

	g, err := arbor.Resolve[Greeter](c.NewScope())
	if err != nil {
		panic(err)
	}
	fmt.Println(g.Greet())
	// Output: hello
}

func ExampleProvideFunc() {
	b := arbor.NewBuilder()
	_ = b.Register(arbor.ProvideInstance(&Config{DSN: "postgres://localhost"}))
	_ = b.Register(arbor.ProvideFunc(func(r arbor.Resolver) (*Database, error) {
		cfg, err := arbor.Resolve[*Config](r)
		if err != nil {
			return nil, err
		}
		return &Database{Config: cfg, Logger: &Logger{Prefix: "db"}}, nil
	}, arbor.Scoped))
	c, _ := b.Build()

	db := arbor.MustResolve[*Database](c.NewScope())
	fmt.Println(db.Config.DSN, db.Logger.Prefix)
	// Output: postgres://localhost db
}

func ExampleScope_Close() {
	b := arbor.NewBuilder()
	_ = b.Register(arbor.ProvideFunc(func(arbor.Resolver) (*Conn, error) {
		return &Conn{Name: "primary"}, nil
	}, arbor.Scoped))
	_ = b.Register(arbor.ProvideFunc(func(r arbor.Resolver) (*Database, error) {
		conn, err := arbor.Resolve[*Conn](r)
		if err != nil {
			return nil, err
		}
		return &Database{Config: &Config{DSN: conn.Name}}, nil
	}, arbor.Scoped))
	c, _ := b.Build()

	s := c.NewScope()
	_ = arbor.MustResolve[*Database](s)
	_ = arbor.MustResolve[*Conn](s)

	if err := s.Close(); err != nil {
		panic(err)
	}
	fmt.Println(s.Close())
	// Output:
	// closed primary
	// already closed
}

func ExampleScope_CloseAsync() {
	b := arbor.NewBuilder()
	_ = b.Register(arbor.ProvideFunc(func(arbor.Resolver) (*Conn, error) {
		return &Conn{Name: "replica"}, nil
	}, arbor.Transient))
	c, _ := b.Build()

	s := c.NewScope()
	_ = arbor.MustResolve[*Conn](s)

	err := <-s.CloseAsync(context.Background())
	fmt.Println(err)
	// Output:
	// closed replica
	// <nil>
}

func ExampleWithCompiler() {
	b := arbor.NewBuilder(arbor.WithCompiler(arbor.ReflectCompiler()))
	_ = b.Register(arbor.Provide[*Logger](func() *Logger { return &Logger{Prefix: "reflect"} }, arbor.Singleton))
	c, _ := b.Build()

	fmt.Println(arbor.MustResolve[*Logger](c.NewScope()).Prefix)
	// Output: reflect
}
