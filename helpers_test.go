package arbor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Shared test types and helpers used across test files.

// mustRegister calls t.Fatal if registration fails.
func mustRegister(t testing.TB, b *Builder, decls ...Declaration) {
	t.Helper()
	for _, d := range decls {
		require.NoError(t, b.Register(d))
	}
}

// mustBuild calls t.Fatal if build fails.
func mustBuild(t testing.TB, b *Builder) *Container {
	t.Helper()
	c, err := b.Build()
	require.NoError(t, err)
	return c
}

// buildContainer registers decls on a fresh builder and builds it.
func buildContainer(t testing.TB, decls []Declaration, opts ...Option) *Container {
	t.Helper()
	b := NewBuilder(opts...)
	mustRegister(t, b, decls...)
	return mustBuild(t, b)
}

// forEachCompiler runs fn once per activation strategy.
func forEachCompiler(t *testing.T, fn func(t *testing.T, c Compiler)) {
	for _, c := range []Compiler{PrecompiledCompiler(), ReflectCompiler()} {
		t.Run(compilerName(c), func(t *testing.T) { fn(t, c) })
	}
}

type testLogger struct{ Prefix string }
type testConfig struct{ DSN string }

type testDatabase struct {
	Config *testConfig
	Logger *testLogger
}

type testService interface {
	Name() string
}

type testUserService struct {
	DB     *testDatabase
	Logger *testLogger
}

func (s *testUserService) Name() string { return "user" }

type testController struct {
	Service testService
}

type testAnother interface {
	Another() string
}

type anotherService struct{ ID int }

func (a *anotherService) Another() string { return "another" }

type testCircA struct{ B *testCircB }
type testCircB struct{ A *testCircA }

func newTestLogger() *testLogger           { return &testLogger{Prefix: "app"} }
func newTestConfig() *testConfig           { return &testConfig{DSN: "postgres://localhost"} }
func newTestCircA(b *testCircB) *testCircA { return &testCircA{B: b} }
func newTestCircB(a *testCircA) *testCircB { return &testCircB{A: a} }

func newTestController(s testService) *testController {
	return &testController{Service: s}
}

func newTestDatabase(cfg *testConfig, log *testLogger) *testDatabase {
	return &testDatabase{Config: cfg, Logger: log}
}

func newTestUserService(db *testDatabase, log *testLogger) *testUserService {
	return &testUserService{DB: db, Logger: log}
}

// appDeclarations is a small layered graph: config and logger singletons,
// a scoped database and a transient service.
func appDeclarations() []Declaration {
	return []Declaration{
		Provide[*testConfig](newTestConfig, Singleton),
		Provide[*testLogger](newTestLogger, Singleton),
		Provide[*testDatabase](newTestDatabase, Scoped),
		Provide[testService](newTestUserService, Transient),
	}
}

// ---------------------------------------------------------------------------
// Disposables
// ---------------------------------------------------------------------------

// recorder collects release events in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(event string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// syncCloser implements io.Closer.
type syncCloser struct {
	name  string
	rec   *recorder
	err   error
	calls atomic.Int32
}

func (c *syncCloser) Close() error {
	c.calls.Add(1)
	c.rec.record("sync:" + c.name)
	return c.err
}

// asyncCloser implements AsyncCloser only.
type asyncCloser struct {
	name  string
	rec   *recorder
	err   error
	calls atomic.Int32
	// block, when set, delays completion until it is closed.
	block chan struct{}
}

func (c *asyncCloser) CloseAsync(ctx context.Context) <-chan error {
	c.calls.Add(1)
	done := make(chan error, 1)
	go func() {
		if c.block != nil {
			<-c.block
		}
		c.rec.record("async:" + c.name)
		done <- c.err
	}()
	return done
}

// dualCloser implements both release capabilities.
type dualCloser struct {
	name string
	rec  *recorder
}

func (c *dualCloser) Close() error {
	c.rec.record("sync:" + c.name)
	return nil
}

func (c *dualCloser) CloseAsync(context.Context) <-chan error {
	c.rec.record("async:" + c.name)
	return nil
}

// Distinct keys for disposables.
type resA struct{ *syncCloser }
type resB struct{ *syncCloser }
type resC struct{ *syncCloser }
type resAsync struct{ *asyncCloser }
type resDual struct{ *dualCloser }

var errRelease = errors.New("release failed")

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)
