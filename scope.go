package arbor

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolver produces instances by service key. [*Scope] implements it, and
// activators and factories receive one as their resolution context.
type Resolver interface {
	Resolve(key reflect.Type) (any, error)
}

// Scope is a resolution context with its own instance cache and disposal
// ledger. Every container has one root scope, which caches singletons, and
// any number of child scopes created with [Container.NewScope].
//
// Resolve is safe for concurrent use. Close and CloseAsync must not race
// with resolutions against the same scope.
type Scope struct {
	id        string
	container *Container
	root      bool
	log       *zap.Logger

	mu        sync.RWMutex
	instances map[reflect.Type]any
	building  map[reflect.Type]*flight

	ledger ledger
	closed atomic.Bool
}

func newScope(c *Container, root bool) *Scope {
	id := uuid.NewString()
	s := &Scope{
		id:        id,
		container: c,
		root:      root,
		log:       c.log.With(zap.String("scope", id), zap.Bool("root", root)),
		instances: make(map[reflect.Type]any),
		building:  make(map[reflect.Type]*flight),
	}
	c.metrics.scopeOpened()
	s.log.Debug("scope opened")
	return s
}

// ID returns the unique identifier of the scope, as used in log fields.
func (s *Scope) ID() string { return s.id }

// Resolve returns the instance for key according to its lifetime: a new
// transient, this scope's scoped instance, or the container's singleton.
// Prefer the generic [Resolve] helper.
func (s *Scope) Resolve(key reflect.Type) (any, error) {
	return s.resolve(key, nil, new(waiter))
}

// resolution is the context handed to activators. It carries the keys under
// construction on the current call chain and the waiter of the top-level
// call.
type resolution struct {
	scope  *Scope
	chain  []reflect.Type
	waiter *waiter
}

func (r *resolution) Resolve(key reflect.Type) (any, error) {
	return r.scope.resolve(key, r.chain, r.waiter)
}

func (s *Scope) resolve(key reflect.Type, chain []reflect.Type, w *waiter) (any, error) {
	if s.closed.Load() {
		return nil, ErrScopeClosed
	}
	if s.container.root.closed.Load() {
		return nil, ErrContainerClosed
	}

	d, ok := s.container.registry.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotRegistered, typeName(key))
	}

	if d.Lifetime() == Singleton && !s.root {
		return s.container.root.resolve(key, chain, w)
	}

	for _, k := range chain {
		if k == key {
			cycle := make([]reflect.Type, 0, len(chain)+1)
			cycle = append(cycle, chain...)
			return nil, &CircularError{Chain: append(cycle, key)}
		}
	}

	r := &resolution{scope: s, chain: append(chain[:len(chain):len(chain)], key), waiter: w}

	var (
		inst any
		err  error
	)
	if d.Lifetime() == Transient {
		// Never cached, even on the root; the scope only owns the release.
		inst, err = s.create(d, r)
	} else {
		inst, err = s.cached(d, r)
	}
	s.container.metrics.resolved(d.Lifetime(), err)
	return inst, err
}

// activate runs the declaration's activator and checks the result against
// the key.
func (s *Scope) activate(d Declaration, r *resolution) (any, error) {
	act, err := s.container.activator(d)
	if err != nil {
		return nil, err
	}
	inst, err := act(r)
	if err != nil {
		return nil, err
	}
	if !assignable(inst, d.Key()) {
		return nil, fmt.Errorf("%w: %T is not assignable to %s", ErrTypeMismatch, inst, d.Key())
	}
	return inst, nil
}

// create activates d and records the result for release when disposable.
func (s *Scope) create(d Declaration, r *resolution) (any, error) {
	inst, err := s.activate(d, r)
	if err != nil {
		return nil, err
	}
	s.track(inst)
	return inst, nil
}

func (s *Scope) track(inst any) {
	if disposable(inst) {
		s.ledger.push(inst)
	}
}

func (s *Scope) lookup(key reflect.Type) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[key]
	return inst, ok
}

// cached serves scoped instances, and every non-transient instance on the
// root, from this scope's cache.
func (s *Scope) cached(d Declaration, r *resolution) (any, error) {
	key := d.Key()
	if inst, ok := s.lookup(key); ok {
		return inst, nil
	}

	if s.container.discipline == FirstWins {
		return s.firstWins(d, r)
	}

	for {
		s.mu.Lock()
		if inst, ok := s.instances[key]; ok {
			s.mu.Unlock()
			return inst, nil
		}
		f, busy := s.building[key]
		if !busy {
			f = &flight{key: key, owner: r.waiter, done: make(chan struct{})}
			s.building[key] = f
			s.mu.Unlock()
			return s.fly(d, r, f)
		}
		s.mu.Unlock()

		// A failed flight is not cached, so the loop retries the build.
		if err := s.container.wait(r, f); err != nil {
			return nil, err
		}
	}
}

// fly activates d as the owner of f and publishes the result.
func (s *Scope) fly(d Declaration, r *resolution, f *flight) (inst any, err error) {
	defer func() {
		s.mu.Lock()
		if err == nil {
			s.instances[f.key] = inst
		}
		delete(s.building, f.key)
		s.mu.Unlock()
		close(f.done)
	}()
	return s.create(d, r)
}

func (s *Scope) firstWins(d Declaration, r *resolution) (any, error) {
	key := d.Key()
	inst, err := s.activate(d, r)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.instances[key]; ok {
		s.mu.Unlock()
		if _, shared := d.(*InstanceDeclaration); shared || sameInstance(inst, existing) {
			return existing, nil
		}
		s.log.Debug("discarding instance that lost first-resolution race", zap.Stringer("key", key))
		if err := releaseSync(inst); err != nil {
			s.log.Error("release failed", zap.String("path", "race"), zap.Stringer("key", key), zap.Error(err))
		}
		return existing, nil
	}
	s.instances[key] = inst
	s.mu.Unlock()

	s.track(inst)
	return inst, nil
}

// sameInstance reports whether a and b are the same object: equal
// comparable values, or reference kinds pointing at the same data.
func sameInstance(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return !va.IsValid() && !vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	return va.Comparable() && vb.Comparable() && va.Equal(vb)
}

// ---------------------------------------------------------------------------
// Teardown
// ---------------------------------------------------------------------------

// Close releases every disposable instance this scope created, newest
// first. An instance implementing [io.Closer] is closed directly; one that
// only implements [AsyncCloser] is awaited. Failures do not stop the
// teardown; they are joined into the returned error.
//
// A second call returns [ErrAlreadyClosed].
func (s *Scope) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}
	err := teardown(s.ledger.drain(), "sync", releaseSync, s.log, s.container.metrics)
	s.finish(err)
	return err
}

// CloseAsync is the asynchronous counterpart of [Scope.Close]. It prefers
// [AsyncCloser] and falls back to Close. The returned channel receives the
// joined error (nil on success) and is then closed.
//
// If ctx is done while an asynchronous release is pending, that release
// reports ctx.Err() and the remaining instances are still released.
func (s *Scope) CloseAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	if !s.closed.CompareAndSwap(false, true) {
		done <- ErrAlreadyClosed
		close(done)
		return done
	}

	entries := s.ledger.drain()
	go func() {
		defer close(done)
		release := func(v any) error { return releaseAsync(ctx, v) }
		err := teardown(entries, "async", release, s.log, s.container.metrics)
		s.finish(err)
		done <- err
	}()
	return done
}

func (s *Scope) finish(err error) {
	s.mu.Lock()
	clear(s.instances)
	s.mu.Unlock()

	s.container.metrics.scopeClosed()
	if err != nil {
		s.log.Debug("scope closed with release failures", zap.Error(err))
		return
	}
	s.log.Debug("scope closed")
}

// assignable reports whether inst may be returned for key.
func assignable(inst any, key reflect.Type) bool {
	if inst == nil {
		switch key.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		}
		return false
	}
	return reflect.TypeOf(inst).AssignableTo(key)
}
