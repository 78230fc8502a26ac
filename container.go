package arbor

import (
	"context"
	"reflect"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Container owns an immutable [Registry], the activators compiled from it
// and the root [Scope] that holds every singleton. Create one with
// [Builder.Build].
type Container struct {
	registry   *Registry
	compiler   Compiler
	strategy   string
	discipline Discipline
	log        *zap.Logger
	metrics    *metrics

	// activators maps reflect.Type to Activator. It only grows.
	activators sync.Map
	compiling  singleflight.Group

	// waits guards every waiter.blocked across the container's scopes.
	waits sync.Mutex

	root *Scope
}

func newContainer(reg *Registry, cfg config) (*Container, error) {
	m, err := newMetrics(cfg.registerer)
	if err != nil {
		return nil, err
	}
	c := &Container{
		registry:   reg,
		compiler:   cfg.compiler,
		strategy:   compilerName(cfg.compiler),
		discipline: cfg.discipline,
		log:        cfg.logger,
		metrics:    m,
	}
	c.root = newScope(c, true)
	return c, nil
}

// NewScope creates a child scope. Scoped instances resolved through it are
// private to it; singletons are shared with every other scope.
func (c *Container) NewScope() *Scope {
	return newScope(c, false)
}

// Registry returns the declarations the container resolves from.
func (c *Container) Registry() *Registry { return c.registry }

// Close tears down the root scope, releasing every singleton and every
// disposable instance resolved through the root. Child scopes are closed by
// their owners.
func (c *Container) Close() error { return c.root.Close() }

// CloseAsync is the asynchronous counterpart of [Container.Close].
func (c *Container) CloseAsync(ctx context.Context) <-chan error {
	return c.root.CloseAsync(ctx)
}

// activator returns the compiled activator for d, compiling it on first use.
// Concurrent first uses of one key share a single compilation.
func (c *Container) activator(d Declaration) (Activator, error) {
	key := d.Key()
	if act, ok := c.activators.Load(key); ok {
		return act.(Activator), nil
	}

	v, err, _ := c.compiling.Do(strconv.Itoa(c.registry.ordinal(key)), func() (any, error) {
		if act, ok := c.activators.Load(key); ok {
			return act, nil
		}
		act, err := c.compiler.Compile(d, c.registry)
		c.metrics.compiled(c.strategy, err)
		if err != nil {
			c.log.Debug("activator compilation failed",
				zap.Stringer("key", key),
				zap.String("compiler", c.strategy),
				zap.Error(err),
			)
			return nil, err
		}
		actual, _ := c.activators.LoadOrStore(key, act)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Activator), nil
}

// compiled reports whether an activator for key has been cached.
func (c *Container) compiled(key reflect.Type) bool {
	_, ok := c.activators.Load(key)
	return ok
}

// ---------------------------------------------------------------------------
// In-flight builds
// ---------------------------------------------------------------------------

// flight is the in-progress activation of a cached instance. done is closed
// once the result is published or the activation failed.
type flight struct {
	key   reflect.Type
	owner *waiter
	done  chan struct{}
}

func (f *flight) landed() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// waiter is one top-level resolution, recording the flight it is blocked
// on, if any.
type waiter struct {
	blocked *flight
}

// wait blocks until f lands. If the owner of f is, through the flights it
// waits on, itself waiting for r, waiting would never end and a
// [*CircularError] is returned instead.
func (c *Container) wait(r *resolution, f *flight) error {
	c.waits.Lock()
	var keys []reflect.Type
	for next := f; next != nil && !next.landed(); next = next.owner.blocked {
		keys = append(keys, next.key)
		if next.owner == r.waiter {
			c.waits.Unlock()
			chain := make([]reflect.Type, 0, len(r.chain)+len(keys))
			chain = append(chain, r.chain[:len(r.chain)-1]...)
			return &CircularError{Chain: append(chain, keys...)}
		}
	}
	r.waiter.blocked = f
	c.waits.Unlock()

	<-f.done

	c.waits.Lock()
	r.waiter.blocked = nil
	c.waits.Unlock()
	return nil
}
