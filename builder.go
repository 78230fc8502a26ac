package arbor

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Builder accumulates declarations and freezes them into a [Container].
// Use [NewBuilder] to create one.
type Builder struct {
	mu sync.Mutex

	cfg   config
	decls []Declaration
	keys  map[reflect.Type]struct{}
	built bool
}

// NewBuilder creates an empty builder. The options apply to the container
// returned by [Builder.Build].
func NewBuilder(opts ...Option) *Builder {
	return &Builder{
		cfg:  newConfig(opts),
		keys: make(map[reflect.Type]struct{}),
	}
}

// Register adds d unless its key is already declared. A duplicate is logged
// and ignored; the returned error wraps [ErrDuplicateRegistration] and may be
// discarded by callers that accept first-registration-wins.
//
// Register does not validate constructors or dependencies. Those problems
// surface on first resolution.
func (b *Builder) Register(d Declaration) error {
	if isNilDeclaration(d) {
		return fmt.Errorf("%w: nil declaration", ErrInvalidDeclaration)
	}
	if d.Key() == nil {
		return fmt.Errorf("%w: nil service key", ErrInvalidDeclaration)
	}
	if !d.Lifetime().valid() {
		return fmt.Errorf("%w: lifetime %d for %s", ErrInvalidDeclaration, int(d.Lifetime()), d.Key())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return ErrAlreadyBuilt
	}

	key := d.Key()
	if _, exists := b.keys[key]; exists {
		b.cfg.logger.Warn("duplicate registration ignored",
			zap.Stringer("key", key),
			zap.Stringer("lifetime", d.Lifetime()),
		)
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, key)
	}

	b.keys[key] = struct{}{}
	b.decls = append(b.decls, d)
	return nil
}

// Build freezes the registered declarations and returns a ready container.
// After Build the builder rejects further calls with [ErrAlreadyBuilt].
//
// Build fails only when the metric collectors cannot be registered on the
// registerer given to [WithMetrics]; the builder then stays usable.
func (b *Builder) Build() (*Container, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return nil, ErrAlreadyBuilt
	}

	c, err := newContainer(newRegistry(b.decls), b.cfg)
	if err != nil {
		return nil, err
	}
	b.built = true
	b.cfg.logger.Debug("container built",
		zap.Int("declarations", len(b.decls)),
		zap.String("compiler", compilerName(b.cfg.compiler)),
		zap.Stringer("discipline", b.cfg.discipline),
	)
	return c, nil
}

func isNilDeclaration(d Declaration) bool {
	switch d := d.(type) {
	case nil:
		return true
	case *TypeDeclaration:
		return d == nil
	case *FactoryDeclaration:
		return d == nil
	case *InstanceDeclaration:
		return d == nil
	}
	return false
}
