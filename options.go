package arbor

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Discipline selects how a scope guards the first activation of a cached
// (scoped or singleton) instance against concurrent resolvers.
type Discipline int

const (
	// AtMostOnce serialises first activations per (scope, key): the
	// activator of a cached instance runs at most once per scope, and
	// concurrent resolvers wait for it. A resolver whose wait would close a
	// cycle of in-flight activations fails with [ErrCircularDependency].
	AtMostOnce Discipline = iota

	// FirstWins lets racing first resolutions activate concurrently. The
	// first stored instance is kept; the others are released immediately
	// and never returned. Factories may therefore run more than once.
	FirstWins
)

// String returns the human-readable name of the discipline.
func (d Discipline) String() string {
	switch d {
	case AtMostOnce:
		return "at-most-once"
	case FirstWins:
		return "first-wins"
	default:
		return "unknown"
	}
}

// config holds the settings shared by a builder and the container it
// produces.
type config struct {
	compiler   Compiler
	logger     *zap.Logger
	registerer prometheus.Registerer
	discipline Discipline
}

func newConfig(opts []Option) config {
	cfg := config{
		compiler:   PrecompiledCompiler(),
		logger:     zap.NewNop(),
		discipline: AtMostOnce,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a [Builder] and the [Container] it builds.
type Option func(*config)

// WithCompiler selects the activation strategy. The default is
// [PrecompiledCompiler].
func WithCompiler(c Compiler) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.compiler = c
		}
	}
}

// WithLogger sets the logger used for diagnostics such as duplicate
// registrations and release failures. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithMetrics registers resolution metrics on reg. Collectors already
// registered by another container on the same registerer are shared.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(cfg *config) {
		cfg.registerer = reg
	}
}

// WithInstanceDiscipline sets the concurrency discipline for cached
// instances. The default is [AtMostOnce].
func WithInstanceDiscipline(d Discipline) Option {
	return func(cfg *config) {
		cfg.discipline = d
	}
}
