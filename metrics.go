package arbor

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics is nil when the container was built without [WithMetrics]; every
// method is a no-op on a nil receiver.
type metrics struct {
	resolutions  *prometheus.CounterVec
	compilations *prometheus.CounterVec
	releases     *prometheus.CounterVec
	openScopes   prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	var (
		m   metrics
		err error
	)
	m.resolutions, err = register(reg, err, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arbor",
		Name:      "resolutions_total",
		Help:      "Service resolutions by lifetime and outcome.",
	}, []string{"lifetime", "outcome"}))
	m.compilations, err = register(reg, err, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arbor",
		Name:      "activator_compilations_total",
		Help:      "Activator compilations by strategy and outcome.",
	}, []string{"strategy", "outcome"}))
	m.releases, err = register(reg, err, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arbor",
		Name:      "releases_total",
		Help:      "Disposable instances released by teardown path and outcome.",
	}, []string{"path", "outcome"}))
	m.openScopes, err = register(reg, err, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "arbor",
		Name:      "open_scopes",
		Help:      "Scopes created and not yet closed, root scopes included.",
	}))
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}
	return &m, nil
}

// register adds c to reg, returning the collector that is already there if
// another container registered the same metric first. It does nothing once
// err is set, so consecutive calls report the first failure.
func register[C prometheus.Collector](reg prometheus.Registerer, err error, c C) (C, error) {
	if err != nil {
		return c, err
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *metrics) resolved(l Lifetime, err error) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(l.String(), outcome(err)).Inc()
}

func (m *metrics) compiled(strategy string, err error) {
	if m == nil {
		return
	}
	m.compilations.WithLabelValues(strategy, outcome(err)).Inc()
}

func (m *metrics) released(path string, err error) {
	if m == nil {
		return
	}
	m.releases.WithLabelValues(path, outcome(err)).Inc()
}

func (m *metrics) scopeOpened() {
	if m == nil {
		return
	}
	m.openScopes.Inc()
}

func (m *metrics) scopeClosed() {
	if m == nil {
		return
	}
	m.openScopes.Dec()
}
