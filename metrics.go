package loom

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type CreateHook func(name string, duration time.Duration, err error)

type DestroyHook func(name string, duration time.Duration, err error)

// Metrics exports component creation and teardown as Prometheus series.
type Metrics struct {
	created          *prometheus.CounterVec
	creationDuration *prometheus.HistogramVec
	destroyed        *prometheus.CounterVec
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_created_total",
			Help:      "Component creations by result.",
		}, []string{"component", "result"}),
		creationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "component_creation_duration_seconds",
			Help:      "Time spent running the creation protocol for a component.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"component"}),
		destroyed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_destroyed_total",
			Help:      "Component teardowns by result.",
		}, []string{"component", "result"}),
	}

	if reg != nil {
		m.created = register(reg, m.created)
		m.creationDuration = register(reg, m.creationDuration)
		m.destroyed = register(reg, m.destroyed)
	}
	return m
}

// register reuses an identical collector that is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) ObserveCreate(name string, duration time.Duration, err error) {
	m.created.WithLabelValues(name, result(err)).Inc()
	m.creationDuration.WithLabelValues(name).Observe(duration.Seconds())
}

func (m *Metrics) ObserveDestroy(name string, _ time.Duration, err error) {
	m.destroyed.WithLabelValues(name, result(err)).Inc()
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.created, m.creationDuration, m.destroyed}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
