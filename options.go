package loom

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/danpasecinic/loom/config"
	"github.com/danpasecinic/loom/internal/container"
	"github.com/danpasecinic/loom/internal/instantiate"
)

type Option func(*containerConfig)

type DisposalPolicy = container.DisposalPolicy

const (
	FailFast        = container.FailFast
	ContinueOnError = container.ContinueOnError
)

// InstantiationStrategy builds raw component instances from a definition.
type InstantiationStrategy = instantiate.Strategy

// SubclassWrapper returns a subtype of target whose methods can later be
// intercepted.
type SubclassWrapper = instantiate.Wrapper

func WithLogger(logger *zap.Logger) Option {
	return func(cfg *containerConfig) {
		cfg.logger = logger
	}
}

func WithInstantiationStrategy(s InstantiationStrategy) Option {
	return func(cfg *containerConfig) {
		cfg.strategy = s
	}
}

// WithSubclassing instantiates every component through w, so components with
// a registered subtype are built as that subtype.
func WithSubclassing(w SubclassWrapper) Option {
	return func(cfg *containerConfig) {
		cfg.subclassing = true
		cfg.wrapper = w
	}
}

func WithDisposalPolicy(p DisposalPolicy) Option {
	return func(cfg *containerConfig) {
		cfg.disposalPolicy = p
	}
}

func WithCreateObserver(hook CreateHook) Option {
	return func(cfg *containerConfig) {
		cfg.onCreate = append(cfg.onCreate, hook)
	}
}

func WithDestroyObserver(hook DestroyHook) Option {
	return func(cfg *containerConfig) {
		cfg.onDestroy = append(cfg.onDestroy, hook)
	}
}

// WithMetrics records creation and teardown of every component in m.
func WithMetrics(m *Metrics) Option {
	return func(cfg *containerConfig) {
		cfg.onCreate = append(cfg.onCreate, m.ObserveCreate)
		cfg.onDestroy = append(cfg.onDestroy, m.ObserveDestroy)
	}
}

// WithConfig applies loaded settings. Metrics, when enabled, register with
// the default Prometheus registerer. A logger built from the logging section
// is used unless WithLogger is also given; an unusable logging section is
// reported as a warning. Subclass instantiation only takes effect together
// with WithSubclassing, which supplies the stubs.
func WithConfig(c *config.Config) Option {
	return func(cfg *containerConfig) {
		if c == nil {
			return
		}

		if cfg.logger == nil {
			logger, err := config.NewLogger(c.Logging)
			if err != nil {
				cfg.loggerErr = err
			} else {
				cfg.logger = logger
			}
		}

		cfg.subclassing = c.Instantiation == config.InstantiationSubclass
		if c.Disposal == config.DisposalContinue {
			cfg.disposalPolicy = ContinueOnError
		} else {
			cfg.disposalPolicy = FailFast
		}

		if c.Metrics.Enabled {
			WithMetrics(NewMetrics(c.Metrics.Namespace, prometheus.DefaultRegisterer))(cfg)
		}
	}
}
