// Package advice provides ready-made interceptors for common cross-cutting
// concerns.
package advice

import (
	"errors"
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/danpasecinic/loom/aop"
)

// Timing records how long every intercepted method takes.
type Timing struct {
	duration *prometheus.HistogramVec
	logger   *zap.Logger
}

// NewTiming registers <namespace>_method_duration_seconds with reg. A nil reg
// leaves the histogram unregistered.
func NewTiming(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Timing {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "method_duration_seconds",
		Help:      "Duration of intercepted method calls.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
	}, []string{"type", "method", "result"})

	if reg != nil {
		if err := reg.Register(duration); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Timing{duration: duration, logger: logger}
}

func (t *Timing) Invoke(inv aop.Invocation) ([]any, error) {
	start := time.Now()
	out, err := inv.Proceed()
	elapsed := time.Since(start)

	typ := targetType(inv)
	t.duration.WithLabelValues(typ, inv.Method().Name, result(err)).Observe(elapsed.Seconds())
	t.logger.Debug("method timed",
		zap.String("type", typ),
		zap.String("method", inv.Method().Name),
		zap.Duration("duration", elapsed),
	)
	return out, err
}

func (t *Timing) Collector() prometheus.Collector {
	return t.duration
}

func targetType(inv aop.Invocation) string {
	return reflect.TypeOf(inv.Target()).String()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
