package advice

import (
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/danpasecinic/loom/aop"
)

type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// The breaker opens once at least MinRequests calls were made in the
	// current interval and the failure ratio reaches FailureThreshold.
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// CircuitBreaker rejects calls with gobreaker.ErrOpenState while too many
// recent calls failed. A method's own error result counts as a failure.
func CircuitBreaker(cfg BreakerConfig, logger *zap.Logger) aop.Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	return aop.InterceptorFunc(func(inv aop.Invocation) ([]any, error) {
		res, err := cb.Execute(func() (any, error) {
			return inv.Proceed()
		})
		out, _ := res.([]any)
		return out, err
	})
}
