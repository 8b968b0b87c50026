package advice

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danpasecinic/loom/aop"
)

// Logging writes one line per intercepted call, tagged with an invocation id.
// Failed calls are logged at Warn.
func Logging(logger *zap.Logger) aop.Interceptor {
	if logger == nil {
		logger = zap.L()
	}
	return aop.InterceptorFunc(func(inv aop.Invocation) ([]any, error) {
		log := logger.With(
			zap.String("invocation", uuid.NewString()),
			zap.String("type", targetType(inv)),
			zap.String("method", inv.Method().Name),
		)

		start := time.Now()
		out, err := inv.Proceed()
		if err != nil {
			log.Warn("method failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
			return out, err
		}
		log.Info("method returned", zap.Duration("duration", time.Since(start)))
		return out, nil
	})
}
