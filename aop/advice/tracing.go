package advice

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danpasecinic/loom/aop"
)

const tracerName = "github.com/danpasecinic/loom/aop/advice"

// Tracing starts a span named <type>.<method> around every intercepted call.
// Methods taking a context.Context receive the span's context. A nil
// provider uses the global one.
func Tracing(provider trace.TracerProvider) aop.Interceptor {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	tracer := provider.Tracer(tracerName)

	return aop.InterceptorFunc(func(inv aop.Invocation) ([]any, error) {
		typ := targetType(inv)
		ctx, span := tracer.Start(inv.Context(), typ+"."+inv.Method().Name,
			trace.WithAttributes(
				attribute.String("loom.type", typ),
				attribute.String("loom.method", inv.Method().Name),
			),
		)
		defer span.End()

		inv.SetContext(ctx)
		out, err := inv.Proceed()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return out, err
	})
}
