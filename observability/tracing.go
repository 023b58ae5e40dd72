package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name attached to every kamba span.
const TracerName = "github.com/shaharia-lab/kamba"

// StartSpan starts a new span with the given name and options. The tracer provider of the
// span already in ctx is used; without one the global provider is.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	provider := otel.GetTracerProvider()
	if parent := trace.SpanFromContext(ctx); parent.SpanContext().IsValid() {
		provider = parent.TracerProvider()
	}
	return provider.Tracer(TracerName).Start(ctx, name, opts...)
}
