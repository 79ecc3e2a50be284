package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

func SetAttributes(span trace.Span, kv ...attribute.KeyValue) {
	for _, attr := range kv {
		span.SetAttributes(attr)
	}
}

func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append(opts, trace.WithAttributes(attribute.String("stacklab.system", systemName)))
	return otel.GetTracerProvider().Tracer(systemName).Start(ctx, name, opts...)
}

// Meter returns the stacklab meter from the global provider.
func Meter() metric.Meter {
	return otel.GetMeterProvider().Meter(systemName)
}
