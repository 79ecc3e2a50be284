package telemetry

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
)

const systemName = "stacklab"

// CollectorURL is the otlp endpoint taken from the standard environment variable.
var CollectorURL = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

type IgnoreExporterErrorsHandler struct{}

func (IgnoreExporterErrorsHandler) Handle(err error) {}

// New installs trace and meter providers exporting to collectorURL. With an
// empty collectorURL nothing is installed and the global no-op providers stay
// in place. The returned func flushes and shuts the providers down.
func New(service, version string, collectorURL string) (func(), error) {
	if collectorURL == "" {
		return func() {}, nil
	}
	ctx := context.Background()

	res, err := resource.New(
		ctx,
		resource.WithHost(),
		resource.WithContainer(),
		resource.WithAttributes(semconv.ServiceNameKey.String(service), semconv.ServiceVersion(version)))
	if err != nil {
		return nil, err
	}

	te, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(collectorURL), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(te), sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	me, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(collectorURL), otlpmetrichttp.WithInsecure())
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(
			me,
			metric.WithProducer(runtime.NewProducer()),
			metric.WithInterval(15*time.Second))))

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(15 * time.Second)); err != nil {
		slog.Warn("Runtime metrics unavailable", "error", err)
	}
	otel.SetMeterProvider(mp)

	// swallow otel errors so they don't spam stdout
	otel.SetErrorHandler(IgnoreExporterErrorsHandler{})

	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down tracer provider", "error", err)
		}
		if err := mp.Shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down meter provider", "error", err)
		}
	}, nil
}
