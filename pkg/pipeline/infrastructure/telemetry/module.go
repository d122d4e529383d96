package telemetry

import (
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"

	coremetrics "github.com/tenderworks/pipeline/pkg/pipeline/core/metrics"
)

// Module exports the OpenTelemetry providers and the span-backed tracer.
// Applications include either this module or coremetrics.Module (the no-op
// providers), never both.
var Module = fx.Options(
	fx.Provide(
		NewTracerProvider,
		NewMeterProvider,
		// Concrete recorder only; binding it to coremetrics.MetricRecorder is
		// left to applications that ship metrics over OTLP instead of
		// scraping Prometheus.
		NewOtelMetricRecorder,
	),
	fx.Provide(fx.Annotate(
		NewOtelTracer,
		fx.As(new(coremetrics.Tracer)),
	)),
	// Fx providers are lazy; the meter provider has no direct consumer, so it
	// is forced into existence here to start the periodic OTLP reader.
	fx.Invoke(func(*sdkmetric.MeterProvider) {}),
)
