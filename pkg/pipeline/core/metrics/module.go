package metrics

import (
	"go.uber.org/fx"
)

// Module is an Fx module that provides metrics-related fallbacks.
// Concrete backends (e.g., the Prometheus recorder or the OTLP tracer) replace
// these no-ops when their infrastructure modules are included.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewNoOpMetricRecorder,
		fx.As(new(MetricRecorder)),
	)),
	fx.Provide(fx.Annotate(
		NewNoOpTracer,
		fx.As(new(Tracer)),
	)),
)
