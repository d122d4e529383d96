package metrics

import (
	"go.uber.org/fx"

	coremetrics "github.com/tenderworks/pipeline/pkg/pipeline/core/metrics"
)

// Module exports the Prometheus recorder for dependency injection.
// Applications include either this module or coremetrics.Module (the no-op
// providers), never both.
var Module = fx.Options(
	fx.Provide(
		NewPrometheusRecorder,
		func(r *PrometheusRecorder) coremetrics.MetricRecorder { return r },
	),
)
