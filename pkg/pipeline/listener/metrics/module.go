package metrics

import (
	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
)

// Module provides the metrics listener and subscribes it to the orchestrator.
var Module = fx.Options(
	fx.Provide(NewMetricsListener),
	fx.Invoke(func(orc *orchestrator.Orchestrator, l *MetricsListener) {
		orc.Emitter().Subscribe(l.Handle)
	}),
)
