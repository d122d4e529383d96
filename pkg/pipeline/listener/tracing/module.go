package tracing

import (
	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
)

// Module provides the tracing listener and subscribes it to the orchestrator.
var Module = fx.Options(
	fx.Provide(NewTracingListener),
	fx.Invoke(func(orc *orchestrator.Orchestrator, l *TracingListener) {
		orc.Emitter().Subscribe(l.Handle)
	}),
)
