package logging

import (
	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
)

// Module provides the logging listener and subscribes it to the orchestrator.
var Module = fx.Options(
	fx.Provide(NewLoggingListener),
	fx.Invoke(func(orc *orchestrator.Orchestrator, l *LoggingListener) {
		orc.Emitter().Subscribe(l.Handle)
	}),
)
