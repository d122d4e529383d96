package notification

import (
	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/event"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
)

// Module provides the log notifier and subscribes the notification listener
// to terminal job events.
var Module = fx.Options(
	fx.Provide(
		NewLogNotifier,
		NewNotificationListener,
	),
	fx.Invoke(func(orc *orchestrator.Orchestrator, l *NotificationListener) {
		orc.Emitter().Subscribe(l.Handle, event.JobComplete, event.JobFailed)
	}),
)
