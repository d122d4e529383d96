package event

import "go.uber.org/fx"

// Module is an Fx module that provides the notification emitter.
var Module = fx.Options(
	fx.Provide(NewEmitter),
)
