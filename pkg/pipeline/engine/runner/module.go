package runner

import "go.uber.org/fx"

// Module is an Fx module that provides the runner.
var Module = fx.Options(
	fx.Provide(New),
)
