package retry

import "go.uber.org/fx"

// Module is an Fx module that provides the retry policy.
var Module = fx.Options(
	fx.Provide(NewPolicyFromCatalog),
)
