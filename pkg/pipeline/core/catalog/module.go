package catalog

import "go.uber.org/fx"

// Module is an Fx module that provides the step catalog.
var Module = fx.Options(
	fx.Provide(NewCatalogProvider),
)
