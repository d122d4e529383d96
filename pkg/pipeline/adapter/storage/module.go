package storage

import "go.uber.org/fx"

// Module exports the storage connection resolver for dependency injection.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewConnectionResolver,
		fx.As(new(StorageConnectionResolver)),
	)),
)
