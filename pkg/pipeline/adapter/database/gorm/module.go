package gorm

import (
	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/pkg/pipeline/adapter/database"
)

// Module exports the components of the gorm adapter package for dependency
// injection (excluding concrete DB providers, which register themselves).
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewGormDBConnectionResolver,
		fx.As(new(database.DBConnectionResolver)),
	)),
)
