package inmemory

import (
	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/domain/repository"
)

// Module exports the in-memory repository for dependency injection.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewInMemoryOrchestrationRepository,
		fx.As(new(repository.OrchestrationRepository)),
	)),
)
