package executor

import (
	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/pkg/pipeline/engine/runner"
)

// Module exports the document step executor for dependency injection.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewDocumentExecutor,
		fx.As(new(runner.StepExecutor)),
	)),
)
