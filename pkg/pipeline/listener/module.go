package listener

import (
	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/pkg/pipeline/listener/logging"
	"github.com/tenderworks/pipeline/pkg/pipeline/listener/metrics"
	"github.com/tenderworks/pipeline/pkg/pipeline/listener/notification"
	"github.com/tenderworks/pipeline/pkg/pipeline/listener/tracing"
)

// Module aggregates all listener modules of the pipeline engine.
var Module = fx.Options(
	logging.Module,
	metrics.Module,
	tracing.Module,
	notification.Module,
)
