package archive

import (
	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/config"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/event"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

// Module provides the archiver and subscribes it to terminal job events when
// archiving is enabled in the configuration.
var Module = fx.Options(
	fx.Provide(NewArchiver),
	fx.Invoke(func(cfg *config.Config, orc *orchestrator.Orchestrator, a *Archiver) {
		if !cfg.Pipeline.Archive.Enabled {
			logger.Debugf("Archiver: disabled by configuration, not subscribing.")
			return
		}
		orc.Emitter().Subscribe(a.Handle, event.JobComplete, event.JobFailed)
	}),
)
