// Package logging subscribes a structured-log observer to the orchestrator's
// event channel.
package logging

import (
	"github.com/tenderworks/pipeline/pkg/pipeline/core/event"
	logger "github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

// LoggingListener logs every lifecycle event at a level matching its severity.
type LoggingListener struct{}

// NewLoggingListener creates a new instance of LoggingListener.
func NewLoggingListener() *LoggingListener {
	return &LoggingListener{}
}

// Handle dispatches one event to the log.
func (l *LoggingListener) Handle(ev event.Event) {
	switch ev.Name {
	case event.JobCreated:
		logger.Infof("Job '%s' created for '%s' (%d bytes).", ev.JobID, ev.Subject.FileName, ev.Subject.FileSize)
	case event.StepStart:
		logger.Infof("Job '%s': step '%s' started.", ev.JobID, ev.StepID)
	case event.StepComplete:
		logger.Infof("Job '%s': step '%s' completed (progress %d%%).", ev.JobID, ev.StepID, ev.Progress)
	case event.StepRetry:
		if ev.UseFallback {
			logger.Warnf("Job '%s': step '%s' retry %d/%d with fallback model '%s': %s",
				ev.JobID, ev.StepID, ev.Attempt, ev.MaxRetries, ev.FallbackModel, ev.Error)
		} else {
			logger.Warnf("Job '%s': step '%s' retry %d/%d: %s",
				ev.JobID, ev.StepID, ev.Attempt, ev.MaxRetries, ev.Error)
		}
	case event.StepFailed:
		logger.Errorf("Job '%s': step '%s' failed: %s", ev.JobID, ev.StepID, ev.Error)
	case event.StepSkipped:
		logger.Warnf("Job '%s': optional step '%s' skipped: %s", ev.JobID, ev.StepID, ev.Error)
	case event.JobFailed:
		logger.Errorf("Job '%s' failed at step '%s' after %dms: %s", ev.JobID, ev.StepID, ev.DurationMS, ev.Error)
	case event.JobComplete:
		if len(ev.Warnings) > 0 {
			logger.Warnf("Job '%s' finished with status '%s' in %dms (%d warnings).",
				ev.JobID, ev.Status, ev.DurationMS, len(ev.Warnings))
		} else {
			logger.Infof("Job '%s' completed in %dms.", ev.JobID, ev.DurationMS)
		}
	case event.JobResumed:
		if ev.StepID != "" {
			logger.Infof("Job '%s' resumed at step '%s' (progress %d%%).", ev.JobID, ev.StepID, ev.Progress)
		} else {
			logger.Infof("Job '%s' resumed (progress %d%%).", ev.JobID, ev.Progress)
		}
	default:
		logger.Debugf("Job '%s': unhandled event '%s'.", ev.JobID, ev.Name)
	}
}
