// Package notification delivers job-completion notices to an external
// channel. The default notifier only writes to the log.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/event"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

// Notifier is the outbound side of job-completion notification.
type Notifier interface {
	NotifyJobCompletion(ctx context.Context, job *model.JobRecord)
}

// LogNotifier is a notifier implementation that only logs notifications.
type LogNotifier struct{}

// NewLogNotifier creates a new instance of LogNotifier.
func NewLogNotifier() Notifier {
	logger.Infof("Notification: Initializing Log Notifier.")
	return &LogNotifier{}
}

// NotifyJobCompletion notifies of job completion.
func (n *LogNotifier) NotifyJobCompletion(_ context.Context, job *model.JobRecord) {
	message := fmt.Sprintf(
		"Job Notification: Job '%s' (%s) finished with Status: %s. Duration: %s, Warnings: %d",
		job.ID,
		job.Subject.FileName,
		job.Status,
		time.Duration(job.DurationMS())*time.Millisecond,
		len(job.Warnings),
	)

	// The message carries user-supplied file names; never treat it as a format string.
	if job.Status == model.JobStatusCompleted {
		logger.Infof("%s", message)
	} else {
		logger.Warnf("%s", message)
	}
}

var _ Notifier = (*LogNotifier)(nil)

// NotificationListener forwards terminal job events to a Notifier.
type NotificationListener struct {
	notifier Notifier
	orc      *orchestrator.Orchestrator
}

// NewNotificationListener creates a new instance of NotificationListener.
func NewNotificationListener(notifier Notifier, orc *orchestrator.Orchestrator) *NotificationListener {
	return &NotificationListener{notifier: notifier, orc: orc}
}

// Handle sends a notification when a job reaches a terminal state.
func (l *NotificationListener) Handle(ev event.Event) {
	job, ok := l.orc.Job(ev.JobID)
	if !ok {
		return
	}
	l.notifier.NotifyJobCompletion(context.Background(), job)
}
