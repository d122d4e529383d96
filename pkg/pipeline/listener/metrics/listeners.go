// Package metrics bridges orchestrator lifecycle events to the configured
// metric recorder.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/event"
	coremetrics "github.com/tenderworks/pipeline/pkg/pipeline/core/metrics"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
)

// MetricsListener translates events into recorder calls. Step durations are
// measured between the step:start event and the step's terminal event.
type MetricsListener struct {
	recorder coremetrics.MetricRecorder
	orc      *orchestrator.Orchestrator

	mu         sync.Mutex
	stepStarts map[string]time.Time // jobID + "/" + stepID
}

// NewMetricsListener creates a new instance of MetricsListener.
func NewMetricsListener(recorder coremetrics.MetricRecorder, orc *orchestrator.Orchestrator) *MetricsListener {
	return &MetricsListener{
		recorder:   recorder,
		orc:        orc,
		stepStarts: make(map[string]time.Time),
	}
}

// Handle dispatches one event to the recorder.
func (l *MetricsListener) Handle(ev event.Event) {
	ctx := context.Background()

	switch ev.Name {
	case event.JobCreated:
		if job, ok := l.orc.Job(ev.JobID); ok {
			l.recorder.RecordJobStart(ctx, job)
		}
	case event.StepStart:
		l.recorder.RecordStepStart(ctx, ev.JobID, ev.StepID)
		l.markStart(ev)
	case event.StepComplete:
		l.recorder.RecordStepEnd(ctx, ev.JobID, ev.StepID, "complete", l.elapsed(ev))
	case event.StepFailed:
		l.recorder.RecordStepEnd(ctx, ev.JobID, ev.StepID, "failed", l.elapsed(ev))
	case event.StepSkipped:
		l.recorder.RecordStepEnd(ctx, ev.JobID, ev.StepID, "skipped", l.elapsed(ev))
	case event.StepRetry:
		l.recorder.RecordStepRetry(ctx, ev.JobID, ev.StepID, ev.Attempt, ev.UseFallback)
	case event.JobComplete:
		if job, ok := l.orc.Job(ev.JobID); ok {
			l.recorder.RecordJobEnd(ctx, job)
		}
	case event.JobFailed:
		// A hard stop carries no separate step:failed event, so the aborting
		// step is closed out here.
		if ev.StepID != "" {
			l.recorder.RecordStepEnd(ctx, ev.JobID, ev.StepID, "failed", l.elapsed(ev))
		}
		if job, ok := l.orc.Job(ev.JobID); ok {
			l.recorder.RecordJobEnd(ctx, job)
		}
	}
}

func (l *MetricsListener) markStart(ev event.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stepStarts[ev.JobID+"/"+ev.StepID] = ev.Timestamp
}

// elapsed returns the time since the matching step:start event and clears the
// mark. A retry emits a fresh step:start, so each attempt is measured alone.
func (l *MetricsListener) elapsed(ev event.Event) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ev.JobID + "/" + ev.StepID
	start, ok := l.stepStarts[key]
	if !ok {
		return 0
	}
	delete(l.stepStarts, key)
	return ev.Timestamp.Sub(start)
}
