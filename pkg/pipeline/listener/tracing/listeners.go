// Package tracing opens and closes trace spans around job and step execution
// by observing the orchestrator's event channel.
package tracing

import (
	"context"
	"errors"
	"sync"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/event"
	coremetrics "github.com/tenderworks/pipeline/pkg/pipeline/core/metrics"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
)

type span struct {
	ctx context.Context
	end func()
}

// TracingListener maintains one open job span per live job and one open step
// span per in-flight attempt. Step spans are children of their job span.
type TracingListener struct {
	tracer coremetrics.Tracer
	orc    *orchestrator.Orchestrator

	mu        sync.Mutex
	jobSpans  map[string]span // JobID -> span
	stepSpans map[string]span // jobID + "/" + stepID -> span
}

// NewTracingListener creates a new instance of TracingListener.
func NewTracingListener(tracer coremetrics.Tracer, orc *orchestrator.Orchestrator) *TracingListener {
	return &TracingListener{
		tracer:    tracer,
		orc:       orc,
		jobSpans:  make(map[string]span),
		stepSpans: make(map[string]span),
	}
}

// Handle dispatches one event to the tracer.
func (l *TracingListener) Handle(ev event.Event) {
	switch ev.Name {
	case event.JobCreated, event.JobResumed:
		l.openJobSpan(ev)
	case event.StepStart:
		l.openStepSpan(ev)
	case event.StepRetry:
		// Each attempt gets its own span; the failed attempt's span ends here
		// and the retry's step:start opens a fresh one.
		l.closeStepSpan(ev, ev.Error)
	case event.StepComplete, event.StepSkipped:
		l.closeStepSpan(ev, "")
	case event.StepFailed:
		l.closeStepSpan(ev, ev.Error)
	case event.JobComplete:
		l.closeJobSpan(ev, "")
	case event.JobFailed:
		// A hard stop carries no separate step:failed event, so the aborting
		// step's span is closed here before the job span.
		l.closeStepSpan(ev, ev.Error)
		l.closeJobSpan(ev, ev.Error)
	}
}

func (l *TracingListener) openJobSpan(ev event.Event) {
	job, ok := l.orc.Job(ev.JobID)
	if !ok {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, open := l.jobSpans[ev.JobID]; open {
		return
	}
	ctx, end := l.tracer.StartJobSpan(context.Background(), job)
	l.jobSpans[ev.JobID] = span{ctx: ctx, end: end}
}

func (l *TracingListener) openStepSpan(ev event.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	parent := context.Background()
	if js, ok := l.jobSpans[ev.JobID]; ok {
		parent = js.ctx
	}
	ctx, end := l.tracer.StartStepSpan(parent, ev.JobID, ev.StepID)
	l.stepSpans[ev.JobID+"/"+ev.StepID] = span{ctx: ctx, end: end}
}

func (l *TracingListener) closeStepSpan(ev event.Event, errMsg string) {
	l.mu.Lock()
	s, ok := l.stepSpans[ev.JobID+"/"+ev.StepID]
	if ok {
		delete(l.stepSpans, ev.JobID+"/"+ev.StepID)
	}
	l.mu.Unlock()

	if !ok {
		return
	}
	if errMsg != "" {
		l.tracer.RecordError(s.ctx, "Orchestrator", errors.New(errMsg))
	}
	s.end()
}

func (l *TracingListener) closeJobSpan(ev event.Event, errMsg string) {
	l.mu.Lock()
	s, ok := l.jobSpans[ev.JobID]
	if ok {
		delete(l.jobSpans, ev.JobID)
	}
	l.mu.Unlock()

	if !ok {
		return
	}
	if errMsg != "" {
		l.tracer.RecordError(s.ctx, "Orchestrator", errors.New(errMsg))
	}
	s.end()
}
