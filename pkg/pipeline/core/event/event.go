// Package event implements the synchronous notification channel the
// orchestrator publishes lifecycle events on. The emitter is an explicit
// instance owned by the orchestrator, never process-wide state, so separate
// orchestrators (per test, per tenant) cannot cross-talk.
package event

import (
	"encoding/json"
	"time"

	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

// Lifecycle event names published by the orchestrator.
const (
	JobCreated   = "job:created"
	StepStart    = "step:start"
	StepComplete = "step:complete"
	StepRetry    = "step:retry"
	StepFailed   = "step:failed"
	StepSkipped  = "step:skipped"
	JobFailed    = "job:failed"
	JobComplete  = "job:complete"
	JobResumed   = "job:resumed"
)

// AllNames lists every event name the orchestrator can emit.
func AllNames() []string {
	return []string{
		JobCreated, StepStart, StepComplete, StepRetry, StepFailed,
		StepSkipped, JobFailed, JobComplete, JobResumed,
	}
}

// Event is the payload delivered to subscribers. JobID and Timestamp are
// always set; the remaining fields are populated per event name.
type Event struct {
	Name      string
	JobID     string
	Timestamp time.Time

	// Step-scoped fields (step:* events).
	StepID   string
	StepName string

	// Failure/retry fields (step:retry, step:failed, step:skipped, job:failed).
	Error         string
	Attempt       int
	MaxRetries    int
	UseFallback   bool
	FallbackModel string

	// Outcome fields (step:complete, job:complete, job:failed, job:resumed).
	Result     json.RawMessage
	Progress   int
	Status     model.JobStatus
	Warnings   []string
	DurationMS int64
	Subject    model.SubjectMeta
}
