package metrics

import (
	"context"
	"time"

	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

// MetricRecorder is an abstract interface for recording pipeline execution
// metrics. It decouples the listener layer from the concrete metrics backend
// (e.g., Prometheus, OpenTelemetry Metrics).
type MetricRecorder interface {
	// RecordJobStart records the creation of a job.
	RecordJobStart(ctx context.Context, job *model.JobRecord)

	// RecordJobEnd records a job reaching a terminal state.
	RecordJobEnd(ctx context.Context, job *model.JobRecord)

	// RecordStepStart records a step attempt beginning.
	RecordStepStart(ctx context.Context, jobID, stepID string)

	// RecordStepEnd records a step reaching a per-step terminal outcome
	// ("complete", "failed", "skipped") together with its wall-clock duration.
	RecordStepEnd(ctx context.Context, jobID, stepID, outcome string, duration time.Duration)

	// RecordStepRetry records a retry decision for a step.
	RecordStepRetry(ctx context.Context, jobID, stepID string, attempt int, usedFallback bool)
}
