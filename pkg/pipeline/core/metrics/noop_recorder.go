package metrics

import (
	"context"
	"time"

	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

func (r *NoOpMetricRecorder) RecordJobStart(ctx context.Context, job *model.JobRecord) {}
func (r *NoOpMetricRecorder) RecordJobEnd(ctx context.Context, job *model.JobRecord)   {}
func (r *NoOpMetricRecorder) RecordStepStart(ctx context.Context, jobID, stepID string) {}
func (r *NoOpMetricRecorder) RecordStepEnd(ctx context.Context, jobID, stepID, outcome string, duration time.Duration) {
}
func (r *NoOpMetricRecorder) RecordStepRetry(ctx context.Context, jobID, stepID string, attempt int, usedFallback bool) {
}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

func (t *NoOpTracer) StartJobSpan(ctx context.Context, job *model.JobRecord) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartStepSpan(ctx context.Context, jobID, stepID string) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

var _ Tracer = (*NoOpTracer)(nil)
