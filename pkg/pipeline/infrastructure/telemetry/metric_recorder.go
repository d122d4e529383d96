package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	coremetrics "github.com/tenderworks/pipeline/pkg/pipeline/core/metrics"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

// OtelMetricRecorder is the OpenTelemetry implementation of the
// coremetrics.MetricRecorder interface, exporting through the configured OTLP
// meter provider. It is the alternative to the Prometheus recorder for
// deployments that ship all telemetry over OTLP.
type OtelMetricRecorder struct {
	jobsStarted   otelmetric.Int64Counter
	jobsFinished  otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	stepsStarted  otelmetric.Int64Counter
	stepsFinished otelmetric.Int64Counter
	stepDuration  otelmetric.Float64Histogram
	stepRetries   otelmetric.Int64Counter
}

// NewOtelMetricRecorder creates a new instance of OtelMetricRecorder.
func NewOtelMetricRecorder(mp *sdkmetric.MeterProvider) (*OtelMetricRecorder, error) {
	meter := mp.Meter(tracerName)

	jobsStarted, err := meter.Int64Counter("pipeline.jobs.started",
		otelmetric.WithDescription("Total number of pipeline jobs started."))
	if err != nil {
		return nil, err
	}
	jobsFinished, err := meter.Int64Counter("pipeline.jobs.finished",
		otelmetric.WithDescription("Total number of pipeline jobs finished by terminal status."))
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram("pipeline.job.duration",
		otelmetric.WithDescription("Duration of pipeline jobs."),
		otelmetric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	stepsStarted, err := meter.Int64Counter("pipeline.steps.started",
		otelmetric.WithDescription("Total number of step attempts started."))
	if err != nil {
		return nil, err
	}
	stepsFinished, err := meter.Int64Counter("pipeline.steps.finished",
		otelmetric.WithDescription("Total number of steps finished by outcome."))
	if err != nil {
		return nil, err
	}
	stepDuration, err := meter.Float64Histogram("pipeline.step.duration",
		otelmetric.WithDescription("Duration of step executions."),
		otelmetric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	stepRetries, err := meter.Int64Counter("pipeline.step.retries",
		otelmetric.WithDescription("Total number of step retries, labeled by fallback usage."))
	if err != nil {
		return nil, err
	}

	return &OtelMetricRecorder{
		jobsStarted:   jobsStarted,
		jobsFinished:  jobsFinished,
		jobDuration:   jobDuration,
		stepsStarted:  stepsStarted,
		stepsFinished: stepsFinished,
		stepDuration:  stepDuration,
		stepRetries:   stepRetries,
	}, nil
}

// RecordJobStart records the start of a job.
func (r *OtelMetricRecorder) RecordJobStart(ctx context.Context, job *model.JobRecord) {
	r.jobsStarted.Add(ctx, 1)
	logger.Debugf("Telemetry: job '%s' started.", job.ID)
}

// RecordJobEnd records a finished job and its duration.
func (r *OtelMetricRecorder) RecordJobEnd(ctx context.Context, job *model.JobRecord) {
	statusAttr := otelmetric.WithAttributes(attribute.String("status", string(job.Status)))
	r.jobsFinished.Add(ctx, 1, statusAttr)
	r.jobDuration.Record(ctx, float64(job.DurationMS())/1000, statusAttr)
}

// RecordStepStart records the start of a step attempt.
func (r *OtelMetricRecorder) RecordStepStart(ctx context.Context, jobID, stepID string) {
	r.stepsStarted.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("step", stepID)))
}

// RecordStepEnd records a finished step with its outcome and duration.
func (r *OtelMetricRecorder) RecordStepEnd(ctx context.Context, jobID, stepID, outcome string, duration time.Duration) {
	r.stepsFinished.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("outcome", outcome),
	))
	r.stepDuration.Record(ctx, duration.Seconds(), otelmetric.WithAttributes(attribute.String("step", stepID)))
}

// RecordStepRetry records a granted retry.
func (r *OtelMetricRecorder) RecordStepRetry(ctx context.Context, jobID, stepID string, attempt int, usedFallback bool) {
	r.stepRetries.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("step", stepID),
		attribute.Bool("fallback", usedFallback),
	))
}

var _ coremetrics.MetricRecorder = (*OtelMetricRecorder)(nil)
