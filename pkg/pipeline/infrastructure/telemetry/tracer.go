package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	coremetrics "github.com/tenderworks/pipeline/pkg/pipeline/core/metrics"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

const tracerName = "github.com/tenderworks/pipeline"

// OtelTracer is the OpenTelemetry implementation of the coremetrics.Tracer
// interface. Spans inherit the exporter configuration of the provided
// tracer provider; with telemetry disabled they are dropped at the SDK.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer creates a new instance of OtelTracer.
func NewOtelTracer(tp *sdktrace.TracerProvider) *OtelTracer {
	return &OtelTracer{tracer: tp.Tracer(tracerName)}
}

// StartJobSpan starts a span covering one job's lifetime.
func (t *OtelTracer) StartJobSpan(ctx context.Context, job *model.JobRecord) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "pipeline.job",
		trace.WithAttributes(
			attribute.String("pipeline.job.id", job.ID),
			attribute.String("pipeline.job.file_name", job.Subject.FileName),
			attribute.Int64("pipeline.job.file_size", job.Subject.FileSize),
		),
	)
	return ctx, func() {
		span.SetAttributes(attribute.String("pipeline.job.status", string(job.Status)))
		span.End()
	}
}

// StartStepSpan starts a span covering one step attempt.
func (t *OtelTracer) StartStepSpan(ctx context.Context, jobID, stepID string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "pipeline.step."+stepID,
		trace.WithAttributes(
			attribute.String("pipeline.job.id", jobID),
			attribute.String("pipeline.step.id", stepID),
		),
	)
	return ctx, func() { span.End() }
}

// RecordError records an error against the span carried by ctx, if any.
func (t *OtelTracer) RecordError(ctx context.Context, module string, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, trace.WithAttributes(attribute.String("pipeline.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

var _ coremetrics.Tracer = (*OtelTracer)(nil)
