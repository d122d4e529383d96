package metrics

import (
	"context"

	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

// Tracer is an abstract interface for distributed tracing of job and step
// execution. Implementations typically bridge to OpenTelemetry.
type Tracer interface {
	// StartJobSpan starts a span covering one job's lifetime.
	// It returns a context carrying the span and a function that ends it.
	StartJobSpan(ctx context.Context, job *model.JobRecord) (context.Context, func())

	// StartStepSpan starts a span covering one step attempt.
	// It returns a context carrying the span and a function that ends it.
	StartStepSpan(ctx context.Context, jobID, stepID string) (context.Context, func())

	// RecordError records an error against the current span.
	RecordError(ctx context.Context, module string, err error)
}
