package metrics_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/catalog"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/event"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/retry"
	"github.com/tenderworks/pipeline/pkg/pipeline/infrastructure/repository/inmemory"
	listenermetrics "github.com/tenderworks/pipeline/pkg/pipeline/listener/metrics"
)

type recorderCall struct {
	Kind     string
	StepID   string
	Outcome  string
	Status   model.JobStatus
	Attempt  int
	Fallback bool
	Duration time.Duration
}

// fakeRecorder captures recorder invocations in order.
type fakeRecorder struct {
	mu    sync.Mutex
	calls []recorderCall
}

func (r *fakeRecorder) RecordJobStart(_ context.Context, _ *model.JobRecord) {
	r.append(recorderCall{Kind: "job_start"})
}

func (r *fakeRecorder) RecordJobEnd(_ context.Context, job *model.JobRecord) {
	r.append(recorderCall{Kind: "job_end", Status: job.Status})
}

func (r *fakeRecorder) RecordStepStart(_ context.Context, _, stepID string) {
	r.append(recorderCall{Kind: "step_start", StepID: stepID})
}

func (r *fakeRecorder) RecordStepEnd(_ context.Context, _, stepID, outcome string, duration time.Duration) {
	r.append(recorderCall{Kind: "step_end", StepID: stepID, Outcome: outcome, Duration: duration})
}

func (r *fakeRecorder) RecordStepRetry(_ context.Context, _, stepID string, attempt int, usedFallback bool) {
	r.append(recorderCall{Kind: "step_retry", StepID: stepID, Attempt: attempt, Fallback: usedFallback})
}

func (r *fakeRecorder) append(c recorderCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *fakeRecorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.calls))
	for i, c := range r.calls {
		kinds[i] = c.Kind
	}
	return kinds
}

func newInstrumentedOrchestrator(t *testing.T) (*orchestrator.Orchestrator, *fakeRecorder) {
	t.Helper()

	cat, err := catalog.New(catalog.Definition{
		Settings: catalog.Settings{StopOnError: true},
		Steps: []catalog.StepDefinition{
			{ID: "extract", Name: "Extract Text", Required: true, ProgressWeight: 1},
			{ID: "analyze", Name: "Analyze Document", Required: true, Retryable: true, MaxRetries: 1, ProgressWeight: 1},
		},
	})
	require.NoError(t, err)

	orc := orchestrator.New(cat, retry.NewPolicyFromCatalog(cat), inmemory.NewInMemoryOrchestrationRepository(), event.NewEmitter())
	rec := &fakeRecorder{}
	orc.Emitter().Subscribe(listenermetrics.NewMetricsListener(rec, orc).Handle)
	return orc, rec
}

func TestMetricsListenerRecordsJobLifecycle(t *testing.T) {
	orc, rec := newInstrumentedOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateJob(ctx, "job-1", model.SubjectMeta{FileName: "doc.pdf"})
	require.NoError(t, err)

	for _, stepID := range []string{"extract", "analyze"} {
		require.NoError(t, orc.StartStep(ctx, "job-1", stepID))
		require.NoError(t, orc.CompleteStep(ctx, "job-1", stepID, json.RawMessage(`{}`)))
	}
	_, err = orc.CompleteJob(ctx, "job-1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"job_start",
		"step_start", "step_end",
		"step_start", "step_end",
		"job_end",
	}, rec.kinds())

	last := rec.calls[len(rec.calls)-1]
	assert.Equal(t, model.JobStatusCompleted, last.Status)
}

func TestMetricsListenerRecordsRetryAndOutcome(t *testing.T) {
	orc, rec := newInstrumentedOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateJob(ctx, "job-1", model.SubjectMeta{FileName: "doc.pdf"})
	require.NoError(t, err)

	require.NoError(t, orc.StartStep(ctx, "job-1", "extract"))
	require.NoError(t, orc.CompleteStep(ctx, "job-1", "extract", json.RawMessage(`{}`)))

	require.NoError(t, orc.StartStep(ctx, "job-1", "analyze"))
	dec, err := orc.FailStep(ctx, "job-1", "analyze", "model overloaded")
	require.NoError(t, err)
	require.True(t, dec.Retry)

	require.NoError(t, orc.StartStep(ctx, "job-1", "analyze"))
	dec, err = orc.FailStep(ctx, "job-1", "analyze", "model overloaded")
	require.NoError(t, err)
	require.False(t, dec.Retry)

	// The hard stop emits job:failed without a step:failed, and the listener
	// still closes out the aborting step.
	assert.Equal(t, []string{
		"job_start",
		"step_start", "step_end",
		"step_start", "step_retry",
		"step_start", "step_end",
		"job_end",
	}, rec.kinds())

	retryCall := rec.calls[4]
	assert.Equal(t, "analyze", retryCall.StepID)
	assert.Equal(t, 1, retryCall.Attempt)

	failedStep := rec.calls[6]
	assert.Equal(t, "analyze", failedStep.StepID)
	assert.Equal(t, "failed", failedStep.Outcome)

	last := rec.calls[len(rec.calls)-1]
	assert.Equal(t, model.JobStatusFailed, last.Status)
}
