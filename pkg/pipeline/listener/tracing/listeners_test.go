package tracing_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/catalog"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/event"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/retry"
	"github.com/tenderworks/pipeline/pkg/pipeline/infrastructure/repository/inmemory"
	listenertracing "github.com/tenderworks/pipeline/pkg/pipeline/listener/tracing"
)

// fakeTracer records span opens, closes and errors.
type fakeTracer struct {
	mu     sync.Mutex
	opened []string
	closed []string
	errors []string
}

func (tr *fakeTracer) StartJobSpan(ctx context.Context, job *model.JobRecord) (context.Context, func()) {
	return tr.open(ctx, "job:"+job.ID)
}

func (tr *fakeTracer) StartStepSpan(ctx context.Context, jobID, stepID string) (context.Context, func()) {
	return tr.open(ctx, "step:"+jobID+"/"+stepID)
}

func (tr *fakeTracer) RecordError(_ context.Context, _ string, err error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.errors = append(tr.errors, err.Error())
}

func (tr *fakeTracer) open(ctx context.Context, name string) (context.Context, func()) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.opened = append(tr.opened, name)
	return ctx, func() {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		tr.closed = append(tr.closed, name)
	}
}

func newTracedOrchestrator(t *testing.T) (*orchestrator.Orchestrator, *fakeTracer) {
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
	tr := &fakeTracer{}
	orc.Emitter().Subscribe(listenertracing.NewTracingListener(tr, orc).Handle)
	return orc, tr
}

func TestTracingListenerClosesAllSpans(t *testing.T) {
	orc, tr := newTracedOrchestrator(t)
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
		"job:job-1",
		"step:job-1/extract",
		"step:job-1/analyze",
	}, tr.opened)
	assert.Equal(t, []string{
		"step:job-1/extract",
		"step:job-1/analyze",
		"job:job-1",
	}, tr.closed)
	assert.Empty(t, tr.errors)
}

func TestTracingListenerEndsSpanPerAttempt(t *testing.T) {
	orc, tr := newTracedOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateJob(ctx, "job-1", model.SubjectMeta{FileName: "doc.pdf"})
	require.NoError(t, err)

	require.NoError(t, orc.StartStep(ctx, "job-1", "extract"))
	require.NoError(t, orc.CompleteStep(ctx, "job-1", "extract", json.RawMessage(`{}`)))

	require.NoError(t, orc.StartStep(ctx, "job-1", "analyze"))
	dec, err := orc.FailStep(ctx, "job-1", "analyze", "model timeout")
	require.NoError(t, err)
	require.True(t, dec.Retry)

	require.NoError(t, orc.StartStep(ctx, "job-1", "analyze"))
	require.NoError(t, orc.CompleteStep(ctx, "job-1", "analyze", json.RawMessage(`{}`)))
	_, err = orc.CompleteJob(ctx, "job-1")
	require.NoError(t, err)

	// The failed attempt's span ends on the retry; the second attempt gets a
	// span of its own. Nothing stays open.
	assert.Equal(t, []string{
		"job:job-1",
		"step:job-1/extract",
		"step:job-1/analyze",
		"step:job-1/analyze",
	}, tr.opened)
	assert.Equal(t, []string{
		"step:job-1/extract",
		"step:job-1/analyze",
		"step:job-1/analyze",
		"job:job-1",
	}, tr.closed)
	assert.Equal(t, []string{"model timeout"}, tr.errors)
}

func TestTracingListenerRecordsFailure(t *testing.T) {
	orc, tr := newTracedOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateJob(ctx, "job-1", model.SubjectMeta{FileName: "doc.pdf"})
	require.NoError(t, err)

	require.NoError(t, orc.StartStep(ctx, "job-1", "extract"))
	dec, err := orc.FailStep(ctx, "job-1", "extract", "corrupt file")
	require.NoError(t, err)
	require.False(t, dec.Retry)

	// Hard stop closes the step span and the job span.
	assert.Equal(t, []string{
		"step:job-1/extract",
		"job:job-1",
	}, tr.closed)
	assert.Equal(t, []string{"corrupt file", "corrupt file"}, tr.errors)
}
