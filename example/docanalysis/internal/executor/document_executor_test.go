package executor_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderworks/pipeline/example/docanalysis/internal/executor"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/catalog"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/runner"
)

func testJob() *model.JobRecord {
	return model.NewJobRecord("job-1", model.SubjectMeta{FileName: "invoice.pdf", FileSize: 40960})
}

func execute(t *testing.T, target string, opts runner.ExecOptions) map[string]interface{} {
	t.Helper()

	exec := executor.NewDocumentExecutor()
	raw, err := exec.Execute(context.Background(), testJob(), catalog.StepDefinition{ID: "step", Target: target}, opts)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestExtractDerivesPageCount(t *testing.T) {
	payload := execute(t, "documents.extract", runner.ExecOptions{Attempt: 1})
	assert.Equal(t, float64(10), payload["pages"])
	assert.Equal(t, "invoice.pdf", payload["source"])
}

func TestAnalyzeUsesDefaultModel(t *testing.T) {
	payload := execute(t, "documents.analyze", runner.ExecOptions{Attempt: 1})
	assert.Equal(t, "large-v2", payload["model"])
}

func TestAnalyzeHonorsFallbackModel(t *testing.T) {
	payload := execute(t, "documents.analyze", runner.ExecOptions{Attempt: 3, Model: "small-v1"})
	assert.Equal(t, "small-v1", payload["model"])
}

func TestCostPricesPerPage(t *testing.T) {
	payload := execute(t, "documents.cost", runner.ExecOptions{Attempt: 1})
	assert.Equal(t, float64(30), payload["cents"])
	assert.Equal(t, "USD", payload["currency"])
}

func TestDecideRejectsDegradedAnalysis(t *testing.T) {
	exec := executor.NewDocumentExecutor()

	job := testJob()
	job.FailedSteps = append(job.FailedSteps, "analyze")

	raw, err := exec.Execute(context.Background(), job, catalog.StepDefinition{ID: "decide", Target: "documents.decide"}, runner.ExecOptions{Attempt: 1})
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, false, payload["approved"])
}

func TestUnknownTargetFails(t *testing.T) {
	exec := executor.NewDocumentExecutor()
	_, err := exec.Execute(context.Background(), testJob(), catalog.StepDefinition{ID: "x", Target: "documents.unknown"}, runner.ExecOptions{Attempt: 1})
	assert.Error(t, err)
}

func TestExecuteHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := executor.NewDocumentExecutor()
	_, err := exec.Execute(ctx, testJob(), catalog.StepDefinition{ID: "extract", Target: "documents.extract"}, runner.ExecOptions{Attempt: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
