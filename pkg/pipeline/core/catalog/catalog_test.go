package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/catalog"
)

func documentDefinition() catalog.Definition {
	return catalog.Definition{
		Settings: catalog.Settings{StopOnError: true},
		Steps: []catalog.StepDefinition{
			{ID: "extract", Name: "Extract Text", Required: true, ProgressWeight: 1},
			{ID: "ocr", Name: "OCR Fallback", ProgressWeight: 1},
			{ID: "analyze", Name: "Analyze Document", Required: true, Retryable: true, MaxRetries: 2, FallbackModel: "small-v1", ProgressWeight: 2},
			{ID: "report", Name: "Generate Report", ProgressWeight: 1},
		},
	}
}

func TestNewValidCatalog(t *testing.T) {
	cat, err := catalog.New(documentDefinition())
	require.NoError(t, err)

	assert.Equal(t, 4, cat.Len())
	assert.Equal(t, []string{"extract", "ocr", "analyze", "report"}, cat.StepIDs())
	assert.Equal(t, 5.0, cat.TotalWeight())
	assert.True(t, cat.Settings().StopOnError)

	step, ok := cat.Lookup("analyze")
	require.True(t, ok)
	assert.Equal(t, "Analyze Document", step.Name)
	assert.True(t, step.HasFallback())

	_, ok = cat.Lookup("missing")
	assert.False(t, ok)
}

func TestNewAggregatesValidationErrors(t *testing.T) {
	_, err := catalog.New(catalog.Definition{
		Steps: []catalog.StepDefinition{
			{ID: "", ProgressWeight: 1},
			{ID: "a", ProgressWeight: 0},
			{ID: "a", ProgressWeight: 1},
			{ID: "b", ProgressWeight: 1, MaxRetries: -1, TimeoutMS: -5},
		},
	})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "empty id")
	assert.Contains(t, msg, "progress_weight must be > 0")
	assert.Contains(t, msg, `duplicate step id "a"`)
	assert.Contains(t, msg, "max_retries must be >= 0")
	assert.Contains(t, msg, "timeout_ms must be >= 0")
}

func TestNewRejectsEmptyCatalog(t *testing.T) {
	_, err := catalog.New(catalog.Definition{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no steps")
}

func TestRequiredAndOptionalSubsets(t *testing.T) {
	cat, err := catalog.New(documentDefinition())
	require.NoError(t, err)

	required := cat.Required()
	require.Len(t, required, 2)
	assert.Equal(t, "extract", required[0].ID)
	assert.Equal(t, "analyze", required[1].ID)

	optional := cat.Optional()
	require.Len(t, optional, 2)
	assert.Equal(t, "ocr", optional[0].ID)
	assert.Equal(t, "report", optional[1].ID)
}

func TestStepsReturnsCopy(t *testing.T) {
	cat, err := catalog.New(documentDefinition())
	require.NoError(t, err)

	steps := cat.Steps()
	steps[0].ID = "mutated"

	again := cat.Steps()
	assert.Equal(t, "extract", again[0].ID)
}
