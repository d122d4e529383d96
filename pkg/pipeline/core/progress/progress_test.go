package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/catalog"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/progress"
)

func weightedCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(catalog.Definition{
		Steps: []catalog.StepDefinition{
			{ID: "extract", ProgressWeight: 1},
			{ID: "analyze", ProgressWeight: 2},
			{ID: "report", ProgressWeight: 1},
		},
	})
	require.NoError(t, err)
	return cat
}

func TestCalculateWeighted(t *testing.T) {
	cat := weightedCatalog(t)

	assert.Equal(t, 0, progress.Calculate(cat, nil))
	assert.Equal(t, 25, progress.Calculate(cat, []string{"extract"}))
	assert.Equal(t, 50, progress.Calculate(cat, []string{"analyze"}))
	assert.Equal(t, 75, progress.Calculate(cat, []string{"extract", "analyze"}))
	assert.Equal(t, 100, progress.Calculate(cat, []string{"extract", "analyze", "report"}))
}

func TestCalculateIgnoresUnknownAndDuplicateIDs(t *testing.T) {
	cat := weightedCatalog(t)

	assert.Equal(t, 25, progress.Calculate(cat, []string{"extract", "extract", "ghost"}))
}

func TestCalculateRounds(t *testing.T) {
	cat, err := catalog.New(catalog.Definition{
		Steps: []catalog.StepDefinition{
			{ID: "a", ProgressWeight: 1},
			{ID: "b", ProgressWeight: 1},
			{ID: "c", ProgressWeight: 1},
		},
	})
	require.NoError(t, err)

	// 1/3 rounds to 33, 2/3 rounds to 67.
	assert.Equal(t, 33, progress.Calculate(cat, []string{"a"}))
	assert.Equal(t, 67, progress.Calculate(cat, []string{"a", "b"}))
}

func TestCalculatorBindsCatalog(t *testing.T) {
	calc := progress.NewCalculator(weightedCatalog(t))
	assert.Equal(t, 75, calc.Calculate([]string{"extract", "analyze"}))
}
