package inmemory_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/domain/repository"
	"github.com/tenderworks/pipeline/pkg/pipeline/infrastructure/repository/inmemory"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

func TestCreateAndLoadRecord(t *testing.T) {
	repo := inmemory.NewInMemoryOrchestrationRepository()
	ctx := context.Background()

	rec := &repository.OrchestrationRecord{
		ID:        "job-1",
		Subject:   model.SubjectMeta{FileName: "doc.pdf", FileSize: 42},
		Status:    model.JobStatusPending,
		Result:    model.ResultMap{"extract": json.RawMessage(`{"pages":1}`)},
		StartedAt: time.Now(),
	}
	require.NoError(t, repo.CreateRecord(ctx, rec))

	loaded, err := repo.LoadRecord(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, rec.Subject, loaded.Subject)
	assert.Equal(t, model.JobStatusPending, loaded.Status)

	// Mutating the loaded copy never touches stored state.
	loaded.Status = model.JobStatusFailed
	loaded.Result["extract"] = json.RawMessage(`{}`)
	again, err := repo.LoadRecord(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, again.Status)
	assert.JSONEq(t, `{"pages":1}`, string(again.Result["extract"]))
}

func TestLoadMissingRecord(t *testing.T) {
	repo := inmemory.NewInMemoryOrchestrationRepository()

	_, err := repo.LoadRecord(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
}

func TestUpdateRecordAppliesPatch(t *testing.T) {
	repo := inmemory.NewInMemoryOrchestrationRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateRecord(ctx, &repository.OrchestrationRecord{
		ID:     "job-1",
		Status: model.JobStatusPending,
	}))

	status := model.JobStatusRunning
	current := "analyze"
	progress := 50
	completedAt := time.Now()
	durationMS := int64(1200)
	require.NoError(t, repo.UpdateRecord(ctx, "job-1", repository.RecordPatch{
		Status:      &status,
		CurrentStep: &current,
		Progress:    &progress,
		Warnings:    model.WarningList{"w1"},
		CompletedAt: &completedAt,
		DurationMS:  &durationMS,
	}))

	loaded, err := repo.LoadRecord(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, loaded.Status)
	assert.Equal(t, "analyze", loaded.CurrentStep)
	assert.Equal(t, 50, loaded.Progress)
	assert.Equal(t, model.WarningList{"w1"}, loaded.Warnings)
	require.NotNil(t, loaded.CompletedAt)
	assert.Equal(t, int64(1200), loaded.DurationMS)
}

func TestUpdateRecordIgnoresNilFields(t *testing.T) {
	repo := inmemory.NewInMemoryOrchestrationRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateRecord(ctx, &repository.OrchestrationRecord{
		ID:          "job-1",
		Status:      model.JobStatusRunning,
		CurrentStep: "extract",
		Progress:    25,
	}))

	progress := 50
	require.NoError(t, repo.UpdateRecord(ctx, "job-1", repository.RecordPatch{Progress: &progress}))

	loaded, err := repo.LoadRecord(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, loaded.Status)
	assert.Equal(t, "extract", loaded.CurrentStep)
	assert.Equal(t, 50, loaded.Progress)
}

func TestUpdateMissingRecord(t *testing.T) {
	repo := inmemory.NewInMemoryOrchestrationRepository()

	progress := 10
	err := repo.UpdateRecord(context.Background(), "nope", repository.RecordPatch{Progress: &progress})
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
}
