package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

func TestJobStatusIsTerminal(t *testing.T) {
	assert.False(t, model.JobStatusPending.IsTerminal())
	assert.False(t, model.JobStatusRunning.IsTerminal())
	assert.True(t, model.JobStatusCompleted.IsTerminal())
	assert.True(t, model.JobStatusFailed.IsTerminal())
	assert.True(t, model.JobStatusDoneWithWarning.IsTerminal())
}

func TestTransitionTo(t *testing.T) {
	job := model.NewJobRecord("job-1", model.SubjectMeta{FileName: "a.pdf"})
	require.Equal(t, model.JobStatusPending, job.Status)

	require.NoError(t, job.TransitionTo(model.JobStatusRunning))
	require.NoError(t, job.TransitionTo(model.JobStatusCompleted))

	// Terminal states are absorbing.
	err := job.TransitionTo(model.JobStatusRunning)
	require.Error(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
}

func TestPendingCanTerminateDirectly(t *testing.T) {
	job := model.NewJobRecord("job-1", model.SubjectMeta{})
	require.NoError(t, job.TransitionTo(model.JobStatusFailed))
}

func TestFinalStatus(t *testing.T) {
	job := model.NewJobRecord("job-1", model.SubjectMeta{})
	assert.Equal(t, model.JobStatusCompleted, job.FinalStatus())

	job.AddWarning("degraded")
	assert.Equal(t, model.JobStatusDoneWithWarning, job.FinalStatus())

	job = model.NewJobRecord("job-2", model.SubjectMeta{})
	job.FailedSteps = append(job.FailedSteps, "ocr")
	assert.Equal(t, model.JobStatusDoneWithWarning, job.FinalStatus())
}

func TestMarkAsFinished(t *testing.T) {
	job := model.NewJobRecord("job-1", model.SubjectMeta{})
	job.MarkAsRunning()
	job.CurrentStep = "report"
	job.Progress = 80

	job.MarkAsFinished()

	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Empty(t, job.CurrentStep)
	require.NotNil(t, job.EndTime)
	assert.GreaterOrEqual(t, job.DurationMS(), int64(0))
}

func TestMarkAsFailed(t *testing.T) {
	job := model.NewJobRecord("job-1", model.SubjectMeta{})
	job.MarkAsRunning()

	job.MarkAsFailed("extraction failed")

	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, "extraction failed", job.Error)
	require.NotNil(t, job.EndTime)
}

func TestDurationMSZeroWhileLive(t *testing.T) {
	job := model.NewJobRecord("job-1", model.SubjectMeta{})
	assert.Equal(t, int64(0), job.DurationMS())
}

func TestCloneIsDeep(t *testing.T) {
	job := model.NewJobRecord("job-1", model.SubjectMeta{FileName: "a.pdf"})
	job.CompletedSteps = append(job.CompletedSteps, "extract")
	job.Result["extract"] = json.RawMessage(`{"pages":1}`)
	job.AddWarning("w1")

	clone := job.Clone()
	clone.CompletedSteps[0] = "mutated"
	clone.Result["analyze"] = json.RawMessage(`{}`)
	clone.Warnings[0] = "mutated"

	assert.Equal(t, "extract", job.CompletedSteps[0])
	assert.NotContains(t, job.Result, "analyze")
	assert.Equal(t, model.WarningList{"w1"}, job.Warnings)
}

func TestResultMapStepIDsFollowsCatalogOrder(t *testing.T) {
	rm := model.ResultMap{
		"report":  json.RawMessage(`{}`),
		"extract": json.RawMessage(`{}`),
		"orphan":  json.RawMessage(`{}`),
	}

	ids := rm.StepIDs([]string{"extract", "analyze", "report"})
	require.Len(t, ids, 3)
	assert.Equal(t, []string{"extract", "report"}, ids[:2])
	assert.Equal(t, "orphan", ids[2])
}

func TestResultMapScanValue(t *testing.T) {
	rm := model.ResultMap{"extract": json.RawMessage(`{"pages":3}`)}
	v, err := rm.Value()
	require.NoError(t, err)

	var scanned model.ResultMap
	require.NoError(t, scanned.Scan(v))
	assert.JSONEq(t, `{"pages":3}`, string(scanned["extract"]))

	var fromNil model.ResultMap
	require.NoError(t, fromNil.Scan(nil))
	assert.NotNil(t, fromNil)
	assert.Empty(t, fromNil)

	assert.Error(t, scanned.Scan(42))
}

func TestWarningListScanValue(t *testing.T) {
	wl := model.WarningList{"w1", "w2"}
	v, err := wl.Value()
	require.NoError(t, err)

	var scanned model.WarningList
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, wl, scanned)

	var nilList model.WarningList
	v, err = nilList.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestSubjectMetaScanValue(t *testing.T) {
	sm := model.SubjectMeta{FileName: "doc.pdf", FileSize: 2048}
	v, err := sm.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"file_name":"doc.pdf","file_size":2048}`, v.(string))

	var scanned model.SubjectMeta
	require.NoError(t, scanned.Scan([]byte(v.(string))))
	assert.Equal(t, sm, scanned)
}

func TestNewIDIsUnique(t *testing.T) {
	assert.NotEqual(t, model.NewID(), model.NewID())
}
