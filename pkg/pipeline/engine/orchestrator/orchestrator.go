// Package orchestrator implements the state machine that drives a job through
// the step catalog: pending -> running -> {completed | failed | done_with_warning}.
// All job mutation flows through its transition operations; callers never touch
// a JobRecord directly.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/catalog"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/domain/repository"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/event"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/progress"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/retry"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/exception"
	logger "github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

const moduleName = "orchestrator"

// ErrNotResumable is returned by Resume when the persisted record is already in
// a terminal state.
var ErrNotResumable = errors.New("job is not resumable")

// Orchestrator sequences step start/complete/fail transitions for live jobs,
// applies the retry policy, keeps the in-memory store written through to the
// durable repository, and publishes lifecycle events on its emitter.
type Orchestrator struct {
	catalog *catalog.Catalog
	policy  retry.Policy
	repo    repository.OrchestrationRepository
	emitter *event.Emitter
	store   *jobStore
}

// New creates an Orchestrator. The emitter is owned by the instance; separate
// orchestrators never share subscribers.
func New(cat *catalog.Catalog, policy retry.Policy, repo repository.OrchestrationRepository, emitter *event.Emitter) *Orchestrator {
	return &Orchestrator{
		catalog: cat,
		policy:  policy,
		repo:    repo,
		emitter: emitter,
		store:   newJobStore(),
	}
}

// Emitter returns the notification channel for subscriber registration.
func (o *Orchestrator) Emitter() *event.Emitter {
	return o.emitter
}

// Catalog returns the step catalog the orchestrator drives.
func (o *Orchestrator) Catalog() *catalog.Catalog {
	return o.catalog
}

// CreateJob registers a new job in the pending state and writes its initial
// durable row. An empty id is replaced with a generated one. Reusing a live
// identifier is a precondition violation.
func (o *Orchestrator) CreateJob(ctx context.Context, id string, subject model.SubjectMeta) (*model.JobRecord, error) {
	if id == "" {
		id = model.NewID()
	}

	rec := model.NewJobRecord(id, subject)
	tj, ok := o.store.insert(rec)
	if !ok {
		return nil, exception.NewPipelineErrorf(moduleName, "job %q already exists", id, false)
	}

	if err := o.repo.CreateRecord(ctx, toStoredRecord(rec)); err != nil {
		o.store.remove(id)
		return nil, exception.NewPipelineError(moduleName, fmt.Sprintf("failed to persist new job %q", id), err, false)
	}

	logger.Infof("Job '%s' created for file '%s'.", id, subject.FileName)
	// rec is reachable through the store already; report the known initial
	// status instead of re-reading the record outside its lock.
	o.emitter.Emit(event.Event{
		Name:    event.JobCreated,
		JobID:   id,
		Subject: subject,
		Status:  model.JobStatusPending,
	})

	tj.mu.Lock()
	defer tj.mu.Unlock()
	return tj.record.Clone(), nil
}

// Job returns a snapshot of the live record for the identifier.
func (o *Orchestrator) Job(id string) (*model.JobRecord, bool) {
	tj, ok := o.store.get(id)
	if !ok {
		return nil, false
	}
	tj.mu.Lock()
	defer tj.mu.Unlock()
	return tj.record.Clone(), true
}

// StartStep marks the step as in flight, flipping the job from pending to
// running on the first call.
func (o *Orchestrator) StartStep(ctx context.Context, jobID, stepID string) error {
	step, ok := o.catalog.Lookup(stepID)
	if !ok {
		return exception.NewPipelineErrorf(moduleName, "unknown step %q", stepID, false)
	}

	tj, err := o.trackedJob(jobID)
	if err != nil {
		return err
	}

	tj.mu.Lock()
	defer tj.mu.Unlock()

	rec := tj.record
	if err := o.requireLive(rec); err != nil {
		return err
	}

	rec.MarkAsRunning()
	rec.CurrentStep = stepID

	status := rec.Status
	current := stepID
	if err := o.persist(ctx, rec.ID, repository.RecordPatch{
		Status:      &status,
		CurrentStep: &current,
	}); err != nil {
		return err
	}

	o.emitter.Emit(event.Event{
		Name:     event.StepStart,
		JobID:    jobID,
		StepID:   stepID,
		StepName: step.Name,
		Progress: rec.Progress,
	})
	return nil
}

// CompleteStep records the step's output, recomputes progress, clears the
// in-flight marker and the step's retry counter.
func (o *Orchestrator) CompleteStep(ctx context.Context, jobID, stepID string, result json.RawMessage) error {
	step, ok := o.catalog.Lookup(stepID)
	if !ok {
		return exception.NewPipelineErrorf(moduleName, "unknown step %q", stepID, false)
	}

	tj, err := o.trackedJob(jobID)
	if err != nil {
		return err
	}

	tj.mu.Lock()
	defer tj.mu.Unlock()

	rec := tj.record
	if err := o.requireLive(rec); err != nil {
		return err
	}

	if !rec.HasCompletedStep(stepID) {
		rec.CompletedSteps = append(rec.CompletedSteps, stepID)
	}
	rec.Result[stepID] = result
	rec.Progress = progress.Calculate(o.catalog, rec.CompletedSteps)
	rec.CurrentStep = ""
	delete(tj.retries, stepID)

	prog := rec.Progress
	cleared := ""
	if err := o.persist(ctx, rec.ID, repository.RecordPatch{
		CurrentStep: &cleared,
		Progress:    &prog,
		Result:      rec.Result,
	}); err != nil {
		return err
	}

	logger.Debugf("Job '%s': step '%s' completed, progress %d%%.", jobID, stepID, rec.Progress)
	o.emitter.Emit(event.Event{
		Name:     event.StepComplete,
		JobID:    jobID,
		StepID:   stepID,
		StepName: step.Name,
		Result:   result,
		Progress: rec.Progress,
	})
	return nil
}

// FailStep applies the retry policy to a failed attempt. Depending on the
// decision it grants a retry (optionally with the fallback model), records a
// degraded continuation or skip, or hard-stops the job.
func (o *Orchestrator) FailStep(ctx context.Context, jobID, stepID, errMsg string) (retry.Decision, error) {
	step, ok := o.catalog.Lookup(stepID)
	if !ok {
		return retry.Decision{}, exception.NewPipelineErrorf(moduleName, "unknown step %q", stepID, false)
	}

	tj, err := o.trackedJob(jobID)
	if err != nil {
		return retry.Decision{}, err
	}

	tj.mu.Lock()
	defer tj.mu.Unlock()

	rec := tj.record
	if err := o.requireLive(rec); err != nil {
		return retry.Decision{}, err
	}

	dec := o.policy.Decide(step, tj.retries[stepID])

	if dec.Retry {
		tj.retries[stepID] = dec.Attempt
		rec.AddWarning(fmt.Sprintf("Step %q failed (attempt %d/%d): %s", step.Name, dec.Attempt, step.MaxRetries, errMsg))

		if err := o.persist(ctx, rec.ID, repository.RecordPatch{Warnings: rec.Warnings}); err != nil {
			return dec, err
		}

		logger.Infof("Job '%s': retrying step '%s' (attempt %d/%d, fallback=%t).",
			jobID, stepID, dec.Attempt, step.MaxRetries, dec.UseFallback)
		o.emitter.Emit(event.Event{
			Name:          event.StepRetry,
			JobID:         jobID,
			StepID:        stepID,
			StepName:      step.Name,
			Error:         errMsg,
			Attempt:       dec.Attempt,
			MaxRetries:    step.MaxRetries,
			UseFallback:   dec.UseFallback,
			FallbackModel: step.FallbackModel,
		})
		return dec, nil
	}

	// Retries exhausted: the step reaches its per-step terminal outcome.
	if !rec.HasFailedStep(stepID) {
		rec.FailedSteps = append(rec.FailedSteps, stepID)
	}
	rec.CurrentStep = ""
	delete(tj.retries, stepID)
	cleared := ""

	switch dec.Outcome {
	case retry.OutcomeAbortJob:
		rec.MarkAsFailed(errMsg)
		status := rec.Status
		durationMS := rec.DurationMS()
		if err := o.persist(ctx, rec.ID, repository.RecordPatch{
			Status:      &status,
			CurrentStep: &cleared,
			Error:       &errMsg,
			Warnings:    rec.Warnings,
			CompletedAt: rec.EndTime,
			DurationMS:  &durationMS,
		}); err != nil {
			return dec, err
		}

		logger.Errorf("Job '%s' failed: required step '%s' exhausted retries: %s", jobID, stepID, errMsg)
		o.emitter.Emit(event.Event{
			Name:       event.JobFailed,
			JobID:      jobID,
			StepID:     stepID,
			StepName:   step.Name,
			Error:      errMsg,
			Status:     rec.Status,
			DurationMS: durationMS,
		})

	case retry.OutcomeContinue:
		rec.AddWarning(fmt.Sprintf("Required step %q failed after %d retries: %s", step.Name, step.MaxRetries, errMsg))
		if err := o.persist(ctx, rec.ID, repository.RecordPatch{
			CurrentStep: &cleared,
			Warnings:    rec.Warnings,
		}); err != nil {
			return dec, err
		}

		logger.Warnf("Job '%s': required step '%s' failed, continuing degraded.", jobID, stepID)
		o.emitter.Emit(event.Event{
			Name:     event.StepFailed,
			JobID:    jobID,
			StepID:   stepID,
			StepName: step.Name,
			Error:    errMsg,
		})

	case retry.OutcomeSkip:
		rec.AddWarning(fmt.Sprintf("Optional step %q skipped due to error: %s", step.Name, errMsg))
		if err := o.persist(ctx, rec.ID, repository.RecordPatch{
			CurrentStep: &cleared,
			Warnings:    rec.Warnings,
		}); err != nil {
			return dec, err
		}

		logger.Warnf("Job '%s': optional step '%s' skipped.", jobID, stepID)
		o.emitter.Emit(event.Event{
			Name:     event.StepSkipped,
			JobID:    jobID,
			StepID:   stepID,
			StepName: step.Name,
			Error:    errMsg,
		})
	}

	return dec, nil
}

// CompleteJob finishes a job that ran to the end of its catalog: progress is
// forced to 100, the terminal disposition is computed from accumulated
// warnings and failed steps, and the job's retry counters are swept.
func (o *Orchestrator) CompleteJob(ctx context.Context, jobID string) (*model.JobRecord, error) {
	tj, err := o.trackedJob(jobID)
	if err != nil {
		return nil, err
	}

	tj.mu.Lock()
	defer tj.mu.Unlock()

	rec := tj.record
	if err := o.requireLive(rec); err != nil {
		return nil, err
	}

	rec.MarkAsFinished()
	tj.retries = make(map[string]int)

	status := rec.Status
	prog := rec.Progress
	cleared := ""
	durationMS := rec.DurationMS()
	if err := o.persist(ctx, rec.ID, repository.RecordPatch{
		Status:      &status,
		CurrentStep: &cleared,
		Progress:    &prog,
		Result:      rec.Result,
		Warnings:    rec.Warnings,
		CompletedAt: rec.EndTime,
		DurationMS:  &durationMS,
	}); err != nil {
		return nil, err
	}

	logger.Infof("Job '%s' finished with status '%s' (%d warnings, %d failed steps, %dms).",
		jobID, rec.Status, len(rec.Warnings), len(rec.FailedSteps), durationMS)
	o.emitter.Emit(event.Event{
		Name:       event.JobComplete,
		JobID:      jobID,
		Status:     rec.Status,
		Progress:   rec.Progress,
		Warnings:   rec.Warnings,
		DurationMS: durationMS,
		Subject:    rec.Subject,
	})

	return rec.Clone(), nil
}

// Resume reconstructs a live record from durable state after a process
// restart. Completed steps are rebuilt from the key set of the persisted
// result map, progress is recomputed from the catalog, and retry history is
// deliberately not restored. A terminal persisted status is refused with
// ErrNotResumable.
func (o *Orchestrator) Resume(ctx context.Context, jobID string) (*model.JobRecord, error) {
	// Cache hit: the job is already live in this process.
	if tj, ok := o.store.get(jobID); ok {
		tj.mu.Lock()
		defer tj.mu.Unlock()
		if tj.record.Status.IsTerminal() {
			return nil, ErrNotResumable
		}
		return tj.record.Clone(), nil
	}

	stored, err := o.repo.LoadRecord(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, err
		}
		return nil, exception.NewPipelineError(moduleName, fmt.Sprintf("failed to load job %q for resume", jobID), err, false)
	}

	if stored.Status.IsTerminal() {
		return nil, ErrNotResumable
	}

	completed := stored.Result.StepIDs(o.catalog.StepIDs())
	rec := &model.JobRecord{
		ID:             stored.ID,
		Subject:        stored.Subject,
		Status:         stored.Status,
		CurrentStep:    stored.CurrentStep,
		CompletedSteps: completed,
		FailedSteps:    make([]string, 0),
		Warnings:       append(make(model.WarningList, 0, len(stored.Warnings)), stored.Warnings...),
		Progress:       progress.Calculate(o.catalog, completed),
		Result:         stored.Result,
		Error:          stored.Error,
		StartTime:      stored.StartedAt,
	}
	if rec.Result == nil {
		rec.Result = make(model.ResultMap)
	}

	tj, ok := o.store.insert(rec)
	if !ok {
		// Another goroutine resumed the same job concurrently; use its copy.
		tj, _ = o.store.get(jobID)
	}

	logger.Infof("Job '%s' resumed with %d completed steps, progress %d%%.", jobID, len(completed), rec.Progress)
	o.emitter.Emit(event.Event{
		Name:     event.JobResumed,
		JobID:    jobID,
		StepID:   rec.CurrentStep,
		Status:   rec.Status,
		Progress: rec.Progress,
		Warnings: rec.Warnings,
		Subject:  rec.Subject,
	})

	tj.mu.Lock()
	defer tj.mu.Unlock()
	return tj.record.Clone(), nil
}

// Cleanup drops the in-memory record and its retry counters.
// The durable record is untouched.
func (o *Orchestrator) Cleanup(jobID string) {
	o.store.remove(jobID)
	logger.Debugf("Job '%s' removed from the in-memory store.", jobID)
}

// Jobs returns snapshots of every live job, ordered by start time.
func (o *Orchestrator) Jobs() []*model.JobRecord {
	records := o.store.snapshots()
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartTime.Before(records[j].StartTime)
	})
	return records
}

// Stats summarizes the live jobs by status.
type Stats struct {
	Total           int
	Pending         int
	Running         int
	Completed       int
	Failed          int
	DoneWithWarning int
}

// Stats counts the live jobs per status.
func (o *Orchestrator) Stats() Stats {
	var st Stats
	for _, rec := range o.store.snapshots() {
		st.Total++
		switch rec.Status {
		case model.JobStatusPending:
			st.Pending++
		case model.JobStatusRunning:
			st.Running++
		case model.JobStatusCompleted:
			st.Completed++
		case model.JobStatusFailed:
			st.Failed++
		case model.JobStatusDoneWithWarning:
			st.DoneWithWarning++
		}
	}
	return st
}

// trackedJob resolves a live job or reports the precondition violation.
func (o *Orchestrator) trackedJob(jobID string) (*trackedJob, error) {
	tj, ok := o.store.get(jobID)
	if !ok {
		return nil, exception.NewPipelineErrorf(moduleName, "unknown job %q", jobID, false)
	}
	return tj, nil
}

// requireLive rejects operations on jobs already in a terminal state.
// Terminal states are absorbing.
func (o *Orchestrator) requireLive(rec *model.JobRecord) error {
	if rec.Status.IsTerminal() {
		return exception.NewPipelineErrorf(moduleName, "job %q is already in terminal state %q", rec.ID, rec.Status, false)
	}
	return nil
}

// persist writes a partial update through to the durable repository.
func (o *Orchestrator) persist(ctx context.Context, jobID string, patch repository.RecordPatch) error {
	if err := o.repo.UpdateRecord(ctx, jobID, patch); err != nil {
		return exception.NewPipelineError(moduleName, fmt.Sprintf("failed to persist job %q", jobID), err, false)
	}
	return nil
}

// toStoredRecord maps a fresh JobRecord to its initial durable row.
func toStoredRecord(rec *model.JobRecord) *repository.OrchestrationRecord {
	return &repository.OrchestrationRecord{
		ID:          rec.ID,
		Subject:     rec.Subject,
		Status:      rec.Status,
		CurrentStep: rec.CurrentStep,
		Progress:    rec.Progress,
		Result:      rec.Result,
		Warnings:    rec.Warnings,
		Error:       rec.Error,
		StartedAt:   rec.StartTime,
	}
}
