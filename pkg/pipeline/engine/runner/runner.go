// Package runner drives a job through every step of the catalog in declaration
// order, delegating the actual work to a StepExecutor and all state transitions
// to the orchestrator.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/catalog"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/retry"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/exception"
	logger "github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

const moduleName = "runner"

// ExecOptions carries per-attempt execution parameters.
type ExecOptions struct {
	// Model overrides the step's default model for this attempt. It is set to
	// the step's fallback model on a downgraded final attempt, otherwise empty.
	Model string
	// Attempt is the 1-based attempt number, 1 for the initial attempt.
	Attempt int
}

// StepExecutor performs the work of a single step attempt. Implementations
// must honor ctx cancellation; the runner applies the step's timeout to it.
type StepExecutor interface {
	Execute(ctx context.Context, job *model.JobRecord, step catalog.StepDefinition, opts ExecOptions) (json.RawMessage, error)
}

// Runner executes whole jobs against a StepExecutor.
type Runner struct {
	orc      *orchestrator.Orchestrator
	executor StepExecutor
}

// New creates a Runner bound to the orchestrator and executor.
func New(orc *orchestrator.Orchestrator, executor StepExecutor) *Runner {
	return &Runner{orc: orc, executor: executor}
}

// Run creates a job for the subject and executes the full catalog. It returns
// the terminal job record; a hard-stopped job is not an error from Run's point
// of view, the record's status carries the disposition.
func (r *Runner) Run(ctx context.Context, id string, subject model.SubjectMeta) (*model.JobRecord, error) {
	job, err := r.orc.CreateJob(ctx, id, subject)
	if err != nil {
		return nil, err
	}
	return r.drive(ctx, job.ID, nil)
}

// Resume reconstructs a previously persisted job and executes the steps it has
// not completed yet.
func (r *Runner) Resume(ctx context.Context, jobID string) (*model.JobRecord, error) {
	job, err := r.orc.Resume(ctx, jobID)
	if err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(job.CompletedSteps))
	for _, stepID := range job.CompletedSteps {
		done[stepID] = true
	}
	return r.drive(ctx, job.ID, done)
}

// drive walks the catalog in order, skipping steps already in done, and
// finishes the job. A nil done map means no step is completed yet.
func (r *Runner) drive(ctx context.Context, jobID string, done map[string]bool) (*model.JobRecord, error) {
	for _, step := range r.orc.Catalog().Steps() {
		if done[step.ID] {
			logger.Debugf("Job '%s': step '%s' already completed, skipping.", jobID, step.ID)
			continue
		}

		failed, err := r.runStep(ctx, jobID, step)
		if err != nil {
			return nil, err
		}
		if failed {
			job, ok := r.orc.Job(jobID)
			if !ok {
				return nil, exception.NewPipelineErrorf(moduleName, "job %q disappeared during execution", jobID, false)
			}
			return job, nil
		}
	}

	return r.orc.CompleteJob(ctx, jobID)
}

// runStep executes one step including its retry budget. It reports
// failed=true when the whole job was hard-stopped.
func (r *Runner) runStep(ctx context.Context, jobID string, step catalog.StepDefinition) (failed bool, err error) {
	opts := ExecOptions{Attempt: 1}
	for {
		if err := r.orc.StartStep(ctx, jobID, step.ID); err != nil {
			return false, err
		}

		result, execErr := r.executeAttempt(ctx, jobID, step, opts)
		if execErr == nil {
			if err := r.orc.CompleteStep(ctx, jobID, step.ID, result); err != nil {
				return false, err
			}
			return false, nil
		}

		dec, err := r.orc.FailStep(ctx, jobID, step.ID, exception.ExtractErrorMessage(execErr))
		if err != nil {
			return false, err
		}

		if dec.Retry {
			opts = ExecOptions{Attempt: dec.Attempt + 1}
			if dec.UseFallback {
				opts.Model = step.FallbackModel
			}
			continue
		}

		switch dec.Outcome {
		case retry.OutcomeAbortJob:
			return true, nil
		case retry.OutcomeContinue, retry.OutcomeSkip:
			return false, nil
		default:
			return false, exception.NewPipelineErrorf(moduleName, "unexpected retry outcome %s for step %q", dec.Outcome, step.ID, false)
		}
	}
}

// executeAttempt runs a single attempt under the step's timeout.
func (r *Runner) executeAttempt(ctx context.Context, jobID string, step catalog.StepDefinition, opts ExecOptions) (json.RawMessage, error) {
	job, ok := r.orc.Job(jobID)
	if !ok {
		return nil, exception.NewPipelineErrorf(moduleName, "unknown job %q", jobID, false)
	}

	attemptCtx := ctx
	if timeout := step.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := r.executor.Execute(attemptCtx, job, step, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("step %q timed out after %s: %w", step.ID, step.Timeout(), err)
		}
		return nil, err
	}
	return result, nil
}
