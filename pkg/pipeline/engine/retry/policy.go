// Package retry implements the decision policy applied when a step attempt fails.
// Failures are classified by consequence: retry with the step's remaining budget,
// hard-stop the job, continue degraded, or skip the step entirely.
package retry

import (
	"github.com/tenderworks/pipeline/pkg/pipeline/core/catalog"
)

// Outcome classifies what happens after a failed attempt when no further retry
// is granted.
type Outcome int

const (
	// OutcomeRetry grants another attempt; the decision's Attempt and
	// UseFallback fields describe it.
	OutcomeRetry Outcome = iota
	// OutcomeAbortJob terminates the whole job: the step is required and the
	// catalog's stop-on-error policy is active.
	OutcomeAbortJob
	// OutcomeContinue records the required step's failure as a warning and lets
	// the pipeline continue; the job later resolves to a degraded completion.
	OutcomeContinue
	// OutcomeSkip abandons an optional step with a warning; this never
	// escalates to job failure.
	OutcomeSkip
)

// String returns a short label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeRetry:
		return "retry"
	case OutcomeAbortJob:
		return "abort"
	case OutcomeContinue:
		return "continue"
	case OutcomeSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating one failed attempt.
type Decision struct {
	// Retry is true when another attempt is granted.
	Retry bool
	// Attempt is the 1-based number of the granted attempt (set when Retry).
	Attempt int
	// UseFallback is true when the granted attempt must run with the step's
	// fallback model. Full-strength attempts are front-loaded; the fallback is
	// reserved for the final permitted attempt.
	UseFallback bool
	// Outcome classifies the consequence when Retry is false.
	Outcome Outcome
}

// Policy decides, given a step's definition and its failure history, whether to
// retry (optionally with the fallback model) or how to terminate the step.
type Policy interface {
	// Decide evaluates a failed attempt. priorAttempts is the number of retries
	// already consumed for this (job, step) pair before the current failure.
	Decide(step catalog.StepDefinition, priorAttempts int) Decision
}

// defaultPolicy is the default implementation of Policy.
// It applies the bounded-retry-with-fallback-escalation rule and the
// stop-on-error branch for exhausted required steps.
type defaultPolicy struct {
	stopOnError bool
}

// NewDefaultPolicy creates a Policy honoring the given stop-on-error setting.
func NewDefaultPolicy(stopOnError bool) Policy {
	return &defaultPolicy{stopOnError: stopOnError}
}

// NewPolicyFromCatalog creates the default Policy from the catalog's settings.
func NewPolicyFromCatalog(cat *catalog.Catalog) Policy {
	return NewDefaultPolicy(cat.Settings().StopOnError)
}

// Decide implements Policy.
func (p *defaultPolicy) Decide(step catalog.StepDefinition, priorAttempts int) Decision {
	if step.Retryable && priorAttempts < step.MaxRetries {
		attempt := priorAttempts + 1
		return Decision{
			Retry:   true,
			Attempt: attempt,
			// The last permitted attempt downgrades to the fallback model when
			// the step defines one.
			UseFallback: attempt == step.MaxRetries && step.HasFallback(),
			Outcome:     OutcomeRetry,
		}
	}

	// Retries exhausted (or the step was never retryable).
	if step.Required {
		if p.stopOnError {
			return Decision{Outcome: OutcomeAbortJob}
		}
		return Decision{Outcome: OutcomeContinue}
	}
	return Decision{Outcome: OutcomeSkip}
}

var _ Policy = (*defaultPolicy)(nil)
