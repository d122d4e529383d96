// Package catalog holds the static, ordered step definitions that drive the
// document-analysis pipeline. The catalog is loaded once at process start and
// is read-only afterwards.
package catalog

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// StepDefinition describes one named unit of work in the fixed pipeline order.
type StepDefinition struct {
	// ID uniquely identifies the step within the catalog.
	ID string `yaml:"id"`
	// Name is the human-readable display name.
	Name string `yaml:"name"`
	// Target is the invocation target handed to the step executor.
	Target string `yaml:"target"`
	// Required marks steps whose exhausted failure can terminate the job.
	Required bool `yaml:"required"`
	// TimeoutMS bounds a single execution attempt, enforced by the executor layer.
	TimeoutMS int `yaml:"timeout_ms"`
	// Retryable enables the bounded retry budget below.
	Retryable bool `yaml:"retryable"`
	// MaxRetries is the number of additional attempts after the first failure.
	MaxRetries int `yaml:"max_retries"`
	// FallbackModel, when set, is the alternate execution mode reserved for the
	// final retry attempt.
	FallbackModel string `yaml:"fallback_model,omitempty"`
	// ProgressWeight is the step's relative contribution to overall progress.
	ProgressWeight float64 `yaml:"progress_weight"`
}

// Timeout returns the per-attempt timeout as a time.Duration.
// Zero means the executor applies no deadline.
func (s StepDefinition) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// HasFallback reports whether the step defines a fallback model.
func (s StepDefinition) HasFallback() bool {
	return s.FallbackModel != ""
}

// Settings holds the job-level policies that apply across the whole catalog.
type Settings struct {
	// StopOnError makes an exhausted required step a hard stop for the job.
	StopOnError bool `yaml:"stop_on_error"`
}

// Definition is the top-level shape of a catalog document.
type Definition struct {
	Settings Settings         `yaml:"settings"`
	Steps    []StepDefinition `yaml:"steps"`
}

// Catalog is the validated, ordered, read-only step list.
type Catalog struct {
	settings    Settings
	steps       []StepDefinition
	index       map[string]int
	totalWeight float64
}

// New builds a Catalog from a Definition, validating every step.
// Validation failures are aggregated so a broken catalog reports all of its
// problems at once.
func New(def Definition) (*Catalog, error) {
	var result *multierror.Error

	if len(def.Steps) == 0 {
		result = multierror.Append(result, fmt.Errorf("catalog defines no steps"))
	}

	index := make(map[string]int, len(def.Steps))
	totalWeight := 0.0

	for i, step := range def.Steps {
		if step.ID == "" {
			result = multierror.Append(result, fmt.Errorf("step at position %d has an empty id", i))
			continue
		}
		if _, exists := index[step.ID]; exists {
			result = multierror.Append(result, fmt.Errorf("duplicate step id %q", step.ID))
			continue
		}
		if step.ProgressWeight <= 0 {
			result = multierror.Append(result, fmt.Errorf("step %q: progress_weight must be > 0, got %v", step.ID, step.ProgressWeight))
		}
		if step.MaxRetries < 0 {
			result = multierror.Append(result, fmt.Errorf("step %q: max_retries must be >= 0, got %d", step.ID, step.MaxRetries))
		}
		if step.TimeoutMS < 0 {
			result = multierror.Append(result, fmt.Errorf("step %q: timeout_ms must be >= 0, got %d", step.ID, step.TimeoutMS))
		}
		index[step.ID] = i
		totalWeight += step.ProgressWeight
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	steps := make([]StepDefinition, len(def.Steps))
	copy(steps, def.Steps)

	return &Catalog{
		settings:    def.Settings,
		steps:       steps,
		index:       index,
		totalWeight: totalWeight,
	}, nil
}

// Settings returns the job-level catalog settings.
func (c *Catalog) Settings() Settings {
	return c.settings
}

// Len returns the number of steps in the catalog.
func (c *Catalog) Len() int {
	return len(c.steps)
}

// Steps returns the steps in catalog order.
// The returned slice is a copy; the catalog itself never changes.
func (c *Catalog) Steps() []StepDefinition {
	steps := make([]StepDefinition, len(c.steps))
	copy(steps, c.steps)
	return steps
}

// StepIDs returns the step identifiers in catalog order.
func (c *Catalog) StepIDs() []string {
	ids := make([]string, len(c.steps))
	for i, s := range c.steps {
		ids[i] = s.ID
	}
	return ids
}

// Lookup returns the step definition for the given identifier.
func (c *Catalog) Lookup(id string) (StepDefinition, bool) {
	i, ok := c.index[id]
	if !ok {
		return StepDefinition{}, false
	}
	return c.steps[i], true
}

// Required returns the subset of steps marked required, in catalog order.
func (c *Catalog) Required() []StepDefinition {
	var steps []StepDefinition
	for _, s := range c.steps {
		if s.Required {
			steps = append(steps, s)
		}
	}
	return steps
}

// Optional returns the subset of steps not marked required, in catalog order.
func (c *Catalog) Optional() []StepDefinition {
	var steps []StepDefinition
	for _, s := range c.steps {
		if !s.Required {
			steps = append(steps, s)
		}
	}
	return steps
}

// TotalWeight returns the sum of all progress weights, the denominator used by
// the progress calculator.
func (c *Catalog) TotalWeight() float64 {
	return c.totalWeight
}
