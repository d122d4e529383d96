// Package repository defines the durable persistence contract for job records.
// The durable store is the single source of truth across process restarts; the
// orchestrator's in-memory store is a write-through cache on top of it.
package repository

import (
	"context"
	"errors"
	"time"

	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

// ErrRecordNotFound is returned when no durable record exists for a job identifier.
var ErrRecordNotFound = errors.New("orchestration record not found")

// OrchestrationRecord is the durable row shape for one job.
// CompletedSteps are not stored separately; resume reconstructs them from the
// key set of Result.
type OrchestrationRecord struct {
	ID          string
	Subject     model.SubjectMeta
	Status      model.JobStatus
	CurrentStep string
	Progress    int
	Result      model.ResultMap
	Warnings    model.WarningList
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	DurationMS  int64
}

// RecordPatch carries the fields of a partial update. Nil pointer fields and
// nil maps/slices are left untouched; a pointer to the zero value clears the
// column (e.g. CurrentStep set to a pointer to "" clears the current step).
type RecordPatch struct {
	Status      *model.JobStatus
	CurrentStep *string
	Progress    *int
	Result      model.ResultMap
	Warnings    model.WarningList
	Error       *string
	CompletedAt *time.Time
	DurationMS  *int64
}

// IsEmpty reports whether the patch carries no changes.
func (p RecordPatch) IsEmpty() bool {
	return p.Status == nil && p.CurrentStep == nil && p.Progress == nil &&
		p.Result == nil && p.Warnings == nil && p.Error == nil &&
		p.CompletedAt == nil && p.DurationMS == nil
}

// OrchestrationRepository is the durable persistence contract.
// Every orchestrator mutation is written through before the operation is
// considered complete, so resume-after-crash stays consistent.
type OrchestrationRepository interface {
	// CreateRecord inserts the initial durable row for a new job.
	CreateRecord(ctx context.Context, rec *OrchestrationRecord) error

	// UpdateRecord applies a partial update to an existing row.
	// It returns ErrRecordNotFound if no row exists for the identifier.
	UpdateRecord(ctx context.Context, id string, patch RecordPatch) error

	// LoadRecord fetches the durable row for the identifier.
	// It returns ErrRecordNotFound if no row exists.
	LoadRecord(ctx context.Context, id string) (*OrchestrationRecord, error)
}
