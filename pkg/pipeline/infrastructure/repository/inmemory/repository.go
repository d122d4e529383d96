// Package inmemory provides a map-backed implementation of the durable record
// repository, intended for tests and single-process deployments.
package inmemory

import (
	"context"
	"sync"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/domain/repository"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

// InMemoryOrchestrationRepository implements repository.OrchestrationRepository
// with an in-process map. All reads and writes operate on deep copies so
// callers can never alias stored state.
type InMemoryOrchestrationRepository struct {
	mu      sync.RWMutex
	records map[string]*repository.OrchestrationRecord
}

// NewInMemoryOrchestrationRepository creates an empty repository.
func NewInMemoryOrchestrationRepository() *InMemoryOrchestrationRepository {
	return &InMemoryOrchestrationRepository{
		records: make(map[string]*repository.OrchestrationRecord),
	}
}

// CreateRecord stores the initial durable row for a job.
func (r *InMemoryOrchestrationRepository) CreateRecord(_ context.Context, rec *repository.OrchestrationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = cloneRecord(rec)
	return nil
}

// UpdateRecord applies a partial update to the stored row.
func (r *InMemoryOrchestrationRepository) UpdateRecord(_ context.Context, id string, patch repository.RecordPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return repository.ErrRecordNotFound
	}

	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.CurrentStep != nil {
		rec.CurrentStep = *patch.CurrentStep
	}
	if patch.Progress != nil {
		rec.Progress = *patch.Progress
	}
	if patch.Result != nil {
		rec.Result = cloneResult(patch.Result)
	}
	if patch.Warnings != nil {
		rec.Warnings = append(model.WarningList(nil), patch.Warnings...)
	}
	if patch.Error != nil {
		rec.Error = *patch.Error
	}
	if patch.CompletedAt != nil {
		completedAt := *patch.CompletedAt
		rec.CompletedAt = &completedAt
	}
	if patch.DurationMS != nil {
		rec.DurationMS = *patch.DurationMS
	}
	return nil
}

// LoadRecord returns a copy of the stored row.
func (r *InMemoryOrchestrationRepository) LoadRecord(_ context.Context, id string) (*repository.OrchestrationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

var _ repository.OrchestrationRepository = (*InMemoryOrchestrationRepository)(nil)

func cloneRecord(rec *repository.OrchestrationRecord) *repository.OrchestrationRecord {
	cp := *rec
	cp.Result = cloneResult(rec.Result)
	cp.Warnings = append(model.WarningList(nil), rec.Warnings...)
	if rec.CompletedAt != nil {
		completedAt := *rec.CompletedAt
		cp.CompletedAt = &completedAt
	}
	return &cp
}

// cloneResult deep-copies a result map including the raw JSON payloads.
func cloneResult(result model.ResultMap) model.ResultMap {
	if result == nil {
		return nil
	}
	cp := make(model.ResultMap, len(result))
	for k, v := range result {
		cp[k] = append(v[:0:0], v...)
	}
	return cp
}
