package sql

import (
	"time"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/domain/repository"
)

// fromStoredRecord maps a domain record to its persistence entity.
func fromStoredRecord(rec *repository.OrchestrationRecord) *OrchestrationRecordEntity {
	return &OrchestrationRecordEntity{
		ID:           rec.ID,
		Subject:      rec.Subject,
		Status:       rec.Status,
		CurrentStep:  rec.CurrentStep,
		Progress:     rec.Progress,
		Result:       rec.Result,
		Warnings:     rec.Warnings,
		ErrorMessage: rec.Error,
		StartedAt:    rec.StartedAt,
		CompletedAt:  rec.CompletedAt,
		DurationMS:   rec.DurationMS,
		LastUpdated:  time.Now(),
	}
}

// toStoredRecord maps a persistence entity back to the domain record.
func toStoredRecord(entity *OrchestrationRecordEntity) *repository.OrchestrationRecord {
	return &repository.OrchestrationRecord{
		ID:          entity.ID,
		Subject:     entity.Subject,
		Status:      entity.Status,
		CurrentStep: entity.CurrentStep,
		Progress:    entity.Progress,
		Result:      entity.Result,
		Warnings:    entity.Warnings,
		Error:       entity.ErrorMessage,
		StartedAt:   entity.StartedAt,
		CompletedAt: entity.CompletedAt,
		DurationMS:  entity.DurationMS,
	}
}
