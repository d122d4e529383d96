// Package sql provides the GORM-backed implementation of the durable record
// repository.
package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tenderworks/pipeline/pkg/pipeline/adapter/database"
	gormadapter "github.com/tenderworks/pipeline/pkg/pipeline/adapter/database/gorm"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/domain/repository"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/exception"
)

const moduleName = "SQLOrchestrationRepository"

// SQLOrchestrationRepository implements repository.OrchestrationRepository
// against a relational database resolved through the database adapter.
type SQLOrchestrationRepository struct {
	dbResolver database.DBConnectionResolver
	dbName     string
}

// NewSQLOrchestrationRepository creates a repository bound to the named
// database connection (e.g., "metadata").
func NewSQLOrchestrationRepository(dbResolver database.DBConnectionResolver, dbName string) repository.OrchestrationRepository {
	return &SQLOrchestrationRepository{
		dbResolver: dbResolver,
		dbName:     dbName,
	}
}

// gormDB resolves the connection and extracts its *gorm.DB handle.
func (r *SQLOrchestrationRepository) gormDB(ctx context.Context) (*gorm.DB, error) {
	conn, err := r.dbResolver.ResolveDBConnection(ctx, r.dbName)
	if err != nil {
		return nil, exception.NewPipelineError(moduleName, fmt.Sprintf("failed to resolve DB connection '%s'", r.dbName), err, true)
	}
	db, err := gormadapter.GormDB(conn)
	if err != nil {
		return nil, exception.NewPipelineError(moduleName, fmt.Sprintf("connection '%s' does not expose a GORM handle", r.dbName), err, false)
	}
	return db.WithContext(ctx), nil
}

// CreateRecord inserts the initial durable row for a job.
func (r *SQLOrchestrationRepository) CreateRecord(ctx context.Context, rec *repository.OrchestrationRecord) error {
	db, err := r.gormDB(ctx)
	if err != nil {
		return err
	}

	entity := fromStoredRecord(rec)
	if err := db.Create(entity).Error; err != nil {
		return exception.NewPipelineError(moduleName, fmt.Sprintf("failed to create record (ID: %s)", rec.ID), err, true)
	}
	return nil
}

// UpdateRecord applies a partial update to the stored row. Only fields set in
// the patch are written.
func (r *SQLOrchestrationRepository) UpdateRecord(ctx context.Context, id string, patch repository.RecordPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	db, err := r.gormDB(ctx)
	if err != nil {
		return err
	}

	updates := patchColumns(patch)
	result := db.Model(&OrchestrationRecordEntity{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return exception.NewPipelineError(moduleName, fmt.Sprintf("failed to update record (ID: %s)", id), result.Error, true)
	}
	if result.RowsAffected == 0 {
		return repository.ErrRecordNotFound
	}
	return nil
}

// LoadRecord fetches the stored row by identifier.
func (r *SQLOrchestrationRepository) LoadRecord(ctx context.Context, id string) (*repository.OrchestrationRecord, error) {
	db, err := r.gormDB(ctx)
	if err != nil {
		return nil, err
	}

	var entity OrchestrationRecordEntity
	if err := db.Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRecordNotFound
		}
		return nil, exception.NewPipelineError(moduleName, fmt.Sprintf("failed to load record (ID: %s)", id), err, true)
	}
	return toStoredRecord(&entity), nil
}

var _ repository.OrchestrationRepository = (*SQLOrchestrationRepository)(nil)

// patchColumns converts a patch into the column map handed to GORM.
// last_updated is always bumped with any write.
func patchColumns(patch repository.RecordPatch) map[string]interface{} {
	updates := map[string]interface{}{
		"last_updated": time.Now(),
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.CurrentStep != nil {
		updates["current_step"] = *patch.CurrentStep
	}
	if patch.Progress != nil {
		updates["progress"] = *patch.Progress
	}
	if patch.Result != nil {
		updates["result"] = patch.Result
	}
	if patch.Warnings != nil {
		updates["warnings"] = patch.Warnings
	}
	if patch.Error != nil {
		updates["error_message"] = *patch.Error
	}
	if patch.CompletedAt != nil {
		updates["completed_at"] = *patch.CompletedAt
	}
	if patch.DurationMS != nil {
		updates["duration_ms"] = *patch.DurationMS
	}
	return updates
}
