package sql

import (
	"time"

	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

// OrchestrationRecordEntity is the schema model used for persistence.
// Subject, Result and Warnings serialize to JSON columns through their
// driver.Valuer implementations.
type OrchestrationRecordEntity struct {
	ID           string            `gorm:"column:id;primaryKey"`
	Subject      model.SubjectMeta `gorm:"column:subject"`
	Status       model.JobStatus   `gorm:"column:status"`
	CurrentStep  string            `gorm:"column:current_step"`
	Progress     int               `gorm:"column:progress"`
	Result       model.ResultMap   `gorm:"column:result"`
	Warnings     model.WarningList `gorm:"column:warnings"`
	ErrorMessage string            `gorm:"column:error_message"`
	StartedAt    time.Time         `gorm:"column:started_at"`
	CompletedAt  *time.Time        `gorm:"column:completed_at"`
	DurationMS   int64             `gorm:"column:duration_ms"`
	LastUpdated  time.Time         `gorm:"column:last_updated"`
}

func (OrchestrationRecordEntity) TableName() string {
	return "pipeline_orchestration"
}
