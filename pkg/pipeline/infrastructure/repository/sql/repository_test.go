package sql_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tenderworks/pipeline/pkg/pipeline/adapter/database"
	dbconfig "github.com/tenderworks/pipeline/pkg/pipeline/adapter/database/config"
	gormadapter "github.com/tenderworks/pipeline/pkg/pipeline/adapter/database/gorm"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/domain/repository"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	sqlrepo "github.com/tenderworks/pipeline/pkg/pipeline/infrastructure/repository/sql"
)

// stubResolver hands out one fixed connection.
type stubResolver struct {
	conn database.DBConnection
}

func (r *stubResolver) ResolveDBConnection(_ context.Context, _ string) (database.DBConnection, error) {
	return r.conn, nil
}

func newMockRepository(t *testing.T) (repository.OrchestrationRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn: db,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	conn := gormadapter.NewGormDBAdapter(gormDB, dbconfig.DatabaseConfig{Type: "postgres"}, "metadata")
	return sqlrepo.NewSQLOrchestrationRepository(&stubResolver{conn: conn}, "metadata"), mock
}

func TestCreateRecordInserts(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO "pipeline_orchestration"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateRecord(context.Background(), &repository.OrchestrationRecord{
		ID:        "job-1",
		Subject:   model.SubjectMeta{FileName: "doc.pdf"},
		Status:    model.JobStatusPending,
		Result:    model.ResultMap{},
		StartedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRecordPatchesColumns(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE "pipeline_orchestration" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := model.JobStatusRunning
	progress := 50
	err := repo.UpdateRecord(context.Background(), "job-1", repository.RecordPatch{
		Status:   &status,
		Progress: &progress,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRecordMissingRow(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE "pipeline_orchestration" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	progress := 50
	err := repo.UpdateRecord(context.Background(), "ghost", repository.RecordPatch{Progress: &progress})
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
}

func TestUpdateRecordEmptyPatchIsNoOp(t *testing.T) {
	repo, mock := newMockRepository(t)

	require.NoError(t, repo.UpdateRecord(context.Background(), "job-1", repository.RecordPatch{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadRecordScansRow(t *testing.T) {
	repo, mock := newMockRepository(t)

	started := time.Now().Add(-time.Minute)
	rows := sqlmock.NewRows([]string{
		"id", "subject", "status", "current_step", "progress",
		"result", "warnings", "error_message", "started_at",
		"completed_at", "duration_ms", "last_updated",
	}).AddRow(
		"job-1", []byte(`{"file_name":"doc.pdf","file_size":42}`), "running", "analyze", 50,
		[]byte(`{"extract":{"pages":3}}`), []byte(`["w1"]`), "", started,
		nil, int64(0), time.Now(),
	)

	mock.ExpectQuery(`SELECT \* FROM "pipeline_orchestration" WHERE id = `).
		WillReturnRows(rows)

	rec, err := repo.LoadRecord(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, "job-1", rec.ID)
	assert.Equal(t, "doc.pdf", rec.Subject.FileName)
	assert.Equal(t, model.JobStatusRunning, rec.Status)
	assert.Equal(t, "analyze", rec.CurrentStep)
	assert.Equal(t, 50, rec.Progress)
	assert.JSONEq(t, `{"pages":3}`, string(rec.Result["extract"]))
	assert.Equal(t, model.WarningList{"w1"}, rec.Warnings)
}

func TestLoadRecordMissingRow(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "pipeline_orchestration"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.LoadRecord(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
}
