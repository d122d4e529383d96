// Package archive exports finished jobs as Parquet summary records to object
// storage, partitioned by completion date for downstream analytics.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/tenderworks/pipeline/pkg/pipeline/adapter/storage"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/config"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/event"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/exception"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/serialization"
)

const moduleName = "Archiver"

// JobSummary is the flattened per-job record written to the archive.
// It includes parquet tags for serialization to Parquet format.
type JobSummary struct {
	JobID       string `parquet:"name=job_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	FileName    string `parquet:"name=file_name,type=BYTE_ARRAY,convertedtype=UTF8"`
	FileSize    int64  `parquet:"name=file_size,type=INT64"`
	Status      string `parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	Progress    int32  `parquet:"name=progress,type=INT32"`
	Error       string `parquet:"name=error,type=BYTE_ARRAY,convertedtype=UTF8"`
	Warnings    string `parquet:"name=warnings,type=BYTE_ARRAY,convertedtype=UTF8"`
	Result      string `parquet:"name=result,type=BYTE_ARRAY,convertedtype=UTF8"`
	StartedAt   int64  `parquet:"name=started_at,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	CompletedAt int64  `parquet:"name=completed_at,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	DurationMS  int64  `parquet:"name=duration_ms,type=INT64"`
}

// Archiver writes one JobSummary per terminal job to the configured storage
// connection, under prefix/dt=YYYY-MM-DD/job_<id>.parquet.
type Archiver struct {
	cfg      config.ArchiveConfig
	resolver storage.StorageConnectionResolver
	orc      *orchestrator.Orchestrator
}

// NewArchiver creates a new instance of Archiver.
func NewArchiver(cfg *config.Config, resolver storage.StorageConnectionResolver, orc *orchestrator.Orchestrator) *Archiver {
	return &Archiver{
		cfg:      cfg.Pipeline.Archive,
		resolver: resolver,
		orc:      orc,
	}
}

// Handle archives the job behind a terminal event. Archival is best effort:
// failures are logged, never propagated into the orchestrator's transition.
func (a *Archiver) Handle(ev event.Event) {
	job, ok := a.orc.Job(ev.JobID)
	if !ok {
		return
	}
	if err := a.Archive(context.Background(), job); err != nil {
		logger.Errorf("Archiver: failed to archive job '%s': %v", ev.JobID, err)
	}
}

// Archive serializes the job to Parquet and uploads it.
func (a *Archiver) Archive(ctx context.Context, job *model.JobRecord) error {
	summary, err := newJobSummary(job)
	if err != nil {
		return exception.NewPipelineError(moduleName, fmt.Sprintf("failed to build summary for job '%s'", job.ID), err, false)
	}

	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(JobSummary), 1)
	if err != nil {
		return exception.NewPipelineError(moduleName, "failed to create Parquet writer", err, false)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	var result *multierror.Error
	if err := pw.Write(*summary); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to write job summary: %w", err))
	}
	if err := pw.WriteStop(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to finalize Parquet file: %w", err))
	}
	if err := result.ErrorOrNil(); err != nil {
		return exception.NewPipelineError(moduleName, fmt.Sprintf("failed to serialize job '%s'", job.ID), err, false)
	}

	conn, err := a.resolver.ResolveStorageConnection(ctx, a.cfg.StorageRef)
	if err != nil {
		return exception.NewPipelineError(moduleName, fmt.Sprintf("failed to resolve storage connection '%s'", a.cfg.StorageRef), err, false)
	}

	objectName := a.objectName(job)
	if err := conn.Upload(ctx, a.cfg.StorageRef, objectName, buf, "application/octet-stream"); err != nil {
		return exception.NewPipelineError(moduleName, fmt.Sprintf("failed to upload archive object '%s'", objectName), err, true)
	}

	logger.Infof("Archiver: job '%s' archived to '%s'.", job.ID, objectName)
	return nil
}

// objectName builds a Hive-style partitioned path keyed by completion date.
func (a *Archiver) objectName(job *model.JobRecord) string {
	completed := time.Now().UTC()
	if job.EndTime != nil {
		completed = job.EndTime.UTC()
	}
	return path.Join(
		a.cfg.Prefix,
		fmt.Sprintf("dt=%s", completed.Format("2006-01-02")),
		fmt.Sprintf("job_%s.parquet", job.ID),
	)
}

func newJobSummary(job *model.JobRecord) (*JobSummary, error) {
	warnings, err := serialization.MarshalWarnings(job.Warnings)
	if err != nil {
		return nil, err
	}
	result, err := serialization.MarshalResultMap(job.Result)
	if err != nil {
		return nil, err
	}

	summary := &JobSummary{
		JobID:      job.ID,
		FileName:   job.Subject.FileName,
		FileSize:   job.Subject.FileSize,
		Status:     string(job.Status),
		Progress:   int32(job.Progress),
		Error:      job.Error,
		Warnings:   string(warnings),
		Result:     string(result),
		StartedAt:  job.StartTime.UnixMilli(),
		DurationMS: job.DurationMS(),
	}
	if job.EndTime != nil {
		summary.CompletedAt = job.EndTime.UnixMilli()
	}
	return summary, nil
}
