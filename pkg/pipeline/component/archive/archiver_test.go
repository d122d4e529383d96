package archive_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderworks/pipeline/pkg/pipeline/adapter/storage"
	"github.com/tenderworks/pipeline/pkg/pipeline/component/archive"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/config"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

// fakeConnection captures uploads in memory.
type fakeConnection struct {
	objects   map[string][]byte
	uploadErr error
}

func (c *fakeConnection) Type() string { return "fake" }
func (c *fakeConnection) Name() string { return "fake" }
func (c *fakeConnection) Close() error { return nil }

func (c *fakeConnection) Upload(_ context.Context, _, objectName string, data io.Reader, _ string) error {
	if c.uploadErr != nil {
		return c.uploadErr
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(data); err != nil {
		return err
	}
	c.objects[objectName] = buf.Bytes()
	return nil
}

func (c *fakeConnection) Download(_ context.Context, _, objectName string) (io.ReadCloser, error) {
	data, ok := c.objects[objectName]
	if !ok {
		return nil, fmt.Errorf("object %q not found", objectName)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *fakeConnection) ListObjects(_ context.Context, _, prefix string, fn func(string) error) error {
	for name := range c.objects {
		if err := fn(name); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeConnection) DeleteObject(_ context.Context, _, objectName string) error {
	delete(c.objects, objectName)
	return nil
}

var _ storage.StorageConnection = (*fakeConnection)(nil)

type fakeResolver struct {
	conn *fakeConnection
}

func (r *fakeResolver) ResolveStorageConnection(_ context.Context, _ string) (storage.StorageConnection, error) {
	return r.conn, nil
}

func newTestArchiver() (*archive.Archiver, *fakeConnection) {
	cfg := config.NewConfig()
	cfg.Pipeline.Archive = config.ArchiveConfig{
		Enabled:    true,
		StorageRef: "archive_bucket",
		Prefix:     "jobs/archive",
	}
	conn := &fakeConnection{objects: make(map[string][]byte)}
	return archive.NewArchiver(cfg, &fakeResolver{conn: conn}, nil), conn
}

func finishedJob(id string) *model.JobRecord {
	job := model.NewJobRecord(id, model.SubjectMeta{FileName: "report.pdf", FileSize: 4096})
	job.Result["extract"] = json.RawMessage(`{"pages":12}`)
	job.MarkAsFinished()
	return job
}

func TestArchiveUploadsPartitionedObject(t *testing.T) {
	archiver, conn := newTestArchiver()

	job := finishedJob("job-1")
	require.NoError(t, archiver.Archive(context.Background(), job))

	wantName := fmt.Sprintf("jobs/archive/dt=%s/job_job-1.parquet", job.EndTime.UTC().Format("2006-01-02"))
	data, ok := conn.objects[wantName]
	require.True(t, ok, "expected object %q, got %v", wantName, keys(conn.objects))
	assert.NotEmpty(t, data)
	// Parquet files start with the PAR1 magic bytes.
	assert.Equal(t, []byte("PAR1"), data[:4])
}

func TestArchiveSurfacesUploadFailure(t *testing.T) {
	archiver, conn := newTestArchiver()
	conn.uploadErr = fmt.Errorf("bucket unavailable")

	err := archiver.Archive(context.Background(), finishedJob("job-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
}

func TestArchiveFallsBackToCurrentDateWithoutEndTime(t *testing.T) {
	archiver, conn := newTestArchiver()

	job := model.NewJobRecord("job-2", model.SubjectMeta{FileName: "a.pdf"})
	require.NoError(t, archiver.Archive(context.Background(), job))

	wantName := fmt.Sprintf("jobs/archive/dt=%s/job_job-2.parquet", time.Now().UTC().Format("2006-01-02"))
	_, ok := conn.objects[wantName]
	assert.True(t, ok)
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
