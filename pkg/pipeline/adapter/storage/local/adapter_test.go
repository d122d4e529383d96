package local_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageConfig "github.com/tenderworks/pipeline/pkg/pipeline/adapter/storage/config"
	"github.com/tenderworks/pipeline/pkg/pipeline/adapter/storage/local"
)

func TestLocalAdapterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	adapter, err := local.NewLocalAdapter(storageConfig.StorageConfig{
		Type:    local.ProviderType,
		BaseDir: dir,
	}, "test")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, adapter.Upload(ctx, "jobs", "summaries/job-1.parquet", strings.NewReader("payload"), "application/octet-stream"))

	reader, err := adapter.Download(ctx, "jobs", "summaries/job-1.parquet")
	require.NoError(t, err)
	defer reader.Close()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, reader)
	require.NoError(t, err)
	assert.Equal(t, "payload", buf.String())

	var listed []string
	require.NoError(t, adapter.ListObjects(ctx, "jobs", "summaries/", func(name string) error {
		listed = append(listed, name)
		return nil
	}))
	assert.Equal(t, []string{"summaries/job-1.parquet"}, listed)

	require.NoError(t, adapter.DeleteObject(ctx, "jobs", "summaries/job-1.parquet"))
	_, err = adapter.Download(ctx, "jobs", "summaries/job-1.parquet")
	assert.Error(t, err)
}

func TestLocalAdapterRejectsEscapingPaths(t *testing.T) {
	dir := t.TempDir()
	adapter, err := local.NewLocalAdapter(storageConfig.StorageConfig{
		Type:    local.ProviderType,
		BaseDir: dir,
	}, "test")
	require.NoError(t, err)

	err = adapter.Upload(context.Background(), "", "../outside.txt", strings.NewReader("x"), "")
	assert.Error(t, err)
}

func TestLocalAdapterDeleteMissingObject(t *testing.T) {
	dir := t.TempDir()
	adapter, err := local.NewLocalAdapter(storageConfig.StorageConfig{
		Type:    local.ProviderType,
		BaseDir: dir,
	}, "test")
	require.NoError(t, err)

	assert.NoError(t, adapter.DeleteObject(context.Background(), "", "missing.txt"))
}
