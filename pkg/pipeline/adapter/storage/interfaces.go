// Package storage defines the common interfaces for storage adapters.
// These interfaces abstract object storage operations so the pipeline can
// write to different backends (GCS, local file system) through a unified API.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"

	storageConfig "github.com/tenderworks/pipeline/pkg/pipeline/adapter/storage/config"
	coreConfig "github.com/tenderworks/pipeline/pkg/pipeline/core/config"
)

// StorageConnection represents a connection to an object storage backend.
type StorageConnection interface {
	// Type returns the storage type (e.g., "gcs", "local").
	Type() string
	// Name returns the logical connection name from the configuration.
	Name() string
	// Close releases resources held by the connection.
	Close() error

	// Upload writes data to the specified bucket and object name.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download reads data from the specified bucket and object name.
	// The returned ReadCloser must be closed by the caller.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for each object under the prefix in the bucket.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject deletes the specified object from the bucket.
	DeleteObject(ctx context.Context, bucket, objectName string) error
}

// StorageProvider manages the acquisition and lifecycle of storage connections.
type StorageProvider interface {
	// GetConnection retrieves a StorageConnection with the specified name.
	GetConnection(name string) (StorageConnection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the storage type this provider handles.
	Type() string
	// ForceReconnect closes and re-establishes the named connection.
	ForceReconnect(name string) (StorageConnection, error)
}

// StorageConnectionResolver resolves storage connection instances by name.
type StorageConnectionResolver interface {
	ResolveStorageConnection(ctx context.Context, name string) (StorageConnection, error)
}

// StorageProviderGroup is the Fx group name used to collect all StorageProvider implementations.
const StorageProviderGroup = "storage_providers"

// DecodeConnectionConfig decodes the named storage connection's settings from
// the application configuration.
func DecodeConnectionConfig(cfg *coreConfig.Config, name string) (storageConfig.StorageConfig, error) {
	var storageCfg storageConfig.StorageConfig
	rawConfig, ok := cfg.Pipeline.StorageConfigs[name]
	if !ok {
		return storageCfg, fmt.Errorf("storage configuration '%s' not found in pipeline.storage configs", name)
	}
	if err := mapstructure.Decode(rawConfig, &storageCfg); err != nil {
		return storageCfg, fmt.Errorf("failed to decode storage config for '%s': %w", name, err)
	}
	return storageCfg, nil
}
