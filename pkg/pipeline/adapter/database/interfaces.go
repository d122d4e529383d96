package database

import (
	"context"
	"database/sql"

	dbconfig "github.com/tenderworks/pipeline/pkg/pipeline/adapter/database/config"
)

// DBConnection represents an abstraction of a database connection.
type DBConnection interface {
	// Type returns the database type (e.g., "postgres", "sqlite").
	Type() string
	// Name returns the logical connection name from the configuration.
	Name() string
	// Close releases the underlying connection pool.
	Close() error
	// RefreshConnection verifies the connection is still valid.
	RefreshConnection(ctx context.Context) error
	// Config returns the database configuration associated with this connection.
	Config() dbconfig.DatabaseConfig
	// GetSQLDB returns the underlying *sql.DB connection.
	GetSQLDB() (*sql.DB, error)
}

// DBProvider is responsible for providing database connections based on configuration.
type DBProvider interface {
	// GetConnection retrieves a database connection with the specified name.
	GetConnection(name string) (DBConnection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the database type this provider handles.
	Type() string
	// ForceReconnect closes and re-establishes the named connection.
	ForceReconnect(name string) (DBConnection, error)
}

// DBConnectionResolver resolves the required database connection instance by name.
type DBConnectionResolver interface {
	// ResolveDBConnection resolves a database connection instance by name,
	// re-establishing it when the pooled connection has gone stale.
	ResolveDBConnection(ctx context.Context, name string) (DBConnection, error)
}

// DBProviderGroup is the Fx group name used to collect all DBProvider implementations.
const DBProviderGroup = "db_providers"
