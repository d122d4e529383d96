package sql

import (
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/tenderworks/pipeline/pkg/pipeline/adapter/database"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

// MigrationsTable tracks applied schema versions.
const MigrationsTable = "pipeline_schema_migrations"

// Migrator applies embedded SQL migrations against a database connection.
type Migrator struct {
	dbConn database.DBConnection
	dbType string
}

// NewMigrator creates a Migrator for the given connection.
func NewMigrator(dbConn database.DBConnection) *Migrator {
	return &Migrator{
		dbConn: dbConn,
		dbType: dbConn.Type(),
	}
}

// databaseDriver builds a golang-migrate driver for the connection's dialect.
func (m *Migrator) databaseDriver(sqlDB *sql.DB) (migratedb.Driver, error) {
	switch m.dbType {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{
			MigrationsTable: MigrationsTable,
		})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{
			MigrationsTable: MigrationsTable,
		})
	case "sqlite":
		return sqlite.WithInstance(sqlDB, &sqlite.Config{
			MigrationsTable: MigrationsTable,
		})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", m.dbType)
	}
}

// Up applies all pending migrations from the embedded filesystem.
func (m *Migrator) Up(migrationFS fs.FS, path string) error {
	sqlDB, err := m.dbConn.GetSQLDB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver for path %s: %w", path, err)
	}

	dbDriver, err := m.databaseDriver(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	instance, err := migrate.NewWithInstance("iofs", sourceDriver, m.dbType, dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer instance.Close()

	logger.Infof("Applying migrations (DB: %s, Path: %s, Table: %s)", m.dbType, path, MigrationsTable)
	if err := instance.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed (DB: %s, Path: %s): %w", m.dbType, path, err)
	}
	logger.Infof("Migrations applied successfully.")
	return nil
}
