// Package sqlite provides a GORM DBProvider implementation for SQLite databases.
package sqlite

import (
	"errors"

	dbconfig "github.com/tenderworks/pipeline/pkg/pipeline/adapter/database/config"
	"github.com/tenderworks/pipeline/pkg/pipeline/adapter/database"
	gormadapter "github.com/tenderworks/pipeline/pkg/pipeline/adapter/database/gorm"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// init registers the SQLite dialector factory with the GORM adapter.
func init() {
	gormadapter.RegisterDialector("sqlite", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		return sqlite.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString generates the DSN for SQLite connections.
// The GORM SQLite dialector expects the file path directly.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	return c.Database
}

// SQLiteDBProvider implements database.DBProvider for SQLite connections.
type SQLiteDBProvider struct {
	*gormadapter.BaseProvider
}

// NewProvider creates a new database.DBProvider for SQLite.
func NewProvider(cfg *config.Config) database.DBProvider {
	return &SQLiteDBProvider{BaseProvider: gormadapter.NewBaseProvider(cfg, "sqlite")}
}
