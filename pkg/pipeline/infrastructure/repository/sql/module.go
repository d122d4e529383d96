package sql

import (
	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/pkg/pipeline/adapter/database"
	config "github.com/tenderworks/pipeline/pkg/pipeline/core/config"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/domain/repository"
)

// newRepositoryFromConfig binds the repository to the connection named in
// pipeline.infrastructure.record_repository_db_ref.
func newRepositoryFromConfig(dbResolver database.DBConnectionResolver, cfg *config.Config) repository.OrchestrationRepository {
	return NewSQLOrchestrationRepository(dbResolver, cfg.Pipeline.Infrastructure.RecordRepositoryDBRef)
}

// Module exports the SQL repository for dependency injection.
var Module = fx.Options(
	fx.Provide(newRepositoryFromConfig),
)
