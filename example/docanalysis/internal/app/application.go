// Package app assembles the document-analysis pipeline application from the
// engine's Fx modules and launches a demo job.
package app

import (
	"context"
	"embed"
	"os"
	"strconv"

	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/example/docanalysis/internal/executor"
	"github.com/tenderworks/pipeline/pkg/pipeline/adapter/database"
	gormadapter "github.com/tenderworks/pipeline/pkg/pipeline/adapter/database/gorm"
	gormmysql "github.com/tenderworks/pipeline/pkg/pipeline/adapter/database/gorm/mysql"
	gormpostgres "github.com/tenderworks/pipeline/pkg/pipeline/adapter/database/gorm/postgres"
	gormsqlite "github.com/tenderworks/pipeline/pkg/pipeline/adapter/database/gorm/sqlite"
	storageadapter "github.com/tenderworks/pipeline/pkg/pipeline/adapter/storage"
	storagelocal "github.com/tenderworks/pipeline/pkg/pipeline/adapter/storage/local"
	"github.com/tenderworks/pipeline/pkg/pipeline/component/archive"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/catalog"
	config "github.com/tenderworks/pipeline/pkg/pipeline/core/config"
	"github.com/tenderworks/pipeline/pkg/pipeline/core/event"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	inframetrics "github.com/tenderworks/pipeline/pkg/pipeline/infrastructure/metrics"
	sqlrepo "github.com/tenderworks/pipeline/pkg/pipeline/infrastructure/repository/sql"
	"github.com/tenderworks/pipeline/pkg/pipeline/infrastructure/telemetry"
	"github.com/tenderworks/pipeline/pkg/pipeline/listener"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/orchestrator"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/retry"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/runner"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

// DBProviderMap maps adapter names selectable via the DB_ADAPTERS environment
// variable to their provider constructors.
var DBProviderMap = map[string]func(cfg *config.Config) database.DBProvider{
	"sqlite":   gormsqlite.NewProvider,
	"postgres": gormpostgres.NewProvider,
	"mysql":    gormmysql.NewProvider,
}

// RunApplication sets up and runs the pipeline application using uber-fx.
func RunApplication(
	appCtx context.Context,
	envFilePath string,
	embeddedConfig config.EmbeddedConfig,
	embeddedCatalog catalog.CatalogBytes,
	migrationsFS embed.FS,
	dbProviderOptions []fx.Option,
) {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logger.SetLogLevel(cfg.Pipeline.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Pipeline.System.Logging.Level)

	app := fx.New(
		fx.Supply(
			embeddedConfig,
			embeddedCatalog,
			fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
			fx.Annotate(migrationsFS, fx.ResultTags(`name:"migrationsFS"`)),
			fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
		),

		fx.Options(dbProviderOptions...),
		logger.Module,
		config.Module,
		catalog.Module,
		event.Module,
		retry.Module,

		gormadapter.Module,
		storageadapter.Module,
		storagelocal.Module,
		sqlrepo.Module,

		inframetrics.Module,
		telemetry.Module,

		orchestrator.Module,
		runner.Module,
		executor.Module,

		listener.Module,
		archive.Module,

		fx.Invoke(runMigrations),
		fx.Invoke(startPipelineExecution),
	)

	app.Run()

	if app.Err() != nil {
		logger.Fatalf("Application run failed: %v", app.Err())
	}
}

// migrationParams collects the dependencies for applying schema migrations.
type migrationParams struct {
	fx.In

	Resolver     database.DBConnectionResolver
	Cfg          *config.Config
	MigrationsFS embed.FS `name:"migrationsFS"`
}

// runMigrations applies the embedded schema migrations for the record
// repository's database before anything touches the tables.
func runMigrations(p migrationParams) error {
	dbRef := p.Cfg.Pipeline.Infrastructure.RecordRepositoryDBRef
	conn, err := p.Resolver.ResolveDBConnection(context.Background(), dbRef)
	if err != nil {
		return err
	}

	migrator := sqlrepo.NewMigrator(conn)
	return migrator.Up(p.MigrationsFS, "resources/migrations/"+conn.Type())
}

// executionParams collects the dependencies for launching the demo job.
type executionParams struct {
	fx.In

	Lc         fx.Lifecycle
	Shutdowner fx.Shutdowner
	Runner     *runner.Runner
	Orc        *orchestrator.Orchestrator
	Cfg        *config.Config
	AppCtx     context.Context `name:"appCtx"`
}

// startPipelineExecution runs one job for the configured demo document and
// shuts the application down when it reaches a terminal state.
func startPipelineExecution(p executionParams) {
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in pipeline execution: %v", r)
					}
					logger.Infof("Requesting application shutdown after job completion.")
					if err := p.Shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				subject := demoSubject()
				logger.Infof("Starting pipeline for document '%s' (%d bytes)...", subject.FileName, subject.FileSize)

				job, err := p.Runner.Run(p.AppCtx, "", subject)
				if err != nil {
					logger.Errorf("Pipeline run failed: %v", err)
					return
				}

				logger.Infof("Job '%s' finished: status=%s, progress=%d%%, duration=%dms, warnings=%d",
					job.ID, job.Status, job.Progress, job.DurationMS(), len(job.Warnings))
				for _, w := range job.Warnings {
					logger.Warnf("Job '%s' warning: %s", job.ID, w)
				}

				if p.Cfg.Pipeline.Engine.CleanupFinishedJobs {
					p.Orc.Cleanup(job.ID)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

// demoSubject builds the document subject from the environment, with defaults
// suitable for a first run.
func demoSubject() model.SubjectMeta {
	fileName := os.Getenv("PIPELINE_DEMO_FILE")
	if fileName == "" {
		fileName = "sample-invoice.pdf"
	}

	fileSize := int64(64 * 1024)
	if raw := os.Getenv("PIPELINE_DEMO_FILE_SIZE"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			fileSize = parsed
		}
	}

	return model.SubjectMeta{FileName: fileName, FileSize: fileSize}
}
