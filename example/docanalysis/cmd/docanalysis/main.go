package main

import (
	"context"
	"embed"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "embed"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"go.uber.org/fx"

	"github.com/tenderworks/pipeline/example/docanalysis/internal/app"
	"github.com/tenderworks/pipeline/pkg/pipeline/adapter/database"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

// embeddedConfig embeds the application's YAML configuration file.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// embeddedCatalog embeds the step catalog defining the document workflow.
//
//go:embed resources/catalog.yaml
var embeddedCatalog []byte

// migrationsFS bundles the schema migration scripts into the binary.
//
//go:embed all:resources/migrations
var migrationsFS embed.FS

// getDBProviderOptions selects the DB providers to register from the
// DB_ADAPTERS environment variable, defaulting to all supported dialects.
func getDBProviderOptions() []fx.Option {
	adapters := os.Getenv("DB_ADAPTERS")
	if adapters == "" {
		adapters = "postgres,mysql,sqlite"
	}

	options := make([]fx.Option, 0)
	for _, adapterName := range strings.Split(adapters, ",") {
		adapterName = strings.TrimSpace(adapterName)
		if adapterName == "" {
			continue
		}

		if provider, ok := app.DBProviderMap[adapterName]; ok {
			options = append(options, fx.Provide(fx.Annotate(provider, fx.ResultTags(`group:"`+database.DBProviderGroup+`"`))))
			logger.Debugf("DB provider '%s' selected and registered.", adapterName)
		} else {
			logger.Warnf("DB provider '%s' is configured but not recognized. Skipping.", adapterName)
		}
	}
	return options
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the pipeline...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	app.RunApplication(ctx, envFilePath, embeddedConfig, embeddedCatalog, migrationsFS, getDBProviderOptions())
	os.Exit(0)
}
