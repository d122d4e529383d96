package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(""))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Pipeline.System.Logging.Level)
	assert.Equal(t, "UTC", cfg.Pipeline.System.Timezone)
	assert.Equal(t, "metadata", cfg.Pipeline.Infrastructure.RecordRepositoryDBRef)
	assert.Equal(t, "documentExecutor", cfg.Pipeline.Engine.StepExecutorRef)
	assert.False(t, cfg.Pipeline.Telemetry.Enabled)
}

func TestLoadConfigMergesYAML(t *testing.T) {
	yamlContent := `
pipeline:
  system:
    logging:
      level: DEBUG
  infrastructure:
    record_repository_db_ref: primary
  telemetry:
    enabled: true
    endpoint: localhost:4318
    protocol: http
  database:
    primary:
      type: postgres
      host: localhost
`
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(yamlContent))
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Pipeline.System.Logging.Level)
	// Untouched defaults survive the merge.
	assert.Equal(t, "UTC", cfg.Pipeline.System.Timezone)
	assert.Equal(t, "primary", cfg.Pipeline.Infrastructure.RecordRepositoryDBRef)
	assert.True(t, cfg.Pipeline.Telemetry.Enabled)
	assert.Equal(t, "localhost:4318", cfg.Pipeline.Telemetry.Endpoint)
	require.Contains(t, cfg.Pipeline.AdaptorConfigs, "primary")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_SYSTEM_LOGGING_LEVEL", "WARN")
	t.Setenv("PIPELINE_TELEMETRY_ENDPOINT", "collector:4317")

	cfg, err := config.LoadConfig("", config.EmbeddedConfig("pipeline:\n  system:\n    logging:\n      level: DEBUG\n"))
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Pipeline.System.Logging.Level, "environment wins over YAML")
	assert.Equal(t, "collector:4317", cfg.Pipeline.Telemetry.Endpoint)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	_, err := config.LoadConfig("", config.EmbeddedConfig("pipeline: [unclosed"))
	assert.Error(t, err)
}
