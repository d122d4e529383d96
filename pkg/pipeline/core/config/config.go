package config

// Package config provides structures and utilities for managing application configuration.

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
// This is used when loading configuration from an embedded source (e.g., a compiled binary).
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelTrace  LogLevel = "TRACE"
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelFatal  LogLevel = "FATAL"
	LogLevelSilent LogLevel = "SILENT"
)

// EngineConfig holds configuration specific to the pipeline engine.
type EngineConfig struct {
	// StepExecutorRef is the reference name of the step executor implementation
	// the application wires in (e.g., "documentExecutor").
	StepExecutorRef string `yaml:"step_executor_ref"`
	// CleanupFinishedJobs removes terminal jobs from the in-memory store once
	// their completion has been reported.
	CleanupFinishedJobs bool `yaml:"cleanup_finished_jobs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG", "TRACE").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC", "Asia/Tokyo").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// InfrastructureConfig holds logical dependency settings for infrastructure components.
type InfrastructureConfig struct {
	// RecordRepositoryDBRef is the name of the database connection used by the
	// durable record repository (e.g., "metadata").
	RecordRepositoryDBRef string `yaml:"record_repository_db_ref"`
}

// TelemetryConfig holds OpenTelemetry exporter settings.
type TelemetryConfig struct {
	// Enabled switches OTLP export on; when false the no-op recorder is used.
	Enabled bool `yaml:"enabled"`
	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `yaml:"endpoint"`
	// Protocol selects the OTLP transport, "http" or "grpc".
	Protocol string `yaml:"protocol"`
	// ServiceName is reported as the OTel service.name resource attribute.
	ServiceName string `yaml:"service_name"`
	// Insecure disables TLS on the exporter connection.
	Insecure bool `yaml:"insecure"`
}

// ArchiveConfig holds settings for the job summary archiver.
type ArchiveConfig struct {
	// Enabled switches archiving of finished jobs on.
	Enabled bool `yaml:"enabled"`
	// StorageRef is the name of the storage connection the archiver writes to.
	StorageRef string `yaml:"storage_ref"`
	// Prefix is prepended to every archive object name.
	Prefix string `yaml:"prefix"`
}

// PipelineConfig holds all configuration under the "pipeline" top-level key.
type PipelineConfig struct {
	// Engine contains pipeline engine specific configurations.
	Engine EngineConfig `yaml:"engine"`
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Infrastructure contains infrastructure-related configurations.
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	// Telemetry contains OpenTelemetry exporter configurations.
	Telemetry TelemetryConfig `yaml:"telemetry"`
	// Archive contains job summary archiver configurations.
	Archive ArchiveConfig `yaml:"archive"`
	// AdaptorConfigs holds configurations for database connections, keyed by
	// connection name.
	AdaptorConfigs map[string]interface{} `yaml:"database"`
	// StorageConfigs holds configurations for storage connections, keyed by
	// connection name.
	StorageConfigs map[string]interface{} `yaml:"storage"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	// Pipeline contains the top-level configuration for the pipeline engine.
	Pipeline PipelineConfig `yaml:"pipeline"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	cfg := &Config{
		Pipeline: PipelineConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Engine: EngineConfig{
				StepExecutorRef:     "documentExecutor",
				CleanupFinishedJobs: false,
			},
			Infrastructure: InfrastructureConfig{
				RecordRepositoryDBRef: "metadata",
			},
			Telemetry: TelemetryConfig{
				Enabled:     false,
				Protocol:    "http",
				ServiceName: "pipeline",
			},
			Archive: ArchiveConfig{
				Enabled:    false,
				StorageRef: "archive",
				Prefix:     "jobs",
			},
		},
	}

	// Populated by YAML or environment variables.
	cfg.Pipeline.AdaptorConfigs = map[string]interface{}{}
	cfg.Pipeline.StorageConfigs = map[string]interface{}{}
	return cfg
}
