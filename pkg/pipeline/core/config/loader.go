package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/exception"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"

	"go.uber.org/fx"
)

// Package config provides utilities for loading and managing application configuration
// from YAML files and environment variables.

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string `name:"envFilePath" optional:"true"`
}

// loadConfig loads configuration in three layers: built-in defaults, the
// embedded YAML, and finally environment variable overrides.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	var yamlConfig Config
	if err := yaml.Unmarshal(embeddedConfig, &yamlConfig); err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to unmarshal embedded config", err, false)
	}

	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to load config from environment variables", err, false)
	}
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It also applies the configured log level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Pipeline.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Pipeline.System.Logging.Level)

	return cfg, nil
}

// LoadConfig loads configuration from configuration files and environment variables.
// This function is expected to be called only once during application startup.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig)
}

// mergeConfig performs a deep merge from sourceConfig into destConfig.
// Values in sourceConfig overwrite corresponding values in destConfig
// when they are not zero values for their type.
func mergeConfig(destConfig, sourceConfig *Config) {
	mergePipelineConfig(&destConfig.Pipeline, &sourceConfig.Pipeline)
}

// mergePipelineConfig merges source into dest.
func mergePipelineConfig(dest, source *PipelineConfig) {
	if source.Engine.StepExecutorRef != "" {
		dest.Engine.StepExecutorRef = source.Engine.StepExecutorRef
	}
	if source.Engine.CleanupFinishedJobs {
		dest.Engine.CleanupFinishedJobs = true
	}

	mergeSystemConfig(&dest.System, &source.System)

	if source.Infrastructure.RecordRepositoryDBRef != "" {
		dest.Infrastructure.RecordRepositoryDBRef = source.Infrastructure.RecordRepositoryDBRef
	}

	mergeTelemetryConfig(&dest.Telemetry, &source.Telemetry)
	mergeArchiveConfig(&dest.Archive, &source.Archive)

	if source.AdaptorConfigs != nil {
		if dest.AdaptorConfigs == nil {
			dest.AdaptorConfigs = make(map[string]interface{})
		}
		for key, value := range source.AdaptorConfigs {
			dest.AdaptorConfigs[key] = value
		}
	}
	if source.StorageConfigs != nil {
		if dest.StorageConfigs == nil {
			dest.StorageConfigs = make(map[string]interface{})
		}
		for key, value := range source.StorageConfigs {
			dest.StorageConfigs[key] = value
		}
	}
}

// mergeSystemConfig merges source into dest.
func mergeSystemConfig(dest, source *SystemConfig) {
	if source.Timezone != "" {
		dest.Timezone = source.Timezone
	}
	if source.Logging.Level != "" {
		dest.Logging.Level = source.Logging.Level
	}
}

// mergeTelemetryConfig merges source into dest.
func mergeTelemetryConfig(dest, source *TelemetryConfig) {
	if source.Enabled {
		dest.Enabled = true
	}
	if source.Endpoint != "" {
		dest.Endpoint = source.Endpoint
	}
	if source.Protocol != "" {
		dest.Protocol = source.Protocol
	}
	if source.ServiceName != "" {
		dest.ServiceName = source.ServiceName
	}
	if source.Insecure {
		dest.Insecure = true
	}
}

// mergeArchiveConfig merges source into dest.
func mergeArchiveConfig(dest, source *ArchiveConfig) {
	if source.Enabled {
		dest.Enabled = true
	}
	if source.StorageRef != "" {
		dest.StorageRef = source.StorageRef
	}
	if source.Prefix != "" {
		dest.Prefix = source.Prefix
	}
}

// loadStructFromEnv recursively loads configuration values into a struct from
// environment variables, using the "yaml" tag to derive the variable name.
// Example: pipeline.system.logging.level -> PIPELINE_SYSTEM_LOGGING_LEVEL.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists && field.Kind() != reflect.Map {
			continue
		}

		if field.Kind() == reflect.Map && field.Type().Key().Kind() == reflect.String {
			// Connection maps pick up nested variables, e.g.
			// PIPELINE_DATABASE_METADATA_HOST=localhost.
			if err := loadConnectionMapFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// loadConnectionMapFromEnv loads map[string]interface{} connection settings
// from environment variables. The first underscore-delimited token after the
// prefix is the connection name, the rest is the (lowercased) setting key.
func loadConnectionMapFromEnv(mapField reflect.Value, prefix string) error {
	if mapField.IsNil() {
		mapField.Set(reflect.MakeMap(mapField.Type()))
	}

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}

		parts := strings.SplitN(strings.TrimPrefix(env, prefix), "=", 2)
		if len(parts) != 2 {
			continue
		}
		keyAndField := parts[0]
		envValue := parts[1]

		keyAndFieldParts := strings.SplitN(keyAndField, "_", 2)
		if len(keyAndFieldParts) < 2 {
			continue
		}
		connName := strings.ToLower(keyAndFieldParts[0])
		settingKey := strings.ToLower(keyAndFieldParts[1])

		entry := make(map[string]interface{})
		if existing := mapField.MapIndex(reflect.ValueOf(connName)); existing.IsValid() {
			if m, ok := existing.Interface().(map[string]interface{}); ok && m != nil {
				entry = m
			}
		}
		entry[settingKey] = envValue
		mapField.SetMapIndex(reflect.ValueOf(connName), reflect.ValueOf(entry))
	}
	return nil
}

// setField sets a reflect.Value from its string representation.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
