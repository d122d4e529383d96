package config

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	Type            string `yaml:"type" mapstructure:"type"`                         // Type of storage (e.g., "gcs", "local").
	BucketName      string `yaml:"bucket_name" mapstructure:"bucket_name"`           // Default bucket name for operations.
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"` // Path to a credentials file (e.g., a service account key for GCS).
	BaseDir         string `yaml:"base_dir" mapstructure:"base_dir"`                 // Base directory for local file system operations.
}
