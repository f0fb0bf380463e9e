// Package config loads the endpoint binding for the CLI: endpoint URL,
// bucket, region, credentials and addressing flags. The client core treats
// this as an external collaborator and never re-validates what it receives.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config is the fully resolved CLI configuration.
type Config struct {
	// Endpoint is the S3-compatible endpoint URL (scheme://host[:port]).
	Endpoint string `mapstructure:"endpoint"`

	// Bucket is the bucket name.
	Bucket string `mapstructure:"bucket"`

	// Region is the SigV4 signing region.
	Region string `mapstructure:"region"`

	// AccessKeyID and SecretAccessKey are the credential pair.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// PathStyle selects path-style addressing (bucket in the path instead
	// of the subdomain). Required for most self-hosted stores.
	PathStyle bool `mapstructure:"path_style"`

	// LegacyList switches listing to the v1 ListObjects operation.
	LegacyList bool `mapstructure:"legacy_list"`

	// InsecureTLS disables certificate verification. Explicit opt-in only.
	InsecureTLS bool `mapstructure:"insecure_tls"`

	// ChunkSize overrides the multipart chunk size in bytes. Zero keeps the
	// client default (8 MiB).
	ChunkSize int `mapstructure:"chunk_size"`
}

// Load resolves configuration from an optional YAML file and S3_* environment
// variables (S3_ENDPOINT, S3_BUCKET, S3_REGION, S3_ACCESS_KEY_ID,
// S3_SECRET_ACCESS_KEY, S3_PATH_STYLE, S3_LEGACY_LIST, S3_INSECURE_TLS,
// S3_CHUNK_SIZE). Environment wins over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Every key needs a default registered so AutomaticEnv picks up
	// env-only values during Unmarshal.
	v.SetDefault("endpoint", "")
	v.SetDefault("bucket", "")
	v.SetDefault("region", "us-east-1")
	v.SetDefault("access_key_id", "")
	v.SetDefault("secret_access_key", "")
	v.SetDefault("path_style", false)
	v.SetDefault("legacy_list", false)
	v.SetDefault("insecure_tls", false)
	v.SetDefault("chunk_size", 0)

	v.SetEnvPrefix("S3")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	// Validation is the caller's job: flag overrides may still fill in
	// required fields after loading.
	return &cfg, nil
}

// Validate checks that the required fields are present.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return &Error{Field: "endpoint", Message: "endpoint URL is required (S3_ENDPOINT)"}
	}
	if c.Bucket == "" {
		return &Error{Field: "bucket", Message: "bucket name is required (S3_BUCKET)"}
	}
	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return &Error{
			Field:   "access_key_id/secret_access_key",
			Message: "both access key ID and secret access key must be provided together",
		}
	}
	return nil
}

// Error is a configuration validation failure.
type Error struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "config: " + e.Field + ": " + e.Message
}
