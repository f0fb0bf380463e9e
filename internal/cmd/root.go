// Package cmd implements the stratus CLI.
package cmd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloudbend/stratus/internal/config"
	"github.com/cloudbend/stratus/internal/observability"
	"github.com/cloudbend/stratus/pkg/bucket"
	"github.com/cloudbend/stratus/pkg/credentials"
	"github.com/cloudbend/stratus/pkg/transport"
)

var rootCmd = &cobra.Command{
	Use:   "stratus",
	Short: "S3-compatible object store client",
	Long: `stratus talks to any S3-compatible object store over its REST API.

Connection settings come from a config file (--config), S3_* environment
variables, or flags. Flags win over the environment, which wins over the
file. The secret access key is never printed.

Examples:
  stratus ls --prefix data/ --delimiter /
  stratus put ./report.parquet data/report.parquet
  stratus get data/report.parquet --out ./report.parquet
  stratus rm data/report.parquet`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return observability.Init(rootLogLevel, rootJSONLogs)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		observability.Sync()
	},
}

var (
	rootConfigFile string
	rootLogLevel   string
	rootJSONLogs   bool

	rootEndpoint string
	rootBucket   string
	rootRegion   string
)

// versionInfo holds build-time version metadata.
var versionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigFile, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&rootJSONLogs, "json-logs", false, "Emit structured JSON logs")

	rootCmd.PersistentFlags().StringVar(&rootEndpoint, "endpoint", "", "Endpoint URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&rootBucket, "bucket", "", "Bucket name (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&rootRegion, "region", "r", "", "Signing region (overrides config)")
}

// SetVersionInfo records build metadata injected via ldflags.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate)
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig resolves the effective configuration with flag overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootConfigFile)
	if err != nil {
		return nil, err
	}
	if rootEndpoint != "" {
		cfg.Endpoint = rootEndpoint
	}
	if rootBucket != "" {
		cfg.Bucket = rootBucket
	}
	if rootRegion != "" {
		cfg.Region = rootRegion
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openBucket builds the transport client and bucket handle from configuration.
// The returned closer releases idle connections.
func openBucket(opts bucket.Options) (*bucket.Bucket, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("parse endpoint %q: %w", cfg.Endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, nil, fmt.Errorf("endpoint %q must include scheme and host", cfg.Endpoint)
	}

	client := transport.New(transport.Options{InsecureSkipTLSVerify: cfg.InsecureTLS})

	opts.PathStyle = cfg.PathStyle
	opts.UseLegacyList = cfg.LegacyList
	if opts.ChunkSize == 0 {
		opts.ChunkSize = cfg.ChunkSize
	}
	opts.Logger = observability.CLILogger

	creds := credentials.New(cfg.AccessKeyID, cfg.SecretAccessKey)
	b, err := bucket.New(client, cfg.Endpoint, cfg.Bucket, credentials.NewRegion(cfg.Region), creds, opts)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	observability.CLILogger.Debug("bucket handle ready",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket),
		zap.String("region", cfg.Region),
		zap.Bool("path_style", cfg.PathStyle),
	)

	return b, client.Close, nil
}
