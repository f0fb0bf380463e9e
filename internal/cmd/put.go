package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloudbend/stratus/internal/observability"
	"github.com/cloudbend/stratus/pkg/bucket"
)

var putCmd = &cobra.Command{
	Use:   "put <file> <key>",
	Short: "Upload a file",
	Long: `Upload a file to the bucket.

Files larger than the chunk size are uploaded as a multipart upload with
chunks streamed concurrently. Use "-" as the file to read from stdin.

Examples:
  stratus put ./report.parquet data/report.parquet
  cat dump.sql | stratus put - backups/dump.sql --content-type application/sql`,
	Args: cobra.ExactArgs(2),
	RunE: runPut,
}

var (
	putContentType string
	putChunkSize   int
	putRateLimit   float64
)

func init() {
	rootCmd.AddCommand(putCmd)

	putCmd.Flags().StringVar(&putContentType, "content-type", "", "Content-Type for the object")
	putCmd.Flags().IntVar(&putChunkSize, "chunk-size", 0, "Multipart chunk size in bytes (default 8 MiB)")
	putCmd.Flags().Float64Var(&putRateLimit, "rate-limit", 0, "Max part uploads per second (0=unlimited)")
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file, key := args[0], args[1]

	b, closer, err := openBucket(bucket.Options{
		ChunkSize: putChunkSize,
		RateLimit: putRateLimit,
	})
	if err != nil {
		return err
	}
	defer closer()

	src := cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open %s: %w", file, err)
		}
		defer func() { _ = f.Close() }()
		src = f
	}

	transferID := uuid.New().String()
	logger := observability.CLILogger.With(
		zap.String("transfer_id", transferID),
		zap.String("key", key),
	)
	logger.Info("upload started")

	start := time.Now()
	var res *bucket.PutStreamResponse
	if putContentType != "" {
		res, err = b.PutStreamWithContentType(ctx, src, key, putContentType)
	} else {
		res, err = b.PutStream(ctx, src, key)
	}
	if err != nil {
		logger.Error("upload failed", zap.Error(err))
		return err
	}

	logger.Info("upload complete",
		zap.Int64("bytes", res.UploadedBytes),
		zap.Int("status", res.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d bytes)\n", key, res.UploadedBytes)
	return nil
}
