package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloudbend/stratus/internal/observability"
	"github.com/cloudbend/stratus/pkg/bucket"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Download an object",
	Long: `Download an object to stdout or a file.

A byte range may be requested with --range. The range is inclusive on both
ends; an open-ended range omits the end:
  stratus get data/big.bin --range 0-1023
  stratus get data/big.bin --range 4096-`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var (
	getOut   string
	getRange string
)

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&getOut, "out", "o", "", "Write to file instead of stdout")
	getCmd.Flags().StringVar(&getRange, "range", "", "Byte range start-end (end optional, inclusive)")
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key := args[0]

	b, closer, err := openBucket(bucket.Options{})
	if err != nil {
		return err
	}
	defer closer()

	var res *bucket.Response
	if getRange != "" {
		start, end, err := parseByteRange(getRange)
		if err != nil {
			return err
		}
		res, err = b.GetRange(ctx, key, start, end)
		if err != nil {
			return err
		}
	} else {
		res, err = b.Get(ctx, key)
		if err != nil {
			return err
		}
	}
	defer res.Close()

	dst := cmd.OutOrStdout()
	if getOut != "" {
		f, err := os.Create(getOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", getOut, err)
		}
		defer func() { _ = f.Close() }()
		dst = f
	}

	n, err := io.Copy(dst, res.Body)
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}

	observability.CLILogger.Debug("object downloaded",
		zap.String("key", key),
		zap.Int64("bytes", n),
		zap.Int("status", res.StatusCode),
	)
	return nil
}

// parseByteRange parses "start-end" or "start-" into an inclusive range.
func parseByteRange(s string) (uint64, *uint64, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, nil, fmt.Errorf("range %q: expected start-end", s)
	}
	start, err := strconv.ParseUint(startStr, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("range %q: bad start: %w", s, err)
	}
	if endStr == "" {
		return start, nil, nil
	}
	end, err := strconv.ParseUint(endStr, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("range %q: bad end: %w", s, err)
	}
	if start >= end {
		return 0, nil, fmt.Errorf("range %q: start must be below end", s)
	}
	return start, &end, nil
}
