package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudbend/stratus/pkg/bucket"
)

var cpCmd = &cobra.Command{
	Use:   "cp <src-key> <dst-key>",
	Short: "Copy an object server-side",
	Long: `Copy an object without downloading it.

Both keys live in the configured bucket unless --from-bucket names a
different source bucket on the same endpoint.`,
	Args: cobra.ExactArgs(2),
	RunE: runCp,
}

var cpFromBucket string

func init() {
	rootCmd.AddCommand(cpCmd)

	cpCmd.Flags().StringVar(&cpFromBucket, "from-bucket", "", "Source bucket (default: configured bucket)")
}

func runCp(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	src, dst := args[0], args[1]

	b, closer, err := openBucket(bucket.Options{})
	if err != nil {
		return err
	}
	defer closer()

	var status int
	if cpFromBucket != "" {
		status, err = b.CopyInternalFrom(ctx, cpFromBucket, src, dst)
	} else {
		status, err = b.CopyInternal(ctx, src, dst)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "copied %s -> %s (status %d)\n", src, dst, status)
	return nil
}
