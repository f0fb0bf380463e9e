package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudbend/stratus/pkg/bucket"
)

var rmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Delete objects",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	b, closer, err := openBucket(bucket.Options{})
	if err != nil {
		return err
	}
	defer closer()

	for _, key := range args {
		res, err := b.Delete(ctx, key)
		if err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		res.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
	}
	return nil
}
