package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudbend/stratus/pkg/bucket"
)

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Show the bucket's region",
	Args:  cobra.NoArgs,
	RunE:  runLocation,
}

func init() {
	rootCmd.AddCommand(locationCmd)
}

func runLocation(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	b, closer, err := openBucket(bucket.Options{})
	if err != nil {
		return err
	}
	defer closer()

	loc, err := b.Location(ctx)
	if err != nil {
		return err
	}
	// An empty LocationConstraint means us-east-1.
	if loc == "" {
		loc = "us-east-1"
	}
	fmt.Fprintln(cmd.OutOrStdout(), loc)
	return nil
}
