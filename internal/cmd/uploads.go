package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cloudbend/stratus/pkg/bucket"
)

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Manage in-progress multipart uploads",
	Long: `Inspect and clean up multipart uploads that were started but never
completed or aborted. Incomplete uploads hold storage until aborted.`,
}

var uploadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List in-progress multipart uploads",
	Args:  cobra.NoArgs,
	RunE:  runUploadsList,
}

var uploadsAbortCmd = &cobra.Command{
	Use:   "abort <key> <upload-id>",
	Short: "Abort a multipart upload",
	Args:  cobra.ExactArgs(2),
	RunE:  runUploadsAbort,
}

var uploadsListPrefix string

func init() {
	rootCmd.AddCommand(uploadsCmd)
	uploadsCmd.AddCommand(uploadsListCmd, uploadsAbortCmd)

	uploadsListCmd.Flags().StringVar(&uploadsListPrefix, "prefix", "", "Key prefix filter")
}

func runUploadsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	b, closer, err := openBucket(bucket.Options{})
	if err != nil {
		return err
	}
	defer closer()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	keyMarker := ""
	for {
		page, err := b.ListMultipartUploads(ctx, uploadsListPrefix, "", keyMarker, 0)
		if err != nil {
			return err
		}
		for _, up := range page.Uploads {
			fmt.Fprintf(w, "%s\t%s\t%s\n", up.Initiated, up.UploadID, up.Key)
		}
		if !page.IsTruncated || page.NextKeyMarker == "" {
			return nil
		}
		keyMarker = page.NextKeyMarker
	}
}

func runUploadsAbort(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key, uploadID := args[0], args[1]

	b, closer, err := openBucket(bucket.Options{})
	if err != nil {
		return err
	}
	defer closer()

	if err := b.AbortMultipartUpload(ctx, key, uploadID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "aborted %s (%s)\n", key, uploadID)
	return nil
}
