package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cloudbend/stratus/pkg/bucket"
)

var headCmd = &cobra.Command{
	Use:   "head <key>",
	Short: "Show object metadata",
	Long: `Fetch object metadata without downloading the content.

Prints size, content type, ETag, modification time and any x-amz-meta-*
user metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: runHead,
}

func init() {
	rootCmd.AddCommand(headCmd)
}

func runHead(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key := args[0]

	b, closer, err := openBucket(bucket.Options{})
	if err != nil {
		return err
	}
	defer closer()

	res, err := b.Head(ctx, key)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "Key\t%s\n", key)
	fmt.Fprintf(w, "Size\t%d\n", res.ContentLength)
	fmt.Fprintf(w, "Content-Type\t%s\n", res.ContentType)
	fmt.Fprintf(w, "ETag\t%s\n", res.ETag)
	fmt.Fprintf(w, "Last-Modified\t%s\n", res.LastModified)
	if res.StorageClass != "" {
		fmt.Fprintf(w, "Storage-Class\t%s\n", res.StorageClass)
	}

	keys := make([]string, 0, len(res.Metadata))
	for k := range res.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "Meta-%s\t%s\n", k, res.Metadata[k])
	}
	return nil
}
