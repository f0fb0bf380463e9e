package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloudbend/stratus/internal/observability"
	"github.com/cloudbend/stratus/pkg/bucket"
	"github.com/cloudbend/stratus/pkg/match"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List objects",
	Long: `List objects in the bucket.

Pagination is handled transparently. With --delimiter, common prefixes are
listed as directory-like entries. Glob filters run client-side; their static
prefix seeds the listing so unrelated keys are not fetched:
  stratus ls --prefix data/2024/
  stratus ls --pattern 'data/**/*.parquet'
  stratus ls --delimiter /`,
	Args: cobra.NoArgs,
	RunE: runLs,
}

var (
	lsPrefix    string
	lsDelimiter string
	lsPatterns  []string
	lsExcludes  []string
	lsLong      bool
)

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().StringVar(&lsPrefix, "prefix", "", "Key prefix filter")
	lsCmd.Flags().StringVarP(&lsDelimiter, "delimiter", "d", "", "Delimiter for common prefixes")
	lsCmd.Flags().StringArrayVar(&lsPatterns, "pattern", nil, "Include glob pattern (repeatable)")
	lsCmd.Flags().StringArrayVar(&lsExcludes, "exclude", nil, "Exclude glob pattern (repeatable)")
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "Show size, modification time and ETag")
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var matcher *match.Matcher
	if len(lsPatterns) > 0 {
		m, err := match.New(match.Config{Includes: lsPatterns, Excludes: lsExcludes})
		if err != nil {
			return err
		}
		matcher = m
		if lsPrefix == "" {
			lsPrefix = m.Prefix()
		}
	} else if len(lsExcludes) > 0 {
		return fmt.Errorf("--exclude requires at least one --pattern")
	}

	b, closer, err := openBucket(bucket.Options{})
	if err != nil {
		return err
	}
	defer closer()

	pages, err := b.List(ctx, lsPrefix, lsDelimiter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	var objects, prefixes int
	for _, page := range pages {
		for _, cp := range page.CommonPrefixes {
			fmt.Fprintf(w, "%s\n", cp.Prefix)
			prefixes++
		}
		for _, obj := range page.Contents {
			if matcher != nil && !matcher.Match(obj.Key) {
				continue
			}
			if lsLong {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", obj.Size, obj.LastModified, obj.ETag, obj.Key)
			} else {
				fmt.Fprintf(w, "%s\n", obj.Key)
			}
			objects++
		}
	}

	observability.CLILogger.Debug("listing complete",
		zap.Int("pages", len(pages)),
		zap.Int("objects", objects),
		zap.Int("common_prefixes", prefixes),
	)
	return nil
}
