package cmd

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudbend/stratus/pkg/bucket"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage object tags",
}

var tagGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show the tag set of an object",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagGet,
}

var tagSetCmd = &cobra.Command{
	Use:   "set <key> <name=value>...",
	Short: "Replace the tag set of an object",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTagSet,
}

var tagRmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Remove all tags from an object",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagRm,
}

func init() {
	rootCmd.AddCommand(tagCmd)
	tagCmd.AddCommand(tagGetCmd, tagSetCmd, tagRmCmd)
}

func runTagGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	b, closer, err := openBucket(bucket.Options{})
	if err != nil {
		return err
	}
	defer closer()

	res, err := b.GetTagging(ctx, args[0])
	if err != nil {
		return err
	}
	body, err := res.Bytes()
	if err != nil {
		return err
	}

	var doc taggingDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode tagging for %s: %w", args[0], err)
	}
	for _, tag := range doc.TagSet {
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", tag.Key, tag.Value)
	}
	return nil
}

func runTagSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key := args[0]

	doc := taggingDoc{}
	for _, pair := range args[1:] {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return fmt.Errorf("tag %q: expected name=value", pair)
		}
		doc.TagSet = append(doc.TagSet, objectTag{Key: name, Value: value})
	}
	payload, err := xml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode tag set: %w", err)
	}

	b, closer, err := openBucket(bucket.Options{})
	if err != nil {
		return err
	}
	defer closer()

	res, err := b.PutTagging(ctx, key, string(payload))
	if err != nil {
		return err
	}
	res.Close()
	fmt.Fprintf(cmd.OutOrStdout(), "tagged %s (%d tags)\n", key, len(doc.TagSet))
	return nil
}

func runTagRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	b, closer, err := openBucket(bucket.Options{})
	if err != nil {
		return err
	}
	defer closer()

	res, err := b.DeleteTagging(ctx, args[0])
	if err != nil {
		return err
	}
	res.Close()
	fmt.Fprintf(cmd.OutOrStdout(), "untagged %s\n", args[0])
	return nil
}

type objectTag struct {
	Key   string `xml:"Key"`
	Value string `xml:"Value"`
}

type taggingDoc struct {
	XMLName xml.Name    `xml:"Tagging"`
	TagSet  []objectTag `xml:"TagSet>Tag"`
}
