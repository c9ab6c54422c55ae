package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var bucketsShareable bool

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Print the bucket trees visible to the token's user",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := getClient().Metadata(cmd.Context())
		if err != nil {
			return err
		}
		if PrintData(result) {
			return nil
		}

		for _, tree := range result.Trees {
			RenderTree(os.Stdout, tree.Name, tree)
			PrintNewline()
		}

		if len(result.Errors) > 0 {
			buckets := make([]string, 0, len(result.Errors))
			for b := range result.Errors {
				buckets = append(buckets, b)
			}
			sort.Strings(buckets)

			PrintWarning(fmt.Sprintf("%d bucket(s) omitted", len(buckets)))
			for _, b := range buckets {
				PrintBullet(fmt.Sprintf("%s: %s", b, result.Errors[b]))
			}
		}
		return nil
	},
}

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "List the buckets the token's user may query",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()

		var buckets []string
		var err error
		if bucketsShareable {
			buckets, err = client.ShareableBuckets(cmd.Context())
		} else {
			buckets, err = client.Buckets(cmd.Context())
		}
		if err != nil {
			return err
		}
		if PrintData(buckets) {
			return nil
		}

		if len(buckets) == 0 {
			PrintWarning("No buckets")
			return nil
		}
		for _, b := range buckets {
			PrintBullet(b)
		}
		return nil
	},
}

func init() {
	bucketsCmd.Flags().BoolVar(&bucketsShareable, "shareable", false, "List shareable buckets only")
}
