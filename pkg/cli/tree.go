package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/beam-cloud/s3meta/pkg/clients"
	"github.com/beam-cloud/s3meta/pkg/metadata"
	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/spf13/cobra"
)

var (
	treeAccessId       string
	treeAccessKey      string
	treeEndpoint       string
	treeRegion         string
	treeForcePathStyle bool
	treePageSize       int32
	treeTimeout        time.Duration
)

var treeCmd = &cobra.Command{
	Use:   "tree <bucket>",
	Short: "List a bucket directly and print its key tree",
	Long: `List every object in a bucket with the given credentials and print the
resulting tree. Runs without a gateway.`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVar(&treeAccessId, "access-id", os.Getenv("AWS_ACCESS_KEY_ID"), "Access key id")
	treeCmd.Flags().StringVar(&treeAccessKey, "access-key", os.Getenv("AWS_SECRET_ACCESS_KEY"), "Secret access key")
	treeCmd.Flags().StringVar(&treeEndpoint, "endpoint", "", "S3-compatible endpoint URL")
	treeCmd.Flags().StringVar(&treeRegion, "region", getEnv("AWS_REGION", "us-east-1"), "Region")
	treeCmd.Flags().BoolVar(&treeForcePathStyle, "path-style", false, "Use path-style addressing")
	treeCmd.Flags().Int32Var(&treePageSize, "page-size", types.DefaultListPageSize, "Keys per list request")
	treeCmd.Flags().DurationVar(&treeTimeout, "timeout", 5*time.Minute, "Overall timeout")
}

func runTree(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), treeTimeout)
	defer cancel()

	cfg := types.MetadataConfig{
		Endpoint:       treeEndpoint,
		Region:         treeRegion,
		ForcePathStyle: treeForcePathStyle,
		ListPageSize:   treePageSize,
	}.WithDefaults()

	client, err := clients.NewS3BucketClient(ctx, cfg, types.BucketPermission{
		Bucket:    args[0],
		AccessId:  treeAccessId,
		AccessKey: treeAccessKey,
	})
	if err != nil {
		return err
	}

	tree, err := metadata.BuildBucketTree(ctx, client, cfg.ListTimeout)
	if err != nil {
		return err
	}

	if PrintData(tree) {
		return nil
	}

	RenderTree(os.Stdout, args[0], tree)
	PrintNewline()
	fmt.Println(DimStyle.Render(treeSummary(tree)))
	return nil
}
