package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Build information (injected at compile time via ldflags)
var Version = "dev"

const defaultGatewayHTTP = "http://localhost:1994"

var (
	gatewayHTTPAddr string
	authToken       string
)

var rootCmd = &cobra.Command{
	Use:   "s3meta",
	Short: "S3 bucket metadata gateway",
	Long: lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Render("s3meta") + ` - S3 bucket metadata gateway

Builds per-bucket key trees from S3 listings and serves each user the
trees of the buckets their groups may read.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("  %s version %s\n", BrandStyle.Render("s3meta"), Version))

	rootCmd.PersistentFlags().StringVar(&gatewayHTTPAddr, "gateway", getEnv("S3META_GATEWAY", defaultGatewayHTTP), "Gateway HTTP address")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", getEnv("S3META_TOKEN", ""), "Bearer token (user JWT or admin token)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", FormatText, "Output format: text, json or yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(bucketsCmd)
	rootCmd.AddCommand(adminCmd)
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getClient() *Client {
	return NewClient(gatewayHTTPAddr, authToken)
}
