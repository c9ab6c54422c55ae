package cli

import (
	"github.com/beam-cloud/s3meta/pkg/common"
	"github.com/beam-cloud/s3meta/pkg/gateway"
	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/spf13/cobra"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			cm  *common.ConfigManager[types.AppConfig]
			err error
		)
		if serveConfigPath != "" {
			cm, err = common.NewConfigManagerFromPath[types.AppConfig](serveConfigPath)
		} else {
			cm, err = common.NewConfigManager[types.AppConfig]()
		}
		if err != nil {
			return err
		}

		gw, err := gateway.NewGatewayWithConfig(cm)
		if err != nil {
			return err
		}
		return gw.Start()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Config file (defaults to $CONFIG_PATH)")
}
