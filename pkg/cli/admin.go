package cli

import (
	"fmt"
	"strconv"
	"strings"

	apiv1 "github.com/beam-cloud/s3meta/pkg/api/v1"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Cache and permission administration (admin token)",
}

var adminStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := getClient().Status(cmd.Context())
		if err != nil {
			return err
		}
		if PrintData(status) {
			return nil
		}

		PrintKeyValue("Epoch", strconv.FormatUint(status.Epoch, 10))
		PrintKeyValue("Reload", status.ReloadPeriod)
		PrintKeyValue("User views", strconv.Itoa(status.UserViews))
		PrintKeyValue("Buckets", strings.Join(status.CachedBuckets, ", "))
		return nil
	},
}

var adminClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear metadata caches on every gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := getClient().Clear(cmd.Context())
		if err != nil {
			return err
		}
		if PrintData(resp) {
			return nil
		}
		if resp.ClearCount > 0 {
			PrintSuccessf("Clear requested (#%d)", resp.ClearCount)
		} else {
			PrintSuccess("Clear requested")
		}
		return nil
	},
}

var adminInvalidateCmd = &cobra.Command{
	Use:   "invalidate <user_id>",
	Short: "Drop one user's cached view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getClient().InvalidateUser(cmd.Context(), args[0]); err != nil {
			return err
		}
		PrintSuccessf("Invalidated %s", args[0])
		return nil
	},
}

var adminPermissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Manage bucket grants",
}

var adminPermissionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bucket grants",
	RunE: func(cmd *cobra.Command, args []string) error {
		perms, err := getClient().Permissions(cmd.Context())
		if err != nil {
			return err
		}
		if PrintData(perms) {
			return nil
		}
		for _, p := range perms {
			shareable := ""
			if p.Shareable {
				shareable = DimStyle.Render(" (shareable)")
			}
			PrintBullet(fmt.Sprintf("%s → %s%s", p.Group, p.Bucket, shareable))
		}
		return nil
	},
}

var permissionReq apiv1.PutPermissionRequest

var adminPermissionPutCmd = &cobra.Command{
	Use:   "put <group> <bucket>",
	Short: "Grant a group read access to a bucket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := permissionReq
		req.Group, req.Bucket = args[0], args[1]
		if err := getClient().PutPermission(cmd.Context(), req); err != nil {
			return err
		}
		PrintSuccessf("Granted %s on %s", req.Group, req.Bucket)
		return nil
	},
}

var adminPermissionDeleteCmd = &cobra.Command{
	Use:   "delete <group> <bucket>",
	Short: "Revoke a grant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getClient().DeletePermission(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		PrintSuccessf("Revoked %s on %s", args[0], args[1])
		return nil
	},
}

func init() {
	adminPermissionPutCmd.Flags().StringVar(&permissionReq.AccessId, "access-id", "", "Access key id")
	adminPermissionPutCmd.Flags().StringVar(&permissionReq.AccessKey, "access-key", "", "Secret access key")
	adminPermissionPutCmd.Flags().BoolVar(&permissionReq.Shareable, "shareable", false, "Mark the bucket shareable")

	adminPermissionCmd.AddCommand(adminPermissionListCmd, adminPermissionPutCmd, adminPermissionDeleteCmd)
	adminCmd.AddCommand(adminStatusCmd, adminClearCmd, adminInvalidateCmd, adminPermissionCmd)
}
