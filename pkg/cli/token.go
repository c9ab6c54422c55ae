package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/beam-cloud/s3meta/pkg/auth"
	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/spf13/cobra"
)

var (
	tokenGroups  []string
	tokenSecret  string
	tokenExpires time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <user_id>",
	Short: "Sign a user token",
	Long: `Sign a user token with the gateway's JWT secret. The token carries the
user id and the groups used for permission lookups.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenSecret == "" {
			return fmt.Errorf("a signing secret is required (--secret or S3META_JWT_SECRET)")
		}

		user := types.UserIdentity{UserId: args[0], Groups: tokenGroups}
		token, err := auth.NewTokenSigner(tokenSecret).Issue(user, tokenExpires)
		if err != nil {
			return err
		}

		if PrintData(map[string]any{"token": token, "user_id": user.UserId, "groups": user.Groups}) {
			return nil
		}

		PrintSuccess("Token signed")
		PrintNewline()
		fmt.Printf("  %s\n", CodeStyle.Render(token))
		PrintNewline()
		PrintKeyValue("User", user.UserId)
		PrintKeyValue("Groups", strings.Join(user.Groups, ", "))
		PrintKeyValue("Expires", time.Now().Add(tokenExpires).Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringSliceVar(&tokenGroups, "groups", nil, "Groups, comma separated")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", os.Getenv("S3META_JWT_SECRET"), "JWT signing secret")
	tokenCmd.Flags().DurationVar(&tokenExpires, "expires", auth.DefaultTokenTTL, "Token lifetime")
}
