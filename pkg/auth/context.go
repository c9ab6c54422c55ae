package auth

import (
	"context"
	"errors"

	"github.com/beam-cloud/s3meta/pkg/types"
)

type ctxKey int

const authInfoKey ctxKey = iota

var (
	ErrAuthRequired  = errors.New("authentication required")
	ErrAdminRequired = errors.New("admin access required")
	ErrUserRequired  = errors.New("user token required")
)

// --- Context get/set ---

func WithAuthInfo(ctx context.Context, info *types.AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey, info)
}

func AuthInfoFromContext(ctx context.Context) *types.AuthInfo {
	info, _ := ctx.Value(authInfoKey).(*types.AuthInfo)
	return info
}

// --- Authorization checks ---

func RequireAuth(ctx context.Context) error {
	if AuthInfoFromContext(ctx) == nil {
		return ErrAuthRequired
	}
	return nil
}

func RequireClusterAdmin(ctx context.Context) error {
	if i := AuthInfoFromContext(ctx); i == nil || !i.IsClusterAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// RequireUser returns the caller's identity. Metadata is always served for a
// concrete user, so admin tokens do not pass.
func RequireUser(ctx context.Context) (types.UserIdentity, error) {
	i := AuthInfoFromContext(ctx)
	if i == nil {
		return types.UserIdentity{}, ErrAuthRequired
	}
	if !i.IsUser() {
		return types.UserIdentity{}, ErrUserRequired
	}
	return *i.User, nil
}

// --- Field accessors ---

func UserId(ctx context.Context) string {
	if i := AuthInfoFromContext(ctx); i.IsUser() {
		return i.User.UserId
	}
	return ""
}
