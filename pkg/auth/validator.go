package auth

import (
	"context"
	"crypto/subtle"

	"github.com/beam-cloud/s3meta/pkg/types"
)

// TokenValidator resolves bearer tokens to AuthInfo.
type TokenValidator interface {
	ValidateClusterToken(token string) bool
	ValidateToken(ctx context.Context, token string) (*types.AuthInfo, error)
}

// JWTValidator checks the cluster admin token first, then user JWTs.
type JWTValidator struct {
	clusterToken string
	signer       *TokenSigner
}

func NewJWTValidator(clusterToken string, signer *TokenSigner) *JWTValidator {
	return &JWTValidator{clusterToken: clusterToken, signer: signer}
}

func (v *JWTValidator) ValidateClusterToken(token string) bool {
	return v.clusterToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(v.clusterToken)) == 1
}

func (v *JWTValidator) ValidateToken(ctx context.Context, token string) (*types.AuthInfo, error) {
	user, err := v.signer.Parse(token)
	if err != nil {
		return nil, err
	}
	return &types.AuthInfo{TokenType: types.TokenTypeUser, User: &user}, nil
}
