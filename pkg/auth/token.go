package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer     = "s3meta"
	DefaultTokenTTL = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries a user identity. The subject is the user id.
type Claims struct {
	Groups []string `json:"groups"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies HS256 user tokens.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner returns a signer for secret. With an empty secret a random
// key is generated and tokens do not survive a restart.
func NewTokenSigner(secret string) *TokenSigner {
	if secret == "" {
		secret = rand.Text()
	}
	return &TokenSigner{secret: []byte(secret)}
}

// Issue signs a token for user that expires after ttl.
func (s *TokenSigner) Issue(user types.UserIdentity, ttl time.Duration) (string, error) {
	if user.UserId == "" {
		return "", fmt.Errorf("%w: empty user id", ErrInvalidToken)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	claims := Claims{
		Groups: user.Groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserId,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies tokenStr and returns the identity it carries.
func (s *TokenSigner) Parse(tokenStr string) (types.UserIdentity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return types.UserIdentity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return types.UserIdentity{}, ErrInvalidToken
	}
	return types.UserIdentity{UserId: claims.Subject, Groups: claims.Groups}, nil
}
