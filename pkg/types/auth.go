package types

// TokenType represents the type of authentication token.
type TokenType string

const (
	TokenTypeClusterAdmin TokenType = "cluster_admin"
	TokenTypeUser         TokenType = "user"
)

// AuthInfo contains identity information for authenticated requests.
type AuthInfo struct {
	TokenType TokenType
	User      *UserIdentity
}

func (a *AuthInfo) IsClusterAdmin() bool {
	return a != nil && a.TokenType == TokenTypeClusterAdmin
}

func (a *AuthInfo) IsUser() bool {
	return a != nil && a.TokenType == TokenTypeUser && a.User != nil && a.User.UserId != ""
}
