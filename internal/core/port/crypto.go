package port

import (
	"time"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
)

// TokenClaims is the identity carried by a session token.
type TokenClaims struct {
	UserID   int64
	Username string
	Role     domain.Role
}

// TokenManager issues and validates session tokens.
type TokenManager interface {
	Issue(user domain.User) (token string, expiresAt time.Time, err error)
	Validate(token string) (*TokenClaims, error)
}
