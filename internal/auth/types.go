package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prn-tf/marquee/internal/domain"
)

// Claims is the token payload. The subject is the manager id.
type Claims struct {
	jwt.RegisteredClaims

	Username    string      `json:"username"`
	DisplayName string      `json:"displayName,omitempty"`
	Email       string      `json:"email,omitempty"`
	Role        domain.Role `json:"role"`
}

// Principal converts the claims back into the identity they were issued for.
func (c *Claims) Principal() (*domain.Principal, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, domain.ErrInvalidToken
	}
	if !c.Role.IsValid() {
		return nil, domain.ErrInvalidToken
	}

	return &domain.Principal{
		ID:          id,
		Username:    c.Username,
		DisplayName: c.DisplayName,
		Email:       c.Email,
		Role:        c.Role,
	}, nil
}

// IssuedToken is a signed token with its expiry.
type IssuedToken struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}
