package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

// Type discriminates access tokens from refresh tokens. Every consumer must
// check it: an access-token consumer rejects refresh-typed tokens and vice
// versa.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims is the payload embedded in every token issued by this service.
// Claims are immutable once issued; re-issuing always builds a new instance.
type Claims struct {
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType Type   `json:"token_type"`
	jwt.RegisteredClaims
}

// SubjectID returns the user id the token was issued for.
func (c *Claims) SubjectID() string {
	return c.Subject
}

// ExpiresIn returns the remaining lifetime of the token, zero if already
// elapsed or no expiry is set.
func (c *Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	d := c.ExpiresAt.Time.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func newAccessClaims(u *domain.User, issuer, audience string, ttl time.Duration, now time.Time) *Claims {
	return &Claims{
		Email:     u.Email,
		Role:      u.Role,
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
}

// Refresh claims deliberately carry no email or role: the refresh flow looks
// the live user up by subject and re-reads both from the current record.
func newRefreshClaims(u *domain.User, issuer, audience string, ttl time.Duration, now time.Time) *Claims {
	return &Claims{
		TokenType: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
}
