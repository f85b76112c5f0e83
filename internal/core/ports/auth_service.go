package ports

import (
	"context"

	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

// RegisterInput carries the fields accepted at registration. Role and
// activation state are never caller-controlled.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// TokenPair is returned on login: a short-lived access token plus the
// refresh token used to obtain replacements without re-authenticating.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // access token lifetime, seconds
}

// RefreshResult is the outcome of a refresh-token exchange. Only a new
// access token is issued; the presented refresh token stays valid until its
// own expiry.
type RefreshResult struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
	CurrentUser(ctx context.Context, id string) (*domain.User, error)
}
