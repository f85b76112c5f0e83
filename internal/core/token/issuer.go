package token

import (
	"time"

	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Issuer builds signed access and refresh tokens for a user. It performs no
// I/O and touches no storage.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(codec *Codec, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Issuer{codec: codec, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessToken issues a short-lived token carrying the user's email and role.
func (i *Issuer) AccessToken(u *domain.User) (string, *Claims, error) {
	claims := newAccessClaims(u, i.codec.issuer, i.codec.audience, i.accessTTL, time.Now().UTC())
	signed, err := i.codec.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// RefreshToken issues a longer-lived token carrying only the subject id.
func (i *Issuer) RefreshToken(u *domain.User) (string, *Claims, error) {
	claims := newRefreshClaims(u, i.codec.issuer, i.codec.audience, i.refreshTTL, time.Now().UTC())
	signed, err := i.codec.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// AccessTTL reports the configured access-token lifetime.
func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}
