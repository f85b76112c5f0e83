package ports

import (
	"context"
	"time"
)

// TokenDenylist records revoked token ids until their natural expiry. It is
// an optional collaborator: without one, logout is purely client-side token
// discard and a stolen token stays valid until it expires.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
