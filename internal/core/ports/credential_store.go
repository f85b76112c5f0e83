package ports

import (
	"context"
	"time"

	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

// CredentialStore is the persistence boundary for user identities. Lookups
// return domain.ErrUserNotFound when no identity matches; Create returns
// domain.ErrEmailExists or domain.ErrUsernameExists on uniqueness conflicts.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	RecordLogin(ctx context.Context, id string, at time.Time) error
}
