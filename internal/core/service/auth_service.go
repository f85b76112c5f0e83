package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/aurora-ai/aurora-api/internal/api/metrics"
	"github.com/aurora-ai/aurora-api/internal/core/domain"
	"github.com/aurora-ai/aurora-api/internal/core/ports"
	"github.com/aurora-ai/aurora-api/internal/core/token"
)

// Matches the original service's bcrypt work factor.
const passwordHashCost = 12

// AuthService implements registration, login, token refresh and current-user
// lookup. It holds no mutable state of its own; everything lives behind the
// CredentialStore.
type AuthService struct {
	store  ports.CredentialStore
	issuer *token.Issuer
	codec  *token.Codec
	log    zerolog.Logger
}

func NewAuthService(store ports.CredentialStore, codec *token.Codec, issuer *token.Issuer, log zerolog.Logger) *AuthService {
	return &AuthService{store: store, issuer: issuer, codec: codec, log: log}
}

func defaultPreferences() map[string]any {
	return map[string]any{
		"theme":         "dark",
		"language":      "zh-CN",
		"notifications": true,
		"privacy":       "standard",
	}
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	if _, err := s.store.FindByEmail(ctx, input.Email); err == nil {
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("check email: %w", err)
	}

	if _, err := s.store.FindByUsername(ctx, input.Username); err == nil {
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return nil, domain.ErrUsernameExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), passwordHashCost)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         domain.RoleUser,
		IsActive:     true,
		IsVerified:   false,
		Preferences:  defaultPreferences(),
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.store.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrEmailExists) || errors.Is(err, domain.ErrUsernameExists) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		} else {
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	s.log.Info().Str("user_id", created.ID).Str("email", created.Email).Msg("user registered")
	return created, nil
}

// Login verifies credentials and issues an access/refresh token pair.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *ports.TokenPair, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, nil, domain.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	if !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("disabled").Inc()
		return nil, nil, domain.ErrUserDisabled
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	// Login bookkeeping is best effort; a stats failure must not fail login.
	now := time.Now().UTC()
	if err := s.store.RecordLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("record login stats failed")
	} else {
		user.LastLogin = &now
		user.LoginCount++
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return user, pair, nil
}

func (s *AuthService) issueTokenPair(user *domain.User) (*ports.TokenPair, error) {
	access, _, err := s.issuer.AccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(token.TypeAccess)).Inc()

	refresh, _, err := s.issuer.RefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(token.TypeRefresh)).Inc()

	return &ports.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The new
// token embeds the user's current email and role, not the stale claims the
// refresh token was minted with. No new refresh token is issued, and the
// presented one stays usable until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.RefreshResult, error) {
	claims, err := s.codec.DecodeTyped(refreshToken, token.TypeRefresh)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues(refreshFailureLabel(err)).Inc()
		return nil, err
	}

	user, err := s.store.FindByID(ctx, claims.SubjectID())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.RefreshesTotal.WithLabelValues("user_not_found").Inc()
			return nil, domain.ErrUserNotFound
		}
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		metrics.RefreshesTotal.WithLabelValues("disabled").Inc()
		return nil, domain.ErrUserDisabled
	}

	access, _, err := s.issuer.AccessToken(user)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(token.TypeAccess)).Inc()
	metrics.RefreshesTotal.WithLabelValues("ok").Inc()

	s.log.Info().Str("user_id", user.ID).Msg("access token refreshed")
	return &ports.RefreshResult{
		AccessToken: access,
		ExpiresIn:   int64(s.issuer.AccessTTL().Seconds()),
	}, nil
}

func refreshFailureLabel(err error) string {
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return "expired"
	case errors.Is(err, token.ErrWrongTokenType):
		return "wrong_type"
	default:
		return "invalid"
	}
}

func (s *AuthService) CurrentUser(ctx context.Context, id string) (*domain.User, error) {
	return s.store.FindByID(ctx, id)
}
