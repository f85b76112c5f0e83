// Package middleware holds the request authentication and authorization
// gates. Authentication decodes the bearer token, re-validates the user
// against the live credential store and attaches a request-scoped identity;
// authorization narrows access by role after authentication has run.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aurora-ai/aurora-api/internal/api/metrics"
	"github.com/aurora-ai/aurora-api/internal/api/respond"
	"github.com/aurora-ai/aurora-api/internal/core/domain"
	"github.com/aurora-ai/aurora-api/internal/core/ports"
	"github.com/aurora-ai/aurora-api/internal/core/token"
)

const (
	identityContextKey = "auth.identity"
	claimsContextKey   = "auth.claims"
)

// Identity is the per-request projection of a user attached after
// successful authentication. It lives only for the request and is rebuilt
// from the live user record on every call.
type Identity struct {
	ID          string
	Email       string
	Username    string
	Role        string
	Preferences map[string]any
}

// CurrentIdentity returns the identity attached by the authentication gate,
// if any.
func CurrentIdentity(c echo.Context) (*Identity, bool) {
	id, ok := c.Get(identityContextKey).(*Identity)
	return id, ok
}

// CurrentClaims returns the decoded token claims for the request, if any.
func CurrentClaims(c echo.Context) (*token.Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*token.Claims)
	return claims, ok
}

// AttachIdentity binds an identity to the request context. The gate calls
// this on success; handler tests use it to simulate an authenticated caller.
func AttachIdentity(c echo.Context, identity *Identity) {
	c.Set(identityContextKey, identity)
}

// AttachClaims binds decoded token claims to the request context.
func AttachClaims(c echo.Context, claims *token.Claims) {
	c.Set(claimsContextKey, claims)
}

// Authenticator is the per-request authentication gate. denylist and audit
// are optional; a nil denylist skips revocation checks and a nil audit
// recorder drops audit events.
type Authenticator struct {
	codec    *token.Codec
	store    ports.CredentialStore
	denylist ports.TokenDenylist
	audit    ports.AuditRecorder
	log      zerolog.Logger
}

func NewAuthenticator(codec *token.Codec, store ports.CredentialStore, denylist ports.TokenDenylist, audit ports.AuditRecorder, log zerolog.Logger) *Authenticator {
	return &Authenticator{codec: codec, store: store, denylist: denylist, audit: audit, log: log}
}

// authFailure is a terminal non-success state of the authentication state
// machine.
type authFailure struct {
	status  int
	code    string
	message string
	outcome string // metrics label
	cause   error  // set only for internal failures
}

// authenticate walks the gate's state machine: header extraction → decode →
// revocation check → live user lookup → active check. Exactly one of the
// return values is non-nil.
func (a *Authenticator) authenticate(c echo.Context) (*Identity, *token.Claims, *authFailure) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return nil, nil, &authFailure{http.StatusUnauthorized, respond.CodeMissingToken, "missing bearer token", "missing_token", nil}
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, nil, &authFailure{http.StatusUnauthorized, respond.CodeMissingToken, "malformed authorization header", "missing_token", nil}
	}

	// Access-token consumers must reject refresh-typed tokens: a refresh
	// token is proof of nothing beyond the right to mint a new access token.
	claims, err := a.codec.DecodeTyped(parts[1], token.TypeAccess)
	if err != nil {
		switch err {
		case token.ErrTokenExpired:
			return nil, nil, &authFailure{http.StatusUnauthorized, respond.CodeTokenExpired, "token expired", "token_expired", nil}
		case token.ErrWrongTokenType:
			return nil, nil, &authFailure{http.StatusUnauthorized, respond.CodeWrongTokenType, "token type not accepted here", "wrong_token_type", nil}
		default:
			return nil, nil, &authFailure{http.StatusUnauthorized, respond.CodeInvalidToken, "invalid token", "invalid_token", nil}
		}
	}

	ctx := c.Request().Context()
	if a.denylist != nil {
		revoked, err := a.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Fail open: the denylist is an additive control and must not
			// take authentication down with it.
			a.log.Warn().Err(err).Str("token_id", claims.ID).Msg("denylist check failed")
		} else if revoked {
			return nil, nil, &authFailure{http.StatusUnauthorized, respond.CodeTokenRevoked, "token revoked", "token_revoked", nil}
		}
	}

	// Role and active status can change between issuance and use, so the
	// live record wins over the embedded claims on every request.
	user, err := a.store.FindByID(ctx, claims.SubjectID())
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, nil, &authFailure{http.StatusUnauthorized, respond.CodeUserNotFound, "user not found", "user_not_found", nil}
		}
		return nil, nil, &authFailure{http.StatusInternalServerError, respond.CodeAuthError, "authentication error", "error", err}
	}
	if !user.IsActive {
		return nil, nil, &authFailure{http.StatusUnauthorized, respond.CodeUserDisabled, "user account disabled", "user_disabled", nil}
	}

	return &Identity{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		Role:        user.Role,
		Preferences: user.Preferences,
	}, claims, nil
}

// Require authenticates every request and short-circuits with a structured
// 401 (or 500 on internal failure) unless the caller resolves to an active
// user.
func (a *Authenticator) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, claims, failure := a.authenticate(c)
			if failure != nil {
				metrics.AuthChecksTotal.WithLabelValues("required", failure.outcome).Inc()
				if failure.cause != nil {
					a.log.Error().Err(failure.cause).Str("path", c.Path()).Msg("authentication error")
					return respond.Error(c, failure.status, "server error", failure.message, failure.code)
				}
				a.log.Debug().Str("code", failure.code).Str("ip", c.RealIP()).Str("path", c.Path()).Msg("authentication rejected")
				if a.audit != nil {
					a.audit.Record(domain.AuditEvent{
						Action:    domain.AuditActionDenied,
						Code:      failure.code,
						IP:        c.RealIP(),
						UserAgent: c.Request().UserAgent(),
						At:        time.Now().UTC(),
					})
				}
				return respond.Error(c, failure.status, "authentication failed", failure.message, failure.code)
			}

			metrics.AuthChecksTotal.WithLabelValues("required", "ok").Inc()
			AttachIdentity(c, identity)
			AttachClaims(c, claims)

			if a.audit != nil {
				a.audit.Record(domain.AuditEvent{
					UserID:    identity.ID,
					Email:     identity.Email,
					Action:    domain.AuditActionAuth,
					IP:        c.RealIP(),
					UserAgent: c.Request().UserAgent(),
					At:        time.Now().UTC(),
				})
			}
			return next(c)
		}
	}
}

// Optional runs the same pipeline but never rejects: failures fall through
// to the handler with no identity attached. Endpoints that personalize for
// known users while serving anonymous callers use this.
func (a *Authenticator) Optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				metrics.AuthChecksTotal.WithLabelValues("optional", "missing_token").Inc()
				return next(c)
			}

			identity, claims, failure := a.authenticate(c)
			if failure != nil {
				metrics.AuthChecksTotal.WithLabelValues("optional", failure.outcome).Inc()
				a.log.Warn().Str("code", failure.code).Str("ip", c.RealIP()).Msg("optional authentication failed")
				return next(c)
			}

			metrics.AuthChecksTotal.WithLabelValues("optional", "ok").Inc()
			AttachIdentity(c, identity)
			AttachClaims(c, claims)
			return next(c)
		}
	}
}
