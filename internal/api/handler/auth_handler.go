package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aurora-ai/aurora-api/internal/api/middleware"
	"github.com/aurora-ai/aurora-api/internal/api/respond"
	"github.com/aurora-ai/aurora-api/internal/core/domain"
	"github.com/aurora-ai/aurora-api/internal/core/ports"
	"github.com/aurora-ai/aurora-api/internal/core/token"
)

// AuthHandler serves the /auth endpoints. denylist and audit are optional;
// without a denylist logout is purely client-side token discard.
type AuthHandler struct {
	authService ports.AuthService
	denylist    ports.TokenDenylist
	audit       ports.AuditRecorder
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, denylist ports.TokenDenylist, audit ports.AuditRecorder, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, denylist: denylist, audit: audit, log: log}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,username"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName  string `json:"lastName" validate:"omitempty,min=1,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (h *AuthHandler) recordAudit(event domain.AuditEvent) {
	if h.audit != nil {
		h.audit.Record(event)
	}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  map[string]any
// @Failure      400   {object}  respond.Failure
// @Failure      409   {object}  respond.Failure
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid payload", "request body is not valid JSON", "")
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "validation failed", err.Error(), "")
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailExists):
			return respond.Error(c, http.StatusConflict, "user already exists", "email already registered", "")
		case errors.Is(err, domain.ErrUsernameExists):
			return respond.Error(c, http.StatusConflict, "user already exists", "username already taken", "")
		}
		return err
	}

	h.recordAudit(domain.AuditEvent{
		UserID: user.ID,
		Email:  user.Email,
		Action: domain.AuditActionRegister,
		IP:     c.RealIP(),
		At:     time.Now().UTC(),
	})

	return respond.Data(c, http.StatusCreated, map[string]any{
		"user":    user,
		"message": "registration successful",
	})
}

// Login authenticates credentials and returns an access/refresh token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  map[string]any
// @Failure      400   {object}  respond.Failure
// @Failure      401   {object}  respond.Failure
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid payload", "request body is not valid JSON", "")
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "validation failed", err.Error(), "")
	}

	user, tokens, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return respond.Error(c, http.StatusUnauthorized, "authentication failed", "invalid email or password", respond.CodeInvalidCredentials)
		case errors.Is(err, domain.ErrUserDisabled):
			return respond.Error(c, http.StatusUnauthorized, "account disabled", "this account has been disabled", respond.CodeUserDisabled)
		}
		return err
	}

	h.recordAudit(domain.AuditEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Action:    domain.AuditActionLogin,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		At:        time.Now().UTC(),
	})

	return respond.Data(c, http.StatusOK, map[string]any{
		"user":   user,
		"tokens": tokens,
	})
}

// Refresh exchanges a refresh token for a new access token.
//
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  map[string]any
// @Failure      401   {object}  respond.Failure
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid payload", "request body is not valid JSON", "")
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "validation failed", err.Error(), "")
	}

	result, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrTokenExpired):
			return respond.Error(c, http.StatusUnauthorized, "invalid refresh token", "refresh token expired", respond.CodeTokenExpired)
		case errors.Is(err, token.ErrWrongTokenType):
			return respond.Error(c, http.StatusUnauthorized, "invalid refresh token", "token is not a refresh token", respond.CodeWrongTokenType)
		case errors.Is(err, token.ErrSignatureInvalid), errors.Is(err, token.ErrTokenMalformed):
			return respond.Error(c, http.StatusUnauthorized, "invalid refresh token", "refresh token is invalid", respond.CodeInvalidToken)
		case errors.Is(err, domain.ErrUserNotFound):
			return respond.Error(c, http.StatusUnauthorized, "invalid refresh token", "user not found", respond.CodeUserNotFound)
		case errors.Is(err, domain.ErrUserDisabled):
			return respond.Error(c, http.StatusUnauthorized, "invalid refresh token", "user account disabled", respond.CodeUserDisabled)
		}
		return err
	}

	return respond.Data(c, http.StatusOK, result)
}

// Me returns the authenticated user's record.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  respond.Failure
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "authentication failed", "not authenticated", respond.CodeNotAuthenticated)
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), identity.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return respond.Error(c, http.StatusNotFound, "user not found", "no record for this identity", respond.CodeUserNotFound)
		}
		return err
	}

	return respond.Data(c, http.StatusOK, map[string]any{"user": user})
}

// Logout ends the session. Without a denylist this changes no server state:
// the client is expected to discard both tokens. With one, the presented
// access token's id is revoked for the remainder of its lifetime.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  respond.Failure
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "authentication failed", "not authenticated", respond.CodeNotAuthenticated)
	}

	if claims, ok := middleware.CurrentClaims(c); ok && h.denylist != nil {
		if ttl := claims.ExpiresIn(time.Now().UTC()); ttl > 0 {
			if err := h.denylist.Revoke(c.Request().Context(), claims.ID, ttl); err != nil {
				// Revocation is best effort; the client discards its copy
				// regardless.
				h.log.Warn().Err(err).Str("token_id", claims.ID).Msg("token revocation failed")
			}
		}
	}

	h.recordAudit(domain.AuditEvent{
		UserID: identity.ID,
		Email:  identity.Email,
		Action: domain.AuditActionLogout,
		IP:     c.RealIP(),
		At:     time.Now().UTC(),
	})

	return respond.Message(c, http.StatusOK, "logout successful")
}
