package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aurora-ai/aurora-api/internal/api/respond"
	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the canonical JSON envelope: {"success":false,"error":…,"message":…,"code":…}.
//
// Handlers map most auth failures themselves; anything reaching this point is
// either an echo-level error (404, bind failure) or an unexpected one.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg, code := resolveError(err, log, c)
		_ = respond.Error(c, status, http.StatusText(status), msg, code)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), ""
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password", respond.CodeInvalidCredentials
	case errors.Is(err, domain.ErrUserDisabled):
		return http.StatusUnauthorized, "user account disabled", respond.CodeUserDisabled
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found", respond.CodeUserNotFound
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusConflict, "email already registered", ""
	case errors.Is(err, domain.ErrUsernameExists):
		return http.StatusConflict, "username already taken", ""
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error", ""
}
