package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aurora-ai/aurora-api/internal/api/metrics"
	"github.com/aurora-ai/aurora-api/internal/api/respond"
)

// RequireRoles gates a route by role. It must run after Require: with no
// identity attached it rejects with 401 NOT_AUTHENTICATED, with an identity
// outside the allowed set it rejects with 403 INSUFFICIENT_PERMISSIONS.
func RequireRoles(log zerolog.Logger, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := CurrentIdentity(c)
			if !ok {
				return respond.Error(c, http.StatusUnauthorized,
					"authentication failed", "not authenticated", respond.CodeNotAuthenticated)
			}

			if _, ok := allowed[identity.Role]; !ok {
				metrics.RoleDenialsTotal.Inc()
				log.Warn().
					Str("user_id", identity.ID).
					Str("email", identity.Email).
					Str("role", identity.Role).
					Str("required_roles", strings.Join(roles, ",")).
					Str("ip", c.RealIP()).
					Msg("insufficient permissions")
				return respond.Error(c, http.StatusForbidden,
					"insufficient permissions",
					"requires one of: "+strings.Join(roles, ", "),
					respond.CodeInsufficientPermissions)
			}

			return next(c)
		}
	}
}
