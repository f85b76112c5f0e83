package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

func runRoleGate(t *testing.T, identity *Identity, roles ...string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if identity != nil {
		c.Set(identityContextKey, identity)
	}

	nextCalled := false
	handler := RequireRoles(zerolog.Nop(), roles...)(func(c echo.Context) error {
		nextCalled = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, nextCalled
}

func TestRequireRoles_NoIdentity(t *testing.T) {
	rec, nextCalled := runRoleGate(t, nil, domain.RoleAdmin)
	if nextCalled || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := decodeFailureCode(t, rec); code != "NOT_AUTHENTICATED" {
		t.Fatalf("expected NOT_AUTHENTICATED, got %q", code)
	}
}

func TestRequireRoles_InsufficientRole(t *testing.T) {
	identity := &Identity{ID: "user-1", Email: "a@x.com", Role: domain.RoleUser}
	rec, nextCalled := runRoleGate(t, identity, domain.RoleAdmin)
	if nextCalled || rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if code := decodeFailureCode(t, rec); code != "INSUFFICIENT_PERMISSIONS" {
		t.Fatalf("expected INSUFFICIENT_PERMISSIONS, got %q", code)
	}
}

func TestRequireRoles_Allows(t *testing.T) {
	identity := &Identity{ID: "admin-1", Role: domain.RoleAdmin}
	rec, nextCalled := runRoleGate(t, identity, domain.RoleAdmin, domain.RoleUser)
	if !nextCalled || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through 200, got %d", rec.Code)
	}
}
