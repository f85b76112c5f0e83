package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aurora-ai/aurora-api/internal/api/middleware"
	"github.com/aurora-ai/aurora-api/internal/core/domain"
	"github.com/aurora-ai/aurora-api/internal/core/ports"
	"github.com/aurora-ai/aurora-api/internal/core/token"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, input ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (*domain.User, *ports.TokenPair, error)
	refreshFn  func(ctx context.Context, refreshToken string) (*ports.RefreshResult, error)
	currentFn  func(ctx context.Context, id string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.User, *ports.TokenPair, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (*ports.RefreshResult, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubAuthService) CurrentUser(ctx context.Context, id string) (*domain.User, error) {
	return s.currentFn(ctx, id)
}

type recordingDenylist struct {
	revokedID  string
	revokedTTL time.Duration
}

func (d *recordingDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	d.revokedID = tokenID
	d.revokedTTL = ttl
	return nil
}

func (d *recordingDenylist) IsRevoked(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func doJSON(t *testing.T, e *echo.Echo, h echo.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func bodyJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, input ports.RegisterInput) (*domain.User, error) {
			if input.Email != "a@x.com" || input.Username != "alice" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &domain.User{
				ID:           "id-1",
				Email:        input.Email,
				Username:     input.Username,
				PasswordHash: "$2a$12$hash",
				Role:         domain.RoleUser,
				IsActive:     true,
			}, nil
		},
	}
	h := NewAuthHandler(stub, nil, nil, zerolog.Nop())

	rec := doJSON(t, e, h.Register, http.MethodPost, "/auth/register",
		`{"email":"a@x.com","username":"alice","password":"secret1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := bodyJSON(t, rec)
	if resp["success"] != true {
		t.Fatalf("expected success envelope, got %v", resp)
	}
	data := resp["data"].(map[string]any)
	user, ok := data["user"].(map[string]any)
	if !ok || user["id"] != "id-1" {
		t.Fatalf("unexpected user payload: %+v", data)
	}
	// The password hash must never appear in responses.
	if strings.Contains(strings.ToLower(rec.Body.String()), "password") {
		t.Fatalf("response leaks password material: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	e := newEcho()
	for _, sentinel := range []error{domain.ErrEmailExists, domain.ErrUsernameExists} {
		stub := &stubAuthService{
			registerFn: func(_ context.Context, _ ports.RegisterInput) (*domain.User, error) {
				return nil, sentinel
			},
		}
		h := NewAuthHandler(stub, nil, nil, zerolog.Nop())
		rec := doJSON(t, e, h.Register, http.MethodPost, "/auth/register",
			`{"email":"a@x.com","username":"alice","password":"secret1"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("%v: expected 409, got %d", sentinel, rec.Code)
		}
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, _ ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("service must not be called on invalid input")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, nil, nil, zerolog.Nop())

	cases := map[string]string{
		"not json":      `{`,
		"bad email":     `{"email":"nope","username":"alice","password":"secret1"}`,
		"short pw":      `{"email":"a@x.com","username":"alice","password":"abc"}`,
		"bad username":  `{"email":"a@x.com","username":"a!","password":"secret1"}`,
		"long username": `{"email":"a@x.com","username":"` + strings.Repeat("a", 21) + `","password":"secret1"}`,
	}
	for name, body := range cases {
		rec := doJSON(t, e, h.Register, http.MethodPost, "/auth/register", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (*domain.User, *ports.TokenPair, error) {
			if email != "a@x.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &domain.User{ID: "id-1", Email: email, Username: "alice", Role: domain.RoleUser},
				&ports.TokenPair{AccessToken: "acc", RefreshToken: "ref", ExpiresIn: 86400}, nil
		},
	}
	h := NewAuthHandler(stub, nil, nil, zerolog.Nop())

	rec := doJSON(t, e, h.Login, http.MethodPost, "/auth/login",
		`{"email":"a@x.com","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	data := bodyJSON(t, rec)["data"].(map[string]any)
	tokens, ok := data["tokens"].(map[string]any)
	if !ok || tokens["accessToken"] != "acc" || tokens["refreshToken"] != "ref" {
		t.Fatalf("unexpected tokens payload: %+v", data)
	}
	if tokens["expiresIn"] != float64(86400) {
		t.Fatalf("unexpected expiresIn: %v", tokens["expiresIn"])
	}
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	e := newEcho()
	cases := []struct {
		err  error
		code string
	}{
		{domain.ErrInvalidCredentials, "INVALID_CREDENTIALS"},
		{domain.ErrUserDisabled, "USER_DISABLED"},
	}
	for _, tc := range cases {
		stub := &stubAuthService{
			loginFn: func(_ context.Context, _, _ string) (*domain.User, *ports.TokenPair, error) {
				return nil, nil, tc.err
			},
		}
		h := NewAuthHandler(stub, nil, nil, zerolog.Nop())
		rec := doJSON(t, e, h.Login, http.MethodPost, "/auth/login",
			`{"email":"a@x.com","password":"wrong"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%v: expected 401, got %d", tc.err, rec.Code)
		}
		if body := bodyJSON(t, rec); body["code"] != tc.code {
			t.Fatalf("%v: expected code %s, got %v", tc.err, tc.code, body["code"])
		}
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		refreshFn: func(_ context.Context, refreshToken string) (*ports.RefreshResult, error) {
			if refreshToken != "ref-token" {
				t.Fatalf("unexpected token %q", refreshToken)
			}
			return &ports.RefreshResult{AccessToken: "new-access", ExpiresIn: 86400}, nil
		},
	}
	h := NewAuthHandler(stub, nil, nil, zerolog.Nop())

	rec := doJSON(t, e, h.Refresh, http.MethodPost, "/auth/refresh", `{"refreshToken":"ref-token"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := bodyJSON(t, rec)["data"].(map[string]any)
	if data["accessToken"] != "new-access" {
		t.Fatalf("unexpected payload: %+v", data)
	}
}

func TestAuthHandler_Refresh_Failures(t *testing.T) {
	e := newEcho()
	cases := []struct {
		err  error
		code string
	}{
		{token.ErrTokenExpired, "TOKEN_EXPIRED"},
		{token.ErrWrongTokenType, "WRONG_TOKEN_TYPE"},
		{token.ErrSignatureInvalid, "INVALID_TOKEN"},
		{token.ErrTokenMalformed, "INVALID_TOKEN"},
		{domain.ErrUserNotFound, "USER_NOT_FOUND"},
		{domain.ErrUserDisabled, "USER_DISABLED"},
	}
	for _, tc := range cases {
		stub := &stubAuthService{
			refreshFn: func(_ context.Context, _ string) (*ports.RefreshResult, error) {
				return nil, tc.err
			},
		}
		h := NewAuthHandler(stub, nil, nil, zerolog.Nop())
		rec := doJSON(t, e, h.Refresh, http.MethodPost, "/auth/refresh", `{"refreshToken":"x"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%v: expected 401, got %d", tc.err, rec.Code)
		}
		if body := bodyJSON(t, rec); body["code"] != tc.code {
			t.Fatalf("%v: expected code %s, got %v", tc.err, tc.code, body["code"])
		}
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		currentFn: func(_ context.Context, id string) (*domain.User, error) {
			if id != "id-1" {
				return nil, domain.ErrUserNotFound
			}
			return &domain.User{ID: "id-1", Email: "a@x.com", Username: "alice"}, nil
		},
	}
	h := NewAuthHandler(stub, nil, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.AttachIdentity(c, &middleware.Identity{ID: "id-1", Email: "a@x.com", Role: domain.RoleUser})

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := bodyJSON(t, rec)["data"].(map[string]any)
	user := data["user"].(map[string]any)
	if user["id"] != "id-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthHandler_Me_NoIdentity(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{}, nil, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Me(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := bodyJSON(t, rec); body["code"] != "NOT_AUTHENTICATED" {
		t.Fatalf("expected NOT_AUTHENTICATED, got %v", body["code"])
	}
}

func TestAuthHandler_Logout_RevokesWithDenylist(t *testing.T) {
	e := newEcho()
	denylist := &recordingDenylist{}
	h := NewAuthHandler(&stubAuthService{}, denylist, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.AttachIdentity(c, &middleware.Identity{ID: "id-1", Email: "a@x.com"})
	middleware.AttachClaims(c, &token.Claims{
		TokenType: token.TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			Subject:   "id-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * time.Minute)),
		},
	})

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if denylist.revokedID != "jti-1" {
		t.Fatalf("expected jti-1 revoked, got %q", denylist.revokedID)
	}
	if denylist.revokedTTL <= 0 || denylist.revokedTTL > 30*time.Minute {
		t.Fatalf("expected ttl bounded by remaining lifetime, got %v", denylist.revokedTTL)
	}
}

func TestAuthHandler_Logout_StatelessWithoutDenylist(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{}, nil, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.AttachIdentity(c, &middleware.Identity{ID: "id-1"})

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if bodyJSON(t, rec)["success"] != true {
		t.Fatalf("expected success message envelope")
	}
}
