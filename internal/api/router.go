package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aurora-ai/aurora-api/internal/api/handler"
	"github.com/aurora-ai/aurora-api/internal/api/middleware"
	"github.com/aurora-ai/aurora-api/internal/core/domain"
	"github.com/aurora-ai/aurora-api/internal/core/ports"
	"github.com/aurora-ai/aurora-api/internal/core/service"
	"github.com/aurora-ai/aurora-api/internal/core/token"
)

// Deps carries the collaborators the router wires together. Denylist, Audit
// and AuditStore are optional; Mongo and Redis are only used by the
// readiness probe and may be nil when the in-memory store is active.
type Deps struct {
	Store      ports.CredentialStore
	Codec      *token.Codec
	Issuer     *token.Issuer
	Denylist   ports.TokenDenylist
	Audit      ports.AuditRecorder
	AuditStore ports.AuditStore
	Mongo      *mongo.Database
	Redis      *redis.Client
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("aurora"))

	// --- Dependencies ---
	authService := service.NewAuthService(deps.Store, deps.Codec, deps.Issuer, deps.Log)
	authHandler := handler.NewAuthHandler(authService, deps.Denylist, deps.Audit, deps.Log)
	authn := middleware.NewAuthenticator(deps.Codec, deps.Store, deps.Denylist, deps.Audit, deps.Log)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.GET("/auth/me", authHandler.Me, authn.Require())
	e.POST("/auth/logout", authHandler.Logout, authn.Require())

	// --- Admin routes ---
	if deps.AuditStore != nil {
		auditHandler := handler.NewAuditHandler(deps.AuditStore)
		e.GET("/admin/audit", auditHandler.Recent,
			authn.Require(), middleware.RequireRoles(deps.Log, domain.RoleAdmin))
	}

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
