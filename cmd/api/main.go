// Command api runs the Aurora authentication service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aurora-ai/aurora-api/internal/api"
	"github.com/aurora-ai/aurora-api/internal/config"
	"github.com/aurora-ai/aurora-api/internal/core/token"
	"github.com/aurora-ai/aurora-api/internal/infrastructure/audit"
	"github.com/aurora-ai/aurora-api/internal/infrastructure/db/memory"
	mongostore "github.com/aurora-ai/aurora-api/internal/infrastructure/db/mongo"
	redisstore "github.com/aurora-ai/aurora-api/internal/infrastructure/db/redis"
	"github.com/aurora-ai/aurora-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
	})

	deps := api.Deps{
		Codec: token.NewCodec(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience),
		Log:   log,
	}
	deps.Issuer = token.NewIssuer(deps.Codec, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	// Credential and audit stores, per STORE_DRIVER.
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, db, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}()

		userStore := mongostore.NewUserStore(db)
		if err := userStore.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("mongo index creation failed")
		}
		deps.Store = userStore
		deps.AuditStore = mongostore.NewAuditStore(db)
		deps.Mongo = db

	case config.StoreDriverMemory:
		userStore := memory.NewUserStore()
		if cfg.IsDevelopment() {
			userStore.SeedDevUser()
			log.Info().Msg("seeded development user test@aurora.ai")
		}
		deps.Store = userStore
		deps.AuditStore = memory.NewAuditStore(0)
	}

	// Redis-backed token denylist; without Redis, logout is client-side only.
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer client.Close()
		deps.Denylist = redisstore.NewDenylist(client)
		deps.Redis = client
		log.Info().Str("addr", cfg.Redis.Addr).Msg("token denylist enabled")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, logout will not revoke tokens server-side")
	}

	// Async audit recorder draining into the audit store.
	var dispatcher *audit.Dispatcher
	if deps.AuditStore != nil {
		dispatcher = audit.NewDispatcher(0, deps.AuditStore, log)
		dispatcher.Start(ctx)
		deps.Audit = dispatcher
	}

	e := api.NewRouter(deps)

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting api server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}
	log.Info().Msg("server stopped")
}
