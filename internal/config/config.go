// Package config loads runtime configuration from environment variables
// using go-envconfig and validates the security-sensitive parts. There is
// deliberately no fallback signing secret: the process refuses to start
// without JWT_SECRET.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT   JWTConfig
	Store StoreConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET"`
	AccessTTL  time.Duration `env:"JWT_EXPIRES_IN,         default=24h"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_EXPIRES_IN, default=168h"`
	Issuer     string        `env:"JWT_ISSUER,   default=aurora-api"`
	Audience   string        `env:"JWT_AUDIENCE, default=aurora-client"`
}

type StoreConfig struct {
	// Driver selects the credential store backend: "mongo" or "memory".
	Driver string `env:"STORE_DRIVER, default=mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=aurora"`
}

type RedisConfig struct {
	// Addr empty disables Redis entirely: no token denylist, logout becomes
	// purely client-side token discard.
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables and validates it.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("config: JWT_REFRESH_EXPIRES_IN must exceed JWT_EXPIRES_IN")
	}
	if c.Store.Driver != StoreDriverMongo && c.Store.Driver != StoreDriverMemory {
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
