package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":9002"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/ledger.db"`
	// RedisURL enables cross-process event publishing when set.
	RedisURL string `env:"REDIS_URL"`

	TickInterval   time.Duration `env:"TICK_INTERVAL" envDefault:"16ms"`
	WaitingTimeout time.Duration `env:"WAITING_TIMEOUT" envDefault:"60s"`
	TimeScale      float64       `env:"TIME_SCALE" envDefault:"1.0"`

	// CatalogPath overrides the embedded unit and skill catalog.
	CatalogPath    string `env:"CATALOG_PATH"`
	AdminTokenHash string `env:"ADMIN_TOKEN_HASH"`

	OTELEndpoint string `env:"OTEL_ENDPOINT"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"chess-fight"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("TICK_INTERVAL must be positive, got %s", cfg.TickInterval)
	}
	if cfg.WaitingTimeout < 0 {
		return nil, fmt.Errorf("WAITING_TIMEOUT must not be negative, got %s", cfg.WaitingTimeout)
	}
	if cfg.TimeScale < 0 {
		return nil, fmt.Errorf("TIME_SCALE must not be negative, got %v", cfg.TimeScale)
	}
	return &cfg, nil
}
