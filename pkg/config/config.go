package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	HTTPPort      int     `env:"HTTP_PORT" envDefault:"8080"`
	HTTPRateLimit float64 `env:"HTTP_RATE_LIMIT" envDefault:"50"`

	// Collaborator API.
	APIBaseURL   string        `env:"API_BASE_URL" envDefault:"http://localhost:8081/api"`
	APITimeout   time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	APIRateLimit float64       `env:"API_RATE_LIMIT" envDefault:"20"`

	// Persisted record store. One of: file, redis, memory.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"file"`
	StateDir     string `env:"STATE_DIR" envDefault:".storefront"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	SyncInterval        time.Duration `env:"SYNC_INTERVAL" envDefault:"5s"`
	CheckoutConcurrency int           `env:"CHECKOUT_CONCURRENCY" envDefault:"4"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	switch cfg.StoreBackend {
	case "file", "redis", "memory":
	default:
		return Config{}, fmt.Errorf("load config: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}
