package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`

	// Delivery queue (QStash-compatible HTTP API).
	QueueBaseURL        string `env:"QUEUE_BASE_URL" envDefault:"https://qstash.upstash.io" validate:"required,url"`
	QueueToken          string `env:"QUEUE_TOKEN,required" validate:"required"`
	QueueCurrentSignKey string `env:"QUEUE_CURRENT_SIGNING_KEY,required" validate:"required"`
	QueueNextSignKey    string `env:"QUEUE_NEXT_SIGNING_KEY,required" validate:"required"`
	QueueTimeoutSec     int    `env:"QUEUE_TIMEOUT_SEC" envDefault:"10" validate:"min=1,max=60"`
	PublicCallbackURL   string `env:"PUBLIC_CALLBACK_URL,required" validate:"required,url"`

	// Target publishing platform.
	PlatformAPIBase   string `env:"PLATFORM_API_BASE" envDefault:"https://api.x.com" validate:"required,url"`
	PublishTimeoutSec int    `env:"PUBLISH_TIMEOUT_SEC" envDefault:"15" validate:"min=1,max=120"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`

	// Retention sweep over published posts.
	PurgeCronSpec      string `env:"PURGE_CRON_SPEC" envDefault:"30 3 * * *" validate:"required"`
	PurgeRetentionDays int    `env:"PURGE_RETENTION_DAYS" envDefault:"90" validate:"min=1,max=3650"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
