package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/geohunt.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// GeofenceSource is a file path or an http(s) URL serving the geofence list.
	GeofenceSource string        `env:"GEOFENCE_SOURCE" envDefault:"data/geofences.json"`
	Cooldown       time.Duration `env:"COOLDOWN" envDefault:"30s"`
	// SessionTTL is how long an idle mission session is kept.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"2h"`

	// BackpackStore selects where backpacks live: "sqlite" or "redis".
	BackpackStore string `env:"BACKPACK_STORE" envDefault:"sqlite"`
	RedisURL      string `env:"REDIS_URL"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	switch c.BackpackStore {
	case "sqlite":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when BACKPACK_STORE=redis")
		}
	default:
		return fmt.Errorf("unknown BACKPACK_STORE %q", c.BackpackStore)
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("COOLDOWN must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}
