// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL      string        `env:"DATABASE_URL,required"`
	JWTSecret        string        `env:"JWT_SECRET,required"`
	Port             string        `env:"PORT"               envDefault:"8080"`
	CookieSecure     bool          `env:"COOKIE_SECURE"`
	TokenTTL         time.Duration `env:"TOKEN_TTL"          envDefault:"24h"`
	LogLevel         string        `env:"LOG_LEVEL"          envDefault:"info"`
	ExpPerGame       int           `env:"EXP_PER_GAME"       envDefault:"10"`
	DBMaxConns       int32         `env:"DB_MAX_CONNS"       envDefault:"10"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT"  envDefault:"10s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	OTelEndpoint     string        `env:"OTEL_ENDPOINT"`
	OTelServiceName  string        `env:"OTEL_SERVICE_NAME"  envDefault:"fieldbook"`
}

// Load reads the optional dotenv files, then the environment. Variables
// already set in the environment win over dotenv values.
func Load(dotenv ...string) (Config, error) {
	if len(dotenv) > 0 {
		// Missing dotenv files are normal outside local development.
		_ = godotenv.Load(dotenv...)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ExpPerGame < 0 {
		return Config{}, fmt.Errorf("EXP_PER_GAME must be >= 0, got %d", cfg.ExpPerGame)
	}
	if cfg.DBMaxConns < 1 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be >= 1, got %d", cfg.DBMaxConns)
	}
	return cfg, nil
}

// Level maps LOG_LEVEL to a slog level; unknown values mean info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
