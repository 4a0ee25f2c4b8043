package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultPort = 8080

// Config holds environment-driven settings for the REST API.
type Config struct {
	// DatabaseURL is a postgres:// URL or a path to the SQLite dataset.
	DatabaseURL string `envconfig:"DATABASE_URL" validate:"required"`

	AppEnv   string `envconfig:"APP_ENV" default:"dev" validate:"oneof=dev prod"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`

	// PORT takes precedence over API_PORT; see Load.
	Port    int `envconfig:"PORT" validate:"omitempty,min=1,max=65535"`
	APIPort int `envconfig:"API_PORT" validate:"omitempty,min=1,max=65535"`

	DBMaxConns      int           `envconfig:"DB_MAX_CONNS" default:"4" validate:"min=1"`
	QueryTimeout    time.Duration `envconfig:"QUERY_TIMEOUT" default:"10s" validate:"gt=0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
}

// ErrorKind classifies configuration failures.
type ErrorKind string

const (
	ErrParsing    ErrorKind = "parsing"
	ErrValidation ErrorKind = "validation"
)

// Error is returned by Load when the environment cannot produce a usable Config.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, &Error{Kind: ErrParsing, Err: err}
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, &Error{Kind: ErrValidation, Err: err}
	}
	// omitempty lets an explicit 0 through; only an unset port may fall back.
	for key, port := range map[string]int{"PORT": cfg.Port, "API_PORT": cfg.APIPort} {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" && port <= 0 {
			return cfg, &Error{Kind: ErrValidation, Err: fmt.Errorf("invalid %s: %s", key, v)}
		}
	}

	switch {
	case cfg.Port > 0:
	case cfg.APIPort > 0:
		cfg.Port = cfg.APIPort
	default:
		cfg.Port = defaultPort
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Level maps LogLevel onto slog. Load has already rejected unknown names.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
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

// IsDev reports whether the process runs in the development environment.
func (c Config) IsDev() bool {
	return c.AppEnv == "dev"
}
