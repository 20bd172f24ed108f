// Package config loads the review layer configuration from the environment,
// with optional .env support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig selects the backing store. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL string
}

// AuthConfig configures the identity gate and authorization policy.
type AuthConfig struct {
	JWTSecret  string
	AdminEmail string
}

// LedgerConfig configures the ledger recorder. An empty endpoint selects the
// simulated recorder.
type LedgerConfig struct {
	Endpoint       string
	APIKey         string
	Timeout        time.Duration
	SimulatedDelay time.Duration
}

// LoggingConfig mirrors pkg/logger's configuration surface.
type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	FilePrefix string
}

// Config is the full application configuration.
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	Ledger         LedgerConfig
	Logging        LoggingConfig
	AllowedOrigins []string
	RateLimit      int
	RateBurst      int
}

// Load reads configuration from the environment. A .env file in the working
// directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: envOr("SERVER_HOST", "0.0.0.0"),
			Port: envIntOr("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			AdminEmail: os.Getenv("ADMIN_EMAIL"),
		},
		Ledger: LedgerConfig{
			Endpoint:       os.Getenv("LEDGER_RPC_URL"),
			APIKey:         os.Getenv("LEDGER_RPC_KEY"),
			Timeout:        envDurationOr("LEDGER_TIMEOUT", 10*time.Second),
			SimulatedDelay: envDurationOr("LEDGER_SIMULATED_DELAY", 2*time.Second),
		},
		Logging: LoggingConfig{
			Level:      envOr("LOG_LEVEL", "info"),
			Format:     envOr("LOG_FORMAT", "text"),
			Output:     envOr("LOG_OUTPUT", "stdout"),
			FilePrefix: os.Getenv("LOG_FILE_PREFIX"),
		},
		AllowedOrigins: splitList(envOr("ALLOWED_ORIGINS", "*")),
		RateLimit:      envIntOr("RATE_LIMIT_RPS", 10),
		RateBurst:      envIntOr("RATE_LIMIT_BURST", 20),
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Auth.AdminEmail == "" {
		return nil, fmt.Errorf("ADMIN_EMAIL is required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
