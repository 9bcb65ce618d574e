package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Backend selects which deck/session persistence adapter the service uses.
const (
	BackendFunctions = "functions"
	BackendSQLite    = "sqlite"
)

type Config struct {
	HTTPAddr string
	LogLevel slog.Level

	Backend          string
	FunctionsBaseURL string
	FunctionsAPIKey  string
	SQLitePath       string

	JWTSecret string

	ReportTimeout    time.Duration
	PlayCountTimeout time.Duration
	SessionTTL       time.Duration
}

func Load() (Config, error) {
	c := Config{
		HTTPAddr:         envOr("HTTP_ADDR", ":8080"),
		Backend:          envOr("BACKEND", BackendSQLite),
		FunctionsBaseURL: os.Getenv("FUNCTIONS_BASE_URL"),
		FunctionsAPIKey:  os.Getenv("FUNCTIONS_API_KEY"),
		SQLitePath:       envOr("SQLITE_PATH", "raredraw.db"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		ReportTimeout:    10 * time.Second,
		PlayCountTimeout: 5 * time.Second,
		SessionTTL:       time.Hour,
	}

	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"REPORT_TIMEOUT", &c.ReportTimeout},
		{"PLAY_COUNT_TIMEOUT", &c.PlayCountTimeout},
		{"SESSION_TTL", &c.SessionTTL},
	} {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s %q: %w", d.key, v, err)
			}
			*d.dst = parsed
		}
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	switch c.Backend {
	case BackendFunctions:
		if c.FunctionsBaseURL == "" {
			return Config{}, fmt.Errorf("FUNCTIONS_BASE_URL is required when BACKEND=functions")
		}
	case BackendSQLite:
	default:
		return Config{}, fmt.Errorf("invalid BACKEND %q", c.Backend)
	}

	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
