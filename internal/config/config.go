// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath          string
	ListenAddr      string
	LogLevel        string
	LogPretty       bool
	SessionTTL      time.Duration
	ShutdownTimeout time.Duration
	LoginRatePerMin int
}

// Load reads the configuration. A .env file in the working directory is
// applied first but never overrides variables already set in the process
// environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DBPath:          envOr("COTTAGE_DB_PATH", "notecottage.db"),
		ListenAddr:      envOr("COTTAGE_LISTEN_ADDR", "127.0.0.1:8080"),
		LogLevel:        envOr("COTTAGE_LOG_LEVEL", "info"),
		LogPretty:       parseBoolOr("COTTAGE_LOG_PRETTY", false),
		SessionTTL:      parseDurationOr("COTTAGE_SESSION_TTL", 24*time.Hour),
		ShutdownTimeout: parseDurationOr("COTTAGE_SHUTDOWN_TIMEOUT", 10*time.Second),
		LoginRatePerMin: parseIntOr("COTTAGE_LOGIN_RATE_PER_MIN", 10),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func parseBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
