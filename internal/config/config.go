// Package config loads service settings from the environment and analyzer
// thresholds from an optional file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data source names accepted in DATA_SOURCE.
const (
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port     string
	Env      string
	Timezone string

	DBPath         string
	DataSource     string
	POSDatabaseURL string
	FetchTimeout   time.Duration

	Redis RedisConfig

	// JWTSecret empty disables authentication.
	JWTSecret string

	// ThresholdsFile optionally overrides analytics.DefaultConfig().
	ThresholdsFile string

	Breaker BreakerConfig
}

// RedisConfig contains the snapshot cache connection. An empty Addr
// disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// BreakerConfig tunes the circuit breaker around the data source.
type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it is loaded first.
func Load() (*Config, error) {
	// A missing .env is fine; production sets real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		Timezone:       getEnv("STORE_TIMEZONE", "Asia/Kolkata"),
		DBPath:         getEnv("DB_PATH", "./data/bizlens.db"),
		DataSource:     strings.ToLower(getEnv("DATA_SOURCE", SourceSQLite)),
		POSDatabaseURL: getEnv("POS_DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		ThresholdsFile: getEnv("THRESHOLDS_FILE", ""),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Breaker: BreakerConfig{
			MaxFailures: uint32(getEnvInt("BREAKER_MAX_FAILURES", 5)),
		},
	}

	var err error
	if cfg.FetchTimeout, err = parseDurationEnv("FETCH_TIMEOUT", "10s"); err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}
	if cfg.Redis.TTL, err = parseDurationEnv("SNAPSHOT_CACHE_TTL", "1m"); err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_CACHE_TTL: %w", err)
	}
	if cfg.Breaker.OpenTimeout, err = parseDurationEnv("BREAKER_OPEN_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid BREAKER_OPEN_TIMEOUT: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEZONE %q: %w", cfg.Timezone, err)
	}

	switch cfg.DataSource {
	case SourceSQLite:
	case SourcePostgres:
		if cfg.POSDatabaseURL == "" {
			return nil, errors.New("DATA_SOURCE=postgres requires POS_DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unknown DATA_SOURCE %q (want %s or %s)", cfg.DataSource, SourceSQLite, SourcePostgres)
	}

	return cfg, nil
}

// Location returns the store's time zone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AuthEnabled reports whether RPCs require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	return time.ParseDuration(getEnv(key, fallback))
}
