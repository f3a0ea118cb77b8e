package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"overtimepay/calendar"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Sync      SyncConfig
	Reconcile ReconcileConfig
	Holidays  []time.Time
}

type DatabaseConfig struct {
	Driver string
	URL    string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type AppConfig struct {
	Port        string
	Env         string
	LogLevel    string
	CORSOrigins []string
}

// SyncConfig bounds the retries of the daily overtime upsert.
type SyncConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

type ReconcileConfig struct {
	Interval     time.Duration
	LookbackDays int
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultJWTSecret = "your-super-secret-key-change-in-production"
)

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Driver: getEnv("DATABASE_DRIVER", DriverPostgres),
			URL:    getEnv("DATABASE_URL", "postgresql://postgres@localhost:5432/overtime"),
		},
		App: AppConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Env:         getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			CORSOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}

	var err error
	cfg.JWT.Secret = getEnv("JWT_SECRET", defaultJWTSecret)
	if cfg.JWT.Expiration, err = getEnvDuration("JWT_EXPIRATION", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Sync.MaxAttempts, err = getEnvInt("SYNC_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.Sync.Backoff, err = getEnvDuration("SYNC_RETRY_BACKOFF", 10*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.Reconcile.Interval, err = getEnvDuration("RECONCILE_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.Reconcile.LookbackDays, err = getEnvInt("RECONCILE_LOOKBACK_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.Holidays, err = calendar.ParseHolidays(getEnv("HOLIDAYS", "")); err != nil {
		return nil, fmt.Errorf("invalid HOLIDAYS: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" || (c.App.Env == "production" && c.JWT.Secret == defaultJWTSecret) {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.Expiration <= 0 {
		return errors.New("JWT_EXPIRATION must be positive")
	}
	if c.Sync.MaxAttempts < 1 {
		return errors.New("SYNC_MAX_ATTEMPTS must be at least 1")
	}
	if c.Sync.Backoff < 0 {
		return errors.New("SYNC_RETRY_BACKOFF must not be negative")
	}
	if c.Reconcile.Interval <= 0 {
		return errors.New("RECONCILE_INTERVAL must be positive")
	}
	if c.Reconcile.LookbackDays < 1 {
		return errors.New("RECONCILE_LOOKBACK_DAYS must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
