package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the scheduler service.
// Environment variables are automatically parsed from the ROUTINELY_ prefix.
type Config struct {
	// Build target selects the high-level environment: local, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override driver: auto, postgres, sqlite
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration (local target). Empty resolves to the per-user
	// data dir, see internal/localstate.
	SQLitePath string `envconfig:"SQLITE_PATH" default:""`

	// Suggestion engine tunables
	DefaultLookAheadDays int `envconfig:"DEFAULT_LOOK_AHEAD_DAYS" default:"14"`
	MaxLookAheadDays     int `envconfig:"MAX_LOOK_AHEAD_DAYS" default:"90"`
	HistoryDays          int `envconfig:"HISTORY_DAYS" default:"28"`
	DefaultPageSize      int `envconfig:"DEFAULT_PAGE_SIZE" default:"20"`
	MaxPageSize          int `envconfig:"MAX_PAGE_SIZE" default:"100"`

	// Health probing and shutdown budgets
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	ShutdownTimeoutSeconds    int `envconfig:"SHUTDOWN_TIMEOUT_SECONDS" default:"10"`

	// Budget for the async Postgres schema bootstrap check
	BootstrapTimeoutSeconds int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when it is set
// to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER is postgres")
	}

	if c.DefaultLookAheadDays <= 0 || c.MaxLookAheadDays < c.DefaultLookAheadDays {
		return fmt.Errorf("invalid look-ahead bounds: default=%d max=%d", c.DefaultLookAheadDays, c.MaxLookAheadDays)
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("invalid page-size bounds: default=%d max=%d", c.DefaultPageSize, c.MaxPageSize)
	}
	if c.HistoryDays <= 0 {
		return fmt.Errorf("HISTORY_DAYS must be positive, got %d", c.HistoryDays)
	}
	if c.HealthIntervalSeconds <= 0 || c.HealthProbeTimeoutSeconds <= 0 || c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("health and shutdown intervals must be positive")
	}
	if c.BootstrapTimeoutSeconds <= 0 {
		return fmt.Errorf("BOOTSTRAP_TIMEOUT_SECONDS must be positive, got %d", c.BootstrapTimeoutSeconds)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with ROUTINELY_
// Example: ROUTINELY_HTTP_PORT, ROUTINELY_DB_DRIVER
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ROUTINELY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Str("sqlite_path", cfg.SQLitePath).
		Int("default_look_ahead_days", cfg.DefaultLookAheadDays).
		Int("history_days", cfg.HistoryDays).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		BuildTarget:          "local",
		DBDriver:             "sqlite",
		Environment:          EnvTesting,
		HTTPPort:             8080,
		LogLevel:             "info",
		SQLitePath:           "routinely-test.db",
		DefaultLookAheadDays: 14,
		MaxLookAheadDays:     90,
		HistoryDays:          28,
		DefaultPageSize:      20,
		MaxPageSize:          100,

		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 2,
		ShutdownTimeoutSeconds:    10,
		BootstrapTimeoutSeconds:   5,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
