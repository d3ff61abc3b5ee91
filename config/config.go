// Package config loads the service configuration from a TOML file, a .env
// file and FICORE_* environment variables, in that order of precedence
// from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/ficoreafrica/ledger/billing"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds all service configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Auth    AuthConfig    `toml:"auth"`
	Credits CreditsConfig `toml:"credits"`
	Cache   CacheConfig   `toml:"cache"`
	Events  EventsConfig  `toml:"events"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	AllowedOrigins  []string      `toml:"allowed_origins"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	DisableMetrics  bool          `toml:"disable_metrics"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres or mongo.
	Driver string `toml:"driver"`

	// DisableMigrate skips schema setup on start.
	DisableMigrate bool `toml:"disable_migrate"`

	SQLitePath    string `toml:"sqlite_path,omitempty"`
	PostgresDSN   string `toml:"postgres_dsn,omitempty"`
	MongoURI      string `toml:"mongo_uri,omitempty"`
	MongoDatabase string `toml:"mongo_database,omitempty"`
}

// AuthConfig holds token settings.
type AuthConfig struct {
	Secret   string        `toml:"secret,omitempty"`
	Issuer   string        `toml:"issuer,omitempty"`
	TokenTTL time.Duration `toml:"token_ttl"`
}

// CreditsConfig overrides the cost of billable actions, keyed by action
// name such as "create_budget".
type CreditsConfig struct {
	Costs map[string]int64 `toml:"costs,omitempty"`
}

// CacheConfig configures the Redis budget cache. An empty Addr disables it.
type CacheConfig struct {
	Addr     string        `toml:"addr,omitempty"`
	Password string        `toml:"password,omitempty"`
	DB       int           `toml:"db"`
	TTL      time.Duration `toml:"ttl"`
	Prefix   string        `toml:"prefix"`
}

// EventsConfig configures the Kafka producer. No brokers disables it.
type EventsConfig struct {
	Brokers      []string `toml:"brokers,omitempty"`
	Topic        string   `toml:"topic"`
	Username     string   `toml:"username,omitempty"`
	Password     string   `toml:"password,omitempty"`
	TLS          bool     `toml:"tls"`
	PublishAudit bool     `toml:"publish_audit"`
	// AuditSkip lists audit actions that are never published.
	AuditSkip []string `toml:"audit_skip,omitempty"`
	// AuditMinSeverity drops audit events below info, warning, error or critical.
	AuditMinSeverity string `toml:"audit_min_severity,omitempty"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:8100", "https://ficoreafrica.com"},
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:        DriverSQLite,
			SQLitePath:    "ficore.db",
			MongoDatabase: "ficore",
		},
		Auth: AuthConfig{
			Issuer:   "ficore",
			TokenTTL: 24 * time.Hour,
		},
		Cache: CacheConfig{
			TTL:    5 * time.Minute,
			Prefix: "ficore",
		},
		Events: EventsConfig{
			Topic: "ficore.tool-usage",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. path names an optional TOML file; an
// empty path skips it. envFiles are loaded with godotenv when present and
// never override variables already set in the environment.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return cfg, err
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("config: store.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("config: store.postgres_dsn is required for the postgres driver")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return errors.New("config: store.mongo_uri and store.mongo_database are required for the mongo driver")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}

	if _, err := c.Schedule(); err != nil {
		return err
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	switch c.Events.AuditMinSeverity {
	case "", "info", "warning", "error", "critical":
	default:
		return fmt.Errorf("config: unknown audit severity %q", c.Events.AuditMinSeverity)
	}
	return nil
}

// Schedule returns the default cost schedule with the configured
// overrides applied.
func (c Config) Schedule() (billing.Schedule, error) {
	s := billing.DefaultSchedule().Merge(c.Credits.Costs)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config: credits: %w", err)
	}
	return s, nil
}

// RequireSecret reports an error when no signing secret is configured.
func (c Config) RequireSecret() error {
	if c.Auth.Secret == "" {
		return errors.New("config: auth.secret or FICORE_JWT_SECRET is required")
	}
	return nil
}
