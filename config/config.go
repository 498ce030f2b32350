// Package config provides configuration loading for the bookkeeping engine.
// Configuration is layered: defaults, then an optional config file, then
// environment variables.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration.
type Config struct {
	Logging LoggingConfig
	Store   StoreConfig
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string // debug, info, warn, error
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver      string // memory, sqlite, postgres
	SQLitePath  string // database file path, or ":memory:"
	PostgresURL string // connection string for the postgres driver
}

// Load reads configuration from ./configs or the working directory
// (config.yaml by default), then applies environment overrides
// (LOG_LEVEL, STORE_DRIVER, SQLITE_PATH, POSTGRES_URL).
func Load() (*Config, error) {
	return load("config")
}

// LoadNamed is Load with an explicit config file base name.
func LoadNamed(name string) (*Config, error) {
	return load(name)
}

func load(name string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(name)
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine: defaults + environment cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	cfg := &Config{
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Store: StoreConfig{
			Driver:      v.GetString("STORE_DRIVER"),
			SQLitePath:  v.GetString("SQLITE_PATH"),
			PostgresURL: v.GetString("POSTGRES_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("SQLITE_PATH", "books.db")
	v.SetDefault("POSTGRES_URL", "")
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite driver requires SQLITE_PATH")
		}
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("postgres driver requires POSTGRES_URL")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}
