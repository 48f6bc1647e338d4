// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Storage driver names accepted by STORAGE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage backend selection
	StorageDriver string

	// SQLite
	SQLiteDBPath string

	// Postgres
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDBName   string
	PostgresSSLMode  string
}

// Load builds the configuration from environment variables with defaults.
func Load(getenv func(string) string) *Config {
	get := func(key, defaultValue string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return defaultValue
	}
	return &Config{
		Port:          get("PORT", "8080"),
		StorageDriver: get("STORAGE_DRIVER", DriverSQLite),
		SQLiteDBPath:  get("SQLITE_DB_PATH", "./data/splitpro.db"),

		PostgresHost:     get("DB_HOST", "localhost"),
		PostgresPort:     get("DB_PORT", "5432"),
		PostgresUser:     get("DB_USER", "postgres"),
		PostgresPassword: get("DB_PASSWORD", "postgres"),
		PostgresDBName:   get("DB_NAME", "splitpro"),
		PostgresSSLMode:  get("DB_SSLMODE", "disable"),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StorageDriver {
	case DriverSQLite:
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using the sqlite driver")
		}
	case DriverPostgres:
		if c.PostgresDBName == "" {
			errs = append(errs, "database name cannot be empty when using the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid storage driver '%s': must be one of [sqlite postgres]", c.StorageDriver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// PostgresDSN assembles the connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword,
		c.PostgresDBName, c.PostgresSSLMode)
}
