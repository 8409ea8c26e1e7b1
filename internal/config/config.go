// Package config loads process-wide configuration for the ingestion engine.
//
// Per-tenant configuration (warehouse credentials, SFTP credentials) lives in
// the tenant's own database and is read by internal/tenantclient; this
// package only covers the process-wide state named in the external
// interfaces: the administrative Postgres connection, logging, and the NATS
// bus used for best-effort job-event broadcast.
package config

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all process-wide configuration for the ingestion engine.
type Config struct {
	App AppConfig
	DB  AdminDBConfig
	Bus BusConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env      string
	LogLevel string
}

// AdminDBConfig holds the administrative Postgres connection used by the
// Router and Provisioner to reach any tenant database or the "postgres"
// bootstrap database.
type AdminDBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	// Database is the admin/bootstrap database name, used only to open a
	// connection capable of issuing CREATE DATABASE / DROP DATABASE.
	Database string
	SSLMode  string
	// Echo toggles SQL statement logging (DATABASE_ECHO).
	Echo bool
}

// URL builds a libpq-style connection URL for the named database. Pass the
// admin bootstrap database to connect for provisioning, or a tenant database
// name to open a per-tenant session.
func (c AdminDBConfig) URL(database string) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, database, c.SSLMode,
	)
}

// BusConfig holds the best-effort job-event broadcast connection.
type BusConfig struct {
	URL       string
	Namespace string
}

// Load reads configuration from the environment, optionally loading a .env
// file first (a missing file is not an error). Every setting is read from the
// environment through viper, falling back to the defaults below; no config
// file is read apart from the .env file.
func Load(envPath string) (*Config, error) {
	_ = godotenv.Load(envPath)

	viper.AutomaticEnv()
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DATABASE", "postgres")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("DATABASE_ECHO", false)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("NATS_NAMESPACE", "ingest")

	cfg := &Config{
		App: AppConfig{
			Env:      viper.GetString("APP_ENV"),
			LogLevel: viper.GetString("LOG_LEVEL"),
		},
		DB: AdminDBConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			Database: viper.GetString("POSTGRES_DATABASE"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
			Echo:     viper.GetBool("DATABASE_ECHO"),
		},
		Bus: BusConfig{
			URL:       viper.GetString("NATS_URL"),
			Namespace: viper.GetString("NATS_NAMESPACE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []string

	if c.DB.Host == "" {
		errs = append(errs, "POSTGRES_HOST is required")
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("POSTGRES_PORT must be between 1 and 65535, got: %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, "POSTGRES_USER is required")
	}
	if c.DB.Password == "" && c.App.Env == "production" {
		errs = append(errs, "POSTGRES_PASSWORD should be set in production")
	}
	if c.DB.Database == "" {
		errs = append(errs, "POSTGRES_DATABASE is required")
	} else if ok, msg := IsValidPostgresIdentifier(c.DB.Database); !ok {
		errs = append(errs, fmt.Sprintf("invalid POSTGRES_DATABASE %q: %s", c.DB.Database, msg))
	}

	if c.Bus.URL != "" && !strings.HasPrefix(c.Bus.URL, "nats://") {
		errs = append(errs, "NATS_URL must start with 'nats://'")
	}

	switch c.App.Env {
	case "production", "development", "dev", "test", "testing":
	default:
		errs = append(errs, fmt.Sprintf("unknown APP_ENV %q, expected production, development, or test", c.App.Env))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsValidPostgresIdentifier reports whether name is a legal unquoted or
// quoted PostgreSQL identifier, except that hyphens are also accepted in
// unquoted names, since tenant database names contain them and are always
// quoted when emitted. Used as a defense-in-depth check before any
// admin-configured or tenant-derived name is interpolated into DDL (the
// tenant database name itself is additionally constrained by
// internal/tenantid.Normalize, which only ever produces a canonical UUID).
func IsValidPostgresIdentifier(name string) (bool, string) {
	if name == "" {
		return false, "identifier cannot be empty"
	}

	if strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) && len(name) >= 2 {
		unquoted := name[1 : len(name)-1]
		for i := 0; i < len(unquoted); i++ {
			if unquoted[i] == '"' {
				if i == len(unquoted)-1 || unquoted[i+1] != '"' {
					return false, "embedded double quote in identifier must be escaped by doubling"
				}
				i++
			}
		}
		if len(unquoted) == 0 {
			return false, "quoted identifier cannot be empty"
		}
		return true, ""
	}

	if !unicode.IsLetter(rune(name[0])) && name[0] != '_' {
		return false, "identifier must begin with a letter or underscore"
	}
	for i := 1; i < len(name); i++ {
		ch := rune(name[i])
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' && ch != '-' {
			return false, fmt.Sprintf("identifier contains invalid character: %c", ch)
		}
	}
	if len(name) > 63 {
		return false, "identifier too long (maximum is 63 characters)"
	}
	return true, ""
}
