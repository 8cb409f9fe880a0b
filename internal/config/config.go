// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

// Package config loads RetailSight configuration from built-in defaults, an
// optional YAML file, and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Supported datastore drivers.
const (
	DriverPostgres = "pgx"
	DriverDuckDB   = "duckdb"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Upload   UploadConfig   `koanf:"upload"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig configures the datastore connection and its supervisor.
type DatabaseConfig struct {
	// Driver selects the datastore: "pgx" (PostgreSQL) or "duckdb" (embedded).
	Driver string `koanf:"driver"`

	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Name     string `koanf:"name"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// SSLMode must be verify-full or verify-ca for the pgx driver.
	SSLMode     string `koanf:"ssl_mode"`
	SSLRootCert string `koanf:"ssl_root_cert"`

	// Path is the DuckDB database file (or ":memory:").
	Path string `koanf:"path"`

	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`

	MaxRetries          int           `koanf:"max_retries"`
	RetryDelay          time.Duration `koanf:"retry_delay"`
	HealthCheckInterval time.Duration `koanf:"health_check_interval"`

	// SchemaMode controls startup DDL: "auto" creates the retail tables only
	// for the duckdb driver, "create" always does, "skip" never does.
	SchemaMode string `koanf:"schema_mode"`
}

// ShouldCreateSchema resolves SchemaMode for the configured driver.
func (d *DatabaseConfig) ShouldCreateSchema() bool {
	switch d.SchemaMode {
	case "create":
		return true
	case "skip":
		return false
	default:
		return d.Driver == DriverDuckDB
	}
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	StaticDir       string        `koanf:"static_dir"`
	Environment     string        `koanf:"environment"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// UploadConfig bounds CSV uploads.
type UploadConfig struct {
	MaxBytes int64 `koanf:"max_bytes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration using the layered koanf loader.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// DSN builds the pgx connection string. The password is escaped, never logged.
func (d *DatabaseConfig) DSN() string {
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	if d.SSLRootCert != "" {
		q.Set("sslrootcert", d.SSLRootCert)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Redacted describes the connection target without credentials.
func (d *DatabaseConfig) Redacted() string {
	if d.Driver == DriverDuckDB {
		return "duckdb:" + d.Path
	}
	return fmt.Sprintf("%s@%s:%d/%s", d.User, d.Host, d.Port, d.Name)
}

// Addr returns the listen address for the HTTP server.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
