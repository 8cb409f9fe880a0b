// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	return c.validateLogging()
}

// validateDatabase validates the driver, TLS policy and supervisor bounds
func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if err := c.validatePostgres(); err != nil {
			return err
		}
	case DriverDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DB_DRIVER=duckdb")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of: pgx, duckdb (got %q)", c.Database.Driver)
	}

	if c.Database.MaxRetries < 1 || c.Database.MaxRetries > 100 {
		return fmt.Errorf("DB_MAX_RETRIES must be between 1 and 100")
	}
	if c.Database.RetryDelay < 0 {
		return fmt.Errorf("DB_RETRY_DELAY must not be negative")
	}
	if c.Database.HealthCheckInterval < time.Second {
		return fmt.Errorf("DB_HEALTH_CHECK_INTERVAL must be at least 1s")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	switch c.Database.SchemaMode {
	case "", "auto", "create", "skip":
	default:
		return fmt.Errorf("DB_SCHEMA_MODE must be one of: auto, create, skip")
	}
	return nil
}

// validatePostgres requires a verified TLS connection to the server
func (c *Config) validatePostgres() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_SERVER is required when DB_DRIVER=pgx")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_DATABASE is required when DB_DRIVER=pgx")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535")
	}
	switch c.Database.SSLMode {
	case "verify-full", "verify-ca":
		return nil
	default:
		return fmt.Errorf("DB_SSLMODE must be verify-full or verify-ca (got %q)", c.Database.SSLMode)
	}
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate limiting configuration bounds
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// IsDevelopment returns true for development environments
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "development" || env == "dev"
}
