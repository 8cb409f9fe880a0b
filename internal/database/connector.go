// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/tomtom215/retailsight/internal/config"
)

// Connector opens one pooled datastore handle. A returned *sql.DB has
// already answered a liveness probe.
type Connector interface {
	Connect(ctx context.Context) (*sql.DB, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context) (*sql.DB, error)

// Connect calls f(ctx).
func (f ConnectorFunc) Connect(ctx context.Context) (*sql.DB, error) {
	return f(ctx)
}

// SQLConnector opens database/sql pools for the configured driver.
type SQLConnector struct {
	cfg    *config.DatabaseConfig
	pgxCfg *pgx.ConnConfig
}

// NewConnector validates the driver settings once so that connect attempts
// only fail for reachability reasons.
func NewConnector(cfg *config.DatabaseConfig) (*SQLConnector, error) {
	c := &SQLConnector{cfg: cfg}

	switch cfg.Driver {
	case config.DriverPostgres:
		pgxCfg, err := pgx.ParseConfig(cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("invalid postgres connection settings: %w", err)
		}
		pgxCfg.RuntimeParams["application_name"] = "retailsight"
		c.pgxCfg = pgxCfg
	case config.DriverDuckDB:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	return c, nil
}

// Connect opens a new pool, applies the pool limits and probes it.
func (c *SQLConnector) Connect(ctx context.Context) (*sql.DB, error) {
	conn, err := c.open()
	if err != nil {
		return nil, err
	}

	configureConnectionPool(conn, c.cfg)

	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to reach %s: %w", c.cfg.Redacted(), err)
	}
	return conn, nil
}

func (c *SQLConnector) open() (*sql.DB, error) {
	if c.pgxCfg != nil {
		return stdlib.OpenDB(*c.pgxCfg), nil
	}

	path := c.cfg.Path
	if path == ":memory:" {
		path = ""
	}
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb %s: %w", c.cfg.Path, err)
	}
	return conn, nil
}

// configureConnectionPool applies the configured pool limits.
func configureConnectionPool(conn *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}
