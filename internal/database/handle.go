// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package database

import (
	"context"
	"database/sql"
)

// Handle is the pooled datastore link handed out by the Supervisor.
// It exposes query, exec and transaction entry points only; the Supervisor
// alone decides when the underlying pool is closed.
type Handle struct {
	db *sql.DB
}

// QueryContext runs a query that returns rows.
func (h *Handle) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return h.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a query expected to return at most one row.
func (h *Handle) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return h.db.QueryRowContext(ctx, query, args...)
}

// ExecContext runs a statement without returning rows.
func (h *Handle) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return h.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (h *Handle) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return h.db.BeginTx(ctx, opts)
}

// Stats returns pool statistics.
func (h *Handle) Stats() sql.DBStats {
	return h.db.Stats()
}

// probe runs the liveness query.
func (h *Handle) probe(ctx context.Context) error {
	var one int
	return h.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}
