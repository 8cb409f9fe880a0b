// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/retailsight/internal/logging"
	"github.com/tomtom215/retailsight/internal/metrics"
)

// Loader replaces table contents atomically from ingestion batches.
type Loader struct {
	sup *Supervisor

	mu     sync.Mutex
	tables map[string]*sync.Mutex
}

// NewLoader creates a Loader that obtains handles from sup.
func NewLoader(sup *Supervisor) *Loader {
	return &Loader{sup: sup, tables: make(map[string]*sync.Mutex)}
}

// tableLock returns the mutex serializing loads of one table.
func (l *Loader) tableLock(name string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.tables[name]
	if !ok {
		m = &sync.Mutex{}
		l.tables[name] = m
	}
	return m
}

// Load deletes every row of table and inserts rows in order, in one
// transaction. On success the table holds exactly the coerced batch and the
// row count is returned. On failure the transaction is rolled back and the
// table is unchanged. Connection failures are returned as *ConnectionError;
// everything after the handle is acquired is wrapped in *LoadError.
func (l *Loader) Load(ctx context.Context, table string, rows []Row) (n int, err error) {
	t, ok := LookupTable(table)
	if !ok {
		return 0, &LoadError{Table: table, Cause: ErrUnknownTable}
	}

	lock := l.tableLock(t.Name)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	defer func() {
		metrics.RecordLoad(t.Name, n, time.Since(start), err)
	}()

	h, err := l.sup.EnsureReady(ctx)
	if err != nil {
		return 0, err
	}

	n, err = l.replace(ctx, h, t, rows)
	if err != nil {
		logging.Ctx(ctx).Error().
			Err(err).
			Str("operation", "load").
			Str("table", t.Name).
			Int("rows", len(rows)).
			Time("at", time.Now()).
			Msg("Bulk load failed, rolled back")
		return 0, &LoadError{Table: t.Name, Cause: err}
	}

	logging.Ctx(ctx).Info().
		Str("table", t.Name).
		Int("rows", n).
		Dur("duration", time.Since(start)).
		Msg("Bulk load committed")
	return n, nil
}

func (l *Loader) replace(ctx context.Context, h *Handle, t *Table, rows []Row) (n int, err error) {
	tx, err := h.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, t.deleteStatement()); err != nil {
		return 0, fmt.Errorf("failed to clear table: %w", err)
	}

	if len(rows) > 0 {
		stmt, prepErr := tx.PrepareContext(ctx, t.insertStatement())
		if prepErr != nil {
			err = fmt.Errorf("failed to prepare insert: %w", prepErr)
			return 0, err
		}
		defer closeQuietly(stmt)

		for i, row := range rows {
			if _, err = stmt.ExecContext(ctx, t.args(row)...); err != nil {
				return 0, fmt.Errorf("failed to insert row %d: %w", i+1, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(rows), nil
}
