// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/retailsight/internal/config"
)

// testDBSemaphore serializes DuckDB-backed tests; concurrent CGO connections
// from many parallel tests make CI runs flaky.
var testDBSemaphore = make(chan struct{}, 1)

var errConnRefused = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

func testConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:              config.DriverDuckDB,
		Path:                ":memory:",
		MaxOpenConns:        4,
		MaxRetries:          3,
		RetryDelay:          5 * time.Second,
		HealthCheckInterval: time.Minute,
	}
}

// setupTestSupervisor returns a Ready supervisor over a fresh in-memory
// DuckDB database with the retail schema created.
func setupTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := testConfig()
	connector, err := NewConnector(cfg)
	checkNoError(t, err)

	sup := NewSupervisor(connector, cfg, WithSleep(noSleep))
	t.Cleanup(sup.Shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	checkNoError(t, EnsureSchema(ctx, sup))
	return sup
}

// mustExec runs a statement on the supervised handle.
func mustExec(t *testing.T, sup *Supervisor, query string, args ...any) {
	t.Helper()
	h, err := sup.EnsureReady(context.Background())
	checkNoError(t, err)
	_, err = h.ExecContext(context.Background(), query, args...)
	checkNoError(t, err)
}

// countRows returns the row count of table.
func countRows(t *testing.T, sup *Supervisor, table string) int {
	t.Helper()
	h, err := sup.EnsureReady(context.Background())
	checkNoError(t, err)
	var n int
	checkNoError(t, h.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&n))
	return n
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// sleepRecorder records requested delays without waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.delays)
}

// scriptedConnector fails its first `failures` calls, then opens fresh
// in-memory DuckDB databases. A non-nil gate blocks every call until closed.
type scriptedConnector struct {
	mu       sync.Mutex
	failures int
	calls    int
	gate     chan struct{}
	opened   []*sql.DB
}

func (c *scriptedConnector) Connect(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	c.calls++
	call := c.calls
	gate := c.gate
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if call <= c.failures {
		return nil, errConnRefused
	}

	conn, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	c.mu.Lock()
	c.opened = append(c.opened, conn)
	c.mu.Unlock()
	return conn, nil
}

func (c *scriptedConnector) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// breakCurrent closes the most recently opened database behind the
// supervisor's back so that the next probe fails.
func (c *scriptedConnector) breakCurrent(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.opened) == 0 {
		t.Fatal("no open database to break")
	}
	checkNoError(t, c.opened[len(c.opened)-1].Close())
}

func (c *scriptedConnector) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, db := range c.opened {
		closeQuietly(db)
	}
}

// newScriptedSupervisor builds a supervisor over a scriptedConnector.
func newScriptedSupervisor(t *testing.T, c *scriptedConnector, opts ...Option) *Supervisor {
	t.Helper()
	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	sup := NewSupervisor(c, testConfig(), opts...)
	t.Cleanup(func() {
		sup.Shutdown()
		c.closeAll()
	})
	return sup
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
