// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

/*
Package database manages access to the retail datastore.

# Components

  - Supervisor (supervisor.go): owns the single pooled handle. Connects with
    bounded retries, reprobes before handing out a Ready handle, reconnects
    lazily, and runs an optional periodic health monitor.
  - Loader (loader.go): replaces a table's contents atomically from a batch
    of loosely-typed rows, coercing each value through the schema table.
  - Queries (households.go, dashboard.go): the household lookup and the
    eight-series dashboard report.

Loader and Queries call Supervisor.EnsureReady before every datastore
operation, so a transient outage costs at most one bounded reconnect.

# State Machine

	Disconnected -> Connecting -> Ready -> (probe fails) Degraded -> Connecting
	Connecting -> Degraded (retries exhausted; stays there until the next EnsureReady)

# Drivers

The production driver is PostgreSQL through pgx (github.com/jackc/pgx/v5/stdlib)
with verified TLS. DuckDB (github.com/duckdb/duckdb-go/v2) serves embedded
deployments and the package tests. All SQL uses $n placeholders and quoted
identifiers understood by both.

# Errors

  - *ConnectionError: connect retries exhausted (errors.Is ErrRetriesExhausted)
  - *LoadError: bulk load failed and was rolled back
  - *ReportError: one dashboard series failed, no partial report
  - ErrClosed: the Supervisor was shut down

An unknown household is not an error: FindHousehold returns an empty slice.
*/
package database
