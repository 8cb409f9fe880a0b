// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package database

import (
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/retailsight/internal/logging"
)

var (
	// ErrRetriesExhausted is matched by every *ConnectionError.
	ErrRetriesExhausted = errors.New("datastore unreachable: connect retries exhausted")

	// ErrClosed is returned by EnsureReady after Shutdown.
	ErrClosed = errors.New("connection supervisor is shut down")

	// ErrUnknownTable is wrapped by a *LoadError naming a table outside the schema.
	ErrUnknownTable = errors.New("unknown table")
)

// ConnectionError reports that a connect sequence failed on every attempt.
type ConnectionError struct {
	Attempts int
	Cause    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("datastore unreachable after %d attempt(s): %v", e.Attempts, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, ErrRetriesExhausted) match any ConnectionError.
func (e *ConnectionError) Is(target error) bool { return target == ErrRetriesExhausted }

// LoadError reports a failed bulk load. The table was left unchanged.
type LoadError struct {
	Table string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Table, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// ReportError reports the dashboard series whose query failed.
type ReportError struct {
	Series string
	Cause  error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("dashboard series %s: %v", e.Series, e.Cause)
}

func (e *ReportError) Unwrap() error { return e.Cause }

// closeWithLog closes a resource and logs any error
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource in error paths where Close errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
