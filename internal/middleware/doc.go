// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

/*
Package middleware provides HTTP middleware components for the application.

All middleware uses the chi signature func(http.Handler) http.Handler so it can
be mounted with r.Use:

  - RequestID: propagates or generates X-Request-ID and seeds the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge per route pattern
  - AccessLog: per-request debug log line, warnings for slow requests

Typical stack:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(time.Second))

Metric labels use the chi route pattern ("/api/household/{hshdNum}") rather
than the raw path so household numbers do not explode label cardinality.
*/
package middleware
