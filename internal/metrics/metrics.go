// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

// Package metrics defines the Prometheus instrumentation exposed at /metrics:
// connection supervisor state, bulk load throughput, dashboard report latency
// and HTTP request statistics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection supervisor metrics
	DBSupervisorState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retailsight_db_supervisor_state",
			Help: "Connection supervisor state (0=disconnected, 1=connecting, 2=ready, 3=degraded)",
		},
	)

	DBConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailsight_db_connect_attempts_total",
			Help: "Total number of datastore connect attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	DBProbeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailsight_db_probe_failures_total",
			Help: "Total number of failed liveness probes",
		},
		[]string{"source"}, // "request", "monitor"
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailsight_db_query_duration_seconds",
			Help:    "Duration of datastore queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailsight_db_query_errors_total",
			Help: "Total number of datastore query errors",
		},
		[]string{"operation", "table"},
	)

	// Bulk load metrics
	LoadRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailsight_load_rows_total",
			Help: "Total number of rows committed by bulk loads",
		},
		[]string{"table"},
	)

	LoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailsight_load_duration_seconds",
			Help:    "Duration of bulk table replacements in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"table", "result"},
	)

	// Report metrics
	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailsight_report_duration_seconds",
			Help:    "Duration of dashboard report builds in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailsight_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailsight_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retailsight_api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailsight_api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retailsight_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a datastore query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordConnectAttempt counts one connect attempt by outcome
func RecordConnectAttempt(err error) {
	if err != nil {
		DBConnectAttempts.WithLabelValues("failure").Inc()
		return
	}
	DBConnectAttempts.WithLabelValues("success").Inc()
}

// RecordLoad records the outcome of a bulk table replacement
func RecordLoad(table string, rows int, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	} else {
		LoadRowsTotal.WithLabelValues(table).Add(float64(rows))
	}
	LoadDuration.WithLabelValues(table, result).Observe(duration.Seconds())
}

// RecordReport records the outcome of a dashboard build
func RecordReport(duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ReportDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
