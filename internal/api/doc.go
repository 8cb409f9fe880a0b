// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

/*
Package api provides the HTTP surface of RetailSight using the Chi router.

Endpoints (each /api route is also mounted without the prefix):

	GET  /api/household/{hshdNum}  joined transaction rows for one household
	GET  /api/dashboard            eight-series aggregate report
	POST /api/upload               multipart CSV upload (households, transactions, products)
	POST /api/upload/{table}       raw CSV body replacing one table
	GET  /api/health               supervisor state and pool statistics
	GET  /api/health/live          liveness probe
	GET  /api/health/ready         readiness probe (503 until the datastore is Ready)
	GET  /metrics                  Prometheus exposition
	GET  /*                        static front-end with index.html fallback

Every JSON response uses the models.APIResponse envelope. Datastore failures
map to status codes in one place (respondDatastoreError):

	*database.ConnectionError  503 DATABASE_UNAVAILABLE
	*database.LoadError        500 LOAD_FAILED (400 for an unknown table)
	*database.ReportError      500 REPORT_FAILED

The error detail carrying the underlying cause is only sent for 5xx responses.
*/
package api
