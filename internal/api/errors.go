// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package api

import "errors"

// Error codes for API responses
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeInvalidHousehold    = "INVALID_HOUSEHOLD"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNoFiles             = "NO_FILES"
	ErrCodeInvalidCSV          = "INVALID_CSV"
	ErrCodeUnknownTable        = "UNKNOWN_TABLE"
	ErrCodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	ErrCodeTooManyRequests     = "TOO_MANY_REQUESTS"
	ErrCodeDatabaseUnavailable = "DATABASE_UNAVAILABLE"
	ErrCodeLoadFailed          = "LOAD_FAILED"
	ErrCodeReportFailed        = "REPORT_FAILED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeRequestCanceled     = "REQUEST_CANCELED"
)

// errNoUploadParts is returned when a multipart upload names no known table.
var errNoUploadParts = errors.New("upload contains no households, transactions or products part")
