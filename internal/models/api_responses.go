// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

// Package models holds the JSON types exchanged over the HTTP API.
package models

import (
	"time"
)

// APIResponse is the envelope returned by every API endpoint.
//
// Example successful response:
//
//	{
//	  "success": true,
//	  "message": "household 10 found",
//	  "data": [...],
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 12, "count": 58}
//	}
//
// Example error response:
//
//	{
//	  "success": false,
//	  "message": "Datastore unavailable",
//	  "error": {"code": "DATABASE_UNAVAILABLE", "message": "Datastore unavailable", "detail": "..."},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Data     interface{} `json:"data"`
	Error    *APIError   `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// Metadata carries timing information for a response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Count       *int      `json:"count,omitempty"`
}

// APIError describes a failed request. Detail is only populated for 5xx
// responses and carries the underlying cause.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"`
	Fields  interface{} `json:"fields,omitempty"`
}
