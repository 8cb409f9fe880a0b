// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/retailsight/internal/database"
	"github.com/tomtom215/retailsight/internal/logging"
	"github.com/tomtom215/retailsight/internal/models"
	"github.com/tomtom215/retailsight/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent log injection.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON writes response with an ETag. A GET whose If-None-Match equals
// the ETag of a 200 response gets 304 with no body.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	if response.Metadata.Timestamp.IsZero() {
		response.Metadata.Timestamp = time.Now().UTC()
	}
	if response.Metadata.RequestID == "" {
		response.Metadata.RequestID = logging.RequestIDFromContext(r.Context())
	}

	data, err := json.Marshal(response)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	etag := generateETag(data)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)

	if status == http.StatusOK && r.Method == http.MethodGet && r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a quoted ETag from data using FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return `"` + strconv.FormatUint(uint64(hash), 16) + `"`
}

// respondSuccess writes a success envelope. count is included when >= 0.
func respondSuccess(w http.ResponseWriter, r *http.Request, message string, data interface{}, count int, start time.Time) {
	meta := models.Metadata{QueryTimeMS: time.Since(start).Milliseconds()}
	if count >= 0 {
		meta.Count = &count
	}
	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Success:  true,
		Message:  message,
		Data:     data,
		Metadata: meta,
	})
}

// respondError writes an error envelope. err is logged; its text is only
// sent to the client as detail for 5xx statuses.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	apiErr := &models.APIError{Code: code, Message: message}

	if err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
			apiErr.Detail = err.Error()
		}
		event.
			Str("code", sanitizeLogValue(code)).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Int("status", status).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, r, status, &models.APIResponse{
		Success: false,
		Message: message,
		Error:   apiErr,
	})
}

// respondDatastoreError maps datastore failures to status codes.
func respondDatastoreError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		connErr   *database.ConnectionError
		loadErr   *database.LoadError
		reportErr *database.ReportError
	)

	switch {
	case errors.Is(err, database.ErrUnknownTable):
		respondError(w, r, http.StatusBadRequest, ErrCodeUnknownTable, "Unknown table", err)
	case errors.As(err, &connErr), errors.Is(err, database.ErrClosed):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeDatabaseUnavailable, "Datastore unavailable", err)
	case errors.As(err, &loadErr):
		respondError(w, r, http.StatusInternalServerError, ErrCodeLoadFailed,
			fmt.Sprintf("Failed to load %s", loadErr.Table), err)
	case errors.As(err, &reportErr):
		respondError(w, r, http.StatusInternalServerError, ErrCodeReportFailed,
			fmt.Sprintf("Failed to build dashboard series %s", reportErr.Series), err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeRequestCanceled, "Request canceled", err)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Datastore error", err)
	}
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Fields:  apiErr.Fields,
	}
}

// respondValidationError writes a 400 carrying the field errors.
func respondValidationError(w http.ResponseWriter, r *http.Request, apiErr *models.APIError) {
	respondJSON(w, r, http.StatusBadRequest, &models.APIResponse{
		Success: false,
		Message: apiErr.Message,
		Error:   apiErr,
	})
}
