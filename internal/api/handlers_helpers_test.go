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
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/retailsight/internal/database"
	"github.com/tomtom215/retailsight/internal/models"
)

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"line\nbreak", `line\x0abreak`},
		{"tab\there", `tab\x09here`},
		{"del\x7f", `del\x7f`},
	}

	for _, tt := range tests {
		if got := sanitizeLogValue(tt.input); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGenerateETag(t *testing.T) {
	a := generateETag([]byte("hello"))
	if a != generateETag([]byte("hello")) {
		t.Error("generateETag() is not deterministic")
	}
	if a == generateETag([]byte("world")) {
		t.Error("different inputs produced the same ETag")
	}
	if !strings.HasPrefix(a, `"`) || !strings.HasSuffix(a, `"`) {
		t.Errorf("ETag should be quoted, got %s", a)
	}
}

func TestRespondJSON_NotModified(t *testing.T) {
	fixed := &models.APIResponse{
		Success:  true,
		Data:     []int{1, 2, 3},
		Metadata: models.Metadata{Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), RequestID: "fixed"},
	}

	rec := httptest.NewRecorder()
	respondJSON(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), http.StatusOK, fixed)
	etag := rec.Header().Get("ETag")
	if rec.Code != http.StatusOK || etag == "" {
		t.Fatalf("first response: status %d etag %q", rec.Code, etag)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	respondJSON(rec, req, http.StatusOK, fixed)
	if rec.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Error("304 must not carry a body")
	}

	// Errors are never turned into 304s.
	rec = httptest.NewRecorder()
	respondJSON(rec, req, http.StatusServiceUnavailable, fixed)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRespondDatastoreError(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"connection", &database.ConnectionError{Attempts: 3, Cause: cause}, http.StatusServiceUnavailable, ErrCodeDatabaseUnavailable},
		{"wrapped connection", fmt.Errorf("lookup: %w", &database.ConnectionError{Attempts: 3, Cause: cause}), http.StatusServiceUnavailable, ErrCodeDatabaseUnavailable},
		{"closed", database.ErrClosed, http.StatusServiceUnavailable, ErrCodeDatabaseUnavailable},
		{"load", &database.LoadError{Table: "households", Cause: cause}, http.StatusInternalServerError, ErrCodeLoadFailed},
		{"unknown table", &database.LoadError{Table: "x", Cause: database.ErrUnknownTable}, http.StatusBadRequest, ErrCodeUnknownTable},
		{"report", &database.ReportError{Series: "spend_by_year", Cause: cause}, http.StatusInternalServerError, ErrCodeReportFailed},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, ErrCodeRequestCanceled},
		{"other", cause, http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondDatastoreError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp models.APIResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("response = %+v", resp)
			}

			hasDetail := resp.Error.Detail != ""
			if wantDetail := tt.wantStatus >= 500; hasDetail != wantDetail {
				t.Errorf("detail present = %v, want %v (%q)", hasDetail, wantDetail, resp.Error.Detail)
			}
		})
	}
}
