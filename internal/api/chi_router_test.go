// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRouter_StaticPages(t *testing.T) {
	srv, _ := setupFailingServer(t)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, "index"},
		{"/data", http.StatusOK, "data"},
		{"/app.js", http.StatusOK, "console.log"},
		{"/reports/weekly", http.StatusNotFound, "index"},
		{"/../../etc/passwd", http.StatusNotFound, "index"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	srv, _ := setupFailingServer(t)

	// Generate at least one labelled series.
	get(t, srv, "/api/health/live")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "retailsight_api_requests_total") {
		t.Error("metrics output should include API request counters")
	}
}

func TestRouter_SecurityHeadersAndRequestID(t *testing.T) {
	srv, _ := setupFailingServer(t)

	rec, resp := get(t, srv, "/api/household/abc")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
	id := rec.Header().Get("X-Request-ID")
	if id == "" {
		t.Fatal("missing X-Request-ID")
	}
	if resp.Metadata.RequestID != id {
		t.Errorf("metadata request_id = %q, want %q", resp.Metadata.RequestID, id)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv, _ := setupFailingServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/dashboard", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimitDisabled = false
	cfg.Security.RateLimitReqs = 1
	cfg.Security.RateLimitWindow = time.Minute
	_, srv := setupTestServerWithConfig(t, cfg)

	rec, _ := get(t, srv, "/api/household/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec, resp := get(t, srv, "/api/household/1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("error = %+v", resp.Error)
	}

	// Health endpoints are not limited.
	rec, _ = get(t, srv, "/api/health/live")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.CORSOrigins = []string{"https://retail.example.com"}
	_, srv := setupTestServerWithConfig(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set("Origin", "https://retail.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://retail.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestChiMiddlewareConfigFromSecurity(t *testing.T) {
	cfg := ChiMiddlewareConfigFromSecurity(nil)
	if cfg.RateLimitRequests != 100 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Error("CORS origins should default to empty")
	}
}
