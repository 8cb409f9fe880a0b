// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package api

import (
	"time"

	"github.com/tomtom215/retailsight/internal/config"
	"github.com/tomtom215/retailsight/internal/database"
)

// Version is reported by the health endpoint and the app_info metric.
// Overridden at build time with -ldflags "-X .../internal/api.Version=...".
var Version = "dev"

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: response writing and error mapping
//   - handlers_household.go: household lookup
//   - handlers_dashboard.go: dashboard report
//   - handlers_upload.go: CSV uploads
//   - handlers_health.go: health and probe endpoints
type Handler struct {
	sup       *database.Supervisor
	queries   *database.Queries
	loader    *database.Loader
	config    *config.Config
	startTime time.Time
}

// NewHandler creates the API handler. All datastore access goes through sup.
//
//	handler := api.NewHandler(sup, cfg)
//	router := api.NewRouter(handler, cfg)
//	srv := &http.Server{Handler: router.SetupChi()}
func NewHandler(sup *database.Supervisor, cfg *config.Config) *Handler {
	return &Handler{
		sup:       sup,
		queries:   database.NewQueries(sup),
		loader:    database.NewLoader(sup),
		config:    cfg,
		startTime: time.Now(),
	}
}
