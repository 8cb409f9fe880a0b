// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package api

import (
	"net/http"
	"time"
)

// Dashboard recomputes and returns the eight-series aggregate report.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	report, err := h.queries.BuildDashboard(r.Context())
	if err != nil {
		respondDatastoreError(w, r, err)
		return
	}

	respondSuccess(w, r, "dashboard generated", report, len(report.Series), start)
}
