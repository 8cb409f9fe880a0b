// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/retailsight/internal/models"
)

// Health reports the supervisor state and pool statistics. It never
// triggers a connect; the status is "healthy" only while the handle is Ready.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ready := h.sup.IsReady()
	status := "healthy"
	if !ready {
		status = "degraded"
	}

	health := models.HealthStatus{
		Status:         status,
		Version:        Version,
		DatabaseState:  h.sup.State().String(),
		DatabaseReady:  ready,
		ConnectRetries: h.sup.Retries(),
		Pool:           h.sup.PoolStats(),
		Uptime:         time.Since(h.startTime).Seconds(),
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Success: true,
		Data:    health,
	})
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of the datastore.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 503 until the supervisor holds a Ready handle.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := h.sup.IsReady()

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, r, statusCode, &models.APIResponse{
		Success: ready,
		Message: status,
		Data: map[string]interface{}{
			"ready":          ready,
			"database_state": h.sup.State().String(),
		},
	})
}
