// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/retailsight/internal/validation"
)

// Household returns every transaction row of one household joined with its
// demographics and product details. An unknown household yields 200 with an
// empty list; a non-numeric key is rejected before the datastore is touched.
func (h *Handler) Household(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	raw := strings.TrimSpace(chi.URLParam(r, "hshdNum"))
	hshdNum, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidHousehold,
			"Household number must be an integer", err)
		return
	}

	req := validation.HouseholdRequest{HshdNum: hshdNum}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	rows, err := h.queries.FindHousehold(r.Context(), req.HshdNum)
	if err != nil {
		respondDatastoreError(w, r, err)
		return
	}

	message := fmt.Sprintf("household %d not found", req.HshdNum)
	if len(rows) > 0 {
		message = fmt.Sprintf("household %d found", req.HshdNum)
	}
	respondSuccess(w, r, message, rows, len(rows), start)
}
