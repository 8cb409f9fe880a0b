// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package api

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/retailsight/internal/database"
	"github.com/tomtom215/retailsight/internal/ingest"
	"github.com/tomtom215/retailsight/internal/logging"
	"github.com/tomtom215/retailsight/internal/models"
	"github.com/tomtom215/retailsight/internal/validation"
)

// multipartMemory is the part of a multipart upload kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// tableBatch is one parsed upload part.
type tableBatch struct {
	table string
	rows  []database.Row
}

// Upload replaces tables from a multipart form whose parts are named
// households, transactions and products. Any subset may be sent. All parts
// are parsed before the first load; loads then run in dependency order and
// each table is replaced atomically on its own.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondBodyError(w, r, err)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to remove multipart temp files")
		}
	}()

	batches := make([]tableBatch, 0, 3)
	for _, table := range database.TableNames() {
		files := r.MultipartForm.File[table]
		if len(files) == 0 {
			continue
		}

		f, err := files[0].Open()
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest,
				fmt.Sprintf("Cannot read %s part", table), err)
			return
		}
		rows, err := ingest.ReadRows(f)
		_ = f.Close() //nolint:errcheck // multipart file, read-only
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeInvalidCSV,
				fmt.Sprintf("Invalid CSV in %s part", table), err)
			return
		}
		batches = append(batches, tableBatch{table: table, rows: rows})
	}

	if len(batches) == 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeNoFiles,
			"Upload must include a households, transactions or products file", errNoUploadParts)
		return
	}

	result := models.UploadResult{Tables: make([]models.TableLoad, 0, len(batches))}
	for _, b := range batches {
		n, err := h.loader.Load(r.Context(), b.table, b.rows)
		if err != nil {
			if len(result.Tables) > 0 {
				logging.Ctx(r.Context()).Warn().
					Interface("loaded", result.Tables).
					Str("failed_table", b.table).
					Msg("Upload stopped after partial load")
			}
			respondDatastoreError(w, r, err)
			return
		}
		result.Tables = append(result.Tables, models.TableLoad{Table: b.table, Rows: n})
	}

	logging.Ctx(r.Context()).Info().
		Interface("tables", result.Tables).
		Dur("duration", time.Since(start)).
		Msg("Upload completed")

	respondSuccess(w, r, "upload completed", result, len(result.Tables), start)
}

// UploadTable replaces one table from a raw CSV request body.
func (h *Handler) UploadTable(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := validation.TableUploadRequest{Table: strings.ToLower(strings.TrimSpace(chi.URLParam(r, "table")))}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes()))
	if err != nil {
		respondBodyError(w, r, err)
		return
	}
	rows, err := ingest.ReadRows(bytes.NewReader(body))
	if err != nil {
		respondBodyError(w, r, err)
		return
	}

	n, err := h.loader.Load(r.Context(), req.Table, rows)
	if err != nil {
		respondDatastoreError(w, r, err)
		return
	}

	result := models.UploadResult{Tables: []models.TableLoad{{Table: req.Table, Rows: n}}}
	respondSuccess(w, r, "upload completed", result, 1, start)
}

// respondBodyError distinguishes oversized bodies from malformed ones.
func respondBodyError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		tooLarge *http.MaxBytesError
		csvErr   *csv.ParseError
	)
	switch {
	case errors.As(err, &tooLarge):
		respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
			fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit), err)
	case errors.Is(err, ingest.ErrNoHeader), errors.As(err, &csvErr):
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidCSV, "Invalid CSV upload", err)
	default:
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid upload body", err)
	}
}

func (h *Handler) maxUploadBytes() int64 {
	if h.config != nil && h.config.Upload.MaxBytes > 0 {
		return h.config.Upload.MaxBytes
	}
	return 64 << 20
}
