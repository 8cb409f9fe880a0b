// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

// Package ingest turns uploaded CSV files into loosely-typed rows for the
// bulk loader. Values stay raw strings; coercion happens in the database
// package against the target schema.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/retailsight/internal/database"
)

// ErrNoHeader is returned for input without a header record.
var ErrNoHeader = errors.New("csv input has no header row")

const utf8BOM = "\ufeff"

// ReadRows parses CSV with a header row. Header names are trimmed and
// upper-cased so "hshd_num " and "HSHD_NUM" land on the same key. Short
// records leave their trailing columns absent; extra cells are dropped.
func ReadRows(r io.Reader) ([]database.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		keys[i] = strings.ToUpper(strings.TrimSpace(h))
	}

	rows := make([]database.Row, 0, 256)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record %d: %w", len(rows)+1, err)
		}

		row := make(database.Row, len(keys))
		for i, key := range keys {
			if key == "" || i >= len(record) {
				continue
			}
			row[key] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
