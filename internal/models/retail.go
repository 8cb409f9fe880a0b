// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package models

import "time"

// NotAvailable replaces null or blank text in household lookups.
const NotAvailable = "N/A"

// HouseholdRow is one row of the household lookup: a household joined with
// one of its transactions and that transaction's product. Households without
// transactions yield a single row whose transaction and product fields are
// null or "N/A". Field names follow the column aliases of the original
// retail export.
type HouseholdRow struct {
	HshdNum         int64    `json:"HSHD_NUM"`
	BasketNum       *int64   `json:"BASKET_NUM"`
	Date            *string  `json:"Date"`
	ProductNum      *int64   `json:"PRODUCT_NUM"`
	Department      string   `json:"DEPARTMENT"`
	Commodity       string   `json:"COMMODITY"`
	Spend           *float64 `json:"SPEND"`
	Units           *int64   `json:"UNITS"`
	StoreRegion     string   `json:"STORE_REGION"`
	WeekNum         *int64   `json:"WEEK_NUM"`
	Year            *int64   `json:"YEAR"`
	LoyaltyFlag     string   `json:"LOYALTY_FLAG"`
	AgeRange        string   `json:"AGE_RANGE"`
	MaritalStatus   string   `json:"MARITAL_STATUS"`
	IncomeRange     string   `json:"INCOME_RANGE"`
	HomeownerDesc   string   `json:"HOMEOWNER_DESC"`
	HshdComposition string   `json:"HSHD_COMPOSITION"`
	HshdSize        string   `json:"HSHD_SIZE"`
	Children        string   `json:"CHILDREN"`
}

// DashboardReport is the eight-series aggregate snapshot. It is rebuilt on
// every request and is either complete or not returned at all.
type DashboardReport struct {
	GeneratedAt time.Time `json:"generated_at"`
	Series      []Series  `json:"series"`
}

// Lookup returns the named series.
func (r *DashboardReport) Lookup(name string) (Series, bool) {
	for _, s := range r.Series {
		if s.Name == name {
			return s, true
		}
	}
	return Series{}, false
}

// Series is a named list of label/value points in display order.
type Series struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}

// SeriesPoint is one label/value pair.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// UploadResult reports the rows committed per table by an upload.
type UploadResult struct {
	Tables []TableLoad `json:"tables"`
}

// TableLoad is the outcome of replacing one table.
type TableLoad struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// HealthStatus reports process and datastore health.
type HealthStatus struct {
	Status         string     `json:"status"`
	Version        string     `json:"version"`
	DatabaseState  string     `json:"database_state"`
	DatabaseReady  bool       `json:"database_ready"`
	ConnectRetries int        `json:"connect_retries"`
	Pool           *PoolStats `json:"pool,omitempty"`
	Uptime         float64    `json:"uptime_seconds"`
}

// PoolStats is a snapshot of datastore pool usage.
type PoolStats struct {
	OpenConnections int `json:"open_connections"`
	InUse           int `json:"in_use"`
	Idle            int `json:"idle"`
}
