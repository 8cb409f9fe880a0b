// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/retailsight/internal/logging"
	"github.com/tomtom215/retailsight/internal/metrics"
	"github.com/tomtom215/retailsight/internal/models"
)

// Queries is the read side of the datastore: household lookups and the
// dashboard report. Every call first obtains a Ready handle from the Supervisor.
type Queries struct {
	sup *Supervisor
}

// NewQueries creates the query facade.
func NewQueries(sup *Supervisor) *Queries {
	return &Queries{sup: sup}
}

const householdExistsQuery = `SELECT 1 FROM households WHERE hshd_num = $1 LIMIT 1`

const householdJoinQuery = `
SELECT
	h.hshd_num,
	t.basket_num,
	t.purchase_,
	t.product_num,
	p.department,
	p.commodity,
	CAST(t.spend AS FLOAT8),
	t.units,
	t.store_r,
	t.week_num,
	t.year,
	h.l,
	h.age_range,
	h.marital,
	h.income_range,
	h.homeowner,
	h.hshd_composition,
	h.hh_size,
	h.children
FROM households h
LEFT JOIN transactions t ON t.hshd_num = h.hshd_num
LEFT JOIN products p ON p.product_num = t.product_num
WHERE h.hshd_num = $1
ORDER BY h.hshd_num, t.basket_num, t.purchase_, t.product_num, p.department, p.commodity`

// FindHousehold returns the joined rows for one household. An unknown
// household yields an empty, non-nil slice without running the join.
func (q *Queries) FindHousehold(ctx context.Context, hshdNum int) ([]models.HouseholdRow, error) {
	h, err := q.sup.EnsureReady(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var one int
	err = h.QueryRowContext(ctx, householdExistsQuery, hshdNum).Scan(&one)
	metrics.RecordDBQuery("exists", TableHouseholds, time.Since(start), ignoreNoRows(err))
	if errors.Is(err, sql.ErrNoRows) {
		return []models.HouseholdRow{}, nil
	}
	if err != nil {
		logFailure(ctx, "household_exists", err)
		return nil, fmt.Errorf("household existence probe failed: %w", err)
	}

	start = time.Now()
	rows, err := h.QueryContext(ctx, householdJoinQuery, hshdNum)
	if err != nil {
		metrics.RecordDBQuery("join", TableHouseholds, time.Since(start), err)
		logFailure(ctx, "household_join", err)
		return nil, fmt.Errorf("household query failed: %w", err)
	}
	defer closeQuietly(rows)

	result := make([]models.HouseholdRow, 0, 64)
	for rows.Next() {
		r, err := scanHouseholdRow(rows)
		if err != nil {
			logFailure(ctx, "household_scan", err)
			return nil, fmt.Errorf("failed to scan household row: %w", err)
		}
		result = append(result, r)
	}
	err = rows.Err()
	metrics.RecordDBQuery("join", TableHouseholds, time.Since(start), err)
	if err != nil {
		logFailure(ctx, "household_join", err)
		return nil, fmt.Errorf("error iterating household rows: %w", err)
	}
	return result, nil
}

func scanHouseholdRow(rows *sql.Rows) (models.HouseholdRow, error) {
	var (
		r                                        models.HouseholdRow
		basket, product, units, week, year       sql.NullInt64
		purchase                                 sql.NullTime
		spend                                    sql.NullFloat64
		department, commodity, storeR            sql.NullString
		loyalty, age, marital, income, homeowner sql.NullString
		composition, size, children              sql.NullString
	)

	if err := rows.Scan(
		&r.HshdNum, &basket, &purchase, &product, &department, &commodity,
		&spend, &units, &storeR, &week, &year,
		&loyalty, &age, &marital, &income, &homeowner, &composition, &size, &children,
	); err != nil {
		return r, err
	}

	r.BasketNum = nullInt(basket)
	r.ProductNum = nullInt(product)
	r.Units = nullInt(units)
	r.WeekNum = nullInt(week)
	r.Year = nullInt(year)
	if purchase.Valid {
		d := purchase.Time.Format(time.DateOnly)
		r.Date = &d
	}
	if spend.Valid {
		v := spend.Float64
		r.Spend = &v
	}

	r.Department = orNotAvailable(department)
	r.Commodity = orNotAvailable(commodity)
	r.StoreRegion = orNotAvailable(storeR)
	r.LoyaltyFlag = orNotAvailable(loyalty)
	r.AgeRange = orNotAvailable(age)
	r.MaritalStatus = orNotAvailable(marital)
	r.IncomeRange = orNotAvailable(income)
	r.HomeownerDesc = orNotAvailable(homeowner)
	r.HshdComposition = orNotAvailable(composition)
	r.HshdSize = orNotAvailable(size)
	r.Children = orNotAvailable(children)
	return r, nil
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// orNotAvailable renders null, empty and whitespace-only text as "N/A".
func orNotAvailable(s sql.NullString) string {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return models.NotAvailable
	}
	return s.String
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

func logFailure(ctx context.Context, operation string, err error) {
	logging.Ctx(ctx).Error().
		Err(err).
		Str("operation", operation).
		Time("at", time.Now()).
		Msg("Datastore query failed")
}
