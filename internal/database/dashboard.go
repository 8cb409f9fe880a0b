// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package database

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/retailsight/internal/logging"
	"github.com/tomtom215/retailsight/internal/metrics"
	"github.com/tomtom215/retailsight/internal/models"
)

// Dashboard series names, in report order.
const (
	SeriesHouseholdSummary   = "household_summary"
	SeriesTransactionSummary = "transaction_summary"
	SeriesIncomeDistribution = "income_distribution"
	SeriesAgeDistribution    = "age_distribution"
	SeriesHouseholdSize      = "household_size_distribution"
	SeriesSpendByDepartment  = "spend_by_department"
	SeriesSpendByRegion      = "spend_by_store_region"
	SeriesSpendByYear        = "spend_by_year"
)

// Semantic display orders for banded labels. Labels outside a list sort
// after it alphabetically.
var (
	incomeBandOrder    = []string{"UNDER 35K", "35-49K", "50-74K", "75-99K", "100-150K", "150K+"}
	ageBandOrder       = []string{"19-24", "25-34", "35-44", "45-54", "55-64", "65-74", "75+"}
	householdSizeOrder = []string{"1", "2", "3", "4", "5+"}
)

// seriesQuery describes one dashboard series.
type seriesQuery struct {
	name  string
	build func(ctx context.Context, h *Handle) ([]models.SeriesPoint, error)
}

// groupedQuery renders a label/value aggregate that excludes null and blank
// keys. A group whose values are all null aggregates to 0.
func groupedQuery(labelExpr, valueExpr, from string) string {
	return fmt.Sprintf(`SELECT TRIM(%[1]s) AS label, CAST(COALESCE(%[2]s, 0) AS FLOAT8) AS value
FROM %[3]s
WHERE %[1]s IS NOT NULL AND TRIM(%[1]s) <> ''
GROUP BY TRIM(%[1]s)`, labelExpr, valueExpr, from)
}

var dashboardSeries = []seriesQuery{
	{SeriesHouseholdSummary, householdSummary},
	{SeriesTransactionSummary, transactionSummary},
	{SeriesIncomeDistribution, grouped(
		groupedQuery("income_range", "COUNT(DISTINCT hshd_num)", "households"), bandOrder(incomeBandOrder))},
	{SeriesAgeDistribution, grouped(
		groupedQuery("age_range", "COUNT(DISTINCT hshd_num)", "households"), bandOrder(ageBandOrder))},
	{SeriesHouseholdSize, grouped(
		groupedQuery("hh_size", "COUNT(DISTINCT hshd_num)", "households"), bandOrder(householdSizeOrder))},
	{SeriesSpendByDepartment, grouped(
		groupedQuery("p.department", "SUM(t.spend)",
			"transactions t JOIN products p ON p.product_num = t.product_num"), byValueDesc)},
	{SeriesSpendByRegion, grouped(
		groupedQuery("store_r", "SUM(spend)", "transactions"), byValueDesc)},
	{SeriesSpendByYear, grouped(
		`SELECT CAST(year AS TEXT) AS label, CAST(COALESCE(SUM(spend), 0) AS FLOAT8) AS value
FROM transactions
WHERE year IS NOT NULL
GROUP BY year`, byNumericLabel)},
}

// BuildDashboard runs the eight series queries concurrently. Any failure
// fails the whole report with a *ReportError naming the series.
func (q *Queries) BuildDashboard(ctx context.Context) (report *models.DashboardReport, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordReport(time.Since(start), err)
	}()

	h, err := q.sup.EnsureReady(ctx)
	if err != nil {
		return nil, err
	}

	series := make([]models.Series, len(dashboardSeries))
	g, gctx := errgroup.WithContext(ctx)
	for i, sq := range dashboardSeries {
		g.Go(func() error {
			points, err := sq.build(gctx, h)
			if err != nil {
				// Once one series fails the group is canceled; the
				// siblings' resulting errors are noise and are not logged.
				if gctx.Err() != nil {
					return &ReportError{Series: sq.name, Cause: err}
				}
				logging.Ctx(ctx).Error().
					Err(err).
					Str("operation", "dashboard").
					Str("series", sq.name).
					Time("at", time.Now()).
					Msg("Dashboard series query failed")
				return &ReportError{Series: sq.name, Cause: err}
			}
			series[i] = models.Series{Name: sq.name, Points: points}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.DashboardReport{GeneratedAt: time.Now().UTC(), Series: series}, nil
}

func householdSummary(ctx context.Context, h *Handle) ([]models.SeriesPoint, error) {
	var total, loyalPct float64
	// A household counts once however many rows it has, and is loyal when
	// any of its rows carries the Y flag.
	err := h.QueryRowContext(ctx, `SELECT
	CAST(COUNT(DISTINCT hshd_num) AS FLOAT8),
	CAST(COALESCE(100.0 * COUNT(DISTINCT CASE WHEN UPPER(TRIM(l)) = 'Y' THEN hshd_num END)
		/ NULLIF(COUNT(DISTINCT hshd_num), 0), 0) AS FLOAT8)
FROM households`).Scan(&total, &loyalPct)
	if err != nil {
		return nil, err
	}
	return []models.SeriesPoint{
		{Label: "total_households", Value: total},
		{Label: "loyalty_pct", Value: roundTo(loyalPct, 2)},
	}, nil
}

func transactionSummary(ctx context.Context, h *Handle) ([]models.SeriesPoint, error) {
	var baskets, spend, units float64
	err := h.QueryRowContext(ctx, `SELECT
	CAST(COUNT(DISTINCT basket_num) AS FLOAT8),
	CAST(COALESCE(SUM(spend), 0) AS FLOAT8),
	CAST(COALESCE(SUM(units), 0) AS FLOAT8)
FROM transactions`).Scan(&baskets, &spend, &units)
	if err != nil {
		return nil, err
	}
	avg := 0.0
	if baskets > 0 {
		avg = spend / baskets
	}
	return []models.SeriesPoint{
		{Label: "total_baskets", Value: baskets},
		{Label: "total_spend", Value: roundTo(spend, 2)},
		{Label: "total_units", Value: units},
		{Label: "avg_basket_spend", Value: roundTo(avg, 2)},
	}, nil
}

// grouped runs a label/value query and orders the points with less.
func grouped(query string, less func(a, b models.SeriesPoint) bool) func(context.Context, *Handle) ([]models.SeriesPoint, error) {
	return func(ctx context.Context, h *Handle) ([]models.SeriesPoint, error) {
		rows, err := h.QueryContext(ctx, query)
		if err != nil {
			return nil, err
		}
		defer closeQuietly(rows)

		points := make([]models.SeriesPoint, 0, 16)
		for rows.Next() {
			var p models.SeriesPoint
			if err := rows.Scan(&p.Label, &p.Value); err != nil {
				return nil, err
			}
			p.Value = roundTo(p.Value, 2)
			points = append(points, p)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		sort.SliceStable(points, func(i, j int) bool { return less(points[i], points[j]) })
		return points, nil
	}
}

// bandOrder sorts by position in order; unknown labels follow, alphabetically.
func bandOrder(order []string) func(a, b models.SeriesPoint) bool {
	rank := make(map[string]int, len(order))
	for i, label := range order {
		rank[label] = i
	}
	return func(a, b models.SeriesPoint) bool {
		ra, okA := rank[a.Label]
		rb, okB := rank[b.Label]
		switch {
		case okA && okB:
			return ra < rb
		case okA != okB:
			return okA
		default:
			return a.Label < b.Label
		}
	}
}

func byValueDesc(a, b models.SeriesPoint) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	return a.Label < b.Label
}

func byNumericLabel(a, b models.SeriesPoint) bool {
	na, errA := strconv.Atoi(a.Label)
	nb, errB := strconv.Atoi(b.Label)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a.Label < b.Label
}
