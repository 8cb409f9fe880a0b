// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package database

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestLoad_AtomicReplace(t *testing.T) {
	sup := setupTestSupervisor(t)
	loader := NewLoader(sup)
	ctx := context.Background()

	n, err := loader.Load(ctx, TableHouseholds, []Row{
		{"HSHD_NUM": "1", "AGE_RANGE": "35-44"},
		{"HSHD_NUM": "2", "AGE_RANGE": "45-54"},
		{"HSHD_NUM": "3", "AGE_RANGE": "55-64"},
	})
	checkNoError(t, err)
	checkIntEqual(t, "rows loaded", n, 3)
	checkIntEqual(t, "row count", countRows(t, sup, TableHouseholds), 3)

	n, err = loader.Load(ctx, TableHouseholds, []Row{
		{"HSHD_NUM": "10", "AGE_RANGE": "19-24"},
		{"HSHD_NUM": "11"},
	})
	checkNoError(t, err)
	checkIntEqual(t, "rows loaded", n, 2)
	checkIntEqual(t, "row count", countRows(t, sup, TableHouseholds), 2)

	h, err := sup.EnsureReady(ctx)
	checkNoError(t, err)
	rows, err := h.QueryContext(ctx, `SELECT hshd_num, age_range FROM households ORDER BY hshd_num`)
	checkNoError(t, err)
	defer closeQuietly(rows)

	type rec struct {
		num int
		age *string
	}
	var got []rec
	for rows.Next() {
		var r rec
		checkNoError(t, rows.Scan(&r.num, &r.age))
		got = append(got, r)
	}
	checkNoError(t, rows.Err())

	if len(got) != 2 || got[0].num != 10 || got[1].num != 11 {
		t.Fatalf("unexpected rows after replace: %+v", got)
	}
	if got[0].age == nil || *got[0].age != "19-24" {
		t.Errorf("age_range for 10 = %v, want 19-24", got[0].age)
	}
	if got[1].age != nil {
		t.Errorf("absent age_range should be NULL, got %q", *got[1].age)
	}
}

func TestLoad_RollsBackOnInsertFailure(t *testing.T) {
	sup := setupTestSupervisor(t)
	loader := NewLoader(sup)
	ctx := context.Background()

	// Recreate households with a NOT NULL key so a row without one fails mid-batch.
	mustExec(t, sup, `DROP TABLE households`)
	mustExec(t, sup, `CREATE TABLE households (
		hshd_num INTEGER NOT NULL, l CHAR(1), age_range VARCHAR(20), marital VARCHAR(20),
		income_range VARCHAR(20), homeowner VARCHAR(20), hshd_composition VARCHAR(30),
		hh_size VARCHAR(10), children VARCHAR(10))`)

	_, err := loader.Load(ctx, TableHouseholds, []Row{{"HSHD_NUM": "1"}, {"HSHD_NUM": "2"}})
	checkNoError(t, err)

	_, err = loader.Load(ctx, TableHouseholds, []Row{
		{"HSHD_NUM": "5"},
		{"AGE_RANGE": "25-34"},
		{"HSHD_NUM": "6"},
	})
	checkError(t, err)

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got %T: %v", err, err)
	}
	checkStringEqual(t, "table", loadErr.Table, TableHouseholds)
	if loadErr.Cause == nil {
		t.Error("LoadError should carry the cause")
	}

	// Pre-call content survives.
	checkIntEqual(t, "row count", countRows(t, sup, TableHouseholds), 2)
	h, err := sup.EnsureReady(ctx)
	checkNoError(t, err)
	var sum int
	checkNoError(t, h.QueryRowContext(ctx, `SELECT CAST(SUM(hshd_num) AS INTEGER) FROM households`).Scan(&sum))
	checkIntEqual(t, "key sum", sum, 3)
}

func TestLoad_UnknownTable(t *testing.T) {
	c := &scriptedConnector{}
	sup := newScriptedSupervisor(t, c)
	loader := NewLoader(sup)

	_, err := loader.Load(context.Background(), "customers", []Row{{"ID": "1"}})
	if !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Table != "customers" {
		t.Errorf("expected LoadError for customers, got %v", err)
	}
	checkIntEqual(t, "connect calls", c.callCount(), 0)
}

func TestLoad_ConnectionFailure(t *testing.T) {
	c := &scriptedConnector{failures: 100}
	sup := newScriptedSupervisor(t, c, WithSleep(noSleep))
	loader := NewLoader(sup)

	_, err := loader.Load(context.Background(), TableProducts, []Row{{"PRODUCT_NUM": "1"}})
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
}

func TestLoad_CoercionPolicy(t *testing.T) {
	sup := setupTestSupervisor(t)
	loader := NewLoader(sup)
	ctx := context.Background()

	n, err := loader.Load(ctx, TableTransactions, []Row{
		{},
		{"BASKET_NUM": "", "HSHD_NUM": "x", "PURCHASE_": "17-AUG-18", "SPEND": "4.999", "UNITS": "2", "STORE_R": "EAST", "YEAR": "2018"},
	})
	checkNoError(t, err)
	checkIntEqual(t, "rows loaded", n, 2)

	h, err := sup.EnsureReady(ctx)
	checkNoError(t, err)

	var nulls int
	checkNoError(t, h.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions
		WHERE basket_num IS NULL AND hshd_num IS NULL AND purchase_ IS NULL AND product_num IS NULL
		AND spend IS NULL AND units IS NULL AND store_r IS NULL AND week_num IS NULL AND year IS NULL`).Scan(&nulls))
	checkIntEqual(t, "all-null rows", nulls, 1)

	var (
		basket, hshd *int64
		purchase     string
		spend        float64
	)
	checkNoError(t, h.QueryRowContext(ctx, `SELECT basket_num, hshd_num, CAST(purchase_ AS TEXT), CAST(spend AS FLOAT8)
		FROM transactions WHERE year = 2018`).Scan(&basket, &hshd, &purchase, &spend))
	if basket != nil || hshd != nil {
		t.Errorf("unparseable integers should be NULL, got %v %v", basket, hshd)
	}
	checkStringEqual(t, "purchase_", purchase, "2018-08-17")
	if spend != 5.00 {
		t.Errorf("spend = %v, want 5.00", spend)
	}
}

func TestLoad_OutOfRangeNumbersBecomeNull(t *testing.T) {
	sup := setupTestSupervisor(t)
	ctx := context.Background()

	n, err := NewLoader(sup).Load(ctx, TableTransactions, []Row{
		{"BASKET_NUM": "99999999999", "HSHD_NUM": "1", "SPEND": "1e12", "UNITS": "1e30"},
		{"BASKET_NUM": "2", "HSHD_NUM": "1", "SPEND": "4.50", "UNITS": "3"},
	})
	checkNoError(t, err)
	checkIntEqual(t, "rows loaded", n, 2)

	h, err := sup.EnsureReady(ctx)
	checkNoError(t, err)
	var nullBaskets, nullSpends, nullUnits int
	checkNoError(t, h.QueryRowContext(ctx, `SELECT
	CAST(COUNT(*) FILTER (WHERE basket_num IS NULL) AS INTEGER),
	CAST(COUNT(*) FILTER (WHERE spend IS NULL) AS INTEGER),
	CAST(COUNT(*) FILTER (WHERE units IS NULL) AS INTEGER)
FROM transactions`).Scan(&nullBaskets, &nullSpends, &nullUnits))
	checkIntEqual(t, "null basket_num", nullBaskets, 1)
	checkIntEqual(t, "null spend", nullSpends, 1)
	checkIntEqual(t, "null units", nullUnits, 1)
}

func TestLoad_EmptyBatchClearsTable(t *testing.T) {
	sup := setupTestSupervisor(t)
	loader := NewLoader(sup)
	ctx := context.Background()

	_, err := loader.Load(ctx, TableProducts, []Row{{"PRODUCT_NUM": "1", "DEPARTMENT": "FOOD"}})
	checkNoError(t, err)

	n, err := loader.Load(ctx, TableProducts, nil)
	checkNoError(t, err)
	checkIntEqual(t, "rows loaded", n, 0)
	checkIntEqual(t, "row count", countRows(t, sup, TableProducts), 0)
}

func TestLoad_SerializesSameTable(t *testing.T) {
	sup := setupTestSupervisor(t)
	loader := NewLoader(sup)
	ctx := context.Background()

	batchA := []Row{{"PRODUCT_NUM": "1"}, {"PRODUCT_NUM": "2"}, {"PRODUCT_NUM": "3"}}
	batchB := []Row{{"PRODUCT_NUM": "7"}}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, batch := range [][]Row{batchA, batchB} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = loader.Load(ctx, TableProducts, batch)
		}()
	}
	wg.Wait()

	checkNoError(t, errs[0])
	checkNoError(t, errs[1])
	n := countRows(t, sup, TableProducts)
	if n != len(batchA) && n != len(batchB) {
		t.Errorf("row count %d matches neither batch; loads interleaved", n)
	}
}
