// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package database

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/retailsight/internal/logging"
)

// Row is one loosely-typed source record keyed by column name. Keys are
// matched case-insensitively after trimming, so both CSV headers
// ("HSHD_NUM") and column names ("hshd_num") work.
type Row map[string]any

// Kind is the scalar type of a column.
type Kind int

const (
	KindInteger Kind = iota
	KindDecimal
	KindText
	KindDate
)

// Column describes one target column and how source values are coerced into it.
type Column struct {
	Name string

	Kind Kind

	// Length and Fixed apply to KindText (CHAR(n) when Fixed, else VARCHAR(n)).
	Length int
	Fixed  bool

	// Precision and Scale apply to KindDecimal.
	Precision int
	Scale     int
}

// Table is a target table of the bulk loader.
type Table struct {
	Name    string
	Columns []Column
}

func intCol(name string) Column  { return Column{Name: name, Kind: KindInteger} }
func dateCol(name string) Column { return Column{Name: name, Kind: KindDate} }
func charCol(name string, n int) Column {
	return Column{Name: name, Kind: KindText, Length: n, Fixed: true}
}
func varcharCol(name string, n int) Column {
	return Column{Name: name, Kind: KindText, Length: n}
}
func decimalCol(name string, precision, scale int) Column {
	return Column{Name: name, Kind: KindDecimal, Precision: precision, Scale: scale}
}

// Retail table names.
const (
	TableHouseholds   = "households"
	TableTransactions = "transactions"
	TableProducts     = "products"
)

// schema is the coercion table. Adding a target table means adding an entry here.
var schema = map[string]*Table{
	TableHouseholds: {
		Name: TableHouseholds,
		Columns: []Column{
			intCol("hshd_num"),
			charCol("l", 1),
			varcharCol("age_range", 20),
			varcharCol("marital", 20),
			varcharCol("income_range", 20),
			varcharCol("homeowner", 20),
			varcharCol("hshd_composition", 30),
			varcharCol("hh_size", 10),
			varcharCol("children", 10),
		},
	},
	TableTransactions: {
		Name: TableTransactions,
		Columns: []Column{
			intCol("basket_num"),
			intCol("hshd_num"),
			dateCol("purchase_"),
			intCol("product_num"),
			decimalCol("spend", 10, 2),
			intCol("units"),
			varcharCol("store_r", 10),
			intCol("week_num"),
			intCol("year"),
		},
	},
	TableProducts: {
		Name: TableProducts,
		Columns: []Column{
			intCol("product_num"),
			varcharCol("department", 50),
			varcharCol("commodity", 50),
			varcharCol("brand_ty", 20),
			charCol("natural_organic_flag", 1),
		},
	},
}

// TableNames lists the target tables in dependency order.
func TableNames() []string {
	return []string{TableHouseholds, TableProducts, TableTransactions}
}

// LookupTable returns the schema entry for name.
func LookupTable(name string) (*Table, bool) {
	t, ok := schema[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// SQLType renders the column type for DDL.
func (c Column) SQLType() string {
	switch c.Kind {
	case KindInteger:
		return "INTEGER"
	case KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", c.Precision, c.Scale)
	case KindDate:
		return "DATE"
	default:
		if c.Fixed {
			return fmt.Sprintf("CHAR(%d)", c.Length)
		}
		return fmt.Sprintf("VARCHAR(%d)", c.Length)
	}
}

// placeholder renders the bind parameter for position n.
func (c Column) placeholder(n int) string {
	switch c.Kind {
	case KindDate:
		return fmt.Sprintf("CAST($%d AS DATE)", n)
	case KindDecimal:
		return fmt.Sprintf("CAST($%d AS %s)", n, c.SQLType())
	default:
		return fmt.Sprintf("$%d", n)
	}
}

// value finds the source value for the column in row.
func (r Row) value(column string) (any, bool) {
	if v, ok := r[strings.ToUpper(column)]; ok {
		return v, true
	}
	if v, ok := r[column]; ok {
		return v, true
	}
	for k, v := range r {
		if strings.EqualFold(strings.TrimSpace(k), column) {
			return v, true
		}
	}
	return nil, false
}

// Coerce converts a source value to the bind value for the column. Numeric
// and date values that cannot be parsed become nil, and so do numbers the
// column type cannot hold; text passes through.
func (c Column) Coerce(v any) any {
	if v == nil {
		return nil
	}
	switch c.Kind {
	case KindInteger:
		if n, ok := toInt64(v); ok && n >= math.MinInt32 && n <= math.MaxInt32 {
			return n
		}
		return nil
	case KindDecimal:
		if f, ok := toFloat64(v); ok {
			if f = roundTo(f, c.Scale); c.fitsDecimal(f) {
				return f
			}
		}
		return nil
	case KindDate:
		if d, ok := toDate(v); ok {
			return d.Format(time.DateOnly)
		}
		return nil
	default:
		return toText(v)
	}
}

// fitsDecimal reports whether f has at most Precision-Scale integer digits.
func (c Column) fitsDecimal(f float64) bool {
	if c.Precision <= 0 {
		return true
	}
	return math.Abs(f) < math.Pow10(c.Precision-c.Scale)
}

// floatToInt64 truncates f, rejecting values outside the int64 range.
func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return floatToInt64(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt64(f)
		}
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func roundTo(f float64, scale int) float64 {
	p := math.Pow10(scale)
	return math.Round(f*p) / p
}

// dateLayouts are tried in order. "02-Jan-06" covers the retail export
// format (17-AUG-18); time.Parse matches month names case-insensitively.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
	"02-Jan-06",
	"02-Jan-2006",
	"01/02/2006",
}

func toDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		return d, true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func toText(v any) any {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}

// quoteIdent quotes an identifier for both PostgreSQL and DuckDB.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createStatement renders CREATE TABLE IF NOT EXISTS for the table.
func (t *Table) createStatement() string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c.Name) + " " + c.SQLType()
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(t.Name), strings.Join(cols, ", "))
}

// insertStatement renders a positional INSERT covering every column.
func (t *Table) insertStatement() string {
	names := make([]string, len(t.Columns))
	params := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = quoteIdent(c.Name)
		params[i] = c.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.Name), strings.Join(names, ", "), strings.Join(params, ", "))
}

// deleteStatement renders the unconditional DELETE used by atomic replace.
func (t *Table) deleteStatement() string {
	return "DELETE FROM " + quoteIdent(t.Name)
}

// args coerces row into bind arguments in column order.
func (t *Table) args(row Row) []any {
	out := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		v, _ := row.value(c.Name)
		out[i] = c.Coerce(v)
	}
	return out
}

// EnsureSchema creates any missing retail tables.
func EnsureSchema(ctx context.Context, sup *Supervisor) error {
	h, err := sup.EnsureReady(ctx)
	if err != nil {
		return err
	}
	return CreateTables(ctx, h)
}

// CreateTables issues CREATE TABLE IF NOT EXISTS for every retail table on h.
// It is a ConnectHook, so a supervisor can recreate the schema on every
// reconnect (an in-memory DuckDB starts empty each time).
func CreateTables(ctx context.Context, h *Handle) error {
	for _, name := range TableNames() {
		if _, err := h.ExecContext(ctx, schema[name].createStatement()); err != nil {
			logging.Error().Err(err).Str("table", name).Time("at", time.Now()).Msg("Failed to create table")
			return fmt.Errorf("failed to create table %s: %w", name, err)
		}
	}
	logging.Info().Strs("tables", TableNames()).Msg("Schema ensured")
	return nil
}
