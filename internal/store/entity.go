// Package store implements the persistence facade shared by both database
// backends: a conventional PostgreSQL database driven through GORM, and the
// Cloudflare D1 serverless database driven through literal SQL text over its
// prepared-statement HTTP API. Route handlers speak one session vocabulary
// (query/get/add/merge/delete/commit) and never know which backend is live.
package store

import (
	"context"
	"strconv"
	"time"
)

// Entity is implemented by every persisted record type. The column list is a
// static mapping declared per model (no runtime reflection on the serverless
// path): ColumnNames and ColumnValues must agree in length and order and must
// exclude the primary key and any relationship fields.
type Entity interface {
	TableName() string
	GetID() int64
	SetID(id int64)
	// ColumnNames returns the insert/update column set in a fixed order.
	ColumnNames() []string
	// ColumnValues returns the values matching ColumnNames. Nullable fields
	// are returned as untyped nil when unset.
	ColumnValues() []any
	// LoadRow overwrites the entity's fields from a raw result row.
	LoadRow(row Row)
}

// Row is a single raw result row keyed by column name. Values carry whatever
// the backend's decoder produced (JSON numbers arrive as float64).
type Row map[string]any

// Statement is one SQL statement with positional parameters.
type Statement struct {
	SQL    string
	Params []any
}

// Result is the outcome of executing a Statement.
type Result struct {
	Rows         []Row
	LastRowID    int64
	RowsAffected int64
}

// Executor is the prepared-statement surface of the serverless storage
// engine. The production implementation is the D1 HTTP client; tests supply
// an in-memory fake.
type Executor interface {
	Execute(ctx context.Context, stmt Statement) (Result, error)
	ExecuteBatch(ctx context.Context, stmts []Statement) error
}

// ISO-8601 layouts used when binding temporal values. D1 stores dates and
// timestamps as text, so every time.Time is serialized before binding.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// BindValue converts a Go value into a form the serverless engine accepts as
// a positional parameter. Temporal values become ISO-8601 strings, booleans
// become 0/1 integers.
func BindValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(DateLayout)
		}
		return t.Format(DateTimeLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return BindValue(*t)
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	case *int64:
		if t == nil {
			return nil
		}
		return *t
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case *float64:
		if t == nil {
			return nil
		}
		return *t
	case *bool:
		if t == nil {
			return nil
		}
		return BindValue(*t)
	default:
		return v
	}
}

// RowInt64 reads an integer column, tolerating the float64 and string forms
// JSON decoding produces.
func RowInt64(row Row, col string) int64 {
	switch v := row[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// RowInt64Ptr is RowInt64 for nullable columns: nil stays nil.
func RowInt64Ptr(row Row, col string) *int64 {
	if v, ok := row[col]; !ok || v == nil {
		return nil
	}
	n := RowInt64(row, col)
	return &n
}

// RowFloat reads a numeric column as float64.
func RowFloat(row Row, col string) float64 {
	switch v := row[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// RowString reads a text column. Non-string scalars are not converted; absent
// and NULL both yield "".
func RowString(row Row, col string) string {
	if v, ok := row[col].(string); ok {
		return v
	}
	return ""
}

// RowStringPtr is RowString for nullable columns.
func RowStringPtr(row Row, col string) *string {
	if v, ok := row[col]; !ok || v == nil {
		return nil
	}
	s := RowString(row, col)
	return &s
}

// RowBool reads a boolean column, accepting SQLite's 0/1 integer form.
func RowBool(row Row, col string) bool {
	switch v := row[col].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int64:
		return v != 0
	case string:
		return v == "1" || v == "true" || v == "t"
	default:
		return false
	}
}

// RowTime parses a temporal column from its ISO-8601 text form. The zero
// time is returned when the column is NULL or unparseable.
func RowTime(row Row, col string) time.Time {
	switch v := row[col].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{DateTimeLayout, DateLayout, time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
