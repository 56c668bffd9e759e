package store

import (
	"testing"
	"time"
)

func TestBindValueTimes(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := BindValue(day); got != "2026-03-01" {
		t.Fatalf("midnight time should bind as date: %v", got)
	}
	ts := time.Date(2026, 3, 1, 13, 30, 5, 0, time.UTC)
	if got := BindValue(ts); got != "2026-03-01T13:30:05" {
		t.Fatalf("timestamp binding: %v", got)
	}
}

func TestBindValueNilPointers(t *testing.T) {
	var (
		i *int64
		s *string
		b *bool
		f *float64
		w *time.Time
	)
	for _, v := range []any{i, s, b, f, w} {
		if got := BindValue(v); got != nil {
			t.Fatalf("nil pointer %T should bind as nil, got %v", v, got)
		}
	}
	n := int64(9)
	if got := BindValue(&n); got != int64(9) {
		t.Fatalf("pointer not dereferenced: %v", got)
	}
}

func TestBindValueBool(t *testing.T) {
	if BindValue(true) != int64(1) || BindValue(false) != int64(0) {
		t.Fatal("booleans must bind as 0/1")
	}
}

func TestRowCoercions(t *testing.T) {
	row := Row{
		"n":    float64(10),
		"s":    "text",
		"b":    float64(1),
		"when": "2026-02-19",
		"null": nil,
	}
	if RowInt64(row, "n") != 10 {
		t.Fatal("float64 column should coerce to int64")
	}
	if RowString(row, "s") != "text" {
		t.Fatal("string column")
	}
	if !RowBool(row, "b") {
		t.Fatal("0/1 column should coerce to bool")
	}
	if got := RowTime(row, "when"); got.Format(DateLayout) != "2026-02-19" {
		t.Fatalf("date column: %v", got)
	}
	if RowInt64Ptr(row, "null") != nil || RowStringPtr(row, "null") != nil {
		t.Fatal("NULL columns should stay nil")
	}
	if RowInt64Ptr(row, "missing") != nil {
		t.Fatal("absent columns should stay nil")
	}
}
