package store

import (
	"reflect"
	"testing"
	"time"
)

func TestTranslateJoinsWithAnd(t *testing.T) {
	sql, args, err := Translate([]Clause{Eq("status", "active"), Gt("age", 18)})
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	if sql != "status = ? AND age > ?" {
		t.Fatalf("unexpected sql: %q", sql)
	}
	if !reflect.DeepEqual(args, []any{"active", 18}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestTranslateEmpty(t *testing.T) {
	sql, args, err := Translate(nil)
	if err != nil || sql != "" || args != nil {
		t.Fatalf("expected empty fragment, got %q %v %v", sql, args, err)
	}
}

func TestTranslateLikeIsCaseInsensitive(t *testing.T) {
	sql, args, err := Translate([]Clause{Like("full_name", "%Ahmed%")})
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	if sql != "LOWER(full_name) LIKE ?" {
		t.Fatalf("unexpected sql: %q", sql)
	}
	if args[0] != "%ahmed%" {
		t.Fatalf("pattern not lowercased: %v", args[0])
	}
}

func TestTranslateEmptyInMatchesNothing(t *testing.T) {
	sql, args, err := Translate([]Clause{In("halqa_id")})
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	if sql != "1 = 0" {
		t.Fatalf("unexpected sql: %q", sql)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}

func TestTranslateIn(t *testing.T) {
	sql, args, err := Translate([]Clause{In("id", 1, 2, 3)})
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	if sql != "id IN (?, ?, ?)" {
		t.Fatalf("unexpected sql: %q", sql)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestTranslateOrGroup(t *testing.T) {
	sql, _, err := Translate([]Clause{
		Or(Like("full_name", "%x%"), Like("email", "%x%")),
		Eq("status", "active"),
	})
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	want := "(LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?) AND status = ?"
	if sql != want {
		t.Fatalf("unexpected sql: %q", sql)
	}
}

func TestTranslateSerializesTimes(t *testing.T) {
	day := time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC)
	_, args, err := Translate([]Clause{Ge("date", day)})
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	if args[0] != "2026-02-19" {
		t.Fatalf("date not serialized: %v", args[0])
	}

	_, native, err := TranslateNative([]Clause{Ge("date", day)})
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	if _, ok := native[0].(time.Time); !ok {
		t.Fatalf("native translation should keep time.Time, got %T", native[0])
	}
}

func TestTranslateRejectsEmptyOr(t *testing.T) {
	if _, _, err := Translate([]Clause{Or()}); err == nil {
		t.Fatal("expected error for empty OR group")
	}
}
