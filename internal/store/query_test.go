package store

import (
	"context"
	"testing"
)

func TestQueryAllBuildsSelect(t *testing.T) {
	exec := &fakeExecutor{results: []Result{
		{Rows: []Row{
			{"id": float64(1), "title": "a"},
			{"id": float64(2), "title": "b"},
		}},
	}}
	sess := NewD1Session(exec)

	notes, err := NewQuery[note](sess).
		FilterBy("done", false).
		OrderBy(Desc("id")).
		Limit(10).
		All(context.Background())
	if err != nil {
		t.Fatalf("all error: %v", err)
	}
	if len(notes) != 2 || notes[0].ID != 1 || notes[1].Title != "b" {
		t.Fatalf("unexpected result: %+v", notes)
	}
	want := "SELECT * FROM notes WHERE done = ? ORDER BY id DESC LIMIT 10"
	if exec.stmts[0].SQL != want {
		t.Fatalf("unexpected sql: %q", exec.stmts[0].SQL)
	}
	if exec.stmts[0].Params[0] != int64(0) {
		t.Fatalf("bool filter not serialized: %v", exec.stmts[0].Params)
	}
}

func TestQueryFirst(t *testing.T) {
	exec := &fakeExecutor{results: []Result{
		{Rows: []Row{{"id": float64(4), "title": "only"}}},
	}}
	sess := NewD1Session(exec)

	n, err := NewQuery[note](sess).FilterBy("title", "only").First(context.Background())
	if err != nil {
		t.Fatalf("first error: %v", err)
	}
	if n == nil || n.ID != 4 {
		t.Fatalf("unexpected record: %+v", n)
	}
	want := "SELECT * FROM notes WHERE title = ? LIMIT 1"
	if exec.stmts[0].SQL != want {
		t.Fatalf("unexpected sql: %q", exec.stmts[0].SQL)
	}
}

func TestQueryFirstNoMatch(t *testing.T) {
	sess := NewD1Session(&fakeExecutor{})
	n, err := NewQuery[note](sess).FilterBy("title", "missing").First(context.Background())
	if err != nil {
		t.Fatalf("first error: %v", err)
	}
	if n != nil {
		t.Fatalf("expected nil, got %+v", n)
	}
}

func TestQueryCount(t *testing.T) {
	exec := &fakeExecutor{results: []Result{
		{Rows: []Row{{"cnt": float64(12)}}},
	}}
	sess := NewD1Session(exec)

	n, err := NewQuery[note](sess).FilterBy("done", true).Count(context.Background())
	if err != nil {
		t.Fatalf("count error: %v", err)
	}
	if n != 12 {
		t.Fatalf("unexpected count: %d", n)
	}
	want := "SELECT COUNT(*) AS cnt FROM notes WHERE done = ?"
	if exec.stmts[0].SQL != want {
		t.Fatalf("unexpected sql: %q", exec.stmts[0].SQL)
	}
}

func TestQueryCountEmpty(t *testing.T) {
	sess := NewD1Session(&fakeExecutor{})
	n, err := NewQuery[note](sess).Count(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected zero count, got %d %v", n, err)
	}
}

func TestQueryScalarAlias(t *testing.T) {
	exec := &fakeExecutor{results: []Result{
		{Rows: []Row{{"m": float64(1042)}}},
	}}
	sess := NewD1Session(exec)

	v, err := NewQuery[note](sess).Select("MAX(id) AS m").Scalar(context.Background())
	if err != nil {
		t.Fatalf("scalar error: %v", err)
	}
	if RowInt64(Row{"m": v}, "m") != 1042 {
		t.Fatalf("unexpected scalar: %v", v)
	}
	want := "SELECT MAX(id) AS m FROM notes LIMIT 1"
	if exec.stmts[0].SQL != want {
		t.Fatalf("unexpected sql: %q", exec.stmts[0].SQL)
	}
}

func TestQueryScalarEmpty(t *testing.T) {
	sess := NewD1Session(&fakeExecutor{})
	v, err := NewQuery[note](sess).Select("MAX(id) AS m").Scalar(context.Background())
	if err != nil || v != nil {
		t.Fatalf("expected nil scalar, got %v %v", v, err)
	}
}
