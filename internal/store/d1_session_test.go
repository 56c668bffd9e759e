package store

import (
	"context"
	"strings"
	"testing"
)

func TestD1SessionGet(t *testing.T) {
	exec := &fakeExecutor{results: []Result{
		{Rows: []Row{{"id": float64(7), "title": "first", "done": float64(1)}}},
	}}
	sess := NewD1Session(exec)

	var n note
	found, err := sess.Get(context.Background(), &n, 7)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if !found || n.ID != 7 || n.Title != "first" || !n.Done {
		t.Fatalf("unexpected entity: %+v", n)
	}
	if got := exec.stmts[0].SQL; got != "SELECT * FROM notes WHERE id = ? LIMIT 1" {
		t.Fatalf("unexpected sql: %q", got)
	}
}

func TestD1SessionGetMissing(t *testing.T) {
	sess := NewD1Session(&fakeExecutor{})
	var n note
	found, err := sess.Get(context.Background(), &n, 1)
	if err != nil || found {
		t.Fatalf("expected not found, got %v %v", found, err)
	}
}

func TestD1SessionCommitInsertAssignsID(t *testing.T) {
	exec := &fakeExecutor{results: []Result{{LastRowID: 42}}}
	sess := NewD1Session(exec)

	n := &note{Title: "todo"}
	sess.Add(n)
	if err := sess.Commit(context.Background()); err != nil {
		t.Fatalf("commit error: %v", err)
	}
	if n.ID != 42 {
		t.Fatalf("id not assigned: %d", n.ID)
	}
	stmt := exec.stmts[0]
	if !strings.HasPrefix(stmt.SQL, "INSERT INTO notes (title, done, due) VALUES") {
		t.Fatalf("unexpected sql: %q", stmt.SQL)
	}
	// booleans bind as integers, nil pointers as null
	if stmt.Params[1] != int64(0) {
		t.Fatalf("bool not bound as integer: %v", stmt.Params[1])
	}
	if stmt.Params[2] != nil {
		t.Fatalf("nil pointer not bound as null: %v", stmt.Params[2])
	}
}

func TestD1SessionUpdateEmitsLiteralNull(t *testing.T) {
	exec := &fakeExecutor{}
	sess := NewD1Session(exec)

	n := &note{ID: 3, Title: "kept", Done: true}
	sess.Merge(n)
	if err := sess.Commit(context.Background()); err != nil {
		t.Fatalf("commit error: %v", err)
	}
	stmt := exec.stmts[0]
	if !strings.Contains(stmt.SQL, "due = NULL") {
		t.Fatalf("nil column should become literal NULL: %q", stmt.SQL)
	}
	if !strings.HasSuffix(stmt.SQL, "WHERE id = ?") {
		t.Fatalf("unexpected sql: %q", stmt.SQL)
	}
	if stmt.Params[len(stmt.Params)-1] != int64(3) {
		t.Fatalf("id not last param: %v", stmt.Params)
	}
}

func TestD1SessionMergeDeduplicates(t *testing.T) {
	exec := &fakeExecutor{}
	sess := NewD1Session(exec)

	n := &note{ID: 5, Title: "v1"}
	sess.Merge(n)
	n.Title = "v2"
	sess.Merge(n)
	if err := sess.Commit(context.Background()); err != nil {
		t.Fatalf("commit error: %v", err)
	}
	if len(exec.stmts) != 1 {
		t.Fatalf("expected one update, got %d", len(exec.stmts))
	}
	if exec.stmts[0].Params[0] != "v2" {
		t.Fatalf("latest state not flushed: %v", exec.stmts[0].Params)
	}
}

func TestD1SessionRollbackDiscardsPending(t *testing.T) {
	exec := &fakeExecutor{}
	sess := NewD1Session(exec)

	sess.Add(&note{Title: "never"})
	sess.Rollback()
	if err := sess.Commit(context.Background()); err != nil {
		t.Fatalf("commit error: %v", err)
	}
	if len(exec.stmts) != 0 {
		t.Fatalf("rolled back work was flushed: %v", exec.stmts)
	}
}

func TestD1SessionDelete(t *testing.T) {
	exec := &fakeExecutor{}
	sess := NewD1Session(exec)

	sess.Delete(&note{ID: 9})
	if err := sess.Commit(context.Background()); err != nil {
		t.Fatalf("commit error: %v", err)
	}
	if exec.stmts[0].SQL != "DELETE FROM notes WHERE id = ?" {
		t.Fatalf("unexpected sql: %q", exec.stmts[0].SQL)
	}
}

func TestD1SessionClosed(t *testing.T) {
	sess := NewD1Session(&fakeExecutor{})
	sess.Close()

	var n note
	if _, err := sess.Get(context.Background(), &n, 1); err != ErrSessionClosed {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	sess.Add(&note{Title: "x"})
	if err := sess.Commit(context.Background()); err != ErrSessionClosed {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestD1SessionExecuteMany(t *testing.T) {
	exec := &fakeExecutor{}
	sess := NewD1Session(exec)

	queries := []string{"DROP TABLE IF EXISTS notes", "CREATE TABLE notes (id INTEGER)"}
	if err := sess.ExecuteMany(context.Background(), queries); err != nil {
		t.Fatalf("ExecuteMany: %v", err)
	}
	if len(exec.batches) != 1 || len(exec.batches[0]) != 2 {
		t.Fatalf("expected one batch of 2 statements, got %v", exec.batches)
	}
	if exec.batches[0][1].SQL != "CREATE TABLE notes (id INTEGER)" {
		t.Fatalf("unexpected second statement: %q", exec.batches[0][1].SQL)
	}
}
