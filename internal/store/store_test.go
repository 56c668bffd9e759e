package store

import (
	"context"
	"time"
)

// fakeExecutor records every statement and replays scripted results in
// order. When the script runs out it answers with an empty result.
type fakeExecutor struct {
	stmts   []Statement
	batches [][]Statement
	results []Result
	err     error
}

func (f *fakeExecutor) Execute(ctx context.Context, stmt Statement) (Result, error) {
	f.stmts = append(f.stmts, stmt)
	if f.err != nil {
		return Result{}, f.err
	}
	if len(f.results) == 0 {
		return Result{}, nil
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res, nil
}

func (f *fakeExecutor) ExecuteBatch(ctx context.Context, stmts []Statement) error {
	f.batches = append(f.batches, stmts)
	return f.err
}

// note is a minimal entity used by the session and query tests.
type note struct {
	ID    int64
	Title string
	Done  bool
	Due   *time.Time
}

func (n *note) TableName() string { return "notes" }

func (n *note) GetID() int64 { return n.ID }

func (n *note) SetID(id int64) { n.ID = id }

func (n *note) ColumnNames() []string { return []string{"title", "done", "due"} }

func (n *note) ColumnValues() []any { return []any{n.Title, n.Done, n.Due} }

func (n *note) LoadRow(row Row) {
	n.ID = RowInt64(row, "id")
	n.Title = RowString(row, "title")
	n.Done = RowBool(row, "done")
	if t := RowTime(row, "due"); !t.IsZero() {
		n.Due = &t
	}
}
