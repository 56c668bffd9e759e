package store

import (
	"context"
	"fmt"
	"strings"
)

// D1Session is the unit-of-work session for the serverless backend. The
// engine has no client-visible multi-statement transaction, so Commit
// executes each pending statement sequentially: a failure mid-flush leaves
// the earlier statements already applied. That partial-commit window is an
// accepted property of this backend, not a bug; callers guard inserts with
// existence checks and keep updates idempotent so a retry is safe.
type D1Session struct {
	exec    Executor
	pending pendingOps
	closed  bool
}

// NewD1Session wraps a serverless executor (normally the D1 HTTP client) in
// a session. One session serves exactly one request.
func NewD1Session(exec Executor) *D1Session {
	return &D1Session{exec: exec, pending: newPendingOps()}
}

// Get performs an immediate point lookup by primary key. A zero id or a
// missing row yields (false, nil).
func (s *D1Session) Get(ctx context.Context, e Entity, id int64) (bool, error) {
	if s.closed {
		return false, ErrSessionClosed
	}
	if id == 0 {
		return false, nil
	}
	res, err := s.exec.Execute(ctx, Statement{
		SQL:    "SELECT * FROM " + e.TableName() + " WHERE id = ? LIMIT 1",
		Params: []any{id},
	})
	if err != nil {
		return false, err
	}
	if len(res.Rows) == 0 {
		return false, nil
	}
	e.LoadRow(res.Rows[0])
	return true, nil
}

// Add enqueues e for insertion on the next Commit.
func (s *D1Session) Add(e Entity) { s.pending.add(e) }

// Merge enqueues e for update. Re-merging the same entity replaces the
// earlier enqueue instead of duplicating it.
func (s *D1Session) Merge(e Entity) { s.pending.merge(e) }

// Delete enqueues e for removal on the next Commit.
func (s *D1Session) Delete(e Entity) { s.pending.delete(e) }

// Commit flushes pending inserts, then updates, then deletes. On success all
// pending lists are cleared; on failure they are kept so the caller may
// retry, knowing statements before the failure were already applied.
func (s *D1Session) Commit(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.pending.empty() {
		return nil
	}
	for _, e := range s.pending.adds {
		if err := s.insert(ctx, e); err != nil {
			return err
		}
	}
	for _, e := range s.pending.updates {
		if err := s.update(ctx, e); err != nil {
			return err
		}
	}
	for _, e := range s.pending.deletes {
		if err := s.remove(ctx, e); err != nil {
			return err
		}
	}
	s.pending.clear()
	return nil
}

// Rollback discards all pending operations. Statements already executed by
// a previous Commit are untouched; there is no transactional undo here.
func (s *D1Session) Rollback() { s.pending.clear() }

// Refresh re-reads the entity's row and overwrites its fields. Entities
// without a primary key are left alone.
func (s *D1Session) Refresh(ctx context.Context, e Entity) error {
	if s.closed {
		return ErrSessionClosed
	}
	id := e.GetID()
	if id == 0 {
		return nil
	}
	res, err := s.exec.Execute(ctx, Statement{
		SQL:    "SELECT * FROM " + e.TableName() + " WHERE id = ? LIMIT 1",
		Params: []any{id},
	})
	if err != nil {
		return err
	}
	if len(res.Rows) > 0 {
		e.LoadRow(res.Rows[0])
	}
	return nil
}

// Execute runs a raw statement and returns its rows. Used by the schema
// provisioner and for aggregate projections the builder doesn't cover.
func (s *D1Session) Execute(ctx context.Context, query string, params ...any) ([]Row, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	bound := make([]any, len(params))
	for i, p := range params {
		bound[i] = BindValue(p)
	}
	res, err := s.exec.Execute(ctx, Statement{SQL: query, Params: bound})
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// ExecuteMany runs parameterless statements as one batch.
func (s *D1Session) ExecuteMany(ctx context.Context, queries []string) error {
	if s.closed {
		return ErrSessionClosed
	}
	stmts := make([]Statement, len(queries))
	for i, q := range queries {
		stmts[i] = Statement{SQL: q}
	}
	return s.exec.ExecuteBatch(ctx, stmts)
}

// Close marks the session unusable. Further Commit/Get/Execute calls fail
// with ErrSessionClosed.
func (s *D1Session) Close() { s.closed = true }

func (s *D1Session) insert(ctx context.Context, e Entity) error {
	cols := e.ColumnNames()
	vals := e.ColumnValues()
	if len(cols) != len(vals) {
		return fmt.Errorf("d1: %s column/value mismatch (%d vs %d)", e.TableName(), len(cols), len(vals))
	}
	marks := make([]string, len(cols))
	params := make([]any, len(cols))
	for i, v := range vals {
		marks[i] = "?"
		params[i] = BindValue(v)
	}
	stmt := Statement{
		SQL: "INSERT INTO " + e.TableName() +
			" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")",
		Params: params,
	}
	res, err := s.exec.Execute(ctx, stmt)
	if err != nil {
		return err
	}
	if res.LastRowID != 0 {
		e.SetID(res.LastRowID)
	}
	return nil
}

func (s *D1Session) update(ctx context.Context, e Entity) error {
	id := e.GetID()
	if id == 0 {
		return nil
	}
	cols := e.ColumnNames()
	vals := e.ColumnValues()
	sets := make([]string, 0, len(cols))
	params := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		// The engine's bind path does not reliably accept a null parameter,
		// so absent values are emitted as a literal NULL assignment.
		bound := BindValue(vals[i])
		if bound == nil {
			sets = append(sets, col+" = NULL")
			continue
		}
		sets = append(sets, col+" = ?")
		params = append(params, bound)
	}
	if len(sets) == 0 {
		return nil
	}
	params = append(params, id)
	_, err := s.exec.Execute(ctx, Statement{
		SQL:    "UPDATE " + e.TableName() + " SET " + strings.Join(sets, ", ") + " WHERE id = ?",
		Params: params,
	})
	return err
}

func (s *D1Session) remove(ctx context.Context, e Entity) error {
	id := e.GetID()
	if id == 0 {
		return nil
	}
	_, err := s.exec.Execute(ctx, Statement{
		SQL:    "DELETE FROM " + e.TableName() + " WHERE id = ?",
		Params: []any{id},
	})
	return err
}
