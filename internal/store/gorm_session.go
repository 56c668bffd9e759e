package store

import (
	"context"

	"gorm.io/gorm"
)

// GormSession is the unit-of-work session for the conventional PostgreSQL
// backend. It keeps the same pending-operation surface as D1Session but
// flushes inside a single database transaction, since this backend actually
// has one: a failed Commit leaves storage untouched.
type GormSession struct {
	db      *gorm.DB
	pending pendingOps
	closed  bool
}

// NewGormSession wraps a GORM handle in a session. One session serves
// exactly one request; the handle's connection pool is shared.
func NewGormSession(db *gorm.DB) *GormSession {
	return &GormSession{db: db, pending: newPendingOps()}
}

// Get performs an immediate point lookup by primary key.
func (s *GormSession) Get(ctx context.Context, e Entity, id int64) (bool, error) {
	if s.closed {
		return false, ErrSessionClosed
	}
	if id == 0 {
		return false, nil
	}
	err := s.db.WithContext(ctx).First(e, id).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *GormSession) Add(e Entity)    { s.pending.add(e) }
func (s *GormSession) Merge(e Entity)  { s.pending.merge(e) }
func (s *GormSession) Delete(e Entity) { s.pending.delete(e) }

// Commit flushes pending inserts, updates and deletes, in that order, inside
// one transaction. Pending lists clear only on success.
func (s *GormSession) Commit(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.pending.empty() {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range s.pending.adds {
			if err := tx.Create(e).Error; err != nil {
				return err
			}
		}
		for _, e := range s.pending.updates {
			if err := tx.Save(e).Error; err != nil {
				return err
			}
		}
		for _, e := range s.pending.deletes {
			if err := tx.Delete(e).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.pending.clear()
	return nil
}

// Rollback discards pending operations without touching storage.
func (s *GormSession) Rollback() { s.pending.clear() }

// Refresh re-reads the entity's row by primary key.
func (s *GormSession) Refresh(ctx context.Context, e Entity) error {
	if s.closed {
		return ErrSessionClosed
	}
	id := e.GetID()
	if id == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).First(e, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	return err
}

// Execute runs a raw statement and returns its rows as generic maps.
func (s *GormSession) Execute(ctx context.Context, query string, params ...any) ([]Row, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	var raw []map[string]any
	if err := s.db.WithContext(ctx).Raw(query, params...).Scan(&raw).Error; err != nil {
		return nil, err
	}
	rows := make([]Row, len(raw))
	for i, m := range raw {
		rows[i] = Row(m)
	}
	return rows, nil
}

// ExecuteMany runs statements sequentially inside one transaction.
func (s *GormSession) ExecuteMany(ctx context.Context, queries []string) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, q := range queries {
			if err := tx.Exec(q).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Close marks the session unusable for further operations.
func (s *GormSession) Close() { s.closed = true }

// handle exposes the underlying GORM DB to the query builder so it can run
// conditions natively instead of going through translated SQL text.
func (s *GormSession) handle(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}
