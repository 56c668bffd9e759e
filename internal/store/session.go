package store

import (
	"context"
	"errors"
	"reflect"
	"strconv"
)

// ErrSessionClosed is returned by any I/O-bearing operation issued after
// Close. Like a translation failure it signals a programming error.
var ErrSessionClosed = errors.New("session is closed")

// ErrStorageUnavailable is returned when the serverless database binding is
// missing from the current request context. The request cannot proceed.
var ErrStorageUnavailable = errors.New("storage binding not available")

// Session is the unit-of-work contract route handlers program against,
// identical for both backends. Point lookups report absence as (false, nil),
// not as an error. Add/Merge/Delete only enqueue; nothing touches storage
// until Commit, which flushes inserts, then updates, then deletes in
// caller-enqueue order.
type Session interface {
	Get(ctx context.Context, e Entity, id int64) (bool, error)
	Add(e Entity)
	Merge(e Entity)
	Delete(e Entity)
	Commit(ctx context.Context) error
	Rollback()
	Refresh(ctx context.Context, e Entity) error
	Execute(ctx context.Context, query string, params ...any) ([]Row, error)
	ExecuteMany(ctx context.Context, queries []string) error
	Close()
}

// pendingOps accumulates unflushed work. Updates are deduplicated by a
// stable key so merging the same entity twice flushes it once; inserts and
// deletes keep plain enqueue order.
type pendingOps struct {
	adds       []Entity
	updates    []Entity
	updateKeys map[string]int
	deletes    []Entity
}

func newPendingOps() pendingOps {
	return pendingOps{updateKeys: make(map[string]int)}
}

func (p *pendingOps) add(e Entity)    { p.adds = append(p.adds, e) }
func (p *pendingOps) delete(e Entity) { p.deletes = append(p.deletes, e) }

func (p *pendingOps) merge(e Entity) {
	k := pendingKey(e)
	if i, ok := p.updateKeys[k]; ok {
		p.updates[i] = e
		return
	}
	p.updateKeys[k] = len(p.updates)
	p.updates = append(p.updates, e)
}

func (p *pendingOps) clear() {
	p.adds = nil
	p.updates = nil
	p.deletes = nil
	p.updateKeys = make(map[string]int)
}

func (p *pendingOps) empty() bool {
	return len(p.adds) == 0 && len(p.updates) == 0 && len(p.deletes) == 0
}

// pendingKey identifies an entity in the pending-update list. Entities that
// have no primary key yet are keyed by their pointer identity, which acts as
// the temporary key until the insert assigns one.
func pendingKey(e Entity) string {
	if id := e.GetID(); id != 0 {
		return e.TableName() + "#" + strconv.FormatInt(id, 10)
	}
	return e.TableName() + "#tmp:" + strconv.FormatUint(uint64(reflect.ValueOf(e).Pointer()), 16)
}
