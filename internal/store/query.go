package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// EntityPtr constrains P to "pointer to E that implements Entity", which
// lets the builder allocate result records itself.
type EntityPtr[E any] interface {
	*E
	Entity
}

// Order is one ORDER BY directive. Directives are applied in call order,
// producing a stable multi-column ordering.
type Order struct {
	Col        string
	Descending bool
}

// Asc orders ascending by col.
func Asc(col string) Order { return Order{Col: col} }

// Desc orders descending by col.
func Desc(col string) Order { return Order{Col: col, Descending: true} }

// Query accumulates filters, ordering and limits for one entity type, then
// executes against whichever session it was created from. On the
// conventional session conditions run natively through the ORM; on the
// serverless session they are translated to literal SQL text.
//
// Relationship fields are never populated here: there is no join facility on
// the serverless engine, so callers fetch related records by foreign key and
// attach them afterwards. Both backends behave identically on purpose.
type Query[E any, P EntityPtr[E]] struct {
	sess       Session
	clauses    []Clause
	orders     []Order
	limit      int
	projection string
}

// NewQuery starts a query for entity type E on the given session.
func NewQuery[E any, P EntityPtr[E]](sess Session) *Query[E, P] {
	return &Query[E, P]{sess: sess}
}

// Filter appends clauses; top-level clauses combine with AND.
func (q *Query[E, P]) Filter(clauses ...Clause) *Query[E, P] {
	q.clauses = append(q.clauses, clauses...)
	return q
}

// FilterBy is the equality shorthand for a single column.
func (q *Query[E, P]) FilterBy(col string, v any) *Query[E, P] {
	q.clauses = append(q.clauses, Eq(col, v))
	return q
}

// OrderBy appends ordering directives.
func (q *Query[E, P]) OrderBy(orders ...Order) *Query[E, P] {
	q.orders = append(q.orders, orders...)
	return q
}

// Limit caps the number of returned rows.
func (q *Query[E, P]) Limit(n int) *Query[E, P] {
	q.limit = n
	return q
}

// Select overrides the projection, for aggregate scalars such as
// "MAX(member_id) AS m". Only Scalar honors it.
func (q *Query[E, P]) Select(expr string) *Query[E, P] {
	q.projection = expr
	return q
}

// First executes with an implicit limit of 1 and returns the single record,
// or nil when nothing matches.
func (q *Query[E, P]) First(ctx context.Context) (P, error) {
	saved := q.limit
	q.limit = 1
	defer func() { q.limit = saved }()
	out, err := q.All(ctx)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return out[0], nil
}

// All executes the query and returns every matching record. Result order is
// whatever the ordering directives (or the engine's natural order) produce.
func (q *Query[E, P]) All(ctx context.Context) ([]P, error) {
	switch s := q.sess.(type) {
	case *GormSession:
		return q.allGorm(ctx, s)
	case *D1Session:
		return q.allD1(ctx, s)
	default:
		return nil, fmt.Errorf("store: unsupported session type %T", q.sess)
	}
}

// Count executes with the projection overridden to a row count. An empty
// result yields 0; execution errors propagate.
func (q *Query[E, P]) Count(ctx context.Context) (int64, error) {
	switch s := q.sess.(type) {
	case *GormSession:
		if s.closed {
			return 0, ErrSessionClosed
		}
		frag, args, err := TranslateNative(q.clauses)
		if err != nil {
			return 0, err
		}
		tx := s.handle(ctx).Table(q.table())
		if frag != "" {
			tx = tx.Where(frag, args...)
		}
		var n int64
		if err := tx.Count(&n).Error; err != nil {
			return 0, err
		}
		return n, nil
	case *D1Session:
		sql, params, err := q.buildSelect("COUNT(*) AS cnt")
		if err != nil {
			return 0, err
		}
		rows, err := s.Execute(ctx, sql, params...)
		if err != nil {
			return 0, err
		}
		if len(rows) == 0 {
			return 0, nil
		}
		return RowInt64(rows[0], "cnt"), nil
	default:
		return 0, fmt.Errorf("store: unsupported session type %T", q.sess)
	}
}

// Scalar returns the first column of the first row, or nil when there is
// none. It is meaningful with a single-column projection set via Select.
func (q *Query[E, P]) Scalar(ctx context.Context) (any, error) {
	proj := q.projection
	if proj == "" {
		proj = "*"
	}
	switch s := q.sess.(type) {
	case *GormSession:
		if s.closed {
			return nil, ErrSessionClosed
		}
		frag, args, err := TranslateNative(q.clauses)
		if err != nil {
			return nil, err
		}
		tx := s.handle(ctx).Table(q.table()).Select(proj)
		if frag != "" {
			tx = tx.Where(frag, args...)
		}
		var rows []map[string]any
		if err := tx.Limit(1).Find(&rows).Error; err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return singleValue(Row(rows[0]), proj), nil
	case *D1Session:
		saved := q.limit
		q.limit = 1
		sql, params, err := q.buildSelect(proj)
		q.limit = saved
		if err != nil {
			return nil, err
		}
		rows, err := s.Execute(ctx, sql, params...)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return singleValue(rows[0], proj), nil
	default:
		return nil, fmt.Errorf("store: unsupported session type %T", q.sess)
	}
}

func (q *Query[E, P]) table() string {
	var e E
	return P(&e).TableName()
}

func (q *Query[E, P]) allGorm(ctx context.Context, s *GormSession) ([]P, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	frag, args, err := TranslateNative(q.clauses)
	if err != nil {
		return nil, err
	}
	tx := s.handle(ctx).Table(q.table())
	if frag != "" {
		tx = tx.Where(frag, args...)
	}
	for _, o := range q.orders {
		dir := " ASC"
		if o.Descending {
			dir = " DESC"
		}
		tx = tx.Order(o.Col + dir)
	}
	if q.limit > 0 {
		tx = tx.Limit(q.limit)
	}
	var out []P
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (q *Query[E, P]) allD1(ctx context.Context, s *D1Session) ([]P, error) {
	sql, params, err := q.buildSelect("*")
	if err != nil {
		return nil, err
	}
	rows, err := s.Execute(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	out := make([]P, 0, len(rows))
	for _, row := range rows {
		var e E
		p := P(&e)
		p.LoadRow(row)
		out = append(out, p)
	}
	return out, nil
}

// buildSelect assembles the serverless SELECT statement from the accumulated
// builder state.
func (q *Query[E, P]) buildSelect(projection string) (string, []any, error) {
	frag, args, err := Translate(q.clauses)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(projection)
	b.WriteString(" FROM ")
	b.WriteString(q.table())
	if frag != "" {
		b.WriteString(" WHERE ")
		b.WriteString(frag)
	}
	if len(q.orders) > 0 {
		parts := make([]string, len(q.orders))
		for i, o := range q.orders {
			dir := " ASC"
			if o.Descending {
				dir = " DESC"
			}
			parts[i] = o.Col + dir
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}
	if q.limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.limit))
	}
	return b.String(), args, nil
}

// singleValue extracts the scalar from a one-column row. When the projection
// carries an alias ("... AS m") the alias is looked up directly.
func singleValue(row Row, projection string) any {
	if i := strings.LastIndex(strings.ToUpper(projection), " AS "); i >= 0 {
		alias := strings.TrimSpace(projection[i+4:])
		if v, ok := row[alias]; ok {
			return v
		}
	}
	if len(row) == 1 {
		for _, v := range row {
			return v
		}
	}
	return nil
}
