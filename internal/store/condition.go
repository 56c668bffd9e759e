package store

import (
	"fmt"
	"strings"
)

// Clause is one node of a filter expression. Callers build clauses through
// the constructors below; there is no parsing of stringified expressions.
// The zero set of clauses translates to no WHERE clause at all.
type Clause struct {
	kind kind
	col  string
	op   string
	val  any
	vals []any
	subs []Clause
}

type kind int

const (
	kindCompare kind = iota
	kindLike
	kindIn
	kindOr
)

// Eq matches rows whose column equals v.
func Eq(col string, v any) Clause { return Clause{kind: kindCompare, col: col, op: "=", val: v} }

// Ne matches rows whose column differs from v.
func Ne(col string, v any) Clause { return Clause{kind: kindCompare, col: col, op: "!=", val: v} }

// Gt, Ge, Lt, Le are the range comparisons.
func Gt(col string, v any) Clause { return Clause{kind: kindCompare, col: col, op: ">", val: v} }
func Ge(col string, v any) Clause { return Clause{kind: kindCompare, col: col, op: ">=", val: v} }
func Lt(col string, v any) Clause { return Clause{kind: kindCompare, col: col, op: "<", val: v} }
func Le(col string, v any) Clause { return Clause{kind: kindCompare, col: col, op: "<=", val: v} }

// Like matches case-insensitively against a pattern. Wildcarding is the
// caller's responsibility ("%"+s+"%" for a contains match).
func Like(col, pattern string) Clause { return Clause{kind: kindLike, col: col, val: pattern} }

// In matches rows whose column is any of vals. An empty set matches nothing.
func In(col string, vals ...any) Clause { return Clause{kind: kindIn, col: col, vals: vals} }

// Or groups clauses into a parenthesized disjunction.
func Or(clauses ...Clause) Clause { return Clause{kind: kindOr, subs: clauses} }

// TranslationError reports a filter expression that cannot be rendered to
// SQL. It indicates a programming error in the caller, not bad user input.
type TranslationError struct {
	Detail string
}

func (e *TranslationError) Error() string {
	return "condition translation failed: " + e.Detail
}

// Translate renders clauses into a parameterized SQL fragment for the
// serverless backend. Top-level clauses are joined with AND; temporal
// parameters are serialized to ISO-8601 text because the target engine has
// no native temporal type. An empty clause list yields ("", nil, nil).
func Translate(clauses []Clause) (string, []any, error) {
	return translate(clauses, true)
}

// TranslateNative renders the same SQL text but leaves parameter values
// untouched, for backends that understand native Go types (the conventional
// ORM path passes these straight through as a Where condition).
func TranslateNative(clauses []Clause) (string, []any, error) {
	return translate(clauses, false)
}

func translate(clauses []Clause, serialize bool) (string, []any, error) {
	if len(clauses) == 0 {
		return "", nil, nil
	}
	frags := make([]string, 0, len(clauses))
	var args []any
	for _, cl := range clauses {
		frag, clArgs, err := translateOne(cl, serialize)
		if err != nil {
			return "", nil, err
		}
		frags = append(frags, frag)
		args = append(args, clArgs...)
	}
	return strings.Join(frags, " AND "), args, nil
}

func translateOne(cl Clause, serialize bool) (string, []any, error) {
	bind := func(v any) any {
		if serialize {
			return BindValue(v)
		}
		return v
	}
	switch cl.kind {
	case kindCompare:
		if cl.col == "" || !validOp(cl.op) {
			return "", nil, &TranslationError{Detail: fmt.Sprintf("bad comparison %q %q", cl.col, cl.op)}
		}
		return cl.col + " " + cl.op + " ?", []any{bind(cl.val)}, nil
	case kindLike:
		if cl.col == "" {
			return "", nil, &TranslationError{Detail: "LIKE clause without a column"}
		}
		s, ok := cl.val.(string)
		if !ok {
			return "", nil, &TranslationError{Detail: "LIKE pattern must be a string"}
		}
		return "LOWER(" + cl.col + ") LIKE ?", []any{strings.ToLower(s)}, nil
	case kindIn:
		if cl.col == "" {
			return "", nil, &TranslationError{Detail: "IN clause without a column"}
		}
		// Empty membership set matches nothing; "IN ()" is invalid SQL and
		// matching everything would be wrong.
		if len(cl.vals) == 0 {
			return "1 = 0", nil, nil
		}
		marks := make([]string, len(cl.vals))
		args := make([]any, len(cl.vals))
		for i, v := range cl.vals {
			marks[i] = "?"
			args[i] = bind(v)
		}
		return cl.col + " IN (" + strings.Join(marks, ", ") + ")", args, nil
	case kindOr:
		if len(cl.subs) == 0 {
			return "", nil, &TranslationError{Detail: "empty OR group"}
		}
		frags := make([]string, 0, len(cl.subs))
		var args []any
		for _, sub := range cl.subs {
			frag, subArgs, err := translateOne(sub, serialize)
			if err != nil {
				return "", nil, err
			}
			frags = append(frags, frag)
			args = append(args, subArgs...)
		}
		return "(" + strings.Join(frags, " OR ") + ")", args, nil
	default:
		return "", nil, &TranslationError{Detail: fmt.Sprintf("unknown clause kind %d", cl.kind)}
	}
}

func validOp(op string) bool {
	switch op {
	case "=", "!=", ">", ">=", "<", "<=":
		return true
	}
	return false
}
