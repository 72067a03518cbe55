// Package expr evaluates resolved scalar expressions against a row
// (spec §4.6), reusing value.Equal/value.Compare for the same-tag
// comparison semantics those functions already define.
//
// Shape grounded on the teacher's expression evaluator in
// server/innodb/expression (a tagged-union Expr interface with an
// Eval(row) method), trimmed to the leaf/operator set spec §4.6 and §6
// name: no arithmetic, no aggregate or subquery expressions.
package expr

import (
	"errors"
	"fmt"

	"github.com/asky/toydb/value"
)

// Op identifies a unary or binary operator.
type Op int

const (
	Not Op = iota
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
)

// ErrColumnOutOfBounds is a fatal evaluation error (spec §4.6 "Column:
// resolves to row[ordinal]; out-of-bounds is a fatal evaluation error").
var ErrColumnOutOfBounds = errors.New("expr: column ordinal out of bounds")

// Expr is a resolved scalar expression (spec §6 "ResolvedExpr is:
// Literal(Value) | Column(ordinal) | Unary(op, expr) | Binary(lhs, op,
// rhs)").
type Expr interface {
	Eval(row value.Row) (value.Value, error)
}

// Literal is a constant value leaf.
type Literal struct {
	Value value.Value
}

func (l Literal) Eval(value.Row) (value.Value, error) { return l.Value, nil }

// Column resolves to row[Ordinal].
type Column struct {
	Ordinal int
}

func (c Column) Eval(row value.Row) (value.Value, error) {
	if c.Ordinal < 0 || c.Ordinal >= len(row) {
		return value.Value{}, fmt.Errorf("%w: ordinal %d, row has %d columns", ErrColumnOutOfBounds, c.Ordinal, len(row))
	}
	return row[c.Ordinal], nil
}

// Unary applies Op (only Not is defined) to Operand.
type Unary struct {
	Op      Op
	Operand Expr
}

func (u Unary) Eval(row value.Row) (value.Value, error) {
	v, err := u.Operand.Eval(row)
	if err != nil {
		return value.Value{}, err
	}
	switch u.Op {
	case Not:
		return evalNot(v)
	default:
		return value.Value{}, fmt.Errorf("expr: unsupported unary operator %v", u.Op)
	}
}

// Binary applies Op to Lhs and Rhs.
type Binary struct {
	Lhs Expr
	Op  Op
	Rhs Expr
}

func (b Binary) Eval(row value.Row) (value.Value, error) {
	// And/Or evaluate short-circuit-aware per spec's three-valued logic
	// (true Or null = true, false And null = false), so both operands
	// are still evaluated (no side effects exist to skip) but the
	// combination rule below handles the null cases explicitly.
	lv, err := b.Lhs.Eval(row)
	if err != nil {
		return value.Value{}, err
	}
	rv, err := b.Rhs.Eval(row)
	if err != nil {
		return value.Value{}, err
	}
	switch b.Op {
	case Eq:
		return value.Equal(lv, rv)
	case Ne:
		return evalNe(lv, rv)
	case Lt, Le, Gt, Ge:
		return evalOrdered(b.Op, lv, rv)
	case And:
		return evalAnd(lv, rv)
	case Or:
		return evalOr(lv, rv)
	default:
		return value.Value{}, fmt.Errorf("expr: unsupported binary operator %v", b.Op)
	}
}

func evalNot(v value.Value) (value.Value, error) {
	if v.Tag() == value.Null {
		return value.NewNull(), nil
	}
	if v.Tag() != value.Bool {
		return value.Value{}, &value.TypeError{Op: "not", Lhs: v.Tag(), Rhs: v.Tag()}
	}
	return value.NewBool(!v.AsBool()), nil
}

func evalNe(a, b value.Value) (value.Value, error) {
	eq, err := value.Equal(a, b)
	if err != nil {
		return value.Value{}, err
	}
	if eq.Tag() == value.Null {
		return value.NewNull(), nil
	}
	return value.NewBool(!eq.AsBool()), nil
}

func evalOrdered(op Op, a, b value.Value) (value.Value, error) {
	if a.Tag() == value.Null || b.Tag() == value.Null {
		return value.NewNull(), nil
	}
	cmp, err := value.Compare(a, b)
	if err != nil {
		return value.Value{}, err
	}
	var result bool
	switch op {
	case Lt:
		result = cmp < 0
	case Le:
		result = cmp <= 0
	case Gt:
		result = cmp > 0
	case Ge:
		result = cmp >= 0
	}
	return value.NewBool(result), nil
}

// evalAnd implements three-valued AND: false dominates even a Null
// partner (false And Null = false), otherwise Null propagates.
func evalAnd(a, b value.Value) (value.Value, error) {
	if isFalse(a) || isFalse(b) {
		return value.NewBool(false), nil
	}
	if a.Tag() == value.Null || b.Tag() == value.Null {
		return value.NewNull(), nil
	}
	if err := requireBool(a); err != nil {
		return value.Value{}, err
	}
	if err := requireBool(b); err != nil {
		return value.Value{}, err
	}
	return value.NewBool(a.AsBool() && b.AsBool()), nil
}

// evalOr implements three-valued OR: true dominates even a Null partner
// (true Or Null = true), otherwise Null propagates.
func evalOr(a, b value.Value) (value.Value, error) {
	if isTrue(a) || isTrue(b) {
		return value.NewBool(true), nil
	}
	if a.Tag() == value.Null || b.Tag() == value.Null {
		return value.NewNull(), nil
	}
	if err := requireBool(a); err != nil {
		return value.Value{}, err
	}
	if err := requireBool(b); err != nil {
		return value.Value{}, err
	}
	return value.NewBool(a.AsBool() || b.AsBool()), nil
}

func isFalse(v value.Value) bool { return v.Tag() == value.Bool && !v.AsBool() }
func isTrue(v value.Value) bool  { return v.Tag() == value.Bool && v.AsBool() }

func requireBool(v value.Value) error {
	if v.Tag() != value.Bool {
		return &value.TypeError{Op: "and/or", Lhs: v.Tag(), Rhs: v.Tag()}
	}
	return nil
}

// Matches reports whether predicate evaluates to Bool(true) against
// row; Bool(false) and Null both reject (spec §4.6 "A filter predicate
// passes a row iff the predicate evaluates to Bool(true)").
func Matches(predicate Expr, row value.Row) (bool, error) {
	v, err := predicate.Eval(row)
	if err != nil {
		return false, err
	}
	return v.Tag() == value.Bool && v.AsBool(), nil
}
