// Package value implements the scalar value domain of the engine: a
// tagged Int/Text/Bool/Null value, rows of such values, and the
// comparison/equality semantics the expression evaluator and primary-key
// index build on.
package value

import (
	"fmt"
)

// Tag identifies the kind of a Value.
type Tag int

const (
	// Null is the tag of the absence of a value. It compares equal only
	// to itself under same, and propagates through every operator.
	Null Tag = iota
	Int
	Text
	Bool
)

func (t Tag) String() string {
	switch t {
	case Null:
		return "NULL"
	case Int:
		return "INT"
	case Text:
		return "TEXT"
	case Bool:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

// Value is a tagged scalar as described in spec §3. The zero Value is
// Null.
type Value struct {
	tag  Tag
	i    int64
	s    string
	b    bool
}

// NewNull returns the Null value.
func NewNull() Value { return Value{tag: Null} }

// NewInt returns a signed 64-bit integer value.
func NewInt(i int64) Value { return Value{tag: Int, i: i} }

// NewText returns a text value.
func NewText(s string) Value { return Value{tag: Text, s: s} }

// NewBool returns a boolean value.
func NewBool(b bool) Value { return Value{tag: Bool, b: b} }

// Tag returns the value's tag.
func (v Value) Tag() Tag { return v.tag }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.tag == Null }

// AsInt returns the underlying int64. Only valid when Tag() == Int.
func (v Value) AsInt() int64 { return v.i }

// AsText returns the underlying string. Only valid when Tag() == Text.
func (v Value) AsText() string { return v.s }

// AsBool returns the underlying bool. Only valid when Tag() == Bool.
func (v Value) AsBool() bool { return v.b }

func (v Value) String() string {
	switch v.tag {
	case Null:
		return "NULL"
	case Int:
		return fmt.Sprintf("%d", v.i)
	case Text:
		return v.s
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return "?"
	}
}

// TypeError is returned when an operation is attempted between
// incompatible value tags.
type TypeError struct {
	Op       string
	Lhs, Rhs Tag
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: %s not defined between %s and %s", e.Op, e.Lhs, e.Rhs)
}

// Equal implements same-tag equality (spec §3/§4.6). Null on either side
// yields Null. Cross-tag comparison (excluding Null) is a TypeError.
func Equal(a, b Value) (Value, error) {
	if a.tag == Null || b.tag == Null {
		return NewNull(), nil
	}
	if a.tag != b.tag {
		return Value{}, &TypeError{Op: "=", Lhs: a.tag, Rhs: b.tag}
	}
	switch a.tag {
	case Int:
		return NewBool(a.i == b.i), nil
	case Text:
		return NewBool(a.s == b.s), nil
	case Bool:
		return NewBool(a.b == b.b), nil
	default:
		return Value{}, &TypeError{Op: "=", Lhs: a.tag, Rhs: b.tag}
	}
}

// Compare returns -1, 0, 1 for a<b, a==b, a>b. Only defined for same-tag,
// non-null operands; callers must check IsNull first.
func Compare(a, b Value) (int, error) {
	if a.tag == Null || b.tag == Null {
		return 0, &TypeError{Op: "compare", Lhs: a.tag, Rhs: b.tag}
	}
	if a.tag != b.tag {
		return 0, &TypeError{Op: "compare", Lhs: a.tag, Rhs: b.tag}
	}
	switch a.tag {
	case Int:
		switch {
		case a.i < b.i:
			return -1, nil
		case a.i > b.i:
			return 1, nil
		default:
			return 0, nil
		}
	case Text:
		switch {
		case a.s < b.s:
			return -1, nil
		case a.s > b.s:
			return 1, nil
		default:
			return 0, nil
		}
	case Bool:
		// false < true
		ai, bi := 0, 0
		if a.b {
			ai = 1
		}
		if b.b {
			bi = 1
		}
		switch {
		case ai < bi:
			return -1, nil
		case ai > bi:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, &TypeError{Op: "compare", Lhs: a.tag, Rhs: b.tag}
	}
}

// same reports raw equality used by Row.Equal; unlike
// Equal it does not propagate Null and treats two Nulls as identical.
func same(a, b Value) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case Null:
		return true
	case Int:
		return a.i == b.i
	case Text:
		return a.s == b.s
	case Bool:
		return a.b == b.b
	}
	return false
}

// Row is an ordered sequence of Values matching a table's column order.
type Row []Value

// Equal reports whether two rows carry identical values at every ordinal.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if !same(r[i], other[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy of the row; Row itself is a slice and callers
// that retain rows across mutations (e.g. Update) must not alias.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}
