package types

import "strconv"

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindBool ValueKind = iota
	KindNumber
	KindText
)

// Value is a game variable: a bool, an integer or a string.
type Value struct {
	Kind ValueKind
	B    bool
	N    int64
	S    string
}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, B: b} }

// Number returns an integer Value.
func Number(n int64) Value { return Value{Kind: KindNumber, N: n} }

// Text returns a string Value.
func Text(s string) Value { return Value{Kind: KindText, S: s} }

// Truthy reports the value's truthiness: true, non-zero, non-empty.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.B
	case KindNumber:
		return v.N != 0
	default:
		return v.S != ""
	}
}

// String formats the value the way a *set command would spell it.
func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindNumber:
		return strconv.FormatInt(v.N, 10)
	default:
		return v.S
	}
}

// Any returns the value as a plain Go value (bool, int64 or string).
func (v Value) Any() any {
	switch v.Kind {
	case KindBool:
		return v.B
	case KindNumber:
		return v.N
	default:
		return v.S
	}
}
