package condition

import (
	"fmt"

	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

type node interface {
	eval(s *types.GameState) (types.Value, error)
}

type orNode struct{ left, right node }
type andNode struct{ left, right node }
type notNode struct{ x node }
type cmpNode struct {
	op          tokenKind
	left, right node
}
type varNode struct{ name string }
type litNode struct{ v types.Value }
type itemNode struct{ id string }
type companionNode struct{ id string }

func (n *orNode) eval(s *types.GameState) (types.Value, error) {
	l, err := n.left.eval(s)
	if err != nil {
		return l, err
	}
	if l.Truthy() {
		return types.Bool(true), nil
	}
	r, err := n.right.eval(s)
	if err != nil {
		return r, err
	}
	return types.Bool(r.Truthy()), nil
}

func (n *andNode) eval(s *types.GameState) (types.Value, error) {
	l, err := n.left.eval(s)
	if err != nil {
		return l, err
	}
	if !l.Truthy() {
		return types.Bool(false), nil
	}
	r, err := n.right.eval(s)
	if err != nil {
		return r, err
	}
	return types.Bool(r.Truthy()), nil
}

func (n *notNode) eval(s *types.GameState) (types.Value, error) {
	v, err := n.x.eval(s)
	if err != nil {
		return v, err
	}
	return types.Bool(!v.Truthy()), nil
}

func (n *cmpNode) eval(s *types.GameState) (types.Value, error) {
	l, err := n.left.eval(s)
	if err != nil {
		return l, err
	}
	r, err := n.right.eval(s)
	if err != nil {
		return r, err
	}
	ok, err := compare(n.op, l, r)
	return types.Bool(ok), err
}

func (n *varNode) eval(s *types.GameState) (types.Value, error) {
	return state.Lookup(s, n.name), nil
}

func (n *litNode) eval(*types.GameState) (types.Value, error) { return n.v, nil }

func (n *itemNode) eval(s *types.GameState) (types.Value, error) {
	return types.Bool(state.HasItem(s, n.id)), nil
}

func (n *companionNode) eval(s *types.GameState) (types.Value, error) {
	return types.Bool(state.HasCompanion(s, n.id)), nil
}

// compare applies a comparison operator. Booleans coerce to 0/1 against
// numbers. Text only compares with text; equality against anything else is
// simply false, ordering is a type error.
func compare(op tokenKind, l, r types.Value) (bool, error) {
	if l.Kind == types.KindText || r.Kind == types.KindText {
		if l.Kind != r.Kind {
			switch op {
			case tokEq:
				return false, nil
			case tokNe:
				return true, nil
			}
			return false, fmt.Errorf("cannot order %s against %s", describe(l), describe(r))
		}
		return ordered(op, compareStrings(l.S, r.S)), nil
	}
	if l.Kind == types.KindBool && r.Kind == types.KindBool {
		switch op {
		case tokEq:
			return l.B == r.B, nil
		case tokNe:
			return l.B != r.B, nil
		}
	}
	a, b := asInt(l), asInt(r)
	switch {
	case a < b:
		return ordered(op, -1), nil
	case a > b:
		return ordered(op, 1), nil
	}
	return ordered(op, 0), nil
}

func ordered(op tokenKind, cmp int) bool {
	switch op {
	case tokEq:
		return cmp == 0
	case tokNe:
		return cmp != 0
	case tokGt:
		return cmp > 0
	case tokLt:
		return cmp < 0
	case tokGe:
		return cmp >= 0
	case tokLe:
		return cmp <= 0
	}
	return false
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func asInt(v types.Value) int64 {
	switch v.Kind {
	case types.KindNumber:
		return v.N
	case types.KindBool:
		if v.B {
			return 1
		}
	}
	return 0
}

func describe(v types.Value) string {
	switch v.Kind {
	case types.KindBool:
		return "boolean"
	case types.KindNumber:
		return "number"
	}
	return fmt.Sprintf("text %q", v.S)
}
