package condition

import (
	"go.uber.org/zap"

	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

// GrantCondition adjusts s so that expr holds, changing as little as it can.
// Used to seed "play from here" sessions with a state able to take an edge.
//
//	flag          -> flag = true
//	!flag         -> flag = false
//	has_item:x    -> give x        (negated: remove x)
//	companion:x   -> add x         (negated: remove x)
//	v >= N        -> v = max(v, N)
//	v >  N        -> v = N+1 unless already greater
//	v <= N        -> v = N unless already satisfied
//	v <  N        -> v = N-1 unless already satisfied
//	v == lit      -> v = lit
//	a && b        -> grant both
//	a || b        -> grant a only
//
// Negations are pushed inward. Conditions that cannot be granted, and
// malformed ones, leave s unchanged.
func GrantCondition(expr string, s *types.GameState) {
	e, err := Compile(expr)
	if err != nil {
		zap.L().Debug("cannot grant malformed condition",
			zap.String("condition", expr), zap.Error(err))
		return
	}
	if e.root == nil {
		return
	}
	grant(e.root, s, false)
}

func grant(n node, s *types.GameState, negate bool) {
	switch n := n.(type) {
	case *andNode:
		if negate {
			// !(a && b) holds once !a holds.
			grant(n.left, s, true)
			return
		}
		grant(n.left, s, false)
		grant(n.right, s, false)
	case *orNode:
		if negate {
			grant(n.left, s, true)
			grant(n.right, s, true)
			return
		}
		grant(n.left, s, false)
	case *notNode:
		grant(n.x, s, !negate)
	case *varNode:
		state.Set(s, n.name, types.Bool(!negate))
	case *itemNode:
		if negate {
			state.RemoveItem(s, n.id)
		} else {
			state.GiveItem(s, n.id)
		}
	case *companionNode:
		if negate {
			state.RemoveCompanion(s, n.id)
		} else {
			state.AddCompanion(s, n.id)
		}
	case *cmpNode:
		op := n.op
		if negate {
			op = invert(op)
		}
		if v, ok := n.left.(*varNode); ok {
			if lit, ok := n.right.(*litNode); ok {
				grantComparison(s, v.name, op, lit.v)
			}
			return
		}
		if lit, ok := n.left.(*litNode); ok {
			if v, ok := n.right.(*varNode); ok {
				grantComparison(s, v.name, flip(op), lit.v)
			}
		}
	}
}

func grantComparison(s *types.GameState, name string, op tokenKind, lit types.Value) {
	if op == tokEq {
		state.Set(s, name, lit)
		return
	}
	cur := state.Lookup(s, name)
	if ok, err := compare(op, cur, lit); err == nil && ok {
		return
	}
	switch op {
	case tokNe:
		switch lit.Kind {
		case types.KindBool:
			state.Set(s, name, types.Bool(!lit.B))
		case types.KindNumber:
			state.Set(s, name, types.Number(lit.N+1))
		default:
			state.Unset(s, name)
		}
		return
	}
	if lit.Kind == types.KindText {
		return
	}
	n := asInt(lit)
	switch op {
	case tokGe, tokLe:
		state.Set(s, name, types.Number(n))
	case tokGt:
		state.Set(s, name, types.Number(n+1))
	case tokLt:
		state.Set(s, name, types.Number(n-1))
	}
}

func invert(op tokenKind) tokenKind {
	switch op {
	case tokEq:
		return tokNe
	case tokNe:
		return tokEq
	case tokGt:
		return tokLe
	case tokLe:
		return tokGt
	case tokLt:
		return tokGe
	case tokGe:
		return tokLt
	}
	return op
}

// flip mirrors an operator so that "N op v" becomes "v flip(op) N".
func flip(op tokenKind) tokenKind {
	switch op {
	case tokGt:
		return tokLt
	case tokLt:
		return tokGt
	case tokGe:
		return tokLe
	case tokLe:
		return tokGe
	}
	return op
}
