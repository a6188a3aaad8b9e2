package path

import (
	"fmt"

	"github.com/nathoo/dlgforge/engine/effects"
	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

// IntegrityError reports a consecutive pair in a replayed path that no
// choice or GOTO connects.
type IntegrityError struct {
	From  string
	To    string
	Index int // position of To in the path
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("path: no edge from '%s' to '%s' at position %d", e.From, e.To, e.Index)
}

func (e *IntegrityError) Unwrap() error { return ErrDisconnected }

// ReplayExactPath runs [state] commands and then the commands of every node
// in route, in order, as playback did. The first node may be any node (a
// conversation can begin at a trigger); every later node must be the target
// of a choice or GOTO of its predecessor. A trailing END is accepted.
func ReplayExactPath(d *types.Dialogue, route []string) (*types.GameState, error) {
	if len(route) == 0 {
		return nil, ErrEmptyPath
	}
	if _, ok := d.Nodes[route[0]]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, route[0])
	}
	for i := 1; i < len(route); i++ {
		if !connected(d.Nodes[route[i-1]], route[i]) {
			return nil, &IntegrityError{From: route[i-1], To: route[i], Index: i}
		}
		if route[i] == types.End && i != len(route)-1 {
			return nil, &IntegrityError{From: route[i], To: route[i+1], Index: i + 1}
		}
		if _, ok := d.Nodes[route[i]]; !ok && route[i] != types.End {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, route[i])
		}
	}

	s := initialState(d)
	for _, id := range route {
		n, ok := d.Nodes[id]
		if !ok {
			break
		}
		state.Visit(s, id)
		effects.Apply(n.Commands, s, false)
	}
	return s, nil
}

func connected(n *types.Node, to string) bool {
	if n == nil {
		return false
	}
	for _, c := range n.Choices {
		if c.Target == to {
			return true
		}
	}
	return false
}
