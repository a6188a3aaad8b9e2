// Package state manages the mutable game state of a playback session:
// variables, inventory, companions and visited nodes.
package state

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/dlgforge/types"
)

// New creates an empty game state with all maps allocated.
func New() *types.GameState {
	return &types.GameState{
		Variables:  map[string]types.Value{},
		Inventory:  map[string]bool{},
		Companions: map[string]bool{},
		Visited:    map[string]bool{},
	}
}

// Clone returns a deep copy that shares no maps with s.
func Clone(s *types.GameState) *types.GameState {
	c := New()
	if s == nil {
		return c
	}
	for k, v := range s.Variables {
		c.Variables[k] = v
	}
	for k, v := range s.Inventory {
		if v {
			c.Inventory[k] = true
		}
	}
	for k, v := range s.Companions {
		if v {
			c.Companions[k] = true
		}
	}
	for k, v := range s.Visited {
		if v {
			c.Visited[k] = true
		}
	}
	return c
}

// Normalize allocates any nil maps so the state is safe to mutate.
func Normalize(s *types.GameState) {
	if s.Variables == nil {
		s.Variables = map[string]types.Value{}
	}
	if s.Inventory == nil {
		s.Inventory = map[string]bool{}
	}
	if s.Companions == nil {
		s.Companions = map[string]bool{}
	}
	if s.Visited == nil {
		s.Visited = map[string]bool{}
	}
}

// Get returns a variable and whether it is set.
func Get(s *types.GameState, name string) (types.Value, bool) {
	v, ok := s.Variables[name]
	return v, ok
}

// Lookup returns a variable, or Bool(false) when it is unset.
func Lookup(s *types.GameState, name string) types.Value {
	if v, ok := s.Variables[name]; ok {
		return v
	}
	return types.Bool(false)
}

// Set assigns a variable.
func Set(s *types.GameState, name string, v types.Value) {
	s.Variables[name] = v
}

// Unset removes a variable.
func Unset(s *types.GameState, name string) {
	delete(s.Variables, name)
}

// Int returns a variable as an integer. Unset variables and false are 0,
// true is 1; text is reported as not numeric.
func Int(s *types.GameState, name string) (int64, bool) {
	v, ok := s.Variables[name]
	if !ok {
		return 0, true
	}
	switch v.Kind {
	case types.KindNumber:
		return v.N, true
	case types.KindBool:
		if v.B {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// HasItem reports whether the item is in the inventory.
func HasItem(s *types.GameState, id string) bool {
	return s.Inventory[id]
}

// GiveItem adds an item to the inventory.
func GiveItem(s *types.GameState, id string) {
	s.Inventory[id] = true
}

// RemoveItem removes an item from the inventory.
func RemoveItem(s *types.GameState, id string) {
	delete(s.Inventory, id)
}

// HasCompanion reports whether the companion is in the party.
func HasCompanion(s *types.GameState, id string) bool {
	return s.Companions[id]
}

// AddCompanion adds a companion to the party.
func AddCompanion(s *types.GameState, id string) {
	s.Companions[id] = true
}

// RemoveCompanion removes a companion from the party.
func RemoveCompanion(s *types.GameState, id string) {
	delete(s.Companions, id)
}

// Visit records a node visit.
func Visit(s *types.GameState, nodeID string) {
	s.Visited[nodeID] = true
}

// Visited reports whether a node has been visited.
func Visited(s *types.GameState, nodeID string) bool {
	return s.Visited[nodeID]
}

// Items returns the inventory sorted.
func Items(s *types.GameState) []string {
	return sortedKeys(s.Inventory)
}

// Party returns the companions sorted.
func Party(s *types.GameState) []string {
	return sortedKeys(s.Companions)
}

// VisitedNodes returns the visited node ids sorted.
func VisitedNodes(s *types.GameState) []string {
	return sortedKeys(s.Visited)
}

// VariableNames returns the variable names sorted.
func VariableNames(s *types.GameState) []string {
	names := make([]string, 0, len(s.Variables))
	for k := range s.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Signature returns a canonical string of the variables, inventory and
// companions. Visited nodes are excluded. Two states with the same
// signature evaluate every condition identically.
func Signature(s *types.GameState) string {
	var b strings.Builder
	for _, name := range VariableNames(s) {
		v := s.Variables[name]
		fmt.Fprintf(&b, "%s=%d:%s;", name, v.Kind, v.String())
	}
	b.WriteString("|")
	b.WriteString(strings.Join(Items(s), ","))
	b.WriteString("|")
	b.WriteString(strings.Join(Party(s), ","))
	return b.String()
}

// Summary renders the state as display lines.
func Summary(s *types.GameState) []string {
	var out []string
	for _, name := range VariableNames(s) {
		out = append(out, fmt.Sprintf("%s = %s", name, s.Variables[name].String()))
	}
	if items := Items(s); len(items) > 0 {
		out = append(out, "Inventory: "+strings.Join(items, ", "))
	}
	if party := Party(s); len(party) > 0 {
		out = append(out, "Companions: "+strings.Join(party, ", "))
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k, ok := range m {
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
