// Package dialogue decides where an NPC conversation begins.
//
// Talk and event triggers are scanned in reverse file order: later-authored
// content stands for a more advanced story state, so the last trigger whose
// condition holds wins. Legacy entry groups are scanned forward and the
// first matching route wins.
package dialogue

import (
	"github.com/nathoo/dlgforge/engine/condition"
	"github.com/nathoo/dlgforge/types"
)

// Triggers returns every trigger of the given type in file order. Stacked
// labels share one trigger list, which is reported once.
func Triggers(d *types.Dialogue, kind types.TriggerType) []types.Trigger {
	var out []types.Trigger
	for _, id := range d.NodeOrder {
		n := d.Nodes[id]
		if len(n.Stack) > 1 && n.Stack[0] != id {
			continue
		}
		for _, t := range n.Triggers {
			if t.Type == kind {
				out = append(out, t)
			}
		}
	}
	return out
}

// Resolve finds the node a trigger of the given type and target starts at.
func Resolve(d *types.Dialogue, kind types.TriggerType, target string, s *types.GameState) (string, bool) {
	ts := Triggers(d, kind)
	for i := len(ts) - 1; i >= 0; i-- {
		t := ts[i]
		if t.Target != target {
			continue
		}
		if condition.Evaluate(t.Condition, s) {
			return t.NodeID, true
		}
	}
	return "", false
}

// ResolveTalk returns the node a conversation with npc starts at. It
// reports false when the NPC has nothing to say.
func ResolveTalk(d *types.Dialogue, npc string, s *types.GameState) (string, bool) {
	return Resolve(d, types.TriggerTalk, npc, s)
}

// ResolveEntry returns the target of the first route of an entry group
// whose condition holds. An empty condition always holds.
func ResolveEntry(d *types.Dialogue, group string, s *types.GameState) (string, bool) {
	g, ok := d.Entries[group]
	if !ok {
		return "", false
	}
	for _, r := range g.Routes {
		if condition.Evaluate(r.Condition, s) {
			return r.Target, true
		}
	}
	return "", false
}

// NPCs returns the distinct talk-trigger targets in order of first
// appearance.
func NPCs(d *types.Dialogue) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range Triggers(d, types.TriggerTalk) {
		if !seen[t.Target] {
			seen[t.Target] = true
			out = append(out, t.Target)
		}
	}
	return out
}

// TalkAgainOptions lists the conversations that can start from s: one per
// NPC whose talk trigger currently resolves, then every entry group that
// currently resolves.
func TalkAgainOptions(d *types.Dialogue, s *types.GameState) []types.TalkOption {
	var out []types.TalkOption
	for _, npc := range NPCs(d) {
		if node, ok := ResolveTalk(d, npc, s); ok {
			out = append(out, types.TalkOption{Kind: types.TriggerTalk, Target: npc, NodeID: node})
		}
	}
	for _, name := range d.EntryOrder {
		if node, ok := ResolveEntry(d, name, s); ok {
			out = append(out, types.TalkOption{Kind: types.TriggerEntry, Target: name, NodeID: node})
		}
	}
	return out
}
