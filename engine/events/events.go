// Package events dispatches named game events to @event: triggers.
// Dispatch is single pass: it picks a start node and runs nothing.
package events

import (
	"go.uber.org/zap"

	"github.com/nathoo/dlgforge/engine/dialogue"
	"github.com/nathoo/dlgforge/types"
)

// Dispatch returns the node a conversation for the named event starts at.
// Like talk triggers, the last matching @event: trigger wins.
func Dispatch(d *types.Dialogue, name string, s *types.GameState) (string, bool) {
	node, ok := dialogue.Resolve(d, types.TriggerEvent, name, s)
	if !ok {
		zap.L().Debug("event has no active trigger", zap.String("event", name))
	}
	return node, ok
}

// Names returns the distinct event names in order of first appearance.
func Names(d *types.Dialogue) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range dialogue.Triggers(d, types.TriggerEvent) {
		if !seen[t.Target] {
			seen[t.Target] = true
			out = append(out, t.Target)
		}
	}
	return out
}
