// Package effects implements state mutation through textual commands.
// Every command is one atomic operation. Malformed commands are skipped.
package effects

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

// Stat variables whose add/sub produce feedback.
var feedbackStats = map[string]bool{
	"harmony": true,
	"discord": true,
	"xp":      true,
}

// Execute applies one command to s and returns feedback for notable changes,
// or nil. With skipIfVarExists a set on an existing variable is a no-op;
// every other command still applies.
func Execute(cmd string, s *types.GameState, skipIfVarExists bool) *types.Feedback {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return nil
	}

	switch parts[0] {
	case "set":
		if len(parts) < 4 {
			return skipped(cmd, "missing value")
		}
		name := parts[1]
		if _, exists := state.Get(s, name); exists && skipIfVarExists {
			return nil
		}
		value := strings.Join(parts[3:], " ")
		if i := strings.Index(cmd, "="); i >= 0 {
			if raw := strings.TrimSpace(cmd[i+1:]); isQuoted(raw) {
				value = raw
			}
		}
		state.Set(s, name, ParseValue(value))
		return nil

	case "add", "sub":
		if len(parts) < 4 {
			return skipped(cmd, "missing amount")
		}
		name := parts[1]
		amount, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return skipped(cmd, "amount is not an integer")
		}
		current, ok := state.Int(s, name)
		if !ok {
			return skipped(cmd, "variable is not numeric")
		}
		if parts[0] == "sub" {
			amount = -amount
		}
		total := current + amount
		state.Set(s, name, types.Number(total))
		if feedbackStats[name] {
			return &types.Feedback{Type: name, Amount: amount, Total: total}
		}
		return nil

	case "give_item":
		if len(parts) < 2 {
			return skipped(cmd, "missing item")
		}
		state.GiveItem(s, parts[1])
		return &types.Feedback{Type: "item", Action: "give", Subject: parts[1]}

	case "remove_item":
		if len(parts) < 2 {
			return skipped(cmd, "missing item")
		}
		state.RemoveItem(s, parts[1])
		return &types.Feedback{Type: "item", Action: "remove", Subject: parts[1]}

	case "add_companion":
		if len(parts) < 2 {
			return skipped(cmd, "missing companion")
		}
		state.AddCompanion(s, parts[1])
		return &types.Feedback{Type: "companion", Action: "add", Subject: parts[1]}

	case "remove_companion":
		if len(parts) < 2 {
			return skipped(cmd, "missing companion")
		}
		state.RemoveCompanion(s, parts[1])
		return &types.Feedback{Type: "companion", Action: "remove", Subject: parts[1]}

	// Signals for the host game. They do not touch state.
	case "start_combat":
		if len(parts) < 2 {
			return skipped(cmd, "missing combat id")
		}
		return &types.Feedback{Type: "combat", Action: "start", Subject: parts[1]}

	case "start_conversation":
		if len(parts) < 2 {
			return skipped(cmd, "missing npc id")
		}
		return &types.Feedback{Type: "conversation", Action: "start", Subject: parts[1]}
	}

	zap.L().Debug("unknown command ignored", zap.String("command", cmd))
	return nil
}

// Apply executes commands in order and collects their feedback.
func Apply(cmds []types.Command, s *types.GameState, skipIfVarExists bool) []types.Feedback {
	var out []types.Feedback
	for _, c := range cmds {
		if fb := Execute(c.Text, s, skipIfVarExists); fb != nil {
			out = append(out, *fb)
		}
	}
	return out
}

// ParseValue parses a *set literal: a double-quoted Go string is text
// verbatim, then true/false in any case, then an integer, else the raw text.
func ParseValue(raw string) types.Value {
	if isQuoted(raw) {
		if text, err := strconv.Unquote(raw); err == nil {
			return types.Text(text)
		}
	}
	switch strings.ToLower(raw) {
	case "true":
		return types.Bool(true)
	case "false":
		return types.Bool(false)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return types.Number(n)
	}
	return types.Text(raw)
}

// QuoteValue spells v as a *set literal that ParseValue reads back as v.
// Text that would parse as something else, or lose whitespace, is quoted.
func QuoteValue(v types.Value) string {
	if v.Kind != types.KindText {
		return v.String()
	}
	if v.S != "" && strings.Join(strings.Fields(v.S), " ") == v.S && ParseValue(v.S) == v {
		return v.S
	}
	return strconv.Quote(v.S)
}

func isQuoted(raw string) bool {
	return len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"'
}

func skipped(cmd, reason string) *types.Feedback {
	zap.L().Debug("command skipped", zap.String("command", cmd), zap.String("reason", reason))
	return nil
}
