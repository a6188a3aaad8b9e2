package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

// statNames are the tracked stats shown in the status bar, in order.
var statNames = []struct{ name, label string }{
	{"harmony", "H"},
	{"discord", "D"},
	{"xp", "XP"},
}

// nodeDisplayName derives a human-readable name from a node ID.
// "elder_greeting" -> "Elder Greeting".
func nodeDisplayName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// phaseLabel names the playback phase for the status bar.
func phaseLabel(p types.Phase) string {
	switch p {
	case types.PhaseAtNode:
		return ""
	case types.PhaseEnded:
		return " (ended)"
	case types.PhaseExited:
		return " (closed)"
	default:
		return " (idle)"
	}
}

// statsText lists the stats that are set, e.g. "H:2 XP:10".
func statsText(s *types.GameState) string {
	var parts []string
	for _, st := range statNames {
		if _, set := state.Get(s, st.name); !set {
			continue
		}
		if n, ok := state.Int(s, st.name); ok {
			parts = append(parts, fmt.Sprintf("%s:%d", st.label, n))
		}
	}
	return strings.Join(parts, " ")
}

// renderStatusBar produces a full-width inverted status line showing the
// current node, tracked stats, inventory and party.
func (m Model) renderStatusBar() string {
	s := m.player.State()

	left := " " + nodeDisplayName(m.player.Node()) + phaseLabel(m.player.Phase())
	if stats := statsText(s); stats != "" {
		left += " | " + stats
	}

	items := state.Items(s)
	party := state.Party(s)
	right := ""
	if len(party) > 0 {
		right = fmt.Sprintf("Party: %d ", len(party))
	}

	// Show inventory items if they fit, otherwise just count.
	if len(items) > 0 {
		candidate := fmt.Sprintf("Inv: %s | %s", strings.Join(items, ", "), right)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | %s", len(items), right)
		}
	}
	right = strings.TrimSuffix(right, " | ")
	if right != "" && !strings.HasSuffix(right, " ") {
		right += " "
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
