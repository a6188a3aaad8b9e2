package loader

import (
	"sort"
	"strings"

	"github.com/nathoo/dlgforge/engine/condition"
	"github.com/nathoo/dlgforge/types"
)

// Stats summarises a dialogue.
type Stats struct {
	Characters           int      `json:"characters"`
	Nodes                int      `json:"nodes"`
	EntryGroups          int      `json:"entry_groups"`
	EntryRoutes          int      `json:"entry_routes"`
	ExitNodes            int      `json:"exit_nodes"`
	Triggers             int      `json:"triggers"`
	EndNodes             int      `json:"end_nodes"`
	DialogueLines        int      `json:"dialogue_lines"`
	Choices              int      `json:"choices"`
	Commands             int      `json:"commands"`
	InitialStateCommands int      `json:"initial_state_commands"`
	Errors               int      `json:"errors"`
	Warnings             int      `json:"warnings"`
	KnownItems           []string `json:"known_items"`
	KnownCompanions      []string `json:"known_companions"`
}

// ComputeStats counts the content of d. Stacked labels count their shared
// body once. Errors and warnings come from r.
func ComputeStats(d *types.Dialogue, r Report) Stats {
	st := Stats{
		Characters:           len(d.Characters),
		Nodes:                len(d.Nodes),
		EntryGroups:          len(d.Entries),
		InitialStateCommands: len(d.InitialState),
		Errors:               len(r.Errors),
		Warnings:             len(r.Warnings),
	}
	for _, g := range d.Entries {
		st.EntryRoutes += len(g.Routes)
		st.ExitNodes += len(g.Exits)
	}
	for _, n := range d.Nodes {
		if n.IsEnd {
			st.EndNodes++
		}
		if isAlias(n) {
			continue
		}
		st.Triggers += len(n.Triggers)
		st.DialogueLines += len(n.Lines)
		st.Choices += len(n.Choices)
		st.Commands += len(n.Commands)
	}

	items, companions := Known(d)
	st.KnownItems, st.KnownCompanions = items, companions
	return st
}

// Known lists, sorted, every item and companion the dialogue mentions in a
// command or a condition.
func Known(d *types.Dialogue) (items, companions []string) {
	is, cs := map[string]bool{}, map[string]bool{}

	for _, c := range allCommands(d) {
		parts := strings.Fields(c.Text)
		if len(parts) < 2 {
			continue
		}
		switch parts[0] {
		case "give_item", "remove_item":
			is[parts[1]] = true
		case "add_companion", "remove_companion":
			cs[parts[1]] = true
		}
	}

	track := func(cond string) {
		refs := condition.References(cond)
		for _, id := range refs.Items {
			is[id] = true
		}
		for _, id := range refs.Companions {
			cs[id] = true
		}
	}
	for _, id := range d.NodeOrder {
		n := d.Nodes[id]
		for _, l := range n.Lines {
			track(l.Condition)
		}
		for _, c := range n.Choices {
			track(c.Condition)
		}
		for _, t := range n.Triggers {
			track(t.Condition)
		}
	}
	for _, g := range d.Entries {
		for _, r := range g.Routes {
			track(r.Condition)
		}
	}
	return sortedSet(is), sortedSet(cs)
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
