package loader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nathoo/dlgforge/engine/condition"
	"github.com/nathoo/dlgforge/engine/effects"
	"github.com/nathoo/dlgforge/types"
)

// Validate runs every validation pass over d. Passes are independent; each
// adds to the shared report. Parser diagnostics come first.
func Validate(d *types.Dialogue, opts Options) Report {
	v := &validator{d: d, opts: opts}
	v.errors = append(v.errors, d.Errors...)
	v.warnings = append(v.warnings, d.Warnings...)

	v.structure()
	v.references()
	v.entryGroups()
	v.conditions()
	v.commands()
	v.flow()

	return Report{Errors: v.errors, Warnings: v.warnings}
}

type validator struct {
	d        *types.Dialogue
	opts     Options
	errors   []string
	warnings []string
}

func (v *validator) errorf(line int, format string, args ...any) {
	v.errors = append(v.errors, prefix(line)+fmt.Sprintf(format, args...))
}

func (v *validator) warnf(line int, format string, args ...any) {
	v.warnings = append(v.warnings, prefix(line)+fmt.Sprintf(format, args...))
}

func prefix(line int) string {
	if line <= 0 {
		return ""
	}
	return fmt.Sprintf("Line %d: ", line)
}

// nodes yields nodes in file order.
func (v *validator) nodes() []*types.Node {
	out := make([]*types.Node, 0, len(v.d.NodeOrder))
	for _, id := range v.d.NodeOrder {
		if n, ok := v.d.Nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// structure checks speakers and node id uniqueness.
func (v *validator) structure() {
	seen := map[string]bool{}
	for _, id := range v.d.NodeOrder {
		if seen[id] {
			v.errorf(0, "Duplicate node '%s'", id)
		}
		seen[id] = true
	}
	if v.d.StartNode != "" {
		if _, ok := v.d.Nodes[v.d.StartNode]; !ok {
			v.errorf(0, "Start node '%s' does not exist", v.d.StartNode)
		}
	}

	reported := map[string]bool{}
	for _, n := range v.nodes() {
		if isAlias(n) {
			continue
		}
		for _, l := range n.Lines {
			if v.knownSpeaker(l.Speaker) || reported[l.Speaker] {
				continue
			}
			reported[l.Speaker] = true
			v.warnf(l.SourceLine, "Speaker '%s' not defined in [characters] section", l.Speaker)
		}
	}
}

func (v *validator) knownSpeaker(id string) bool {
	if _, ok := v.d.Characters[id]; ok {
		return true
	}
	return id == "narrator" || slices.Contains(v.opts.PlayerIDs, id)
}

// references checks choice targets and reachability.
func (v *validator) references() {
	for _, n := range v.nodes() {
		if isAlias(n) {
			continue
		}
		for _, c := range n.Choices {
			if c.Target == types.End {
				continue
			}
			if _, ok := v.d.Nodes[c.Target]; !ok {
				v.errorf(c.SourceLine, "Undefined target node '%s' in node '%s'", c.Target, n.ID)
			}
		}
	}

	reachable := Reachable(v.d)
	for _, n := range v.nodes() {
		if !reachable[n.ID] {
			v.warnf(n.SourceLine, "Node '%s' is unreachable from start", n.ID)
		}
	}
}

// Reachable returns the nodes reachable from the start node, every entry
// route target and every node carrying a trigger, following choices and
// GOTOs regardless of their conditions.
func Reachable(d *types.Dialogue) map[string]bool {
	var queue []string
	if d.StartNode != "" {
		queue = append(queue, d.StartNode)
	}
	for _, name := range d.EntryOrder {
		for _, r := range d.Entries[name].Routes {
			queue = append(queue, r.Target)
		}
	}
	for _, id := range d.NodeOrder {
		if len(d.Nodes[id].Triggers) > 0 {
			queue = append(queue, id)
		}
	}

	seen := map[string]bool{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, ok := d.Nodes[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		for _, c := range n.Choices {
			if !seen[c.Target] {
				queue = append(queue, c.Target)
			}
		}
	}
	return seen
}

func (v *validator) entryGroups() {
	for _, name := range v.d.EntryOrder {
		g := v.d.Entries[name]
		hasDefault := false
		for _, r := range g.Routes {
			if strings.TrimSpace(r.Condition) == "" {
				hasDefault = true
			}
			if _, ok := v.d.Nodes[r.Target]; !ok {
				v.errorf(r.SourceLine, "Entry route target '%s' in [entry:%s] does not exist", r.Target, name)
			}
		}
		for _, id := range g.Exits {
			if _, ok := v.d.Nodes[id]; !ok {
				v.warnf(g.SourceLine, "[entry:%s]: Exit node '%s' does not exist", name, id)
			}
		}
		if len(g.Routes) > 0 && !hasDefault {
			v.warnf(g.SourceLine, "[entry:%s] has no default entry route (-> target). Conversation may not start if no conditions match.", name)
		}
	}
}

// conditions reports variables, items and companions that conditions read
// but no command ever provides.
func (v *validator) conditions() {
	provided := collectProvided(v.d)
	reported := map[string]bool{}

	check := func(cond string, line int) {
		if strings.TrimSpace(cond) == "" {
			return
		}
		refs := condition.References(cond)
		for _, name := range refs.Variables {
			if !provided.vars[name] && !reported["v:"+name] {
				reported["v:"+name] = true
				v.warnf(line, "Variable %s used but never set", name)
			}
		}
		for _, id := range refs.Items {
			if !provided.items[id] && !reported["i:"+id] {
				reported["i:"+id] = true
				v.warnf(line, "Item %s checked but never given via *give_item", id)
			}
		}
		for _, id := range refs.Companions {
			if !provided.companions[id] && !reported["c:"+id] {
				reported["c:"+id] = true
				v.warnf(line, "Companion %s checked but never added via *add_companion", id)
			}
		}
	}

	for _, n := range v.nodes() {
		if isAlias(n) {
			continue
		}
		for _, l := range n.Lines {
			check(l.Condition, l.SourceLine)
		}
		for _, c := range n.Choices {
			check(c.Condition, c.SourceLine)
		}
		for _, t := range n.Triggers {
			check(t.Condition, t.SourceLine)
		}
	}
	for _, name := range v.d.EntryOrder {
		for _, r := range v.d.Entries[name].Routes {
			check(r.Condition, r.SourceLine)
		}
	}
}

type provided struct {
	vars, items, companions map[string]bool
}

// collectProvided scans [state] and node commands for what they set, give
// and add.
func collectProvided(d *types.Dialogue) provided {
	p := provided{vars: map[string]bool{}, items: map[string]bool{}, companions: map[string]bool{}}
	for _, c := range allCommands(d) {
		parts := strings.Fields(c.Text)
		if len(parts) < 2 {
			continue
		}
		switch parts[0] {
		case "set", "add", "sub":
			p.vars[parts[1]] = true
		case "give_item":
			p.items[parts[1]] = true
		case "add_companion":
			p.companions[parts[1]] = true
		}
	}
	return p
}

// commands checks every command against the command table. Unknown verbs,
// missing arguments and non-integer amounts are errors.
func (v *validator) commands() {
	for _, c := range allCommands(v.d) {
		for _, is := range effects.CheckCommand(c.Text) {
			if is.Kind == effects.IssueEquals {
				v.warnf(c.SourceLine, "%s", is.Message)
				continue
			}
			v.errorf(c.SourceLine, "%s", is.Message)
		}
	}
}

// flow reports dead ends and dialogues that can never finish. Stacked labels
// are judged as one unit.
func (v *validator) flow() {
	for _, n := range v.nodes() {
		if n.IsEnd || n.IsExit || v.stackHasChoices(n) {
			continue
		}
		v.warnf(n.SourceLine, "Node '%s' has no choices (dead end)", n.ID)
	}

	if len(v.d.Nodes) == 0 {
		return
	}
	for _, n := range v.d.Nodes {
		if n.IsEnd {
			return
		}
		for _, c := range n.Choices {
			if c.Target == types.End {
				return
			}
		}
	}
	v.warnf(0, "No path leads to END - conversation may not be able to terminate")
}

func (v *validator) stackHasChoices(n *types.Node) bool {
	if len(n.Choices) > 0 {
		return true
	}
	for _, id := range n.Stack {
		if m, ok := v.d.Nodes[id]; ok && (len(m.Choices) > 0 || m.IsEnd || m.IsExit) {
			return true
		}
	}
	return false
}

// isAlias reports whether n is a secondary label of a stack. Its body is
// the primary's, so per-body checks skip it.
func isAlias(n *types.Node) bool {
	return len(n.Stack) > 1 && n.Stack[0] != n.ID
}

func allCommands(d *types.Dialogue) []types.Command {
	out := append([]types.Command(nil), d.InitialState...)
	for _, id := range d.NodeOrder {
		if n := d.Nodes[id]; !isAlias(n) {
			out = append(out, n.Commands...)
		}
	}
	return out
}
