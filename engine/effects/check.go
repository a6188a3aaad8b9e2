package effects

import (
	"fmt"
	"strconv"
	"strings"
)

// IssueKind classifies a command problem.
type IssueKind int

const (
	IssueUnknown IssueKind = iota // verb is not a known command
	IssueArgs                     // too few arguments
	IssueEquals                   // set/add/sub without '='
	IssueAmount                   // add/sub amount is not an integer
)

// Issue is one problem found in a command. Message carries no line prefix.
type Issue struct {
	Kind    IssueKind
	Message string
}

type commandSpec struct {
	minParts       int
	requiresEquals bool
	syntax         string
}

// Commands lists every known verb in display order.
var Commands = []string{
	"set", "add", "sub",
	"give_item", "remove_item",
	"add_companion", "remove_companion",
	"start_combat", "start_conversation",
}

var known = map[string]commandSpec{
	"set":                {4, true, "*set variable = value"},
	"add":                {4, true, "*add variable = amount"},
	"sub":                {4, true, "*sub variable = amount"},
	"give_item":          {2, false, "*give_item item_name"},
	"remove_item":        {2, false, "*remove_item item_name"},
	"add_companion":      {2, false, "*add_companion companion_name"},
	"remove_companion":   {2, false, "*remove_companion companion_name"},
	"start_combat":       {2, false, "*start_combat combat_id"},
	"start_conversation": {2, false, "*start_conversation npc_id"},
}

var typos = map[string]string{
	"sett":            "set",
	"ad":              "add",
	"addd":            "add",
	"subb":            "sub",
	"give":            "give_item",
	"remove":          "remove_item",
	"addcompanion":    "add_companion",
	"removecompanion": "remove_companion",
	"give_companion":  "add_companion",
	"giveitem":        "give_item",
	"removeitem":      "remove_item",
	"startcombat":     "start_combat",
}

// CheckCommand reports syntax problems in a command without running it.
// Verbs are case-sensitive, as in Execute.
func CheckCommand(cmd string) []Issue {
	cmd = strings.TrimSpace(cmd)
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return nil
	}
	verb := parts[0]

	spec, ok := known[verb]
	if !ok {
		msg := fmt.Sprintf("Unknown command '%s'", verb)
		if s := Suggest(verb); s != "" {
			msg += fmt.Sprintf(", did you mean '%s'?", s)
		}
		return []Issue{{IssueUnknown, msg}}
	}

	var out []Issue
	if len(parts) < spec.minParts {
		out = append(out, Issue{IssueArgs,
			fmt.Sprintf("Command '%s' missing arguments. Expected: %s", verb, spec.syntax)})
	}
	if spec.requiresEquals && !strings.Contains(cmd, "=") {
		out = append(out, Issue{IssueEquals,
			fmt.Sprintf("Command '%s' requires '=' operator. Expected: %s", verb, spec.syntax)})
	}
	if (verb == "add" || verb == "sub") && len(parts) >= 4 {
		if _, err := strconv.ParseInt(parts[3], 10, 64); err != nil {
			out = append(out, Issue{IssueAmount,
				fmt.Sprintf("Command '%s' requires numeric value, got '%s'", verb, parts[3])})
		}
	}
	return out
}

// Suggest returns the known command an unknown verb was probably meant to
// be, or "".
func Suggest(verb string) string {
	verb = strings.ToLower(verb)
	if s, ok := typos[verb]; ok {
		return s
	}
	for _, c := range Commands {
		if similarity(verb, c) > 0.7 {
			return c
		}
	}
	return ""
}

// similarity is the share of positions at which a and b hold the same byte,
// relative to the longer string.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	n := min(len(a), len(b))
	matches := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(max(len(a), len(b)))
}
