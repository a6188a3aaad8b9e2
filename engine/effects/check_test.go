package effects

import (
	"strings"
	"testing"
)

func TestCheckCommand(t *testing.T) {
	tests := []struct {
		cmd  string
		kind IssueKind
		want string
	}{
		{"set gold", IssueArgs, "missing arguments"},
		{"set gold 5", IssueEquals, "requires '='"},
		{"add gold = many", IssueAmount, "requires numeric value, got 'many'"},
		{"give_item", IssueArgs, "*give_item item_name"},
		{"sett gold = 1", IssueUnknown, "did you mean 'set'?"},
		{"give sword", IssueUnknown, "did you mean 'give_item'?"},
		{"giveitem sword", IssueUnknown, "did you mean 'give_item'?"},
		{"remove_itm sword", IssueUnknown, "did you mean 'remove_item'?"},
		{"dance", IssueUnknown, "Unknown command 'dance'"},
		{"SET gold = 5", IssueUnknown, "Unknown command 'SET', did you mean 'set'?"},
		{"Give_Item sword", IssueUnknown, "did you mean 'give_item'?"},
	}
	for _, tt := range tests {
		issues := CheckCommand(tt.cmd)
		found := false
		for _, is := range issues {
			if is.Kind == tt.kind && strings.Contains(is.Message, tt.want) {
				found = true
			}
		}
		if !found {
			t.Errorf("CheckCommand(%q) = %+v, want kind %d containing %q", tt.cmd, issues, tt.kind, tt.want)
		}
	}
}

func TestCheckCommand_Valid(t *testing.T) {
	for _, cmd := range []string{
		"set met = true",
		"set title = the old king",
		"add xp = 10",
		"sub harmony = -2",
		"give_item key",
		"remove_item key",
		"add_companion peng",
		"remove_companion peng",
		"start_combat bandits",
		"start_conversation elder",
		"",
	} {
		if issues := CheckCommand(cmd); len(issues) != 0 {
			t.Errorf("CheckCommand(%q) = %+v, want none", cmd, issues)
		}
	}
}

func TestCheckCommand_NoSuggestion(t *testing.T) {
	issues := CheckCommand("teleport home")
	if len(issues) != 1 {
		t.Fatalf("expected one issue, got %+v", issues)
	}
	if strings.Contains(issues[0].Message, "did you mean") {
		t.Errorf("expected no suggestion, got %q", issues[0].Message)
	}
}

func TestSimilarity(t *testing.T) {
	if got := similarity("remove_itm", "remove_item"); got <= 0.7 {
		t.Errorf("expected close match, got %v", got)
	}
	if got := similarity("", "set"); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
	if got := similarity("set", "set"); got != 1 {
		t.Errorf("expected 1 for identical strings, got %v", got)
	}
}
