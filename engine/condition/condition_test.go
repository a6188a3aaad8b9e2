package condition

import (
	"reflect"
	"strings"
	"testing"

	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

func condTestState() *types.GameState {
	s := state.New()
	s.Variables["gold"] = types.Number(15)
	s.Variables["met_elder"] = types.Bool(true)
	s.Variables["betrayed"] = types.Bool(false)
	s.Variables["mood"] = types.Text("grim")
	s.Variables["debt"] = types.Number(-3)
	s.Inventory["sword"] = true
	s.Companions["peng"] = true
	return s
}

func TestEvaluate(t *testing.T) {
	s := condTestState()

	tests := []struct {
		name string
		cond string
		want bool
	}{
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"flag true", "met_elder", true},
		{"flag false", "betrayed", false},
		{"unset flag", "never_set", false},
		{"negated unset", "!never_set", true},
		{"negated flag", "!met_elder", false},
		{"has_item present", "has_item:sword", true},
		{"has_item absent", "has_item:shield", false},
		{"companion present", "companion:peng", true},
		{"companion absent", "companion:rook", false},
		{"ge true", "gold >= 10", true},
		{"ge false", "gold >= 20", false},
		{"gt no spaces", "gold>14", true},
		{"lt", "gold < 15", false},
		{"le", "gold <= 15", true},
		{"eq number", "gold == 15", true},
		{"ne number", "gold != 15", false},
		{"negative literal", "debt == -3", true},
		{"negative compare", "debt < -1", true},
		{"unset ge", "silver >= 5", false},
		{"unset lt", "silver < 5", true},
		{"unset eq false", "silver == false", true},
		{"bool eq", "met_elder == true", true},
		{"bool ne", "betrayed != false", false},
		{"text eq", `mood == "grim"`, true},
		{"text eq single quotes", "mood == 'glad'", false},
		{"text ne number", "mood != 3", true},
		{"and", "met_elder && has_item:sword", true},
		{"and short", "betrayed && has_item:sword", false},
		{"or", "betrayed || companion:peng", true},
		{"parens", "(betrayed || met_elder) && gold > 10", true},
		{"not binds over comparison", "!gold >= 20", true},
		{"keywords", "met_elder and not betrayed", true},
		{"outer braces", "{has_item:sword}", true},
		{"True literal", "met_elder == True", true},
		{"number truthy", "gold", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.cond, s)
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluate_MalformedFailsClosed(t *testing.T) {
	s := condTestState()
	bad := []string{
		"gold = 5",
		"gold >=",
		"(met_elder",
		"met_elder)",
		"has_item:",
		"gold >= 1.5",
		"mood > 3",
		`mood == "grim`,
		"met_elder & betrayed",
		"gold $ 3",
		"&& met_elder",
	}
	for _, cond := range bad {
		if Evaluate(cond, s) {
			t.Errorf("Evaluate(%q) = true, want false for malformed condition", cond)
		}
	}
	// A type error under a negation still fails closed.
	if Evaluate("!(mood > 3)", s) {
		t.Error("expected negated type error to evaluate false")
	}
}

func TestEvaluate_NegationIsComplement(t *testing.T) {
	s := condTestState()
	for _, cond := range []string{"met_elder", "betrayed", "never_set", "gold", "has_item:sword", "companion:rook"} {
		if Evaluate("!"+cond, s) != !Evaluate(cond, s) {
			t.Errorf("expected !%s to be the complement of %s", cond, cond)
		}
	}
}

func TestEvaluate_DoesNotMutate(t *testing.T) {
	s := condTestState()
	before := state.Signature(s)
	Evaluate("never_set || has_item:nothing || gold > 100", s)
	if state.Signature(s) != before {
		t.Error("expected evaluation to leave state unchanged")
	}
	if _, ok := state.Get(s, "never_set"); ok {
		t.Error("expected unset variable to stay unset")
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		cond string
		want string
	}{
		{"gold = 5", "'=='"},
		{"gold >= 1.5", "fractional"},
		{"(a", "')'"},
		{"a b", "unexpected"},
		{"'open", "unterminated"},
	}
	for _, tt := range tests {
		_, err := Compile(tt.cond)
		if err == nil {
			t.Errorf("Compile(%q): expected error", tt.cond)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Compile(%q) error = %v, want it to mention %s", tt.cond, err, tt.want)
		}
	}
}

func TestExpr_String(t *testing.T) {
	e, err := Compile("{ gold > 3 }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.String() != "gold > 3" {
		t.Errorf("expected stripped source, got %q", e.String())
	}
}

func TestGrantCondition(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *types.GameState)
		cond  string
		check func(t *testing.T, s *types.GameState)
	}{
		{
			name: "flag",
			cond: "talked_to_npc",
			check: func(t *testing.T, s *types.GameState) {
				if v := s.Variables["talked_to_npc"]; v != types.Bool(true) {
					t.Errorf("expected true, got %+v", v)
				}
			},
		},
		{
			name: "negated flag",
			cond: "!betrayed",
			check: func(t *testing.T, s *types.GameState) {
				if v, ok := s.Variables["betrayed"]; !ok || v != types.Bool(false) {
					t.Errorf("expected betrayed=false, got %+v", v)
				}
			},
		},
		{
			name: "has_item",
			cond: "has_item:sword",
			check: func(t *testing.T, s *types.GameState) {
				if !s.Inventory["sword"] {
					t.Error("expected sword in inventory")
				}
			},
		},
		{
			name: "companion",
			cond: "companion:peng",
			check: func(t *testing.T, s *types.GameState) {
				if !s.Companions["peng"] {
					t.Error("expected peng in party")
				}
			},
		},
		{
			name:  "greater equal",
			cond:  "gold >= 10",
			check: wantNumber("gold", 10),
		},
		{
			name:  "greater equal already satisfied",
			setup: func(s *types.GameState) { s.Variables["gold"] = types.Number(50) },
			cond:  "gold >= 10",
			check: wantNumber("gold", 50),
		},
		{
			name:  "greater than",
			cond:  "gold > 10",
			check: wantNumber("gold", 11),
		},
		{
			name:  "less equal",
			setup: func(s *types.GameState) { s.Variables["suspicion"] = types.Number(100) },
			cond:  "suspicion <= 5",
			check: wantNumber("suspicion", 5),
		},
		{
			name:  "less than",
			setup: func(s *types.GameState) { s.Variables["suspicion"] = types.Number(100) },
			cond:  "suspicion < 5",
			check: wantNumber("suspicion", 4),
		},
		{
			name:  "equality int",
			cond:  "level == 5",
			check: wantNumber("level", 5),
		},
		{
			name: "equality true",
			cond: "is_hero == true",
			check: func(t *testing.T, s *types.GameState) {
				if v := s.Variables["is_hero"]; v != types.Bool(true) {
					t.Errorf("expected true, got %+v", v)
				}
			},
		},
		{
			name: "equality false",
			cond: "is_villain == false",
			check: func(t *testing.T, s *types.GameState) {
				if v, ok := s.Variables["is_villain"]; !ok || v != types.Bool(false) {
					t.Errorf("expected is_villain=false to be set, got %+v (set=%v)", v, ok)
				}
			},
		},
		{
			name: "and grants all",
			cond: "has_item:key && gold >= 5",
			check: func(t *testing.T, s *types.GameState) {
				if !s.Inventory["key"] {
					t.Error("expected key")
				}
				wantNumber("gold", 5)(t, s)
			},
		},
		{
			name: "or grants first only",
			cond: "has_item:key || gold >= 100",
			check: func(t *testing.T, s *types.GameState) {
				if !s.Inventory["key"] {
					t.Error("expected key")
				}
				if _, ok := s.Variables["gold"]; ok {
					t.Error("expected gold untouched")
				}
			},
		},
		{
			name: "braces",
			cond: "{has_item:sword}",
			check: func(t *testing.T, s *types.GameState) {
				if !s.Inventory["sword"] {
					t.Error("expected sword")
				}
			},
		},
		{
			name:  "no spaces",
			cond:  "gold>=10",
			check: wantNumber("gold", 10),
		},
		{
			name:  "literal on the left",
			cond:  "10 <= gold",
			check: wantNumber("gold", 10),
		},
		{
			name:  "negated comparison",
			setup: func(s *types.GameState) { s.Variables["gold"] = types.Number(50) },
			cond:  "!(gold > 20)",
			check: wantNumber("gold", 20),
		},
		{
			name:  "negated item",
			setup: func(s *types.GameState) { s.Inventory["curse"] = true },
			cond:  "!has_item:curse",
			check: func(t *testing.T, s *types.GameState) {
				if s.Inventory["curse"] {
					t.Error("expected curse removed")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := state.New()
			if tt.setup != nil {
				tt.setup(s)
			}
			GrantCondition(tt.cond, s)
			tt.check(t, s)
			if !Evaluate(tt.cond, s) {
				t.Errorf("expected %q to hold after granting", tt.cond)
			}
		})
	}
}

func TestGrantCondition_EmptyAndMalformed(t *testing.T) {
	s := state.New()
	GrantCondition("", s)
	GrantCondition("gold = 5", s)
	if len(s.Variables) != 0 || len(s.Inventory) != 0 {
		t.Errorf("expected no changes, got %+v", s)
	}
}

func wantNumber(name string, n int64) func(t *testing.T, s *types.GameState) {
	return func(t *testing.T, s *types.GameState) {
		t.Helper()
		if v := s.Variables[name]; v != types.Number(n) {
			t.Errorf("expected %s=%d, got %+v", name, n, v)
		}
	}
}

func TestLint(t *testing.T) {
	tests := []struct {
		cond string
		want string
	}{
		{"(gold > 5", "Unbalanced parentheses"},
		{"a && && b", "Double &&"},
		{"a || || b", "Double ||"},
		{"has_item sword", "colon syntax"},
		{"companion peng", "colon syntax"},
		{"gold = 5", "Use '=='"},
		{"gold >", "Invalid condition"},
	}
	for _, tt := range tests {
		got := Lint(tt.cond)
		found := false
		for _, msg := range got {
			if strings.Contains(msg, tt.want) {
				found = true
			}
		}
		if !found {
			t.Errorf("Lint(%q) = %v, want a message containing %q", tt.cond, got, tt.want)
		}
	}
}

func TestLint_Clean(t *testing.T) {
	for _, cond := range []string{"", "gold >= 10", "a && !b", "has_item:key || companion:peng", "x != 3"} {
		if got := Lint(cond); len(got) != 0 {
			t.Errorf("Lint(%q) = %v, want none", cond, got)
		}
	}
}

func TestReferences(t *testing.T) {
	got := References("gold >= 5 && has_item:key && !met || companion:peng && gold < 9 && has_item sword")
	want := Refs{
		Variables:  []string{"gold", "met", "sword"},
		Items:      []string{"key"},
		Companions: []string{"peng"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("References = %+v, want %+v", got, want)
	}
}

func TestReferences_PartialOnLexError(t *testing.T) {
	got := References("flag && gold = 3")
	if !reflect.DeepEqual(got.Variables, []string{"flag", "gold"}) {
		t.Errorf("expected variables read before the error, got %v", got.Variables)
	}
}
