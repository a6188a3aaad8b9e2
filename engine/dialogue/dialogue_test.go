package dialogue

import (
	"reflect"
	"testing"

	"github.com/nathoo/dlgforge/engine/parser"
	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

const triggerSource = `[greet]
@talk:elder
narrator: "first meeting"
-> END

[quest]
@talk:elder {accepted}
-> END

[reward]
[reward_alias]
@talk:elder {done}
-> END

[smith]
@talk:smith {has_item:ore}
-> END

[entry:officer]
vip -> v
-> d

[v]
-> END
[d]
-> END
`

func TestResolveTalk_LastMatchWins(t *testing.T) {
	d := parser.Parse(triggerSource)

	tests := []struct {
		name string
		vars map[string]bool
		want string
	}{
		{"fresh", nil, "greet"},
		{"accepted", map[string]bool{"accepted": true}, "quest"},
		{"done", map[string]bool{"accepted": true, "done": true}, "reward"},
		{"done only", map[string]bool{"done": true}, "reward"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := state.New()
			for k, v := range tt.vars {
				state.Set(s, k, types.Bool(v))
			}
			got, ok := ResolveTalk(d, "elder", s)
			if !ok || got != tt.want {
				t.Errorf("ResolveTalk = %q, %v; want %q", got, ok, tt.want)
			}
		})
	}
}

func TestResolveTalk_NothingToSay(t *testing.T) {
	d := parser.Parse(triggerSource)
	if got, ok := ResolveTalk(d, "smith", state.New()); ok {
		t.Errorf("expected smith to have nothing to say, got %q", got)
	}
	if _, ok := ResolveTalk(d, "nobody", state.New()); ok {
		t.Error("expected unknown npc to have nothing to say")
	}
}

func TestTriggers_StackReportedOnce(t *testing.T) {
	d := parser.Parse(triggerSource)
	ts := Triggers(d, types.TriggerTalk)
	if len(ts) != 4 {
		t.Fatalf("expected 4 talk triggers, got %d: %+v", len(ts), ts)
	}
	if ts[2].NodeID != "reward" {
		t.Errorf("expected stacked trigger to use the primary label, got %q", ts[2].NodeID)
	}
}

func TestResolveEntry(t *testing.T) {
	d := parser.Parse(triggerSource)

	s := state.New()
	state.Set(s, "vip", types.Bool(true))
	if got, ok := ResolveEntry(d, "officer", s); !ok || got != "v" {
		t.Errorf("ResolveEntry(vip) = %q, %v; want v", got, ok)
	}
	if got, ok := ResolveEntry(d, "officer", state.New()); !ok || got != "d" {
		t.Errorf("ResolveEntry(default) = %q, %v; want d", got, ok)
	}
	if _, ok := ResolveEntry(d, "missing", s); ok {
		t.Error("expected unknown group not to resolve")
	}
}

func TestTalkAgainOptions(t *testing.T) {
	d := parser.Parse(triggerSource)
	s := state.New()
	state.GiveItem(s, "ore")

	got := TalkAgainOptions(d, s)
	want := []types.TalkOption{
		{Kind: types.TriggerTalk, Target: "elder", NodeID: "greet"},
		{Kind: types.TriggerTalk, Target: "smith", NodeID: "smith"},
		{Kind: types.TriggerEntry, Target: "officer", NodeID: "d"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TalkAgainOptions =\n%+v\nwant\n%+v", got, want)
	}
}

func TestNPCs(t *testing.T) {
	d := parser.Parse(triggerSource)
	if got := NPCs(d); !reflect.DeepEqual(got, []string{"elder", "smith"}) {
		t.Errorf("NPCs = %v", got)
	}
}
