package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathoo/dlgforge/engine"
	"github.com/nathoo/dlgforge/engine/parser"
	"github.com/nathoo/dlgforge/engine/save"
	"github.com/nathoo/dlgforge/loader"
	"github.com/nathoo/dlgforge/types"
)

const testSource = `[characters]
npc: Elder

[state]
*set gold = 0

[start]
npc: "Hello, traveller."
-> shop: "Shop" {gold >= 5}
-> work: "Work"

[work]
*add gold = 5
narrator: "You sweep the floor."
-> start

[shop]
*give_item sword
npc: "A fine blade."
-> END

[again]
@talk:npc
npc: "Back so soon?"
-> END
`

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	d := parser.Parse(testSource)
	if len(d.Errors) > 0 {
		t.Fatalf("parse errors: %v", d.Errors)
	}
	var out bytes.Buffer
	c := New(d, engine.Options{})
	c.In = strings.NewReader(input)
	c.Out = &out
	c.Source = "test.dlg"
	return c, &out
}

func TestCLI_StartShowsLinesAndChoices(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	c.Run()

	output := out.String()
	for _, want := range []string{
		"Elder: Hello, traveller.",
		"  1. Shop (unavailable)",
		"  2. Work",
		"[Goodbye.]",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestCLI_ChoiceFollowsGoto(t *testing.T) {
	c, out := newTestCLI(t, "2\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "You sweep the floor.") {
		t.Errorf("expected narrator line, got:\n%s", output)
	}
	if strings.Count(output, "Elder: Hello, traveller.") != 2 {
		t.Errorf("expected the GOTO back to start to be followed, got:\n%s", output)
	}
	if !strings.Contains(output, "  1. Shop\n") {
		t.Errorf("expected Shop to be enabled after working, got:\n%s", output)
	}
}

func TestCLI_ChoiceByText(t *testing.T) {
	c, out := newTestCLI(t, "work\n")
	c.Run()
	if !strings.Contains(out.String(), "You sweep the floor.") {
		t.Errorf("expected text input to pick Work, got:\n%s", out.String())
	}
}

func TestCLI_DisabledChoice(t *testing.T) {
	c, out := newTestCLI(t, "1\n9\nfly\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "[That choice is not available.]") {
		t.Errorf("expected disabled message, got:\n%s", output)
	}
	if !strings.Contains(output, "[No choice matches \"9\".]") {
		t.Errorf("expected unknown index message, got:\n%s", output)
	}
	if !strings.Contains(output, "[No choice matches \"fly\".]") {
		t.Errorf("expected no-match message, got:\n%s", output)
	}
}

func TestCLI_EndingAndTalkAgain(t *testing.T) {
	c, out := newTestCLI(t, "2\n1\n1\n")
	c.Run()

	output := out.String()
	for _, want := range []string{
		"[Received item: sword]",
		"Elder: A fine blade.",
		"[The conversation ends.]",
		"  1. Talk to Elder",
		"Elder: Back so soon?",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestCLI_EndedRejectsBadPick(t *testing.T) {
	c, out := newTestCLI(t, "2\n1\n5\nc\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "[Pick a conversation by number, or /restart.]") {
		t.Errorf("expected pick hint, got:\n%s", output)
	}
	if !strings.Contains(output, "[Nothing to continue with.]") {
		t.Errorf("expected continue to be refused, got:\n%s", output)
	}
}

func TestCLI_BeginWithNPC(t *testing.T) {
	c, out := newTestCLI(t, "")
	c.Begin = Begin{NPC: "npc"}
	c.Run()
	if !strings.Contains(out.String(), "Elder: Back so soon?") {
		t.Errorf("expected talk trigger to start, got:\n%s", out.String())
	}
}

func TestCLI_BeginWithUnknownNPC(t *testing.T) {
	c, out := newTestCLI(t, "")
	c.Begin = Begin{NPC: "ghost"}
	c.Run()
	if !strings.Contains(out.String(), "[They have nothing to say.]") {
		t.Errorf("expected nothing-to-say ending, got:\n%s", out.String())
	}
}

func TestCLI_MetaState(t *testing.T) {
	c, out := newTestCLI(t, "2\n/state\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "[Node: start]") {
		t.Errorf("expected node in state dump, got:\n%s", output)
	}
	if !strings.Contains(output, "[gold = 5]") {
		t.Errorf("expected gold in state dump, got:\n%s", output)
	}
}

func TestCLI_ExportJSONAndScript(t *testing.T) {
	c, out := newTestCLI(t, "/export\n/export script\n/export toml\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, `"gold": 0`) {
		t.Errorf("expected JSON snapshot, got:\n%s", output)
	}
	if !strings.Contains(output, `"source": "test.dlg"`) {
		t.Errorf("expected source in snapshot, got:\n%s", output)
	}
	if !strings.Contains(output, "*set gold = 0") {
		t.Errorf("expected command script, got:\n%s", output)
	}
	if !strings.Contains(output, "[Export failed:") {
		t.Errorf("expected unknown format to fail, got:\n%s", output)
	}
}

func TestCLI_Import(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.yaml")
	data := "version: \"1\"\nvariables:\n  gold: 9\ninventory: [sword]\n"
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, out := newTestCLI(t, "/import "+file+"\n/state\n1\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "[State imported from state.yaml.]") {
		t.Errorf("expected import confirmation, got:\n%s", output)
	}
	if !strings.Contains(output, "[gold = 9]") {
		t.Errorf("expected imported gold, got:\n%s", output)
	}
	if !strings.Contains(output, "Elder: A fine blade.") {
		t.Errorf("expected imported gold to open the shop, got:\n%s", output)
	}
}

func TestCLI_ImportMissingFile(t *testing.T) {
	c, out := newTestCLI(t, "/import /nonexistent/state.json\n/import\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "[Import failed:") {
		t.Errorf("expected import failure, got:\n%s", output)
	}
	if !strings.Contains(output, "[Usage: /import <file>]") {
		t.Errorf("expected usage, got:\n%s", output)
	}
}

func TestCLI_Restart(t *testing.T) {
	c, out := newTestCLI(t, "2\n/restart\n/state\n")
	c.Run()
	if !strings.Contains(out.String(), "[gold = 0]") {
		t.Errorf("expected a fresh state after restart, got:\n%s", out.String())
	}
}

func TestCLI_GotoAndTalk(t *testing.T) {
	c, out := newTestCLI(t, "/goto shop\n/goto nowhere\n/talk npc\n/event storm\n")
	c.Run()

	output := out.String()
	for _, want := range []string{
		"Elder: A fine blade.",
		"[Unknown node: nowhere.]",
		"Elder: Back so soon?",
		"[They have nothing to say.]",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestCLI_Trace(t *testing.T) {
	c, out := newTestCLI(t, "/trace\n2\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "[Trace output enabled.]") {
		t.Error("expected trace enabled message")
	}
	if !strings.Contains(output, "[trace] node work") {
		t.Errorf("expected node trace, got:\n%s", output)
	}
	if !strings.Contains(output, "[trace] goto start") {
		t.Errorf("expected goto trace, got:\n%s", output)
	}
}

func TestCLI_UnknownMeta(t *testing.T) {
	c, out := newTestCLI(t, "/frobnicate\n")
	c.Run()
	if !strings.Contains(out.String(), "Unknown command: /frobnicate") {
		t.Error("expected unknown command message")
	}
}

func TestCLI_EchoAndComments(t *testing.T) {
	c, out := newTestCLI(t, "# pick work\nwork\n")
	c.EchoInput = true
	c.Run()

	output := out.String()
	if strings.Contains(output, "pick work") {
		t.Error("expected comment lines to be skipped")
	}
	if !strings.Contains(output, "> work\n") {
		t.Errorf("expected echoed input, got:\n%s", output)
	}
}

func TestFormatForFile(t *testing.T) {
	tests := []struct {
		name string
		want save.Format
	}{
		{"a.json", save.FormatJSON},
		{"a.YAML", save.FormatYAML},
		{"a.yml", save.FormatYAML},
		{"a.dlg", save.FormatScript},
		{"a.txt", save.FormatScript},
		{"a.bin", save.FormatYAML},
	}
	for _, tt := range tests {
		got, err := FormatForFile(tt.name, save.FormatYAML)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFormatFeedback(t *testing.T) {
	tests := []struct {
		fb   types.Feedback
		want string
	}{
		{types.Feedback{Type: "harmony", Amount: 2, Total: 5}, "harmony +2 (now 5)"},
		{types.Feedback{Type: "discord", Amount: -1, Total: 0}, "discord -1 (now 0)"},
		{types.Feedback{Type: "item", Action: "remove", Subject: "key"}, "Lost item: key"},
		{types.Feedback{Type: "companion", Action: "add", Subject: "peng"}, "peng joined the party"},
		{types.Feedback{Type: "combat", Action: "start", Subject: "goblin"}, "Combat starts: goblin"},
	}
	for _, tt := range tests {
		if got := FormatFeedback(tt.fb); got != tt.want {
			t.Errorf("FormatFeedback(%+v) = %q, want %q", tt.fb, got, tt.want)
		}
	}
}

func TestPrintReport(t *testing.T) {
	_, r := loader.Load("[start]\n-> nowhere\n-> END\n", loader.DefaultOptions())
	var out bytes.Buffer
	if PrintReport(&out, "bad.dlg", r) {
		t.Error("expected invalid report")
	}
	output := out.String()
	if !strings.Contains(output, "error: Line 2: Undefined target node 'nowhere'") {
		t.Errorf("expected error line, got:\n%s", output)
	}

	_, r = loader.Load(testSource, loader.DefaultOptions())
	out.Reset()
	if !PrintReport(&out, "test.dlg", r) {
		t.Errorf("expected valid report, got:\n%s", out.String())
	}
}
