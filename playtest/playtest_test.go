package playtest

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/dlgforge/engine/parser"
	"github.com/nathoo/dlgforge/types"
)

const elderSource = `[characters]
npc: Elder

[state]
*set gold = 0

[start]
npc: "Hi"
npc: "Rich, are we?" {gold >= 5}
-> a: "A" {gold>=5}
-> b: "B"

[a]
*give_item amulet
npc: "Wear it well."
-> END

[b]
*add gold = 5
-> start

[elder]
@talk:npc
npc: "Leave me."
@end
`

func parse(t *testing.T) *types.Dialogue {
	t.Helper()
	d := parser.Parse(elderSource)
	require.Empty(t, d.Errors)
	return d
}

func TestRun_Passing(t *testing.T) {
	script := `
start()
expect(node() == "start", "begins at start")
local cs = choices()
expect(#cs == 2)
expect(cs[1].enabled == false, "A is gated")
expect(cs[2].enabled, "B is open")

choose("B")
expect(node() == "start", "B loops back")
expect(get("gold") == 5, "B pays")
local ls = lines()
expect(ls[2] == "Rich, are we?", "gold line shows")

choose(1)
expect(phase() == "ended")
expect(reason() == "end")
expect(has_item("amulet"))
expect(visited("b"))
expect(cond("has_item:amulet && gold == 5"))
`
	report, err := Run(parse(t), script, Options{})
	require.NoError(t, err)
	assert.True(t, report.Passed(), "failures: %v", report.Failures)
	assert.Equal(t, 12, report.Checks)
	assert.Equal(t, []string{"start", "b", "start", "a"}, report.Trace)
}

func TestRun_FailedExpectation(t *testing.T) {
	report, err := Run(parse(t), `start()
expect(node() == "a", "should be at a")
expect(true)
`, Options{Name: "elder_test.lua"})
	require.NoError(t, err)
	assert.False(t, report.Passed())
	assert.Equal(t, 2, report.Checks)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0], "should be at a")
	assert.Contains(t, report.Failures[0], "elder_test.lua:2")
}

func TestRun_TalkAndSet(t *testing.T) {
	report, err := Run(parse(t), `
talk("npc")
expect(node() == "elder")
expect(reason() == "end_marker")
expect(lines()[1] == "Leave me.")
expect(get("gold") == 0)
set("gold", 9)
set("title", "Sir")
expect(get("gold") == 9)
expect(cond('title == "Sir"'))
expect(get("nothing") == nil)
`, Options{})
	require.NoError(t, err)
	assert.True(t, report.Passed(), "failures: %v", report.Failures)
}

func TestRun_DisabledChoiceRaises(t *testing.T) {
	_, err := Run(parse(t), "start()\nchoose(1)\n", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "choice is disabled")
}

func TestRun_Sandbox(t *testing.T) {
	for _, script := range []string{
		`dofile("/etc/passwd")`,
		`io.write("x")`,
		`os.exit(1)`,
		`math.randomseed(4)`,
	} {
		_, err := Run(parse(t), script, Options{})
		assert.Error(t, err, script)
	}
}

func TestRun_Print(t *testing.T) {
	var out bytes.Buffer
	_, err := Run(parse(t), `start() print("at", node())`, Options{Output: &out})
	require.NoError(t, err)
	assert.Equal(t, "at\tstart\n", out.String())
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(parse(t), `while true do end`, Options{Context: ctx})
	assert.Error(t, err)
}

func TestRun_SyntaxError(t *testing.T) {
	_, err := Run(parse(t), `start(`, Options{})
	assert.Error(t, err)
}
