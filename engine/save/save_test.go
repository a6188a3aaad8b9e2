package save

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/dlgforge/engine/condition"
	"github.com/nathoo/dlgforge/engine/effects"
	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

func testState() *types.GameState {
	s := state.New()
	state.Set(s, "gold", types.Number(12))
	state.Set(s, "met_elder", types.Bool(true))
	state.Set(s, "title", types.Text("Knight of the Vale"))
	state.Set(s, "debt", types.Number(-3))
	state.GiveItem(s, "sword")
	state.GiveItem(s, "map")
	state.AddCompanion(s, "peng")
	state.Visit(s, "start")
	state.Visit(s, "shop")
	return s
}

var created = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestExport(t *testing.T) {
	snap := Export(testState(), Meta{Source: "elder.dlg", Node: "shop", CreatedAt: created})

	assert.Equal(t, Version, snap.Version)
	assert.Equal(t, "elder.dlg", snap.Source)
	assert.Equal(t, "shop", snap.Node)
	assert.Equal(t, created, snap.CreatedAt)
	assert.Equal(t, []string{"map", "sword"}, snap.Inventory)
	assert.Equal(t, []string{"peng"}, snap.Companions)
	assert.Equal(t, []string{"shop", "start"}, snap.Visited)
	assert.Equal(t, int64(12), snap.Variables["gold"])
	assert.Equal(t, true, snap.Variables["met_elder"])
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			orig := testState()
			data, err := Marshal(Export(orig, Meta{Source: "elder.dlg", CreatedAt: created}), format)
			require.NoError(t, err)

			snap, err := Unmarshal(data, format)
			require.NoError(t, err)
			assert.Equal(t, "elder.dlg", snap.Source)
			assert.True(t, created.Equal(snap.CreatedAt))

			got := state.New()
			require.NoError(t, Apply(snap, got))
			assert.Equal(t, orig, got)
		})
	}
}

func TestCommandScript_RoundTrip(t *testing.T) {
	orig := testState()
	script := CommandScript(orig)

	assert.Contains(t, script, "*set gold = 12\n")
	assert.Contains(t, script, "*set met_elder = true\n")
	assert.Contains(t, script, "*give_item map\n*give_item sword\n")
	assert.Contains(t, script, "*add_companion peng\n")

	got := state.New()
	require.NoError(t, ApplyScript(script, got))
	assert.Equal(t, orig.Variables, got.Variables)
	assert.Equal(t, orig.Inventory, got.Inventory)
	assert.Equal(t, orig.Companions, got.Companions)
	assert.Empty(t, got.Visited, "visited nodes are not scripted")
}

func TestCommandScript_RoundTripAwkwardText(t *testing.T) {
	orig := state.New()
	state.Set(orig, "blank", types.Text(""))
	state.Set(orig, "gap", types.Text("a  b"))
	state.Set(orig, "count", types.Text("7"))
	state.Set(orig, "flag", types.Text("true"))
	state.Set(orig, "name", types.Text("Old Tom"))

	script := CommandScript(orig)
	assert.Contains(t, script, "*set blank = \"\"\n")
	assert.Contains(t, script, "*set gap = \"a  b\"\n")
	assert.Contains(t, script, "*set count = \"7\"\n")
	assert.Contains(t, script, "*set name = Old Tom\n")

	got := state.New()
	require.NoError(t, ApplyScript(script, got))
	assert.Equal(t, orig.Variables, got.Variables)
}

func TestApplyScript_Errors(t *testing.T) {
	s := state.New()
	err := ApplyScript("# ok\n*set a = 1\nhello\n", s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")

	err = ApplyScript("*dance wildly\n", state.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown command 'dance'")
}

func TestUnmarshal_Script(t *testing.T) {
	snap, err := Unmarshal([]byte("*set gold = 5\n*give_item key\n"), FormatScript)
	require.NoError(t, err)
	assert.Equal(t, int64(5), snap.Variables["gold"])
	assert.Equal(t, []string{"key"}, snap.Inventory)
	assert.Equal(t, []string{}, snap.Companions)
}

func TestUnmarshal_MissingCollections(t *testing.T) {
	snap, err := Unmarshal([]byte(`{"version":"1"}`), FormatJSON)
	require.NoError(t, err)
	assert.NotNil(t, snap.Variables)
	assert.NotNil(t, snap.Inventory)
	assert.NotNil(t, snap.Companions)
	assert.NotNil(t, snap.Visited)
}

func TestApply_RejectsFractions(t *testing.T) {
	snap, err := Unmarshal([]byte(`{"variables":{"gold":1.5}}`), FormatJSON)
	require.NoError(t, err)
	assert.Error(t, Apply(snap, state.New()))
}

func TestApply_IntegerRange(t *testing.T) {
	snap, err := Unmarshal([]byte(`{"variables":{"big":9007199254740993,"neg":-42}}`), FormatJSON)
	require.NoError(t, err)
	got := state.New()
	require.NoError(t, Apply(snap, got))
	assert.Equal(t, types.Number(9007199254740993), got.Variables["big"])
	assert.Equal(t, types.Number(-42), got.Variables["neg"])

	for _, tt := range []struct {
		format Format
		data   string
	}{
		{FormatJSON, `{"variables":{"huge":1e300}}`},
		{FormatJSON, `{"variables":{"huge":9223372036854775808}}`},
		{FormatYAML, "variables:\n  huge: 1.0e+300\n"},
		{FormatYAML, "variables:\n  huge: 9223372036854775808\n"},
	} {
		snap, err := Unmarshal([]byte(tt.data), tt.format)
		require.NoError(t, err, tt.data)
		assert.Error(t, Apply(snap, state.New()), tt.data)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "script": FormatScript} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Marshal(Snapshot{}, Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestItemRoundTripThroughConditions(t *testing.T) {
	s := state.New()
	effects.Execute("give_item sword", s, false)
	assert.True(t, condition.Evaluate("has_item:sword", s))

	restored := state.New()
	require.NoError(t, ApplyScript(CommandScript(s), restored))
	assert.True(t, condition.Evaluate("has_item:sword", restored))

	effects.Execute("remove_item sword", restored, false)
	assert.False(t, condition.Evaluate("has_item:sword", restored))
	assert.False(t, strings.Contains(CommandScript(restored), "sword"))
}
