package loader

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

const graphSource = `[characters]
npc: Elder

[state]
*set gold = 1

[start]
@talk:npc {!has_item:badge}
npc: "Hi" {gold > 0}
*give_item map
-> shop: "I would like to browse your very finest wares, please"
-> shop: "Again"
-> END

[shop]
[store]
*add_companion peng
-> END {companion:rook}

[entry:guard]
-> start
<- shop
`

func TestBuildGraph(t *testing.T) {
	d, _ := Load(graphSource, DefaultOptions())
	g := BuildGraph(d)

	var ids []string
	for _, n := range g.Nodes {
		ids = append(ids, n.Data.ID)
	}
	if !reflect.DeepEqual(ids, []string{"start", "shop", "store", "END"}) {
		t.Errorf("unexpected node ids %v", ids)
	}

	start := g.Nodes[0].Data
	if !start.IsStart || start.LinesCount != 1 || start.ChoicesCount != 3 || start.CommandsCount != 1 {
		t.Errorf("unexpected start data %+v", start)
	}
	if !reflect.DeepEqual(start.Lines, []LineData{{Speaker: "npc", Text: "Hi"}}) {
		t.Errorf("unexpected lines %+v", start.Lines)
	}
	if !g.Nodes[1].Data.IsExit {
		t.Error("expected shop to be flagged as exit")
	}
	if end := g.Nodes[3].Data; !end.IsEnd || end.Lines == nil || end.Commands == nil {
		t.Errorf("unexpected END node %+v", end)
	}

	if len(g.Edges) != 5 {
		t.Fatalf("expected 5 edges, got %d", len(g.Edges))
	}
	first := g.Edges[0].Data
	if first.ID != "start->shop" || first.Label != "I would like to browse your ve..." {
		t.Errorf("unexpected first edge %+v", first)
	}
	if first.FullText != "I would like to browse your very finest wares, please" || first.IsGoto {
		t.Errorf("unexpected first edge %+v", first)
	}
	if g.Edges[1].Data.ID != "start->shop#2" {
		t.Errorf("expected duplicate edge id to be disambiguated, got %q", g.Edges[1].Data.ID)
	}
	if e := g.Edges[2].Data; e.Target != "END" || !e.IsGoto {
		t.Errorf("unexpected GOTO edge %+v", e)
	}
	if e := g.Edges[4].Data; e.Source != "store" || e.Condition != "companion:rook" {
		t.Errorf("expected stacked label to carry the shared edge, got %+v", e)
	}
}

func TestBuildGraph_NoEndNode(t *testing.T) {
	d, _ := Load("[a]\n-> b\n[b]\n@end\n", DefaultOptions())
	g := BuildGraph(d)
	if len(g.Nodes) != 2 {
		t.Errorf("expected no synthetic END node, got %+v", g.Nodes)
	}
}

func TestComputeStats(t *testing.T) {
	d, r := Load(graphSource, DefaultOptions())
	st := ComputeStats(d, r)

	want := Stats{
		Characters:           1,
		Nodes:                3,
		EntryGroups:          1,
		EntryRoutes:          1,
		ExitNodes:            1,
		Triggers:             1,
		DialogueLines:        1,
		Choices:              4,
		Commands:             2,
		InitialStateCommands: 1,
		Errors:               len(r.Errors),
		Warnings:             len(r.Warnings),
		KnownItems:           []string{"badge", "map"},
		KnownCompanions:      []string{"peng", "rook"},
	}
	if !reflect.DeepEqual(st, want) {
		t.Errorf("stats =\n%+v\nwant\n%+v", st, want)
	}

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"entry_groups"`, `"initial_state_commands"`, `"known_companions"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in %s", key, data)
		}
	}
}

func TestExport(t *testing.T) {
	d, _ := Load(graphSource, DefaultOptions())
	doc := Export(d)

	if doc.StartNode != "start" || doc.Characters["npc"] != "Elder" {
		t.Errorf("unexpected header %+v", doc)
	}
	if !reflect.DeepEqual(doc.InitialState, []string{"set gold = 1"}) {
		t.Errorf("unexpected initial state %v", doc.InitialState)
	}
	start := doc.Nodes["start"]
	if len(start.Choices) != 3 || start.Choices[2] != (ExportChoice{Target: "END"}) {
		t.Errorf("unexpected choices %+v", start.Choices)
	}
	if len(start.Triggers) != 1 || start.Triggers[0].Condition != "!has_item:badge" {
		t.Errorf("unexpected triggers %+v", start.Triggers)
	}
	if e := doc.Entries["guard"]; len(e.Routes) != 1 || e.Exits[0] != "shop" {
		t.Errorf("unexpected entries %+v", doc.Entries)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"characters", "start_node", "initial_state", "nodes"} {
		if _, ok := back[key]; !ok {
			t.Errorf("expected key %q in export", key)
		}
	}
}
