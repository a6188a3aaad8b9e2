package loader

import (
	"fmt"

	"github.com/nathoo/dlgforge/types"
)

const edgeLabelMax = 30

// Graph is the node/edge projection of a dialogue for graph renderers.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode wraps node data the way graph libraries expect it.
type GraphNode struct {
	Data NodeData `json:"data"`
}

// GraphEdge wraps edge data the way graph libraries expect it.
type GraphEdge struct {
	Data EdgeData `json:"data"`
}

type NodeData struct {
	ID            string     `json:"id"`
	Label         string     `json:"label"`
	LinesCount    int        `json:"lines_count"`
	ChoicesCount  int        `json:"choices_count"`
	CommandsCount int        `json:"commands_count"`
	IsStart       bool       `json:"is_start"`
	IsEnd         bool       `json:"is_end"`
	IsExit        bool       `json:"is_exit"`
	Lines         []LineData `json:"lines"`
	Commands      []string   `json:"commands"`
}

type LineData struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type EdgeData struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Label     string `json:"label"`
	Condition string `json:"condition,omitempty"`
	FullText  string `json:"full_text"`
	IsGoto    bool   `json:"is_goto"`
}

// BuildGraph projects d into nodes and edges in file order. A synthetic END
// node is appended when any edge targets END.
func BuildGraph(d *types.Dialogue) Graph {
	g := Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	hasEnd := false
	edgeIDs := map[string]int{}

	for _, id := range d.NodeOrder {
		n := d.Nodes[id]
		nd := NodeData{
			ID:            id,
			Label:         id,
			LinesCount:    len(n.Lines),
			ChoicesCount:  len(n.Choices),
			CommandsCount: len(n.Commands),
			IsStart:       id == d.StartNode,
			IsEnd:         n.IsEnd,
			IsExit:        n.IsExit,
			Lines:         make([]LineData, 0, len(n.Lines)),
			Commands:      make([]string, 0, len(n.Commands)),
		}
		for _, l := range n.Lines {
			nd.Lines = append(nd.Lines, LineData{Speaker: l.Speaker, Text: l.Text})
		}
		for _, c := range n.Commands {
			nd.Commands = append(nd.Commands, c.Text)
		}
		g.Nodes = append(g.Nodes, GraphNode{nd})

		for _, c := range n.Choices {
			if c.Target == types.End {
				hasEnd = true
			}
			eid := id + "->" + c.Target
			edgeIDs[eid]++
			if k := edgeIDs[eid]; k > 1 {
				eid = fmt.Sprintf("%s#%d", eid, k)
			}
			g.Edges = append(g.Edges, GraphEdge{EdgeData{
				ID:        eid,
				Source:    id,
				Target:    c.Target,
				Label:     truncate(c.Text, edgeLabelMax),
				Condition: c.Condition,
				FullText:  c.Text,
				IsGoto:    c.Text == "",
			}})
		}
	}

	if hasEnd {
		g.Nodes = append(g.Nodes, GraphNode{NodeData{
			ID:       types.End,
			Label:    types.End,
			IsEnd:    true,
			Lines:    []LineData{},
			Commands: []string{},
		}})
	}
	return g
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
