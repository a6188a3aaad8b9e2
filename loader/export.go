package loader

import "github.com/nathoo/dlgforge/types"

// Document is the structural dump of a dialogue for external game engines.
type Document struct {
	Characters   map[string]string      `json:"characters"`
	StartNode    string                 `json:"start_node"`
	InitialState []string               `json:"initial_state"`
	Entries      map[string]ExportEntry `json:"entries,omitempty"`
	Nodes        map[string]ExportNode  `json:"nodes"`
}

type ExportNode struct {
	Lines    []ExportLine    `json:"lines"`
	Commands []string        `json:"commands"`
	Choices  []ExportChoice  `json:"choices"`
	Triggers []ExportTrigger `json:"triggers,omitempty"`
	IsEnd    bool            `json:"is_end,omitempty"`
	IsExit   bool            `json:"is_exit,omitempty"`
}

type ExportLine struct {
	Speaker   string   `json:"speaker"`
	Text      string   `json:"text"`
	Condition string   `json:"condition,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

type ExportChoice struct {
	Target    string `json:"target"`
	Text      string `json:"text"`
	Condition string `json:"condition,omitempty"`
}

type ExportTrigger struct {
	Type      string `json:"type"`
	Target    string `json:"target"`
	Condition string `json:"condition,omitempty"`
}

type ExportEntry struct {
	Routes []ExportRoute `json:"routes"`
	Exits  []string      `json:"exits"`
}

type ExportRoute struct {
	Condition string `json:"condition,omitempty"`
	Target    string `json:"target"`
}

// Export builds the export document for d.
func Export(d *types.Dialogue) Document {
	doc := Document{
		Characters:   d.Characters,
		StartNode:    d.StartNode,
		InitialState: commandTexts(d.InitialState),
		Nodes:        make(map[string]ExportNode, len(d.Nodes)),
	}
	if doc.Characters == nil {
		doc.Characters = map[string]string{}
	}

	for _, id := range d.NodeOrder {
		n := d.Nodes[id]
		en := ExportNode{
			Lines:    make([]ExportLine, 0, len(n.Lines)),
			Commands: commandTexts(n.Commands),
			Choices:  make([]ExportChoice, 0, len(n.Choices)),
			IsEnd:    n.IsEnd,
			IsExit:   n.IsExit,
		}
		for _, l := range n.Lines {
			en.Lines = append(en.Lines, ExportLine{l.Speaker, l.Text, l.Condition, l.Tags})
		}
		for _, c := range n.Choices {
			en.Choices = append(en.Choices, ExportChoice{c.Target, c.Text, c.Condition})
		}
		for _, t := range n.Triggers {
			en.Triggers = append(en.Triggers, ExportTrigger{string(t.Type), t.Target, t.Condition})
		}
		doc.Nodes[id] = en
	}

	if len(d.EntryOrder) > 0 {
		doc.Entries = make(map[string]ExportEntry, len(d.EntryOrder))
		for _, name := range d.EntryOrder {
			g := d.Entries[name]
			e := ExportEntry{Routes: []ExportRoute{}, Exits: append([]string{}, g.Exits...)}
			for _, r := range g.Routes {
				e.Routes = append(e.Routes, ExportRoute{r.Condition, r.Target})
			}
			doc.Entries[name] = e
		}
	}
	return doc
}

func commandTexts(cmds []types.Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Text)
	}
	return out
}
