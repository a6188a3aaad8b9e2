package parser

import (
	"strings"

	"github.com/nathoo/dlgforge/types"
)

// parseNode reads a node body shared by every label in ids.
func (p *parser) parseNode(ids []string, lineNo int) {
	n := &types.Node{ID: ids[0], SourceLine: lineNo}

	for p.pos < len(p.lines) {
		ln := p.pos + 1
		line := strings.TrimSpace(p.lines[p.pos])
		if isHeader(line) {
			break
		}
		if skip(line) {
			p.pos++
			continue
		}

		switch {
		case strings.HasPrefix(line, "@"):
			p.parseMarker(n, line, ln)
			p.pos++
		case strings.HasPrefix(line, "*"):
			n.Commands = append(n.Commands, p.command(line, ln))
			p.pos++
		case strings.HasPrefix(line, "->"):
			p.parseChoice(n, line, ln)
		case strings.Contains(line, ":") && !strings.HasPrefix(line, "{"):
			p.parseLine(n, line, ln)
		default:
			p.warnf(ln, "Unrecognized line in node '%s': '%s'", n.ID, line)
			p.pos++
		}
	}

	if len(ids) > 1 {
		n.Stack = ids
	}
	for i, id := range ids {
		if _, dup := p.d.Nodes[id]; dup {
			p.errorf(lineNo, "Duplicate node '%s'", id)
			continue
		}
		node := n
		if i > 0 {
			// Aliases share the body slices; the parsed Dialogue is read-only.
			alias := *n
			alias.ID = id
			node = &alias
		}
		p.d.Nodes[id] = node
		p.d.NodeOrder = append(p.d.NodeOrder, id)
	}
}

func (p *parser) parseMarker(n *types.Node, line string, lineNo int) {
	var (
		kind types.TriggerType
		rest string
	)
	switch {
	case line == "@end":
		n.IsEnd = true
		return
	case strings.HasPrefix(line, "@talk:"):
		kind, rest = types.TriggerTalk, line[len("@talk:"):]
	case strings.HasPrefix(line, "@event:"):
		kind, rest = types.TriggerEvent, line[len("@event:"):]
	default:
		p.warnf(lineNo, "Unknown trigger type: %s. Expected @talk:, @event:, or @end", line)
		return
	}

	target, cond := splitBrace(rest)
	if cond != "" {
		p.lintCondition(cond, lineNo)
	}
	if target == "" {
		p.errorf(lineNo, "Trigger missing target: %s", line)
		return
	}
	n.Triggers = append(n.Triggers, types.Trigger{
		Type:       kind,
		Target:     target,
		Condition:  cond,
		NodeID:     n.ID,
		SourceLine: lineNo,
	})
}

// parseLine reads `speaker: "text" [tags] {condition}`, which may continue
// over several physical lines while the quote is open.
func (p *parser) parseLine(n *types.Node, line string, lineNo int) {
	speaker, rest, _ := strings.Cut(line, ":")
	text, tags, cond := p.quoted(strings.TrimSpace(rest), lineNo)
	if cond != "" {
		p.lintCondition(cond, lineNo)
	}
	n.Lines = append(n.Lines, types.Line{
		Speaker:    strings.TrimSpace(speaker),
		Text:       text,
		Condition:  cond,
		Tags:       tags,
		SourceLine: lineNo,
	})
}

// parseChoice reads one of
//
//	-> target
//	-> target {condition}
//	-> target: "text"
//	-> target: "text" {condition}
//
// A colon before any brace makes a player choice; otherwise it is a GOTO.
func (p *parser) parseChoice(n *types.Node, line string, lineNo int) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "->"))
	c := types.Choice{SourceLine: lineNo}

	colon := strings.Index(body, ":")
	brace := strings.Index(body, "{")
	if colon >= 0 && (brace < 0 || colon < brace) {
		c.Target = strings.TrimSpace(body[:colon])
		c.Text, _, c.Condition = p.quoted(strings.TrimSpace(body[colon+1:]), lineNo)
	} else {
		c.Target, c.Condition = splitBrace(body)
		p.pos++
	}

	if c.Condition != "" {
		p.lintCondition(c.Condition, lineNo)
	}
	if c.Target == "" {
		p.warnf(lineNo, "Choice missing target: %s", line)
		return
	}
	n.Choices = append(n.Choices, c)
}

// splitBrace splits `name {condition}` into the name and the condition
// without braces.
func splitBrace(s string) (name, cond string) {
	i := strings.Index(s, "{")
	if i < 0 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:i]), unbrace(s[i:])
}
