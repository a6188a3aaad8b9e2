// Package parser turns DLG source text into a Dialogue.
// It never fails: malformed constructs become errors or warnings on the
// Dialogue and parsing continues with the next line.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nathoo/dlgforge/engine/condition"
	"github.com/nathoo/dlgforge/types"
)

var (
	entryHeader = regexp.MustCompile(`^\[entry:(\w+)\]$`)
	stackHeader = regexp.MustCompile(`^(\[[^\[\]]+\]\s*)+$`)
	headerLabel = regexp.MustCompile(`\[([^\[\]]+)\]`)
	nodeIDShape = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

type parser struct {
	lines []string
	pos   int // index of the next line to read
	d     *types.Dialogue
}

// Parse parses DLG source text.
func Parse(text string) *types.Dialogue {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	p := &parser{
		lines: strings.Split(text, "\n"),
		d: &types.Dialogue{
			Characters: map[string]string{},
			Nodes:      map[string]*types.Node{},
			Entries:    map[string]*types.EntryGroup{},
		},
	}
	p.run()
	p.linkEntries()

	if _, ok := p.d.Nodes["start"]; ok {
		p.d.StartNode = "start"
	} else if len(p.d.NodeOrder) > 0 {
		p.d.StartNode = p.d.NodeOrder[0]
	}
	return p.d
}

func (p *parser) run() {
	for p.pos < len(p.lines) {
		lineNo := p.pos + 1
		line := strings.TrimSpace(p.lines[p.pos])
		if skip(line) {
			p.pos++
			continue
		}

		switch {
		case line == "[characters]":
			p.pos++
			p.parseCharacters()
		case line == "[state]":
			p.pos++
			p.parseState()
		case entryHeader.MatchString(line):
			name := entryHeader.FindStringSubmatch(line)[1]
			p.pos++
			p.parseEntryGroup(name, lineNo)
		case stackHeader.MatchString(line):
			ids := p.readHeaders()
			p.parseNode(ids, lineNo)
		default:
			p.warnf(lineNo, "Content outside of any node: '%s'", line)
			p.pos++
		}
	}
}

// readHeaders consumes one or more consecutive node headers. A single line
// may also carry several labels, as in [a][b].
func (p *parser) readHeaders() []string {
	var ids []string
	for p.pos < len(p.lines) {
		lineNo := p.pos + 1
		line := strings.TrimSpace(p.lines[p.pos])
		if !stackHeader.MatchString(line) || isSection(line) {
			break
		}
		for _, m := range headerLabel.FindAllStringSubmatch(line, -1) {
			id := strings.TrimSpace(m[1])
			if !nodeIDShape.MatchString(id) {
				p.warnf(lineNo, "Node id '%s' should use lowercase letters, digits and underscores", id)
			}
			ids = append(ids, id)
		}
		p.pos++
	}
	return ids
}

func (p *parser) parseCharacters() {
	for ; p.pos < len(p.lines); p.pos++ {
		line := strings.TrimSpace(p.lines[p.pos])
		if isHeader(line) {
			return
		}
		if skip(line) {
			continue
		}
		id, name, ok := strings.Cut(line, ":")
		if !ok {
			p.warnf(p.pos+1, "Unexpected content in [characters] section: '%s'. Expected id: Name", line)
			continue
		}
		id = strings.TrimSpace(id)
		if _, dup := p.d.Characters[id]; !dup {
			p.d.CharacterOrder = append(p.d.CharacterOrder, id)
		}
		p.d.Characters[id] = strings.TrimSpace(name)
	}
}

func (p *parser) parseState() {
	for ; p.pos < len(p.lines); p.pos++ {
		line := strings.TrimSpace(p.lines[p.pos])
		if isHeader(line) {
			return
		}
		if skip(line) {
			continue
		}
		if !strings.HasPrefix(line, "*") {
			p.warnf(p.pos+1, "Unexpected content in [state] section: '%s'. Expected *command.", line)
			continue
		}
		cmd := p.command(line, p.pos+1)
		p.d.InitialState = append(p.d.InitialState, cmd)
	}
}

func (p *parser) parseEntryGroup(name string, lineNo int) {
	g := &types.EntryGroup{Name: name, SourceLine: lineNo}
	for ; p.pos < len(p.lines); p.pos++ {
		n := p.pos + 1
		line := strings.TrimSpace(p.lines[p.pos])
		if isHeader(line) {
			break
		}
		if skip(line) {
			continue
		}

		if rest, ok := strings.CutPrefix(line, "<-"); ok {
			target := strings.TrimSpace(rest)
			if target == "" {
				p.warnf(n, "Empty exit marker '<-' in [entry:%s]", name)
				continue
			}
			g.Exits = append(g.Exits, target)
			continue
		}

		if cond, target, ok := strings.Cut(line, "->"); ok {
			cond, target = strings.TrimSpace(cond), strings.TrimSpace(target)
			if target == "" {
				p.warnf(n, "Empty target in entry route in [entry:%s]", name)
				continue
			}
			p.lintCondition(cond, n)
			g.Routes = append(g.Routes, types.EntryRoute{Condition: cond, Target: target, SourceLine: n})
			continue
		}

		p.warnf(n, "Unexpected content in [entry:%s]: '%s'. Expected 'condition -> target', '-> target', or '<- exit_node'.", name, line)
	}

	if len(g.Routes) == 0 {
		p.d.Warnings = append(p.d.Warnings, fmt.Sprintf("[entry:%s] has no entry routes defined", name))
	}
	if _, dup := p.d.Entries[name]; dup {
		p.warnf(lineNo, "Duplicate entry group name '%s'", name)
	} else {
		p.d.EntryOrder = append(p.d.EntryOrder, name)
	}
	p.d.Entries[name] = g
}

// linkEntries marks exit nodes and records entry-group membership.
func (p *parser) linkEntries() {
	for _, name := range p.d.EntryOrder {
		g := p.d.Entries[name]
		for _, r := range g.Routes {
			if n, ok := p.d.Nodes[r.Target]; ok {
				addGroup(n, name)
			}
		}
		for _, id := range g.Exits {
			if n, ok := p.d.Nodes[id]; ok {
				n.IsExit = true
				addGroup(n, name)
			}
		}
	}
}

func addGroup(n *types.Node, name string) {
	for _, g := range n.EntryGroups {
		if g == name {
			return
		}
	}
	n.EntryGroups = append(n.EntryGroups, name)
}

// command records a '*' line. Command syntax is checked by the validator.
func (p *parser) command(line string, lineNo int) types.Command {
	return types.Command{Text: strings.TrimSpace(strings.TrimPrefix(line, "*")), SourceLine: lineNo}
}

func (p *parser) lintCondition(cond string, lineNo int) {
	for _, msg := range condition.Lint(cond) {
		p.warnf(lineNo, "%s", msg)
	}
}

func (p *parser) warnf(lineNo int, format string, args ...any) {
	p.d.Warnings = append(p.d.Warnings, fmt.Sprintf("Line %d: ", lineNo)+fmt.Sprintf(format, args...))
}

func (p *parser) errorf(lineNo int, format string, args ...any) {
	p.d.Errors = append(p.d.Errors, fmt.Sprintf("Line %d: ", lineNo)+fmt.Sprintf(format, args...))
}

func skip(line string) bool {
	return line == "" || strings.HasPrefix(line, "#")
}

func isHeader(line string) bool {
	return strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]")
}

func isSection(line string) bool {
	return line == "[characters]" || line == "[state]" || entryHeader.MatchString(line)
}
