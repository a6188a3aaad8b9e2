// Package cli provides terminal playback of a dialogue: output formatting,
// choice input and meta-command dispatch.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/dlgforge/engine"
	"github.com/nathoo/dlgforge/engine/resolve"
	"github.com/nathoo/dlgforge/engine/save"
	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

// maxAutoSteps bounds how many GOTOs are followed without player input.
const maxAutoSteps = 1000

// Begin selects where playback starts. The first non-empty field wins;
// all empty means the start node.
type Begin struct {
	Node  string
	NPC   string
	Event string
	Entry string
}

// CLI handles terminal interaction with the player.
type CLI struct {
	Dialogue  *types.Dialogue
	Options   engine.Options
	Begin     Begin
	Source    string      // dialogue file name, recorded in exported snapshots
	Format    save.Format // default /export format
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)

	player *engine.Player
	last   types.PlaybackEvent
}

// New creates a CLI over a parsed dialogue.
func New(d *types.Dialogue, opts engine.Options) *CLI {
	return &CLI{
		Dialogue: d,
		Options:  opts,
		Format:   save.FormatJSON,
		In:       os.Stdin,
		Out:      os.Stdout,
	}
}

// Run starts playback and loops: prompt, input, dispatch, output. It
// returns when input runs out or on /quit.
func (c *CLI) Run() {
	c.player = engine.NewPlayer(c.Dialogue, c.Options)
	c.begin()

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				break // /quit
			}
			continue
		}

		c.handleInput(input)
	}
	c.player.Close()
}

func (c *CLI) begin() {
	switch b := c.Begin; {
	case b.Node != "":
		ev, err := c.player.StartAt(b.Node)
		c.playOrReport(ev, err)
	case b.NPC != "":
		c.play(c.player.Talk(b.NPC))
	case b.Event != "":
		c.play(c.player.Event(b.Event))
	case b.Entry != "":
		ev, err := c.player.StartFromEntryGroup(b.Entry)
		c.playOrReport(ev, err)
	default:
		ev, err := c.player.Start()
		c.playOrReport(ev, err)
	}
}

// handleInput routes a non-meta line: a choice while at a node, a
// talk-again pick or "c" to continue after an ending.
func (c *CLI) handleInput(input string) {
	switch c.player.Phase() {
	case types.PhaseAtNode:
		ev, err := c.player.Choose(input)
		c.playOrReport(ev, err)

	case types.PhaseEnded:
		lower := strings.ToLower(input)
		if lower == "c" || lower == "continue" {
			ev, err := c.player.Continue()
			c.playOrReport(ev, err)
			return
		}
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(c.last.TalkAgain) {
			c.printSystem("Pick a conversation by number, or /restart.")
			return
		}
		c.talkAgain(c.last.TalkAgain[n-1])

	default:
		c.printSystem("No conversation in progress. Type /restart to begin again.")
	}
}

func (c *CLI) talkAgain(o types.TalkOption) {
	if o.Kind == types.TriggerEntry {
		ev, err := c.player.StartFromEntryGroup(o.Target)
		c.playOrReport(ev, err)
		return
	}
	c.play(c.player.Talk(o.Target))
}

func (c *CLI) playOrReport(ev types.PlaybackEvent, err error) {
	if err != nil {
		c.printSystem(ErrorText(err))
		return
	}
	c.play(ev)
}

// play prints an event and follows GOTOs until the player has to act.
func (c *CLI) play(ev types.PlaybackEvent) {
	for step := 0; ; step++ {
		c.printEvent(ev)
		c.last = ev
		if ev.Kind != types.EventNode || ev.Next == "" {
			return
		}
		if step >= maxAutoSteps {
			zap.L().Warn("goto loop stopped", zap.String("node", ev.Node), zap.Int("steps", step))
			c.printSystem("Stopped following GOTOs: possible loop.")
			return
		}
		next, err := c.player.Advance(engine.Input{})
		if err != nil {
			c.printSystem(ErrorText(err))
			return
		}
		ev = next
	}
}

func (c *CLI) printEvent(ev types.PlaybackEvent) {
	if c.Trace && ev.Kind == types.EventNode {
		c.printLine(fmt.Sprintf("[trace] node %s", ev.Node))
	}
	for _, l := range ev.Lines {
		c.printLine(FormatLine(c.Dialogue, l))
	}
	for _, f := range ev.Feedback {
		c.printSystem(FormatFeedback(f))
	}
	if c.Trace && ev.Next != "" {
		c.printLine(fmt.Sprintf("[trace] goto %s", ev.Next))
	}

	switch ev.Kind {
	case types.EventNode:
		if ev.Next != "" {
			return
		}
		c.printLine("")
		for _, o := range ev.Choices {
			c.printLine("  " + FormatChoice(o))
		}

	case types.EventEnded:
		if ev.Reason == types.EndDeadEnd {
			for _, o := range ev.Choices {
				c.printLine("  " + FormatChoice(o))
			}
		}
		c.printSystem(FormatEnding(ev))
		if ev.CanResume {
			c.printLine("  c. Continue")
		}
		for i, o := range ev.TalkAgain {
			c.printLine(fmt.Sprintf("  %d. %s", i+1, FormatTalkOption(c.Dialogue, o)))
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if playback should stop.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/export":
		c.cmdExport(arg)

	case "/import":
		c.cmdImport(arg)

	case "/restart":
		c.player.Close()
		c.player = engine.NewPlayer(c.Dialogue, c.Options)
		c.begin()

	case "/goto":
		if arg == "" {
			c.printSystem("Usage: /goto <node>")
			break
		}
		ev, err := c.player.StartAt(arg)
		c.playOrReport(ev, err)

	case "/talk":
		if arg == "" {
			c.printSystem("Usage: /talk <npc>")
			break
		}
		c.play(c.player.Talk(arg))

	case "/event":
		if arg == "" {
			c.printSystem("Usage: /event <name>")
			break
		}
		c.play(c.player.Event(arg))

	case "/entry":
		if arg == "" {
			c.printSystem("Usage: /entry <group>")
			break
		}
		ev, err := c.player.StartFromEntryGroup(arg)
		c.playOrReport(ev, err)

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /quit              Exit",
		"  /help              Show this help",
		"  /state             Show variables, inventory and companions",
		"  /export [format]   Print the state as json, yaml or script",
		"  /import <file>     Replace the state from a snapshot file",
		"  /restart           Start over with a fresh state",
		"  /goto <node>       Jump to a node, keeping the state",
		"  /talk <npc>        Start a conversation with an NPC",
		"  /event <name>      Fire a game event",
		"  /entry <group>     Start from an entry group",
		"  /trace             Toggle node trace output",
		"",
		"Playback:",
		"  <number>           Pick a choice",
		"  <text>             Pick the choice whose text matches",
		"  c                  Continue past a pause",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	s := c.player.State()
	c.printSystem(fmt.Sprintf("Node: %s", c.player.Node()))
	lines := state.Summary(s)
	if len(lines) == 0 {
		c.printSystem("State is empty.")
	}
	for _, line := range lines {
		c.printSystem(line)
	}
	c.printSystem(fmt.Sprintf("Visited: %d node(s)", len(state.VisitedNodes(s))))
}

func (c *CLI) cmdExport(arg string) {
	format := c.Format
	if arg != "" {
		f, err := save.ParseFormat(arg)
		if err != nil {
			c.printSystem(fmt.Sprintf("Export failed: %v", err))
			return
		}
		format = f
	}
	snap := save.Export(c.player.State(), save.Meta{Source: c.Source, Node: c.player.Node()})
	data, err := save.Marshal(snap, format)
	if err != nil {
		c.printSystem(fmt.Sprintf("Export failed: %v", err))
		return
	}
	c.printLine(strings.TrimRight(string(data), "\n"))
}

func (c *CLI) cmdImport(file string) {
	if file == "" {
		c.printSystem("Usage: /import <file>")
		return
	}
	data, err := os.ReadFile(file)
	if err != nil {
		c.printSystem(fmt.Sprintf("Import failed: %v", err))
		return
	}
	format, err := FormatForFile(file, c.Format)
	if err != nil {
		c.printSystem(fmt.Sprintf("Import failed: %v", err))
		return
	}
	snap, err := save.Unmarshal(data, format)
	if err != nil {
		c.printSystem(fmt.Sprintf("Import failed: %v", err))
		return
	}
	if err := save.Apply(snap, c.player.State()); err != nil {
		c.printSystem(fmt.Sprintf("Import failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("State imported from %s.", filepath.Base(file)))
}

// FormatForFile picks a snapshot format from a file extension: .json,
// .yaml/.yml, or .dlg/.txt for command scripts. Other extensions use
// fallback.
func FormatForFile(name string, fallback save.Format) (save.Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".dlg", ".txt":
		return save.FormatScript, nil
	case ".json", ".yaml", ".yml":
		return save.ParseFormat(ext[1:])
	default:
		return fallback, nil
	}
}

// ErrorText turns engine errors into player-facing messages.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, engine.ErrChoiceDisabled):
		return "That choice is not available."
	case errors.Is(err, engine.ErrNoSuchChoice):
		return "There is no such choice."
	case errors.Is(err, resolve.ErrAmbiguous):
		return capitalize(err.Error())
	default:
		return capitalize(err.Error()) + "."
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
