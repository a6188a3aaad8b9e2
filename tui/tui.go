package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nathoo/dlgforge/cli"
	"github.com/nathoo/dlgforge/engine"
	"github.com/nathoo/dlgforge/engine/save"
	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

// maxAutoSteps bounds how many GOTOs are followed without player input.
const maxAutoSteps = 1000

// Options configures a TUI session.
type Options struct {
	Player engine.Options
	Begin  cli.Begin
	Source string      // dialogue file name, recorded in exported snapshots
	Format save.Format // default /export format
	Delay  time.Duration
}

// Model is the Bubble Tea model for dialogue playback.
type Model struct {
	d      *types.Dialogue
	opts   Options
	player *engine.Player
	last   types.PlaybackEvent

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated transcript (unstyled, for re-wrapping)
	opening  []rawLine // output of the first node, shown by Init

	// Typewriter: queue holds lines not yet shown; tw reveals
	// rawLines[twLine] one rune per tick.
	queue  []rawLine
	tw     *engine.Typewriter
	twLine int
	twFull string
	tick   int

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
}

// outputMsg carries lines into the Update loop.
type outputMsg struct {
	lines []rawLine
}

// tickMsg advances the typewriter. Ticks from a stale chain are ignored.
type tickMsg struct {
	id int
}

// New creates a TUI model and starts playback.
func New(d *types.Dialogue, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	if opts.Format == "" {
		opts.Format = save.FormatJSON
	}
	m := Model{
		d:       d,
		opts:    opts,
		player:  engine.NewPlayer(d, opts.Player),
		input:   ti,
		history: NewHistory(100),
	}
	m.opening = m.begin()
	return m
}

// Run starts the Bubble Tea program.
func Run(d *types.Dialogue, opts Options) error {
	m := New(d, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init shows the opening node.
func (m Model) Init() tea.Cmd {
	opening := m.opening
	return tea.Batch(textinput.Blink, func() tea.Msg {
		return outputMsg{lines: opening}
	})
}

// Update handles messages (key presses, window resize, output, ticks).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.player.Close()
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "esc":
			m.flush()
			return m, nil

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case outputMsg:
		var cmd tea.Cmd
		m, cmd = m.enqueue(msg.lines)
		cmds = append(cmds, cmd)

	case tickMsg:
		return m.advanceTypewriter(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line. Enter while text is
// still being revealed shows it all first.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if m.tw != nil || len(m.queue) > 0 {
		m.flush()
	}
	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	lines := []rawLine{{text: input, kind: kindInput}}

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		lines = append(lines, output...)
		if quit {
			m.rawLines = append(m.rawLines, lines...)
			m.player.Close()
			m.quitting = true
			return m, tea.Quit
		}
	} else {
		lines = append(lines, m.handleInput(input)...)
	}

	// Blank line separator between turns.
	lines = append(lines, rawLine{})
	return m.enqueue(lines)
}

// enqueue schedules lines for display.
func (m Model) enqueue(lines []rawLine) (Model, tea.Cmd) {
	m.queue = append(m.queue, lines...)
	if m.tw != nil {
		return m, nil
	}
	return m.pump()
}

// pump moves queued lines into the transcript until one needs the
// typewriter, then starts the tick chain for it.
func (m Model) pump() (Model, tea.Cmd) {
	for len(m.queue) > 0 {
		rl := m.queue[0]
		m.queue = m.queue[1:]
		typed := rl.kind == kindSpeech || rl.kind == kindNarration
		if m.opts.Delay <= 0 || !typed || rl.text == "" {
			m.rawLines = append(m.rawLines, rl)
			continue
		}
		m.tw = m.player.Reveal(rl.text)
		m.twFull = rl.text
		rl.text = ""
		m.rawLines = append(m.rawLines, rl)
		m.twLine = len(m.rawLines) - 1
		m.tick++
		m.refreshViewport()
		return m, m.tickCmd()
	}
	m.refreshViewport()
	return m, nil
}

func (m Model) tickCmd() tea.Cmd {
	id := m.tick
	return tea.Tick(m.opts.Delay, func(time.Time) tea.Msg {
		return tickMsg{id: id}
	})
}

func (m Model) advanceTypewriter(msg tickMsg) (tea.Model, tea.Cmd) {
	if m.tw == nil || msg.id != m.tick {
		return m, nil
	}
	shown, done := m.tw.Tick()
	m.rawLines[m.twLine].text = shown
	if !done {
		m.refreshViewport()
		return m, m.tickCmd()
	}
	m.tw = nil
	return m.pump()
}

// flush completes the reveal in progress and shows every queued line.
func (m *Model) flush() {
	if m.tw != nil {
		m.rawLines[m.twLine].text = m.twFull
		m.tw = nil
		m.tick++
	}
	m.rawLines = append(m.rawLines, m.queue...)
	m.queue = nil
	m.refreshViewport()
}

func (m *Model) begin() []rawLine {
	switch b := m.opts.Begin; {
	case b.Node != "":
		return m.playOrReport(m.player.StartAt(b.Node))
	case b.NPC != "":
		return m.play(m.player.Talk(b.NPC))
	case b.Event != "":
		return m.play(m.player.Event(b.Event))
	case b.Entry != "":
		return m.playOrReport(m.player.StartFromEntryGroup(b.Entry))
	default:
		return m.playOrReport(m.player.Start())
	}
}

// handleInput routes a non-meta line: a choice while at a node, a
// talk-again pick or "c" to continue after an ending.
func (m *Model) handleInput(input string) []rawLine {
	switch m.player.Phase() {
	case types.PhaseAtNode:
		return m.playOrReport(m.player.Choose(input))

	case types.PhaseEnded:
		lower := strings.ToLower(input)
		if lower == "c" || lower == "continue" {
			return m.playOrReport(m.player.Continue())
		}
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(m.last.TalkAgain) {
			return []rawLine{systemLine("Pick a conversation by number, or /restart.")}
		}
		o := m.last.TalkAgain[n-1]
		if o.Kind == types.TriggerEntry {
			return m.playOrReport(m.player.StartFromEntryGroup(o.Target))
		}
		return m.play(m.player.Talk(o.Target))

	default:
		return []rawLine{systemLine("No conversation in progress. Type /restart to begin again.")}
	}
}

func (m *Model) playOrReport(ev types.PlaybackEvent, err error) []rawLine {
	if err != nil {
		return []rawLine{{text: cli.ErrorText(err), kind: kindError}}
	}
	return m.play(ev)
}

// play renders an event and follows GOTOs until the player has to act.
func (m *Model) play(ev types.PlaybackEvent) []rawLine {
	var out []rawLine
	for step := 0; ; step++ {
		out = append(out, m.eventLines(ev)...)
		m.last = ev
		if ev.Kind != types.EventNode || ev.Next == "" {
			return out
		}
		if step >= maxAutoSteps {
			zap.L().Warn("goto loop stopped", zap.String("node", ev.Node), zap.Int("steps", step))
			return append(out, rawLine{text: "Stopped following GOTOs: possible loop.", kind: kindError})
		}
		next, err := m.player.Advance(engine.Input{})
		if err != nil {
			return append(out, rawLine{text: cli.ErrorText(err), kind: kindError})
		}
		ev = next
	}
}

// eventLines converts a playback event into transcript lines.
func (m *Model) eventLines(ev types.PlaybackEvent) []rawLine {
	var out []rawLine
	if m.trace && ev.Kind == types.EventNode {
		out = append(out, rawLine{text: "[trace] node " + ev.Node, kind: kindTrace})
	}
	for _, l := range ev.Lines {
		if l.Speaker == "" || l.Speaker == cli.Narrator {
			out = append(out, rawLine{text: l.Text, kind: kindNarration})
			continue
		}
		out = append(out, rawLine{speaker: cli.SpeakerName(m.d, l.Speaker), text: l.Text, kind: kindSpeech})
	}
	for _, f := range ev.Feedback {
		out = append(out, systemLine(cli.FormatFeedback(f)))
	}
	if m.trace && ev.Next != "" {
		out = append(out, rawLine{text: "[trace] goto " + ev.Next, kind: kindTrace})
	}

	choices := func() {
		for _, o := range ev.Choices {
			kind := kindChoice
			if !o.Enabled {
				kind = kindChoiceDisabled
			}
			out = append(out, rawLine{text: "  " + cli.FormatChoice(o), kind: kind})
		}
	}
	switch ev.Kind {
	case types.EventNode:
		if ev.Next == "" {
			choices()
		}
	case types.EventEnded:
		if ev.Reason == types.EndDeadEnd {
			choices()
		}
		out = append(out, systemLine(cli.FormatEnding(ev)))
		if ev.CanResume {
			out = append(out, rawLine{text: "  c. Continue", kind: kindChoice})
		}
		for i, o := range ev.TalkAgain {
			out = append(out, rawLine{text: fmt.Sprintf("  %d. %s", i+1, cli.FormatTalkOption(m.d, o)), kind: kindChoice})
		}
	}
	return out
}

func systemLine(text string) rawLine {
	return rawLine{text: text, kind: kindSystem}
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" && rl.kind != kindSpeech {
			styled = append(styled, "")
			continue
		}
		w := width
		if rl.kind == kindSpeech {
			w -= lipgloss.Width(rl.speaker) + 2
			if w < 10 {
				w = 10
			}
		}
		styled = append(styled, rl.render(wordWrap(rl.text, w)))
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]rawLine, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	usage := func(u string) []rawLine { return []rawLine{systemLine("Usage: " + u)} }

	switch cmd {
	case "/quit", "/exit":
		return []rawLine{systemLine("Goodbye.")}, true

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/export":
		return m.cmdExport(arg), false

	case "/import":
		if arg == "" {
			return usage("/import <file>"), false
		}
		return m.cmdImport(arg), false

	case "/restart":
		m.player.Close()
		m.player = engine.NewPlayer(m.d, m.opts.Player)
		return m.begin(), false

	case "/goto":
		if arg == "" {
			return usage("/goto <node>"), false
		}
		return m.playOrReport(m.player.StartAt(arg)), false

	case "/talk":
		if arg == "" {
			return usage("/talk <npc>"), false
		}
		return m.play(m.player.Talk(arg)), false

	case "/event":
		if arg == "" {
			return usage("/event <name>"), false
		}
		return m.play(m.player.Event(arg)), false

	case "/entry":
		if arg == "" {
			return usage("/entry <group>"), false
		}
		return m.playOrReport(m.player.StartFromEntryGroup(arg)), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []rawLine{systemLine("Trace output enabled.")}, false
		}
		return []rawLine{systemLine("Trace output disabled.")}, false

	default:
		return []rawLine{systemLine(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))}, false
	}
}

func (m *Model) cmdHelp() []rawLine {
	help := []string{
		"System:",
		"  /quit              Exit",
		"  /help              Show this help",
		"  /state             Show variables, inventory and companions",
		"  /export [format]   Show the state as json, yaml or script",
		"  /import <file>     Replace the state from a snapshot file",
		"  /restart           Start over with a fresh state",
		"  /goto <node>       Jump to a node, keeping the state",
		"  /talk <npc>        Start a conversation with an NPC",
		"  /event <name>      Fire a game event",
		"  /entry <group>     Start from an entry group",
		"  /trace             Toggle node trace output",
		"",
		"Playback:",
		"  <number> or <text> Pick a choice",
		"  c                  Continue past a pause",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for input history, Esc to skip typing",
	}
	out := make([]rawLine, len(help))
	for i, h := range help {
		out[i] = rawLine{text: h, kind: kindNarration}
	}
	return out
}

func (m *Model) cmdState() []rawLine {
	s := m.player.State()
	out := []rawLine{systemLine("Node: " + m.player.Node())}
	lines := state.Summary(s)
	if len(lines) == 0 {
		out = append(out, systemLine("State is empty."))
	}
	for _, l := range lines {
		out = append(out, systemLine(l))
	}
	return out
}

func (m *Model) cmdExport(arg string) []rawLine {
	format := m.opts.Format
	if arg != "" {
		f, err := save.ParseFormat(arg)
		if err != nil {
			return []rawLine{{text: fmt.Sprintf("Export failed: %v", err), kind: kindError}}
		}
		format = f
	}
	snap := save.Export(m.player.State(), save.Meta{Source: m.opts.Source, Node: m.player.Node()})
	data, err := save.Marshal(snap, format)
	if err != nil {
		return []rawLine{{text: fmt.Sprintf("Export failed: %v", err), kind: kindError}}
	}
	var out []rawLine
	for _, l := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		out = append(out, rawLine{text: l, kind: kindTrace})
	}
	return out
}

func (m *Model) cmdImport(file string) []rawLine {
	fail := func(err error) []rawLine {
		return []rawLine{{text: fmt.Sprintf("Import failed: %v", err), kind: kindError}}
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fail(err)
	}
	format, err := cli.FormatForFile(file, m.opts.Format)
	if err != nil {
		return fail(err)
	}
	snap, err := save.Unmarshal(data, format)
	if err != nil {
		return fail(err)
	}
	if err := save.Apply(snap, m.player.State()); err != nil {
		return fail(err)
	}
	return []rawLine{systemLine(fmt.Sprintf("State imported from %s.", filepath.Base(file)))}
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
