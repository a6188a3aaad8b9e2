package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleSpeaker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	styleSpeech = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Italic(true)

	styleChoice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleChoiceDisabled = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Strikethrough(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindSpeech
	kindChoice
	kindChoiceDisabled
	kindSystem
	kindError
	kindTrace
	kindInput
)

// rawLine stores an unstyled output line with its classification, so it
// can be re-wrapped and re-styled when the terminal is resized.
type rawLine struct {
	speaker string // display name, speech lines only
	text    string
	kind    lineKind
}

// render applies the style for the line's kind to already wrapped text.
func (rl rawLine) render(wrapped string) string {
	switch rl.kind {
	case kindSpeech:
		return styleSpeaker.Render(rl.speaker+":") + " " + styleSpeech.Render(wrapped)
	case kindChoice:
		return styleChoice.Render(wrapped)
	case kindChoiceDisabled:
		return styleChoiceDisabled.Render(wrapped)
	case kindSystem:
		return styledSystemMsg(wrapped)
	case kindError:
		return styleError.Render("[" + wrapped + "]")
	case kindTrace:
		return styleTrace.Render(wrapped)
	case kindInput:
		return stylePlayerInput.Render("> " + wrapped)
	default:
		return styleNarration.Render(wrapped)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
