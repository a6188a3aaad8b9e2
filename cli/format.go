package cli

import (
	"fmt"

	"github.com/nathoo/dlgforge/types"
)

// Narrator is the speaker id whose lines print without a name.
const Narrator = "narrator"

// SpeakerName returns the display name for a speaker id. Ids without a
// [characters] entry are shown as written.
func SpeakerName(d *types.Dialogue, id string) string {
	if name, ok := d.Characters[id]; ok && name != "" {
		return name
	}
	return id
}

// FormatLine renders a dialogue line as "Name: text". Narrator lines are
// the bare text.
func FormatLine(d *types.Dialogue, l types.Line) string {
	if l.Speaker == "" || l.Speaker == Narrator {
		return l.Text
	}
	return SpeakerName(d, l.Speaker) + ": " + l.Text
}

// FormatFeedback renders a state change for the player, without brackets.
func FormatFeedback(f types.Feedback) string {
	switch f.Type {
	case "item":
		if f.Action == "remove" {
			return "Lost item: " + f.Subject
		}
		return "Received item: " + f.Subject
	case "companion":
		if f.Action == "remove" {
			return f.Subject + " left the party"
		}
		return f.Subject + " joined the party"
	case "combat":
		return "Combat starts: " + f.Subject
	case "conversation":
		return "Conversation starts: " + f.Subject
	default:
		return fmt.Sprintf("%s %+d (now %d)", f.Type, f.Amount, f.Total)
	}
}

// FormatChoice renders one offered choice with its display index.
// Disabled choices are marked and cannot be picked.
func FormatChoice(o types.ChoiceOption) string {
	s := fmt.Sprintf("%d. %s", o.Index, o.Choice.Text)
	if !o.Enabled {
		s += " (unavailable)"
	}
	return s
}

// FormatTalkOption renders a talk-again option.
func FormatTalkOption(d *types.Dialogue, o types.TalkOption) string {
	if o.Kind == types.TriggerEntry {
		return "Enter " + o.Target
	}
	return "Talk to " + SpeakerName(d, o.Target)
}

// FormatEnding describes why a conversation ended.
func FormatEnding(ev types.PlaybackEvent) string {
	switch ev.Reason {
	case types.EndTarget, types.EndMarker:
		return "The conversation ends."
	case types.EndExit:
		return "The conversation pauses."
	case types.EndDeadEnd:
		return "Dead end: no choice is available."
	case types.EndNoEntry:
		return "They have nothing to say."
	case types.EndMissing:
		return fmt.Sprintf("Missing node: %s", ev.Node)
	default:
		return "The conversation ends."
	}
}
