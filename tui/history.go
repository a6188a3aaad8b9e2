// Package tui provides a Bubble Tea terminal UI for dialogue playback.
package tui

// History keeps submitted input lines for Up/Down recall. The oldest line
// is dropped once the limit is reached.
type History struct {
	lines []string
	limit int
	pos   int // index being recalled; len(lines) means fresh input
}

// NewHistory creates a history holding at most limit lines.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Push records a submitted line and returns to fresh input. Repeating the
// previous line does not add a second copy.
func (h *History) Push(line string) {
	if n := len(h.lines); n == 0 || h.lines[n-1] != line {
		h.lines = append(h.lines, line)
		if len(h.lines) > h.limit {
			h.lines = append([]string(nil), h.lines[len(h.lines)-h.limit:]...)
		}
	}
	h.pos = len(h.lines)
}

// Prev steps back to an older line and stays on the oldest.
func (h *History) Prev() (string, bool) {
	if len(h.lines) == 0 {
		return "", false
	}
	if h.pos > 0 {
		h.pos--
	}
	return h.lines[h.pos], true
}

// Next steps forward to a newer line. Stepping past the newest returns
// false and leaves the cursor on fresh input.
func (h *History) Next() (string, bool) {
	if h.pos >= len(h.lines)-1 {
		h.pos = len(h.lines)
		return "", false
	}
	h.pos++
	return h.lines[h.pos], true
}

// ResetCursor returns to fresh input.
func (h *History) ResetCursor() {
	h.pos = len(h.lines)
}
