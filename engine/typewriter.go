package engine

import "github.com/nathoo/dlgforge/types"

// Typewriter reveals a line one rune per tick. It stops as soon as its
// player moves to another node or is closed.
type Typewriter struct {
	p     *Player
	gen   int
	runes []rune
	pos   int
}

// Reveal starts a typewriter for text, bound to the player's current
// transition.
func (p *Player) Reveal(text string) *Typewriter {
	return &Typewriter{p: p, gen: p.gen, runes: []rune(text)}
}

// Cancelled reports whether the player has moved on since Reveal.
func (t *Typewriter) Cancelled() bool {
	return t.p.gen != t.gen || t.p.phase == types.PhaseExited
}

// Tick reveals one more rune and returns the visible text. done is true
// once the text is complete or the reveal was cancelled.
func (t *Typewriter) Tick() (shown string, done bool) {
	if t.Cancelled() {
		return string(t.runes[:t.pos]), true
	}
	if t.pos < len(t.runes) {
		t.pos++
	}
	return string(t.runes[:t.pos]), t.pos == len(t.runes)
}

// Skip reveals the whole text at once.
func (t *Typewriter) Skip() string {
	if !t.Cancelled() {
		t.pos = len(t.runes)
	}
	return string(t.runes[:t.pos])
}

// Done reports whether there is nothing left to reveal.
func (t *Typewriter) Done() bool {
	return t.Cancelled() || t.pos == len(t.runes)
}
