// Package engine provides the Player, the playback state machine that walks
// a dialogue graph: it runs node commands, filters lines and choices by
// condition, fires GOTOs and detects endings.
package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/dlgforge/engine/condition"
	"github.com/nathoo/dlgforge/engine/dialogue"
	"github.com/nathoo/dlgforge/engine/effects"
	"github.com/nathoo/dlgforge/engine/events"
	"github.com/nathoo/dlgforge/engine/resolve"
	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

var (
	ErrNotPlaying     = errors.New("no conversation in progress")
	ErrNotAtChoice    = errors.New("not waiting for a choice")
	ErrChoiceDisabled = errors.New("choice is disabled")
	ErrNoSuchChoice   = errors.New("no such choice")
	ErrUnknownNode    = errors.New("unknown node")
	ErrUnknownGroup   = errors.New("unknown entry group")
	ErrNoStart        = errors.New("dialogue has no start node")
	ErrCannotResume   = errors.New("nothing to continue with")
)

// Options configures a Player.
type Options struct {
	// State seeds the session with carried-over state. It is cloned; the
	// caller's copy is never mutated.
	State *types.GameState
	// SkipInitialState skips the [state] commands, for states that already
	// include them (path planner results, imported snapshots).
	SkipInitialState bool
}

// Input drives Advance. Choice is the 1-based display index of a player
// choice; zero is an auto tick that follows a pending GOTO.
type Input struct {
	Choice int
}

// Player holds one playback session. It is not safe for concurrent use.
type Player struct {
	d      *types.Dialogue
	opts   Options
	state  *types.GameState
	phase  types.Phase
	node   string
	next   string // pending GOTO target
	offers []types.ChoiceOption
	trace  []string
	inited bool
	resume bool // ended at an exit or @end node with outgoing edges
	gen    int // bumped on every transition; cancels stale typewriters
}

// NewPlayer creates an idle player over d.
func NewPlayer(d *types.Dialogue, opts Options) *Player {
	p := &Player{d: d, opts: opts}
	if opts.State != nil {
		p.state = state.Clone(opts.State)
	} else {
		p.state = state.New()
	}
	return p
}

// State returns the live game state. Callers that keep it past the session
// should clone it.
func (p *Player) State() *types.GameState { return p.state }

// Phase returns the current state machine phase.
func (p *Player) Phase() types.Phase { return p.phase }

// Node returns the current node id, empty before the first node.
func (p *Player) Node() string { return p.node }

// Trace returns the node ids entered so far, in order.
func (p *Player) Trace() []string { return append([]string(nil), p.trace...) }

// Choices returns the options offered at the current node.
func (p *Player) Choices() []types.ChoiceOption { return p.offers }

// Dialogue returns the dialogue being played.
func (p *Player) Dialogue() *types.Dialogue { return p.d }

// init runs the [state] commands once per session.
func (p *Player) init() []types.Feedback {
	if p.inited {
		return nil
	}
	p.inited = true
	if p.opts.SkipInitialState {
		return nil
	}
	return effects.Apply(p.d.InitialState, p.state, p.opts.State != nil)
}

// Start enters the dialogue's start node.
func (p *Player) Start() (types.PlaybackEvent, error) {
	if p.d.StartNode == "" {
		return types.PlaybackEvent{}, ErrNoStart
	}
	return p.StartAt(p.d.StartNode)
}

// StartAt enters an arbitrary node, for "play from here".
func (p *Player) StartAt(id string) (types.PlaybackEvent, error) {
	if _, ok := p.d.Nodes[id]; !ok {
		return types.PlaybackEvent{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	fb := p.init()
	p.trace = nil
	ev := p.enter(id)
	ev.Feedback = append(fb, ev.Feedback...)
	return ev, nil
}

// StartFromEntryGroup begins a conversation at the first route of the
// entry group whose condition holds.
func (p *Player) StartFromEntryGroup(group string) (types.PlaybackEvent, error) {
	if _, ok := p.d.Entries[group]; !ok {
		return types.PlaybackEvent{}, fmt.Errorf("%w: %s", ErrUnknownGroup, group)
	}
	fb := p.init()
	target, ok := dialogue.ResolveEntry(p.d, group, p.state)
	return p.begin(target, ok, fb), nil
}

// Talk begins a conversation with an NPC through its talk triggers.
func (p *Player) Talk(npc string) types.PlaybackEvent {
	fb := p.init()
	target, ok := dialogue.ResolveTalk(p.d, npc, p.state)
	return p.begin(target, ok, fb)
}

// Event begins a conversation through @event: triggers.
func (p *Player) Event(name string) types.PlaybackEvent {
	fb := p.init()
	target, ok := events.Dispatch(p.d, name, p.state)
	return p.begin(target, ok, fb)
}

func (p *Player) begin(target string, ok bool, fb []types.Feedback) types.PlaybackEvent {
	p.trace = nil
	if !ok {
		ev := p.end(types.EndNoEntry)
		ev.Feedback = fb
		return ev
	}
	ev := p.enter(target)
	ev.Feedback = append(fb, ev.Feedback...)
	return ev
}

// Advance moves the conversation on: a zero Input follows a pending GOTO,
// a choice index takes that player choice.
func (p *Player) Advance(in Input) (types.PlaybackEvent, error) {
	if p.phase != types.PhaseAtNode {
		return types.PlaybackEvent{}, ErrNotPlaying
	}
	if in.Choice == 0 {
		if p.next == "" {
			return types.PlaybackEvent{}, ErrNotAtChoice
		}
		return p.enter(p.next), nil
	}
	if p.next != "" {
		return types.PlaybackEvent{}, ErrNotAtChoice
	}
	for _, o := range p.offers {
		if o.Index != in.Choice {
			continue
		}
		if !o.Enabled {
			return types.PlaybackEvent{}, fmt.Errorf("%w: %d", ErrChoiceDisabled, in.Choice)
		}
		return p.enter(o.Choice.Target), nil
	}
	return types.PlaybackEvent{}, fmt.Errorf("%w: %d", ErrNoSuchChoice, in.Choice)
}

// Choose resolves typed input (an index or choice text) and advances.
func (p *Player) Choose(input string) (types.PlaybackEvent, error) {
	if p.phase != types.PhaseAtNode {
		return types.PlaybackEvent{}, ErrNotPlaying
	}
	o, err := resolve.Resolve(p.offers, input)
	if err != nil {
		return types.PlaybackEvent{}, err
	}
	return p.Advance(Input{Choice: o.Index})
}

// Continue resumes past an exit or @end node that has outgoing edges.
// Commands are not run again.
func (p *Player) Continue() (types.PlaybackEvent, error) {
	if p.phase != types.PhaseEnded || !p.resume {
		return types.PlaybackEvent{}, ErrCannotResume
	}
	n := p.d.Nodes[p.node]
	p.phase = types.PhaseAtNode
	p.resume = false
	p.gen++
	ev := types.PlaybackEvent{Kind: types.EventNode, Node: p.node}
	return p.branch(n, ev), nil
}

// Close ends the session. Any typewriter reveal in progress stops.
func (p *Player) Close() types.PlaybackEvent {
	p.phase = types.PhaseExited
	p.next = ""
	p.offers = nil
	p.gen++
	return types.PlaybackEvent{Kind: types.EventExited, Node: p.node}
}

// enter runs the per-visit algorithm for a node.
func (p *Player) enter(id string) types.PlaybackEvent {
	p.gen++
	p.next = ""
	p.offers = nil

	// 0. END target or a dangling reference.
	if id == types.End {
		return p.end(types.EndTarget)
	}
	n, ok := p.d.Nodes[id]
	if !ok {
		zap.L().Warn("transition to undefined node", zap.String("node", id))
		p.node = id
		return p.end(types.EndMissing)
	}

	// 1. Record the visit.
	p.phase = types.PhaseAtNode
	p.node = id
	state.Visit(p.state, id)
	p.trace = append(p.trace, id)
	zap.L().Debug("enter node", zap.String("node", id))

	ev := types.PlaybackEvent{Kind: types.EventNode, Node: id}

	// 2. Run commands in file order.
	ev.Feedback = effects.Apply(n.Commands, p.state, false)

	// 3. Keep the lines whose condition holds.
	for _, l := range n.Lines {
		if condition.Evaluate(l.Condition, p.state) {
			ev.Lines = append(ev.Lines, l)
		}
	}

	// 4. End and exit markers halt with talk-again options.
	if n.IsEnd || n.IsExit {
		reason := types.EndMarker
		if n.IsExit && !n.IsEnd {
			reason = types.EndExit
		}
		end := p.end(reason)
		end.Node = id
		end.Lines = ev.Lines
		end.Feedback = ev.Feedback
		end.CanResume = len(n.Choices) > 0
		p.resume = end.CanResume
		return end
	}

	// 5. Resolve outgoing edges.
	return p.branch(n, ev)
}

// branch fires the first GOTO whose condition holds, else offers the
// player choices. No enabled choice is a dead end.
func (p *Player) branch(n *types.Node, ev types.PlaybackEvent) types.PlaybackEvent {
	for _, c := range n.Choices {
		if c.Text != "" {
			continue
		}
		if condition.Evaluate(c.Condition, p.state) {
			p.next = c.Target
			ev.Next = c.Target
			return ev
		}
	}

	enabled := 0
	for _, c := range n.Choices {
		if c.Text == "" {
			continue
		}
		o := types.ChoiceOption{
			Index:   len(p.offers) + 1,
			Choice:  c,
			Enabled: condition.Evaluate(c.Condition, p.state),
		}
		if o.Enabled {
			enabled++
		}
		p.offers = append(p.offers, o)
	}
	ev.Choices = p.offers
	if enabled == 0 {
		end := p.end(types.EndDeadEnd)
		end.Lines = ev.Lines
		end.Feedback = ev.Feedback
		end.Choices = ev.Choices
		return end
	}
	return ev
}

func (p *Player) end(reason types.EndReason) types.PlaybackEvent {
	p.phase = types.PhaseEnded
	p.resume = false
	p.next = ""
	p.offers = nil
	return types.PlaybackEvent{
		Kind:      types.EventEnded,
		Node:      p.node,
		Reason:    reason,
		TalkAgain: dialogue.TalkAgainOptions(p.d, p.state),
	}
}
