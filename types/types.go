// Package types defines the shared data structures for the dlgforge engine.
// This package contains only type definitions and small value helpers.
package types

// End is the reserved choice target that terminates a conversation.
const End = "END"

// Command is a single textual state command (the text after '*').
type Command struct {
	Text       string
	SourceLine int
}

// Line is one line of spoken or narrated dialogue.
type Line struct {
	Speaker    string
	Text       string
	Condition  string   // empty = always shown
	Tags       []string // optional [tag1, tag2] block
	SourceLine int
}

// Choice is an outgoing edge. An empty Text makes it a GOTO.
type Choice struct {
	Target     string // node id or End
	Text       string
	Condition  string
	SourceLine int
}

// TriggerType identifies how a trigger is fired.
type TriggerType string

const (
	TriggerTalk  TriggerType = "talk"
	TriggerEvent TriggerType = "event"
	TriggerEntry TriggerType = "entry" // entry-group route, used by talk-again options
)

// Trigger is a conversation entry point declared with @talk: or @event:.
type Trigger struct {
	Type       TriggerType
	Target     string // NPC id for talk, event name for event
	Condition  string
	NodeID     string
	SourceLine int
}

// EntryRoute is one route of an entry group. An empty Condition is the default.
type EntryRoute struct {
	Condition  string
	Target     string
	SourceLine int
}

// EntryGroup is a legacy [entry:name] section.
type EntryGroup struct {
	Name       string
	Routes     []EntryRoute
	Exits      []string // node ids where the conversation pauses
	SourceLine int
}

// Node is a named block of dialogue content.
type Node struct {
	ID          string
	Lines       []Line
	Choices     []Choice
	Commands    []Command
	Triggers    []Trigger
	IsEnd       bool     // @end marker
	IsExit      bool     // listed as an exit of some entry group
	EntryGroups []string // entry groups routing to or exiting at this node
	Stack       []string // all labels sharing this body (nil when not stacked)
	SourceLine  int
}

// Dialogue is a parsed .dlg file. It is not modified after Parse returns.
type Dialogue struct {
	Characters     map[string]string // id -> display name
	CharacterOrder []string
	Nodes          map[string]*Node
	NodeOrder      []string // file order
	StartNode      string
	InitialState   []Command
	Entries        map[string]*EntryGroup
	EntryOrder     []string
	Errors         []string
	Warnings       []string
}

// GameState is the mutable runtime state of one playback session.
type GameState struct {
	Variables  map[string]Value
	Inventory  map[string]bool
	Companions map[string]bool
	Visited    map[string]bool
}

// Feedback describes a notable state change for display.
// Stat feedback (harmony, discord, xp) fills Amount and Total;
// item, companion and signal feedback fill Action and Subject.
type Feedback struct {
	Type    string
	Amount  int64
	Total   int64
	Action  string
	Subject string
}

// Phase is the playback state machine state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAtNode
	PhaseEnded
	PhaseExited
)

// EventKind classifies a PlaybackEvent.
type EventKind string

const (
	EventNode   EventKind = "node"   // entered a node that awaits input or a tick
	EventEnded  EventKind = "ended"  // conversation reached a terminal state
	EventExited EventKind = "exited" // session was closed
)

// EndReason explains why playback entered PhaseEnded.
type EndReason string

const (
	EndTarget  EndReason = "end"          // a choice or GOTO targeted END
	EndMarker  EndReason = "end_marker"   // node carries @end
	EndExit    EndReason = "exit"         // node is an entry-group exit
	EndDeadEnd EndReason = "dead_end"     // no enabled choice and no firing GOTO
	EndNoEntry EndReason = "nothing_said" // no trigger or route matched
	EndMissing EndReason = "missing_node" // transition to an undefined node
)

// ChoiceOption is a player choice as offered at a node.
type ChoiceOption struct {
	Index   int // 1-based display index
	Choice  Choice
	Enabled bool
}

// TalkOption is a way to start a new conversation from an ending.
type TalkOption struct {
	Kind   TriggerType // talk for NPC triggers, "entry" for entry groups
	Target string      // NPC id or entry group name
	NodeID string      // node the conversation would start at
}

// PlaybackEvent is what the interpreter reports after each transition.
type PlaybackEvent struct {
	Kind      EventKind
	Node      string
	Lines     []Line // lines whose condition held, in order
	Feedback  []Feedback
	Choices   []ChoiceOption
	Next      string // target of a firing GOTO, taken on the next tick
	Reason    EndReason
	TalkAgain []TalkOption
	CanResume bool // an exit/end-marker node has outgoing edges to continue with
}
