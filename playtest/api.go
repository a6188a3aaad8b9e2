package playtest

import (
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/dlgforge/engine"
	"github.com/nathoo/dlgforge/engine/condition"
	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

// runner holds the player a script drives and what it has seen.
type runner struct {
	p      *engine.Player
	out    io.Writer
	last   types.PlaybackEvent
	lines  []types.Line // lines since the last player action
	trace  []string
	report Report
}

var phaseNames = map[types.Phase]string{
	types.PhaseIdle:   "idle",
	types.PhaseAtNode: "at_node",
	types.PhaseEnded:  "ended",
	types.PhaseExited: "exited",
}

// register installs the script API as globals.
func (r *runner) register(L *lua.LState) {
	registerPlayback(L, r)
	registerQueries(L, r)
	registerStateHelpers(L, r)
}

func registerPlayback(L *lua.LState, r *runner) {
	// start() / start("node"): begin at the start node or a given node.
	L.SetGlobal("start", L.NewFunction(func(L *lua.LState) int {
		var ev types.PlaybackEvent
		var err error
		if id := L.OptString(1, ""); id != "" {
			ev, err = r.p.StartAt(id)
		} else {
			ev, err = r.p.Start()
		}
		return r.push(L, ev, err, true)
	}))

	// entry("group"): begin through an entry group.
	L.SetGlobal("entry", L.NewFunction(func(L *lua.LState) int {
		ev, err := r.p.StartFromEntryGroup(L.CheckString(1))
		return r.push(L, ev, err, true)
	}))

	// talk("npc"): begin through the NPC's talk triggers.
	L.SetGlobal("talk", L.NewFunction(func(L *lua.LState) int {
		return r.push(L, r.p.Talk(L.CheckString(1)), nil, true)
	}))

	// event("name"): begin through @event: triggers.
	L.SetGlobal("event", L.NewFunction(func(L *lua.LState) int {
		return r.push(L, r.p.Event(L.CheckString(1)), nil, true)
	}))

	// choose(2) or choose("text"): take a player choice.
	L.SetGlobal("choose", L.NewFunction(func(L *lua.LState) int {
		var ev types.PlaybackEvent
		var err error
		switch v := L.CheckAny(1).(type) {
		case lua.LNumber:
			ev, err = r.p.Advance(engine.Input{Choice: int(v)})
		case lua.LString:
			ev, err = r.p.Choose(string(v))
		default:
			L.ArgError(1, "choice index or text expected")
			return 0
		}
		return r.push(L, ev, err, true)
	}))

	// resume(): continue past an exit or @end node.
	L.SetGlobal("resume", L.NewFunction(func(L *lua.LState) int {
		ev, err := r.p.Continue()
		return r.push(L, ev, err, false)
	}))

	// close(): end the session.
	L.SetGlobal("close", L.NewFunction(func(L *lua.LState) int {
		r.last = r.p.Close()
		return 0
	}))
}

func registerQueries(L *lua.LState, r *runner) {
	L.SetGlobal("node", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(r.p.Node()))
		return 1
	}))

	L.SetGlobal("phase", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(phaseNames[r.p.Phase()]))
		return 1
	}))

	// reason(): why the conversation ended, "" while playing.
	L.SetGlobal("reason", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(string(r.last.Reason)))
		return 1
	}))

	// lines(): texts shown since the last action.
	L.SetGlobal("lines", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		for _, l := range r.lines {
			tbl.Append(lua.LString(l.Text))
		}
		L.Push(tbl)
		return 1
	}))

	// choices(): { {index=1, text="...", target="...", enabled=true}, ... }
	L.SetGlobal("choices", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		for _, o := range r.p.Choices() {
			c := L.NewTable()
			c.RawSetString("index", lua.LNumber(o.Index))
			c.RawSetString("text", lua.LString(o.Choice.Text))
			c.RawSetString("target", lua.LString(o.Choice.Target))
			c.RawSetString("enabled", lua.LBool(o.Enabled))
			tbl.Append(c)
		}
		L.Push(tbl)
		return 1
	}))

	// talk_again(): { "npc", ... } conversations available at an ending.
	L.SetGlobal("talk_again", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		for _, o := range r.last.TalkAgain {
			tbl.Append(lua.LString(o.Target))
		}
		L.Push(tbl)
		return 1
	}))

	// expect(cond, "message"): record a check.
	L.SetGlobal("expect", L.NewFunction(func(L *lua.LState) int {
		r.report.Checks++
		if lua.LVAsBool(L.Get(1)) {
			return 0
		}
		msg := L.OptString(2, "expectation failed")
		where := L.Where(1)
		r.report.Failures = append(r.report.Failures, strings.TrimSpace(where+" "+msg))
		return 0
	}))

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		if r.out == nil {
			return 0
		}
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		fmt.Fprintln(r.out, strings.Join(parts, "\t"))
		return 0
	}))
}

func registerStateHelpers(L *lua.LState, r *runner) {
	// get("var"): nil when unset.
	L.SetGlobal("get", L.NewFunction(func(L *lua.LState) int {
		v, ok := state.Get(r.p.State(), L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(toLua(v))
		return 1
	}))

	// set("var", value)
	L.SetGlobal("set", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		switch v := L.CheckAny(2).(type) {
		case lua.LBool:
			state.Set(r.p.State(), name, types.Bool(bool(v)))
		case lua.LNumber:
			state.Set(r.p.State(), name, types.Number(int64(v)))
		case lua.LString:
			state.Set(r.p.State(), name, types.Text(string(v)))
		default:
			L.ArgError(2, "boolean, number or string expected")
		}
		return 0
	}))

	L.SetGlobal("has_item", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(state.HasItem(r.p.State(), L.CheckString(1))))
		return 1
	}))

	L.SetGlobal("has_companion", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(state.HasCompanion(r.p.State(), L.CheckString(1))))
		return 1
	}))

	L.SetGlobal("visited", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(state.Visited(r.p.State(), L.CheckString(1))))
		return 1
	}))

	// cond("expr"): evaluate a DLG condition against the live state.
	L.SetGlobal("cond", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(condition.Evaluate(L.CheckString(1), r.p.State())))
		return 1
	}))
}

// push records an event, follows pending GOTOs and returns the current
// node id to the script. API errors are raised as Lua errors. entered is
// false for resume(), which stays on the node it was at.
func (r *runner) push(L *lua.LState, ev types.PlaybackEvent, err error, entered bool) int {
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	r.lines = nil
	r.record(ev, entered)
	for steps := 0; ev.Next != ""; steps++ {
		if steps == maxAutoSteps {
			L.RaiseError("GOTO loop: more than %d automatic steps from %s", maxAutoSteps, ev.Node)
			return 0
		}
		ev, err = r.p.Advance(engine.Input{})
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		r.record(ev, true)
	}
	L.Push(lua.LString(r.p.Node()))
	return 1
}

func (r *runner) record(ev types.PlaybackEvent, entered bool) {
	r.last = ev
	r.lines = append(r.lines, ev.Lines...)
	if !entered {
		return
	}
	switch {
	case ev.Kind == types.EventNode:
		r.trace = append(r.trace, ev.Node)
	case ev.Reason == types.EndMarker, ev.Reason == types.EndExit, ev.Reason == types.EndDeadEnd:
		r.trace = append(r.trace, ev.Node)
	}
}

func toLua(v types.Value) lua.LValue {
	switch v.Kind {
	case types.KindBool:
		return lua.LBool(v.B)
	case types.KindNumber:
		return lua.LNumber(v.N)
	default:
		return lua.LString(v.S)
	}
}
