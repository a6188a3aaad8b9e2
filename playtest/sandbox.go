package playtest

import (
	"context"

	lua "github.com/yuin/gopher-lua"
)

// blockedGlobals reach the filesystem, load code or bypass metatables.
var blockedGlobals = []string{
	"dofile", "loadfile", "load", "loadstring",
	"rawset", "rawget", "rawequal",
	"collectgarbage", "require", "module",
}

// newSandbox returns a Lua state with only the base, table, string and
// math libraries. math.random is removed so a script always walks the same
// conversation.
func newSandbox(ctx context.Context) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	if ctx != nil {
		L.SetContext(ctx)
	}
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	if math, ok := L.GetGlobal("math").(*lua.LTable); ok {
		math.RawSetString("random", lua.LNil)
		math.RawSetString("randomseed", lua.LNil)
	}
	return L
}
