// Package playtest runs Lua scripts that drive a Player through a dialogue
// and check what happens, so a writer can pin down expected routes.
//
// A script looks like:
//
//	start()
//	expect(node() == "start", "begins at start")
//	choose("B")
//	expect(get("gold") == 5, "B pays out")
//	expect(has_item("amulet"))
package playtest

import (
	"context"
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/nathoo/dlgforge/engine"
	"github.com/nathoo/dlgforge/types"
)

// maxAutoSteps bounds how many GOTOs are followed without player input.
const maxAutoSteps = 1000

// Options configures a run.
type Options struct {
	Player engine.Options
	// Output receives print() output. Nil discards it.
	Output io.Writer
	// Context cancels a long-running script.
	Context context.Context
	// Name labels the script in errors.
	Name string
}

// Report is the outcome of a script.
type Report struct {
	Checks   int      // expect() calls
	Failures []string // failed expect() messages
	Trace    []string // nodes entered, in order
}

// Passed reports whether every expectation held.
func (r Report) Passed() bool { return len(r.Failures) == 0 }

// Run executes script against a fresh Player over d. The returned error is
// a Lua or API error; failed expectations are only recorded in the Report.
func Run(d *types.Dialogue, script string, opts Options) (Report, error) {
	if opts.Name == "" {
		opts.Name = "playtest"
	}
	L := newSandbox(opts.Context)
	defer L.Close()

	r := &runner{
		p:   engine.NewPlayer(d, opts.Player),
		out: opts.Output,
	}
	r.register(L)

	fn, err := L.Load(strings.NewReader(script), opts.Name)
	if err == nil {
		L.Push(fn)
		err = L.PCall(0, lua.MultRet, nil)
	}
	r.report.Trace = r.trace
	zap.L().Debug("playtest finished",
		zap.String("script", opts.Name),
		zap.Int("checks", r.report.Checks),
		zap.Int("failures", len(r.report.Failures)))
	if err != nil {
		return r.report, fmt.Errorf("running %s: %w", opts.Name, err)
	}
	return r.report, nil
}
