// dlgforge validates, inspects and plays DLG branching-dialogue files.
//
// Usage:
//
//	dlgforge [--version] <command> [flags] <file> [args]
//
// Commands: validate, stats, export, path, replay, play, test.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/nathoo/dlgforge/api"
	"github.com/nathoo/dlgforge/cli"
	"github.com/nathoo/dlgforge/engine"
	"github.com/nathoo/dlgforge/engine/path"
	"github.com/nathoo/dlgforge/engine/save"
	"github.com/nathoo/dlgforge/internal/config"
	"github.com/nathoo/dlgforge/loader"
	"github.com/nathoo/dlgforge/playtest"
	"github.com/nathoo/dlgforge/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `Usage: dlgforge [--version] <command> [flags] <file> [args]

Commands:
  validate <file>...              Check files and report errors and warnings
  stats [-json] <file>            Count nodes, lines, choices and commands
  export [-graph] <file>          Print the structural dump (or graph) as JSON
  path [flags] <file> <node>      Plan a route to a node and print its state
  replay [flags] <file> <node>... Replay a literal node sequence
  play [flags] <file>             Play a dialogue interactively
  test <file> <script.lua>...     Run Lua playtest scripts
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	_ = logger.Sync()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	app := &app{cfg: cfg, stdout: stdout, stderr: stderr}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "--version", "version":
		fmt.Fprintf(stdout, "dlgforge %s (commit %s, built %s)\n", version, commit, date)
		return 0
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	case "validate":
		err = app.validate(rest)
	case "stats":
		err = app.stats(rest)
	case "export":
		err = app.export(rest)
	case "path":
		err = app.path(rest)
	case "replay":
		err = app.replay(rest)
	case "play":
		err = app.play(rest)
	case "test":
		err = app.test(ctx, rest)
	default:
		fmt.Fprintf(stderr, "Unknown command %q.\n\n%s", cmd, usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFailed):
		return 1
	case errors.Is(err, flag.ErrHelp):
		return 0
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// errFailed marks a command that already reported its own failure.
var errFailed = errors.New("failed")

var errUsage = errors.New("missing arguments; run dlgforge help")

type app struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) loaderOptions() loader.Options {
	return loader.Options{PlayerIDs: a.cfg.PlayerIDs}
}

func (a *app) apiOptions() api.Options {
	return api.Options{Loader: a.loaderOptions(), Path: a.cfg.PathOptions()}
}

func readSource(file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read dialogue: %w", err)
	}
	return string(data), nil
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) validate(args []string) error {
	fs := a.flags("validate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}
	failed := false
	for _, file := range fs.Args() {
		text, err := readSource(file)
		if err != nil {
			return err
		}
		_, r := loader.Load(text, a.loaderOptions())
		if !cli.PrintReport(a.stdout, file, r) {
			failed = true
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

func (a *app) stats(args []string) error {
	fs := a.flags("stats")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	text, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	d, r := loader.Load(text, a.loaderOptions())
	st := loader.ComputeStats(d, r)
	if *asJSON {
		return a.writeJSON(st)
	}
	cli.PrintStats(a.stdout, fs.Arg(0), st)
	return nil
}

func (a *app) export(args []string) error {
	fs := a.flags("export")
	graph := fs.Bool("graph", false, "print the graph projection with diagnostics instead")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	text, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	if *graph {
		return a.writeJSON(api.Parse(text, a.apiOptions()))
	}
	doc, err := api.Export(text, a.apiOptions())
	if err != nil {
		return err
	}
	return a.writeJSON(doc)
}

func (a *app) path(args []string) error {
	fs := a.flags("path")
	mode := fs.String("mode", a.cfg.PathMode, "route policy: shortest, random or explore")
	seed := fs.Int64("seed", a.cfg.Seed, "random mode seed (0 = from the clock)")
	format := fs.String("format", a.cfg.SnapshotFormat, "state format: json, yaml or script")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errUsage
	}
	f, err := save.ParseFormat(*format)
	if err != nil {
		return err
	}
	text, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	resp, err := api.ComputePath(api.PathRequest{
		Text:       text,
		TargetNode: fs.Arg(1),
		Mode:       *mode,
		Seed:       *seed,
	}, a.apiOptions())
	if err != nil {
		return err
	}
	resp.State.Source = filepath.Base(fs.Arg(0))
	if f == save.FormatJSON {
		return a.writeJSON(resp)
	}

	if resp.Warning != "" {
		fmt.Fprintln(a.stderr, resp.Warning)
	}
	fmt.Fprintf(a.stdout, "# path (%s): %v\n", resp.Mode, resp.Path)
	for _, g := range resp.Granted {
		fmt.Fprintf(a.stdout, "# granted %s -> %s: %s\n", g.From, g.To, g.Condition)
	}
	data, err := save.Marshal(resp.State, f)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(data)
	return err
}

func (a *app) replay(args []string) error {
	fs := a.flags("replay")
	format := fs.String("format", a.cfg.SnapshotFormat, "state format: json, yaml or script")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errUsage
	}
	f, err := save.ParseFormat(*format)
	if err != nil {
		return err
	}
	text, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	resp, err := api.ReplayPath(api.ReplayRequest{Text: text, Path: fs.Args()[1:]}, a.apiOptions())
	if err != nil {
		return err
	}
	resp.State.Source = filepath.Base(fs.Arg(0))
	data, err := save.Marshal(*resp.State, f)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(data)
	return err
}

func (a *app) play(args []string) error {
	fs := a.flags("play")
	plain := fs.Bool("plain", false, "use the plain line-based interface")
	trace := fs.Bool("trace", false, "print node and goto trace lines")
	script := fs.String("script", "", "read input lines from a file (implies -plain)")
	node := fs.String("node", "", "start at a node with the current state")
	at := fs.String("at", "", "plan a route to a node and start there with the state it produces")
	talk := fs.String("talk", "", "start with an NPC's talk trigger")
	event := fs.String("event", "", "start with an event trigger")
	entry := fs.String("entry", "", "start from an entry group")
	stateFile := fs.String("state", "", "load a snapshot (.json, .yaml or .dlg script) before starting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	file := fs.Arg(0)
	text, err := readSource(file)
	if err != nil {
		return err
	}
	d, r := loader.Load(text, a.loaderOptions())
	if err := r.Err(); err != nil {
		cli.PrintReport(a.stderr, file, r)
		return errFailed
	}
	format, err := save.ParseFormat(a.cfg.SnapshotFormat)
	if err != nil {
		return err
	}

	var opts engine.Options
	begin := cli.Begin{Node: *node, NPC: *talk, Event: *event, Entry: *entry}
	if *stateFile != "" {
		data, err := os.ReadFile(*stateFile)
		if err != nil {
			return fmt.Errorf("read state: %w", err)
		}
		f, err := cli.FormatForFile(*stateFile, format)
		if err != nil {
			return err
		}
		s, _, err := api.ImportState(data, f)
		if err != nil {
			return err
		}
		opts.State = s
	}
	if *at != "" {
		mode, err := path.ParseMode(a.cfg.PathMode)
		if err != nil {
			return err
		}
		res, err := path.Compute(d, *at, mode, a.cfg.PathOptions())
		if err != nil {
			return err
		}
		if res.Warning != "" {
			fmt.Fprintln(a.stderr, res.Warning)
		}
		opts = engine.Options{State: res.State, SkipInitialState: true}
		begin = cli.Begin{Node: *at}
	}

	source := filepath.Base(file)
	if *script != "" || *plain || !isTerminal() {
		c := cli.New(d, opts)
		c.Begin = begin
		c.Source = source
		c.Format = format
		c.Out = a.stdout
		c.Trace = *trace
		if *script != "" {
			f, err := os.Open(*script)
			if err != nil {
				return fmt.Errorf("open script: %w", err)
			}
			defer f.Close()
			c.In = f
			c.EchoInput = true
		}
		c.Run()
		return nil
	}

	return tui.Run(d, tui.Options{
		Player: opts,
		Begin:  begin,
		Source: source,
		Format: format,
		Delay:  a.cfg.TypewriterDelay,
	})
}

func (a *app) test(ctx context.Context, args []string) error {
	fs := a.flags("test")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errUsage
	}
	text, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	d, r := loader.Load(text, a.loaderOptions())
	if err := r.Err(); err != nil {
		cli.PrintReport(a.stderr, fs.Arg(0), r)
		return errFailed
	}

	failed := false
	for _, file := range fs.Args()[1:] {
		script, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		report, err := playtest.Run(d, string(script), playtest.Options{
			Output:  a.stdout,
			Context: ctx,
			Name:    filepath.Base(file),
		})
		switch {
		case err != nil:
			failed = true
			fmt.Fprintf(a.stdout, "FAIL %s: %v\n", file, err)
		case !report.Passed():
			failed = true
			fmt.Fprintf(a.stdout, "FAIL %s: %d of %d check(s) failed\n", file, len(report.Failures), report.Checks)
			for _, f := range report.Failures {
				fmt.Fprintf(a.stdout, "    %s\n", f)
			}
		default:
			fmt.Fprintf(a.stdout, "ok   %s: %d check(s)\n", file, report.Checks)
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
