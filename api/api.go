// Package api exposes the dialogue toolkit as stateless request/response
// operations. Every call takes raw source text, so callers can put any
// transport in front of it.
package api

import (
	"errors"
	"fmt"

	"github.com/nathoo/dlgforge/engine/path"
	"github.com/nathoo/dlgforge/engine/save"
	"github.com/nathoo/dlgforge/loader"
	"github.com/nathoo/dlgforge/types"
)

// ErrNoTarget is returned when a path request names no target node.
var ErrNoTarget = errors.New("no target node specified")

// Options carries the configurable parts of each operation.
type Options struct {
	Loader loader.Options
	Path   path.Options
}

// DefaultOptions returns loader defaults and planner defaults.
func DefaultOptions() Options {
	return Options{Loader: loader.DefaultOptions()}
}

// ParseResponse is the full parse, validation and graph projection.
type ParseResponse struct {
	Valid        bool                          `json:"valid"`
	Errors       []string                      `json:"errors"`
	Warnings     []string                      `json:"warnings"`
	Graph        loader.Graph                  `json:"graph"`
	Characters   map[string]string             `json:"characters"`
	InitialState []string                      `json:"initial_state"`
	Entries      map[string]loader.ExportEntry `json:"entries"`
	Stats        loader.Stats                  `json:"stats"`
}

// Parse parses and validates text and projects it for a graph view.
func Parse(text string, opts Options) ParseResponse {
	d, r := loader.Load(text, opts.Loader)
	doc := loader.Export(d)
	resp := ParseResponse{
		Valid:        r.Valid(),
		Errors:       nonNil(r.Errors),
		Warnings:     nonNil(r.Warnings),
		Graph:        loader.BuildGraph(d),
		Characters:   doc.Characters,
		InitialState: doc.InitialState,
		Entries:      doc.Entries,
		Stats:        loader.ComputeStats(d, r),
	}
	if resp.Entries == nil {
		resp.Entries = map[string]loader.ExportEntry{}
	}
	return resp
}

// PathRequest asks for a route to TargetNode.
type PathRequest struct {
	Text       string `json:"content"`
	TargetNode string `json:"target_node"`
	Mode       string `json:"mode,omitempty"`
	Seed       int64  `json:"seed,omitempty"`
}

// PathResponse is a computed route with the state it produces.
type PathResponse struct {
	Path    []string      `json:"path"`
	State   save.Snapshot `json:"state"`
	Warning string        `json:"warning,omitempty"`
	Granted []path.Grant  `json:"granted,omitempty"`
	Mode    path.Mode     `json:"mode"`
	Seed    int64         `json:"seed,omitempty"`
}

// ComputePath plans a route from the start node to the requested node.
func ComputePath(req PathRequest, opts Options) (PathResponse, error) {
	if req.TargetNode == "" {
		return PathResponse{}, ErrNoTarget
	}
	mode, err := path.ParseMode(req.Mode)
	if err != nil {
		return PathResponse{}, err
	}
	d, _ := loader.Load(req.Text, opts.Loader)

	po := opts.Path
	if req.Seed != 0 {
		po.Seed = req.Seed
	}
	res, err := path.Compute(d, req.TargetNode, mode, po)
	if err != nil {
		return PathResponse{}, err
	}
	return PathResponse{
		Path:    res.Path,
		State:   save.Export(res.State, save.Meta{Node: req.TargetNode}),
		Warning: res.Warning,
		Granted: res.Granted,
		Mode:    res.Mode,
		Seed:    res.Seed,
	}, nil
}

// ReplayRequest asks for the state after a literal node sequence.
type ReplayRequest struct {
	Text string   `json:"content"`
	Path []string `json:"path"`
}

// ReplayResponse carries the replayed state, or the integrity error.
type ReplayResponse struct {
	State *save.Snapshot `json:"state,omitempty"`
	Error string         `json:"error,omitempty"`
}

// ReplayPath re-executes commands along req.Path. A disconnected path is
// reported both in the response and as the returned error.
func ReplayPath(req ReplayRequest, opts Options) (ReplayResponse, error) {
	d, _ := loader.Load(req.Text, opts.Loader)
	s, err := path.ReplayExactPath(d, req.Path)
	if err != nil {
		return ReplayResponse{Error: err.Error()}, err
	}
	snap := save.Export(s, save.Meta{Node: req.Path[len(req.Path)-1]})
	return ReplayResponse{State: &snap}, nil
}

// Export returns the structural dump of text. It fails with a
// *loader.ValidationError when the dialogue has errors.
func Export(text string, opts Options) (loader.Document, error) {
	d, r := loader.Load(text, opts.Loader)
	if err := r.Err(); err != nil {
		return loader.Document{}, err
	}
	return loader.Export(d), nil
}

// ExportState serializes a state with its provenance.
func ExportState(s *types.GameState, meta save.Meta, format save.Format) ([]byte, error) {
	data, err := save.Marshal(save.Export(s, meta), format)
	if err != nil {
		return nil, fmt.Errorf("export state: %w", err)
	}
	return data, nil
}

// ImportState decodes a snapshot into a fresh state.
func ImportState(data []byte, format save.Format) (*types.GameState, *save.Snapshot, error) {
	snap, err := save.Unmarshal(data, format)
	if err != nil {
		return nil, nil, fmt.Errorf("import state: %w", err)
	}
	s := &types.GameState{}
	if err := save.Apply(snap, s); err != nil {
		return nil, nil, fmt.Errorf("import state: %w", err)
	}
	return s, snap, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
