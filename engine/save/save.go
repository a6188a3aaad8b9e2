// Package save converts game state to and from portable snapshots: JSON,
// YAML, and a command script of *set / *give_item / *add_companion lines.
package save

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/dlgforge/engine/effects"
	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

// Version is the snapshot format version.
const Version = "1"

// Format names a snapshot encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatScript Format = "script"
)

var ErrUnknownFormat = errors.New("unknown snapshot format")

// ParseFormat validates a format name. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatYAML, FormatScript:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Meta is the provenance recorded with a snapshot.
type Meta struct {
	Source    string    // dialogue file the state came from
	Node      string    // node playback was at
	CreatedAt time.Time // zero means now
}

// Snapshot is the serializable form of a game state.
type Snapshot struct {
	Version    string         `json:"version" yaml:"version"`
	Source     string         `json:"source,omitempty" yaml:"source,omitempty"`
	Node       string         `json:"node,omitempty" yaml:"node,omitempty"`
	CreatedAt  time.Time      `json:"created_at" yaml:"created_at"`
	Variables  map[string]any `json:"variables" yaml:"variables"`
	Inventory  []string       `json:"inventory" yaml:"inventory"`
	Companions []string       `json:"companions" yaml:"companions"`
	Visited    []string       `json:"visited" yaml:"visited"`
}

// Export captures s. Inventory, companions and visited nodes are sorted.
func Export(s *types.GameState, meta Meta) Snapshot {
	created := meta.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	snap := Snapshot{
		Version:    Version,
		Source:     meta.Source,
		Node:       meta.Node,
		CreatedAt:  created,
		Variables:  make(map[string]any, len(s.Variables)),
		Inventory:  state.Items(s),
		Companions: state.Party(s),
		Visited:    state.VisitedNodes(s),
	}
	for name, v := range s.Variables {
		snap.Variables[name] = v.Any()
	}
	return snap
}

// MarshalJSON encodes a snapshot as indented JSON.
func MarshalJSON(snap Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// MarshalYAML encodes a snapshot as YAML.
func MarshalYAML(snap Snapshot) ([]byte, error) {
	return yaml.Marshal(snap)
}

// Marshal encodes a snapshot in the given format.
func Marshal(snap Snapshot, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return MarshalJSON(snap)
	case FormatYAML:
		return MarshalYAML(snap)
	case FormatScript:
		s := state.New()
		if err := Apply(&snap, s); err != nil {
			return nil, err
		}
		return []byte(CommandScript(s)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Unmarshal decodes a snapshot. Missing collections come back empty, never
// nil.
func Unmarshal(data []byte, format Format) (*Snapshot, error) {
	var snap Snapshot
	switch format {
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&snap); err != nil {
			return nil, fmt.Errorf("decode json snapshot: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decode yaml snapshot: %w", err)
		}
	case FormatScript:
		s := state.New()
		if err := ApplyScript(string(data), s); err != nil {
			return nil, err
		}
		snap = Export(s, Meta{})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	// Ensure collections are never nil after load.
	if snap.Variables == nil {
		snap.Variables = map[string]any{}
	}
	if snap.Inventory == nil {
		snap.Inventory = []string{}
	}
	if snap.Companions == nil {
		snap.Companions = []string{}
	}
	if snap.Visited == nil {
		snap.Visited = []string{}
	}
	return &snap, nil
}

// Apply replaces the contents of s with the snapshot's.
func Apply(snap *Snapshot, s *types.GameState) error {
	vars := make(map[string]types.Value, len(snap.Variables))
	for name, raw := range snap.Variables {
		v, err := toValue(raw)
		if err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		vars[name] = v
	}

	fresh := state.New()
	fresh.Variables = vars
	for _, id := range snap.Inventory {
		state.GiveItem(fresh, id)
	}
	for _, id := range snap.Companions {
		state.AddCompanion(fresh, id)
	}
	for _, id := range snap.Visited {
		state.Visit(fresh, id)
	}
	*s = *fresh
	return nil
}

// toValue maps a decoded JSON or YAML scalar onto a Value.
func toValue(raw any) (types.Value, error) {
	switch v := raw.(type) {
	case bool:
		return types.Bool(v), nil
	case string:
		return types.Text(v), nil
	case int:
		return types.Number(int64(v)), nil
	case int64:
		return types.Number(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return types.Value{}, fmt.Errorf("integer out of range: %d", v)
		}
		return types.Number(int64(v)), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return types.Value{}, fmt.Errorf("not an integer: %s", v)
		}
		return types.Number(n), nil
	case float64:
		if v != math.Trunc(v) || v >= 1<<63 || v < -(1<<63) {
			return types.Value{}, fmt.Errorf("not an integer: %v", v)
		}
		return types.Number(int64(v)), nil
	case nil:
		return types.Bool(false), nil
	default:
		return types.Value{}, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}

// CommandScript renders s as commands that rebuild it on a fresh state.
// Text values that would not read back unchanged are double-quoted.
// Visited nodes are not part of the script.
func CommandScript(s *types.GameState) string {
	var b strings.Builder
	b.WriteString("# dlgforge state\n")
	for _, name := range state.VariableNames(s) {
		fmt.Fprintf(&b, "*set %s = %s\n", name, effects.QuoteValue(s.Variables[name]))
	}
	for _, id := range state.Items(s) {
		fmt.Fprintf(&b, "*give_item %s\n", id)
	}
	for _, id := range state.Party(s) {
		fmt.Fprintf(&b, "*add_companion %s\n", id)
	}
	return b.String()
}

// ApplyScript runs a command script against s. Blank lines and # comments
// are skipped; any other line must be a known command.
func ApplyScript(text string, s *types.GameState) error {
	state.Normalize(s)
	for i, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "*") {
			return fmt.Errorf("line %d: expected a command, got %q", i+1, line)
		}
		cmd := strings.TrimSpace(line[1:])
		for _, issue := range effects.CheckCommand(cmd) {
			if issue.Kind != effects.IssueEquals {
				return fmt.Errorf("line %d: %s", i+1, issue.Message)
			}
		}
		effects.Execute(cmd, s, false)
	}
	return nil
}
