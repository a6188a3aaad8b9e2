// Package path computes a route from the start node to any node and the
// game state that route produces, for "play from here". It also replays a
// literal node sequence taken from a playback history.
package path

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/dlgforge/engine"
	"github.com/nathoo/dlgforge/engine/condition"
	"github.com/nathoo/dlgforge/engine/effects"
	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

// Mode selects the route policy.
type Mode string

const (
	Shortest Mode = "shortest"
	Random   Mode = "random"
	Explore  Mode = "explore"
)

// Modes lists every supported mode.
var Modes = []Mode{Shortest, Random, Explore}

var (
	ErrUnknownNode  = errors.New("path: unknown node")
	ErrUnknownMode  = errors.New("path: unknown mode")
	ErrEmptyPath    = errors.New("path: empty path")
	ErrDisconnected = errors.New("path: nodes are not connected")
	errNotReachable = errors.New("path: target not reachable")
)

const (
	defaultRetries  = 64
	defaultMaxDepth = 64
	unvisitedWeight = 4
	revisitedWeight = 1
)

// ParseMode validates a mode name. Empty means Shortest.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return Shortest, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Options tunes the random and explore modes.
type Options struct {
	Seed     int64 // 0 seeds from the clock
	Retries  int   // random walks attempted before falling back to shortest
	MaxDepth int   // longest walk or search depth
}

// Grant records an edge whose condition did not hold on arrival and was
// made to hold with condition.GrantCondition.
type Grant struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Condition string `json:"condition"`
}

// Result is a computed route and the state on arrival at its last node,
// before that node's commands run.
type Result struct {
	Path    []string         `json:"path"`
	State   *types.GameState `json:"-"`
	Warning string           `json:"warning,omitempty"`
	Granted []Grant          `json:"granted,omitempty"`
	Mode    Mode             `json:"mode"`
	Seed    int64            `json:"seed,omitempty"`
}

// Compute finds a route from the start node to target. Connectivity
// ignores conditions; conditions along the chosen route are granted while
// the state is simulated. An unreachable target yields a Warning and a
// single-node path with only the [state] commands applied. END is a valid
// target: the route ends with it and the state is the one on leaving the
// node before it.
func Compute(d *types.Dialogue, target string, mode Mode, opts Options) (Result, error) {
	if _, ok := d.Nodes[target]; !ok && target != types.End {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownNode, target)
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return Result{}, err
	}
	if mode == "" {
		mode = Shortest
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}

	g := newGraph(d)
	res := Result{Mode: mode}

	route, err := g.shortest(d.StartNode, target)
	if err != nil {
		res.Path = []string{target}
		res.State = initialState(d)
		res.Warning = fmt.Sprintf("No valid path found to '%s'. Starting with default state.", target)
		zap.L().Info("path planner fallback",
			zap.String("target", target), zap.String("warning", res.Warning))
		return res, nil
	}

	switch mode {
	case Random:
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := engine.NewRNG(seed)
		res.Seed = rng.Seed()
		if walk, ok := g.random(d.StartNode, target, rng, opts); ok {
			route = walk
		}
		zap.L().Debug("random walk", zap.Int64("seed", rng.Seed()), zap.Int64("draws", rng.Draws()))
	case Explore:
		if walk, ok := g.explore(d.StartNode, target, opts.MaxDepth); ok {
			route = walk
		}
	}

	res.Path = route
	res.State, res.Granted = simulate(d, route)
	zap.L().Debug("path computed",
		zap.String("target", target), zap.String("mode", string(mode)),
		zap.Strings("path", route), zap.Int("granted", len(res.Granted)))
	return res, nil
}

// simulate runs [state] commands, then walks the route: each node is
// visited and, except for the last, its commands run. Each edge taken uses
// the first choice to the next node whose condition holds; when none
// holds, the first such choice is granted.
func simulate(d *types.Dialogue, route []string) (*types.GameState, []Grant) {
	s := initialState(d)
	var granted []Grant
	for i, id := range route {
		if id == types.End {
			break
		}
		state.Visit(s, id)
		if i == len(route)-1 {
			break
		}
		effects.Apply(d.Nodes[id].Commands, s, false)

		next := route[i+1]
		var first *types.Choice
		held := false
		for _, c := range d.Nodes[id].Choices {
			if c.Target != next {
				continue
			}
			if first == nil {
				c := c
				first = &c
			}
			if condition.Evaluate(c.Condition, s) {
				held = true
				break
			}
		}
		if !held && first != nil {
			condition.GrantCondition(first.Condition, s)
			granted = append(granted, Grant{From: id, To: next, Condition: first.Condition})
		}
	}
	return s, granted
}

func initialState(d *types.Dialogue) *types.GameState {
	s := state.New()
	effects.Apply(d.InitialState, s, false)
	return s
}

// graph is the choice/GOTO adjacency in file order, restricted to
// defined nodes and END.
type graph struct {
	commands map[string]int
	edges    map[string][]string
}

func newGraph(d *types.Dialogue) *graph {
	g := &graph{commands: map[string]int{}, edges: map[string][]string{}}
	for _, id := range d.NodeOrder {
		g.commands[id] = len(d.Nodes[id].Commands)
		seen := map[string]bool{}
		for _, c := range d.Nodes[id].Choices {
			if _, ok := d.Nodes[c.Target]; (!ok && c.Target != types.End) || seen[c.Target] {
				continue
			}
			seen[c.Target] = true
			g.edges[id] = append(g.edges[id], c.Target)
		}
	}
	return g
}

// shortest is a breadth-first search; edges are expanded in file order so
// ties resolve to the earliest-authored choice.
func (g *graph) shortest(from, to string) ([]string, error) {
	if from == "" {
		return nil, errNotReachable
	}
	if from == to {
		return []string{from}, nil
	}
	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.edges[cur] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				var route []string
				for n := to; n != ""; n = prev[n] {
					route = append([]string{n}, route...)
				}
				return route, nil
			}
			queue = append(queue, next)
		}
	}
	return nil, errNotReachable
}

// distances returns the edge count from every node to target.
func (g *graph) distances(target string) map[string]int {
	reverse := map[string][]string{}
	for from, tos := range g.edges {
		for _, to := range tos {
			reverse[to] = append(reverse[to], from)
		}
	}
	dist := map[string]int{target: 0}
	queue := []string{target}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range reverse[cur] {
			if _, ok := dist[p]; !ok {
				dist[p] = dist[cur] + 1
				queue = append(queue, p)
			}
		}
	}
	return dist
}

// random walks from start, weighting edges to nodes not yet seen on the
// current walk above revisits. Only edges that can still reach the target
// are taken.
func (g *graph) random(from, to string, rng *engine.RNG, opts Options) ([]string, bool) {
	dist := g.distances(to)
	for attempt := 0; attempt < opts.Retries; attempt++ {
		route := []string{from}
		seen := map[string]bool{from: true}
		cur := from
		for len(route) <= opts.MaxDepth && cur != to {
			var next []string
			var weights []int
			for _, n := range g.edges[cur] {
				if _, ok := dist[n]; !ok {
					continue
				}
				next = append(next, n)
				if seen[n] {
					weights = append(weights, revisitedWeight)
				} else {
					weights = append(weights, unvisitedWeight)
				}
			}
			i := rng.WeightedSelect(weights)
			if i < 0 {
				break
			}
			cur = next[i]
			seen[cur] = true
			route = append(route, cur)
		}
		if cur == to {
			return route, true
		}
	}
	return nil, false
}

// explore is a depth-first search without revisits that tries the
// neighbour farthest from the target first, then the one with more
// commands, so side branches and state-changing nodes are taken. A node
// that failed once is not retried, which keeps the search linear.
func (g *graph) explore(from, to string, maxDepth int) ([]string, bool) {
	dist := g.distances(to)
	onPath := map[string]bool{}
	dead := map[string]bool{}
	var route []string

	var dfs func(cur string) bool
	dfs = func(cur string) bool {
		route = append(route, cur)
		onPath[cur] = true
		if cur == to {
			return true
		}
		if len(route) <= maxDepth {
			var next []string
			for _, n := range g.edges[cur] {
				if _, ok := dist[n]; ok && !onPath[n] && !dead[n] {
					next = append(next, n)
				}
			}
			sort.SliceStable(next, func(i, j int) bool {
				if dist[next[i]] != dist[next[j]] {
					return dist[next[i]] > dist[next[j]]
				}
				return g.commands[next[i]] > g.commands[next[j]]
			})
			for _, n := range next {
				if dfs(n) {
					return true
				}
			}
		}
		route = route[:len(route)-1]
		onPath[cur] = false
		dead[cur] = true
		return false
	}
	if dfs(from) {
		return route, true
	}
	return nil, false
}
