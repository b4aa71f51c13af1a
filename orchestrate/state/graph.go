package state

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/docchat/observability"
	"github.com/tailored-agentic-units/docchat/orchestrate/config"
)

// Graph is a mutable graph declaration. It is not safe for concurrent use;
// build it once, then Compile.
type Graph[S any] struct {
	name          string
	nodes         map[string]Node[S]
	order         []string
	edges         map[string][]Edge[S]
	entryPoint    string
	exitPoints    map[string]bool
	maxIterations int
	observer      observability.Observer
}

// NewGraph creates an empty graph, resolving cfg.Observer through the
// observability registry.
func NewGraph[S any](cfg config.GraphConfig) (*Graph[S], error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}
	return NewGraphWithObserver[S](cfg, observer), nil
}

// NewGraphWithObserver creates an empty graph that reports to observer
// instead of the one named in cfg. A nil observer discards events.
func NewGraphWithObserver[S any](cfg config.GraphConfig, observer observability.Observer) *Graph[S] {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = config.DefaultGraphConfig(cfg.Name).MaxIterations
	}

	return &Graph[S]{
		name:          cfg.Name,
		nodes:         make(map[string]Node[S]),
		edges:         make(map[string][]Edge[S]),
		exitPoints:    make(map[string]bool),
		maxIterations: maxIterations,
		observer:      observability.OrNoOp(observer),
	}
}

// Name returns the graph identifier used as the event source.
func (g *Graph[S]) Name() string {
	return g.name
}

// AddNode registers a step. Names must be unique and non-empty.
func (g *Graph[S]) AddNode(name string, node Node[S]) error {
	if name == "" {
		return fmt.Errorf("node name cannot be empty")
	}

	if node == nil {
		return fmt.Errorf("node cannot be nil")
	}

	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("node %s already exists", name)
	}

	g.nodes[name] = node
	g.order = append(g.order, name)
	return nil
}

// AddEdge adds a transition. Both nodes must already exist; a nil predicate
// is unconditional.
func (g *Graph[S]) AddEdge(from, to string, predicate Predicate[S]) error {
	return g.AddNamedEdge(from, to, "", predicate)
}

// AddNamedEdge is AddEdge with a label for the predicate.
func (g *Graph[S]) AddNamedEdge(from, to, name string, predicate Predicate[S]) error {
	if from == "" {
		return fmt.Errorf("from node cannot be empty")
	}

	if to == "" {
		return fmt.Errorf("to node cannot be empty")
	}

	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("from node %s does not exist", from)
	}

	if _, exists := g.nodes[to]; !exists {
		return fmt.Errorf("to node %s does not exist", to)
	}

	g.edges[from] = append(g.edges[from], Edge[S]{
		From:      from,
		To:        to,
		Name:      name,
		Predicate: predicate,
	})
	return nil
}

// SetEntryPoint sets the single starting node.
func (g *Graph[S]) SetEntryPoint(node string) error {
	if node == "" {
		return fmt.Errorf("entry point cannot be empty")
	}

	if g.entryPoint != "" {
		return fmt.Errorf("entry point already set to %s", g.entryPoint)
	}

	if _, exists := g.nodes[node]; !exists {
		return fmt.Errorf("entry point node %s does not exist", node)
	}

	g.entryPoint = node
	return nil
}

// SetExitPoint marks a terminal node. It may be called more than once.
func (g *Graph[S]) SetExitPoint(node string) error {
	if node == "" {
		return fmt.Errorf("exit point cannot be empty")
	}

	if _, exists := g.nodes[node]; !exists {
		return fmt.Errorf("exit point node %s does not exist", node)
	}

	g.exitPoints[node] = true
	return nil
}

// Validate checks that the graph has nodes, an entry point, at least one
// exit point, and that every non-exit node can move on.
func (g *Graph[S]) Validate() error {
	if len(g.nodes) == 0 {
		return ErrNoNodes
	}

	if g.entryPoint == "" {
		return ErrNoEntryPoint
	}

	if len(g.exitPoints) == 0 {
		return ErrNoExitPoint
	}

	for _, name := range g.order {
		if !g.exitPoints[name] && len(g.edges[name]) == 0 {
			return fmt.Errorf("%w: %s", ErrDeadEnd, name)
		}
	}

	return nil
}

// Compile validates the graph, rejects cycles and returns an immutable
// Runnable. Later changes to g do not affect the result.
func (g *Graph[S]) Compile() (*Runnable[S], error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("graph validation failed: %w", err)
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, cycle)
	}

	edges := make(map[string][]Edge[S], len(g.edges))
	for from, list := range g.edges {
		edges[from] = slices.Clone(list)
	}

	return &Runnable[S]{
		name:          g.name,
		nodes:         maps.Clone(g.nodes),
		edges:         edges,
		entryPoint:    g.entryPoint,
		exitPoints:    maps.Clone(g.exitPoints),
		maxIterations: g.maxIterations,
		observer:      g.observer,
	}, nil
}

// findCycle runs a colored DFS over every edge, predicates ignored, and
// returns the first cycle found as a node path.
func (g *Graph[S]) findCycle() []string {
	const (
		white = iota
		grey
		black
	)

	color := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var visit func(string) bool
	visit = func(n string) bool {
		color[n] = grey
		stack = append(stack, n)

		for _, e := range g.edges[n] {
			switch color[e.To] {
			case grey:
				start := slices.Index(stack, e.To)
				cycle = append(slices.Clone(stack[start:]), e.To)
				return true
			case white:
				if visit(e.To) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}

	for _, n := range g.order {
		if color[n] == white && visit(n) {
			return cycle
		}
	}
	return nil
}

// Runnable is a compiled graph. It holds no per-run state and is safe for
// concurrent Execute calls.
type Runnable[S any] struct {
	name          string
	nodes         map[string]Node[S]
	edges         map[string][]Edge[S]
	entryPoint    string
	exitPoints    map[string]bool
	maxIterations int
	observer      observability.Observer
}

// Name returns the graph identifier.
func (r *Runnable[S]) Name() string {
	return r.name
}

// Execute runs from the entry point until an exit node completes. On failure
// it returns the last successfully produced state with an *ExecutionError.
func (r *Runnable[S]) Execute(ctx context.Context, initial S) (S, error) {
	runID := uuid.NewString()
	started := time.Now()

	r.emit(ctx, EventGraphStart, observability.LevelVerbose, map[string]any{
		"run_id":      runID,
		"entry_point": r.entryPoint,
	})

	current := r.entryPoint
	state := initial
	path := make([]string, 0, len(r.nodes))

	fail := func(node string, err error) (S, error) {
		execErr := &ExecutionError{
			NodeName: node,
			RunID:    runID,
			Path:     slices.Clone(path),
			Err:      err,
		}
		r.emit(ctx, EventGraphFailed, observability.LevelWarning, map[string]any{
			"run_id": runID,
			"node":   node,
			"path":   execErr.Path,
			"error":  err.Error(),
		})
		return state, execErr
	}

	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return fail(current, fmt.Errorf("execution cancelled: %w", err))
		}

		if iteration > r.maxIterations {
			return fail(current, fmt.Errorf("%w (%d)", ErrMaxIterations, r.maxIterations))
		}

		path = append(path, current)
		node := r.nodes[current]

		r.emit(ctx, EventNodeStart, observability.LevelVerbose, map[string]any{
			"run_id":    runID,
			"node":      current,
			"iteration": iteration,
		})

		nodeStarted := time.Now()
		next, err := node.Execute(ctx, state)

		r.emit(ctx, EventNodeComplete, observability.LevelVerbose, map[string]any{
			"run_id":   runID,
			"node":     current,
			"duration": time.Since(nodeStarted),
			"error":    err != nil,
		})

		if err != nil {
			return fail(current, fmt.Errorf("node execution failed: %w", err))
		}
		state = next

		if r.exitPoints[current] {
			r.emit(ctx, EventGraphComplete, observability.LevelVerbose, map[string]any{
				"run_id":     runID,
				"exit_point": current,
				"path":       slices.Clone(path),
				"duration":   time.Since(started),
			})
			return state, nil
		}

		to, ok := r.route(ctx, runID, current, state)
		if !ok {
			return fail(current, fmt.Errorf("%w from node %s", ErrNoTransition, current))
		}
		current = to
	}
}

func (r *Runnable[S]) route(ctx context.Context, runID, from string, state S) (string, bool) {
	for i, edge := range r.edges[from] {
		if !edge.allows(state) {
			continue
		}
		r.emit(ctx, EventEdgeTransition, observability.LevelVerbose, map[string]any{
			"run_id":     runID,
			"from":       edge.From,
			"to":         edge.To,
			"edge_index": i,
			"predicate":  edge.Name,
		})
		return edge.To, true
	}
	return "", false
}

func (r *Runnable[S]) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	observability.Emit(ctx, r.observer, typ, level, r.name, data)
}
