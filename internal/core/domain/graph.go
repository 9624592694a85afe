// Package domain contains the core domain models and business logic for the task dependency graph.
package domain

import (
	"iter"
	"strings"

	"go.trai.ch/zerr"
)

type edge struct {
	to   int
	kind DependencyKind
}

type node struct {
	task       Task
	deps       []edge
	dependents []edge
}

// Graph owns a set of tasks and the edges between them. Nodes live in an
// arena addressed by insertion index; edges are index lists.
type Graph struct {
	nodes          []node
	index          map[TaskID]int
	executionOrder []int
	sealed         bool
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		index: make(map[TaskID]int),
	}
}

// AddTask registers t together with its dependency edges. Every dependency
// must already be registered; duplicate edges are collapsed, and a completion
// edge wins over a start edge to the same task.
func (g *Graph) AddTask(t *Task) error {
	if g.sealed {
		return zerr.With(zerr.Wrap(ErrGraphSealed, "cannot add task"), "task", t.ID.String())
	}
	if t.ID.IsZero() {
		return zerr.Wrap(ErrInvalidConfiguration, "task id is empty")
	}
	if _, exists := g.index[t.ID]; exists {
		return zerr.With(zerr.Wrap(ErrTaskAlreadyExists, "cannot add task"), "task", t.ID.String())
	}
	if t.Work == nil {
		return zerr.With(zerr.Wrap(ErrMissingWork, "cannot add task"), "task", t.ID.String())
	}

	var deps []edge
	seen := make(map[int]int, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		if dep.ID == t.ID {
			return zerr.With(zerr.Wrap(ErrCycleDetected, "task depends on itself"),
				"cycle", formatCycle([]TaskID{t.ID, t.ID}))
		}
		idx, ok := g.index[dep.ID]
		if !ok {
			return zerr.With(zerr.With(zerr.Wrap(ErrUnknownDependency, "cannot add task"),
				"task", t.ID.String()), "dependency", dep.ID.String())
		}
		if pos, dup := seen[idx]; dup {
			if dep.Kind == CompletionDependency {
				deps[pos].kind = CompletionDependency
			}
			continue
		}
		seen[idx] = len(deps)
		deps = append(deps, edge{to: idx, kind: dep.Kind})
	}

	self := len(g.nodes)
	stored := *t
	stored.Dependencies = make([]Dependency, len(deps))
	for i, e := range deps {
		stored.Dependencies[i] = Dependency{ID: g.nodes[e.to].task.ID, Kind: e.kind}
		g.nodes[e.to].dependents = append(g.nodes[e.to].dependents, edge{to: self, kind: e.kind})
	}

	g.nodes = append(g.nodes, node{task: stored, deps: deps})
	g.index[t.ID] = self
	g.executionOrder = nil

	// Only reachable through edges injected after registration.
	if path := g.findCycle(); path != nil {
		g.removeLast()
		return g.cycleError(path)
	}
	return nil
}

func (g *Graph) removeLast() {
	last := len(g.nodes) - 1
	for _, e := range g.nodes[last].deps {
		d := g.nodes[e.to].dependents
		g.nodes[e.to].dependents = d[:len(d)-1]
	}
	delete(g.index, g.nodes[last].task.ID)
	g.nodes = g.nodes[:last]
}

// Validate checks every reference and looks for cycles. On success it records
// a topological order, stable with respect to insertion order, used by Walk.
func (g *Graph) Validate() error {
	for _, n := range g.nodes {
		for _, dep := range n.task.Dependencies {
			if _, ok := g.index[dep.ID]; !ok {
				return zerr.With(zerr.With(zerr.Wrap(ErrUnknownDependency, "invalid graph"),
					"task", n.task.ID.String()), "dependency", dep.ID.String())
			}
		}
	}

	if path := g.findCycle(); path != nil {
		return g.cycleError(path)
	}
	return nil
}

// findCycle runs a three-colour DFS over all edges and returns the first cycle
// found as a list of node indices whose last element repeats the first. It
// fills executionOrder when the graph is acyclic.
func (g *Graph) findCycle() []int {
	const (
		unvisited = iota
		visiting
		visited
	)

	color := make([]uint8, len(g.nodes))
	order := make([]int, 0, len(g.nodes))
	var path []int

	var visit func(u int) []int
	visit = func(u int) []int {
		color[u] = visiting
		path = append(path, u)

		for _, e := range g.nodes[u].deps {
			switch color[e.to] {
			case visiting:
				start := 0
				for i, p := range path {
					if p == e.to {
						start = i
						break
					}
				}
				cycle := append([]int{}, path[start:]...)
				return append(cycle, e.to)
			case unvisited:
				if c := visit(e.to); c != nil {
					return c
				}
			}
		}

		color[u] = visited
		path = path[:len(path)-1]
		order = append(order, u)
		return nil
	}

	for i := range g.nodes {
		if color[i] == unvisited {
			if c := visit(i); c != nil {
				return c
			}
		}
	}

	g.executionOrder = order
	return nil
}

// cycleError reports the cycle in dependency direction: "a -> b" means a depends on b.
func (g *Graph) cycleError(path []int) error {
	ids := make([]TaskID, len(path))
	for i, idx := range path {
		ids[i] = g.nodes[idx].task.ID
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	err := zerr.With(zerr.Wrap(ErrCycleDetected, "invalid graph"), "cycle", formatCycle(ids))
	return zerr.With(err, "cycle_path", names)
}

func formatCycle(ids []TaskID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, " -> ")
}

// Seal forbids further additions. The scheduler seals a graph when it starts
// executing it.
func (g *Graph) Seal() {
	g.sealed = true
}

// Sealed reports whether the graph has been handed to an execution.
func (g *Graph) Sealed() bool {
	return g.sealed
}

// TaskCount returns the number of registered tasks.
func (g *Graph) TaskCount() int {
	return len(g.nodes)
}

// GetTask returns the task registered under id.
func (g *Graph) GetTask(id TaskID) (Task, bool) {
	idx, ok := g.index[id]
	if !ok {
		return Task{}, false
	}
	return g.nodes[idx].task, true
}

// Tasks yields every task in insertion order.
func (g *Graph) Tasks() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, n := range g.nodes {
			if !yield(n.task) {
				return
			}
		}
	}
}

// Walk returns an iterator that yields tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, idx := range g.executionOrder {
			if !yield(g.nodes[idx].task) {
				return
			}
		}
	}
}

// Dependents returns the tasks that declared a dependency on id, over both
// relation kinds, in registration order.
func (g *Graph) Dependents(id TaskID) []Dependency {
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]Dependency, len(g.nodes[idx].dependents))
	for i, e := range g.nodes[idx].dependents {
		out[i] = Dependency{ID: g.nodes[e.to].task.ID, Kind: e.kind}
	}
	return out
}

// Downstream returns every task transitively reachable from id through
// dependent edges, in breadth-first order, excluding id itself.
func (g *Graph) Downstream(id TaskID) []TaskID {
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	seen := map[int]bool{idx: true}
	queue := []int{idx}
	var out []TaskID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.nodes[cur].dependents {
			if seen[e.to] {
				continue
			}
			seen[e.to] = true
			out = append(out, g.nodes[e.to].task.ID)
			queue = append(queue, e.to)
		}
	}
	return out
}

// DownstreamCount is the number of tasks that transitively depend on id.
func (g *Graph) DownstreamCount(id TaskID) int {
	return len(g.Downstream(id))
}

// Index returns the insertion position of id, used for deterministic ordering.
func (g *Graph) Index(id TaskID) (int, bool) {
	idx, ok := g.index[id]
	return idx, ok
}
