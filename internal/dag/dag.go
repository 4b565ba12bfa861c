// Package dag holds the model dependency graph. Ordering is Kahn's
// algorithm with an alphabetical tie-break, so a given set of models
// always executes in the same sequence regardless of insertion order.
package dag

import (
	"fmt"
	"sort"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Graph is a directed graph over model names. Edges point from a
// dependency to its dependent. Not safe for concurrent mutation.
type Graph struct {
	nodes map[string]struct{}
	// downstream[a] holds the nodes that depend on a.
	downstream map[string]map[string]struct{}
	// upstream[b] holds the nodes b depends on.
	upstream map[string]map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[string]struct{}),
		downstream: make(map[string]map[string]struct{}),
		upstream:   make(map[string]map[string]struct{}),
	}
}

// AddNode registers a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	g.nodes[name] = struct{}{}
}

// AddEdge records that dependent requires dependency, adding missing
// nodes along the way. Self-edges are rejected as trivial cycles.
func (g *Graph) AddEdge(dependency, dependent string) error {
	if dependency == dependent {
		return &core.CyclicDependencyError{Cycle: []string{dependency, dependent}}
	}
	g.AddNode(dependency)
	g.AddNode(dependent)

	if g.downstream[dependency] == nil {
		g.downstream[dependency] = make(map[string]struct{})
	}
	g.downstream[dependency][dependent] = struct{}{}

	if g.upstream[dependent] == nil {
		g.upstream[dependent] = make(map[string]struct{})
	}
	g.upstream[dependent][dependency] = struct{}{}
	return nil
}

// Has reports whether name is a node.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// Dependencies returns the direct upstream nodes of name, sorted.
func (g *Graph) Dependencies(name string) []string {
	return sortedKeys(g.upstream[name])
}

// Dependents returns the direct downstream nodes of name, sorted.
func (g *Graph) Dependents(name string) []string {
	return sortedKeys(g.downstream[name])
}

// TopoSort returns every node in dependency order. Nodes whose
// dependencies are all satisfied are emitted alphabetically, so the
// order is total and deterministic. A cycle yields
// CyclicDependencyError carrying one complete cycle path.
func (g *Graph) TopoSort() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		indegree[name] = len(g.upstream[name])
	}

	var ready []string
	for name, d := range indegree {
		if d == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		var unlocked []string
		for _, dep := range g.Dependents(next) {
			indegree[dep]--
			if indegree[dep] == 0 {
				unlocked = append(unlocked, dep)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}

	if len(order) != len(g.nodes) {
		return nil, &core.CyclicDependencyError{Cycle: g.findCycle(indegree)}
	}
	return order, nil
}

// findCycle walks the nodes left with positive indegree until one
// repeats, then trims the walk to the cycle itself.
func (g *Graph) findCycle(indegree map[string]int) []string {
	var start string
	for _, name := range sortedKeys(g.nodes) {
		if indegree[name] > 0 {
			start = name
			break
		}
	}
	if start == "" {
		return nil
	}

	visited := make(map[string]int)
	var path []string
	current := start
	for {
		if at, seen := visited[current]; seen {
			cycle := append([]string(nil), path[at:]...)
			return append(cycle, current)
		}
		visited[current] = len(path)
		path = append(path, current)

		advanced := false
		for _, up := range g.Dependencies(current) {
			if indegree[up] > 0 {
				current = up
				advanced = true
				break
			}
		}
		if !advanced {
			return path
		}
	}
}

// UpstreamClosure returns the selected nodes plus everything they
// transitively depend on. Unknown names are ignored.
func (g *Graph) UpstreamClosure(names []string) map[string]bool {
	closure := make(map[string]bool)
	var visit func(string)
	visit = func(name string) {
		if closure[name] || !g.Has(name) {
			return
		}
		closure[name] = true
		for up := range g.upstream[name] {
			visit(up)
		}
	}
	for _, name := range names {
		visit(name)
	}
	return closure
}

// DependentsClosure returns everything transitively downstream of name,
// excluding name itself. The run loop uses it to skip models whose
// upstream failed.
func (g *Graph) DependentsClosure(name string) map[string]bool {
	closure := make(map[string]bool)
	var visit func(string)
	visit = func(n string) {
		for down := range g.downstream[n] {
			if !closure[down] {
				closure[down] = true
				visit(down)
			}
		}
	}
	visit(name)
	return closure
}

// Subgraph returns a new graph containing only the kept nodes and the
// edges between them.
func (g *Graph) Subgraph(keep map[string]bool) *Graph {
	sub := New()
	for name := range g.nodes {
		if keep[name] {
			sub.AddNode(name)
		}
	}
	for dependency, dependents := range g.downstream {
		if !keep[dependency] {
			continue
		}
		for dependent := range dependents {
			if keep[dependent] {
				// Both endpoints kept, so AddEdge cannot fail.
				_ = sub.AddEdge(dependency, dependent)
			}
		}
	}
	return sub
}

// Nodes returns every node name, sorted.
func (g *Graph) Nodes() []string {
	return sortedKeys(g.nodes)
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the graph for debug logging.
func (g *Graph) String() string {
	var out string
	for _, name := range g.Nodes() {
		out += fmt.Sprintf("%s -> %v\n", name, g.Dependents(name))
	}
	return out
}
