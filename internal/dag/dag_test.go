package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

func buildGraph(t *testing.T, edges [][2]string, extra ...string) *Graph {
	t.Helper()
	g := New()
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	for _, n := range extra {
		g.AddNode(n)
	}
	return g
}

func TestTopoSortRespectsDependencies(t *testing.T) {
	g := buildGraph(t, [][2]string{
		{"staging.a", "marts.x"},
		{"staging.b", "marts.x"},
		{"marts.x", "marts.y"},
	})

	order, err := g.TopoSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"staging.a", "staging.b", "marts.x", "marts.y"}, order)
}

func TestTopoSortDeterministicTieBreak(t *testing.T) {
	// No edges at all: order is purely alphabetical, regardless of
	// insertion order.
	g := buildGraph(t, nil, "zeta", "alpha", "mid")

	for i := 0; i < 5; i++ {
		order, err := g.TopoSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "mid", "zeta"}, order)
	}
}

func TestTopoSortCycle(t *testing.T) {
	g := buildGraph(t, [][2]string{
		{"a", "b"},
		{"b", "c"},
		{"c", "a"},
		{"a", "d"},
	})

	_, err := g.TopoSort()
	require.Error(t, err)

	var cyc *core.CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	// The reported path closes on itself and only involves cycle
	// members, never the innocent downstream node.
	require.GreaterOrEqual(t, len(cyc.Cycle), 3)
	assert.Equal(t, cyc.Cycle[0], cyc.Cycle[len(cyc.Cycle)-1])
	assert.NotContains(t, cyc.Cycle, "d")
}

func TestSelfEdgeRejected(t *testing.T) {
	g := New()
	err := g.AddEdge("a", "a")
	var cyc *core.CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
}

func TestUpstreamClosure(t *testing.T) {
	g := buildGraph(t, [][2]string{
		{"staging.a", "marts.x"},
		{"staging.b", "marts.x"},
		{"marts.x", "marts.y"},
		{"staging.c", "marts.z"},
	})

	closure := g.UpstreamClosure([]string{"marts.y"})
	assert.Equal(t, map[string]bool{
		"marts.y":   true,
		"marts.x":   true,
		"staging.a": true,
		"staging.b": true,
	}, closure)

	// Unknown names are ignored.
	assert.Empty(t, g.UpstreamClosure([]string{"nope"}))
}

func TestDependentsClosure(t *testing.T) {
	g := buildGraph(t, [][2]string{
		{"staging.a", "marts.x"},
		{"marts.x", "marts.y"},
		{"staging.a", "marts.z"},
	})

	closure := g.DependentsClosure("staging.a")
	assert.Equal(t, map[string]bool{
		"marts.x": true,
		"marts.y": true,
		"marts.z": true,
	}, closure)

	assert.Empty(t, g.DependentsClosure("marts.y"))
}

func TestSubgraph(t *testing.T) {
	g := buildGraph(t, [][2]string{
		{"staging.a", "marts.x"},
		{"staging.b", "marts.x"},
		{"marts.x", "marts.y"},
	})

	keep := g.UpstreamClosure([]string{"marts.x"})
	sub := g.Subgraph(keep)

	assert.Equal(t, []string{"marts.x", "staging.a", "staging.b"}, sub.Nodes())
	order, err := sub.TopoSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"staging.a", "staging.b", "marts.x"}, order)
	assert.False(t, sub.Has("marts.y"))
}

func TestDependenciesAndDependents(t *testing.T) {
	g := buildGraph(t, [][2]string{
		{"b", "x"},
		{"a", "x"},
		{"x", "y"},
	})

	assert.Equal(t, []string{"a", "b"}, g.Dependencies("x"))
	assert.Equal(t, []string{"y"}, g.Dependents("x"))
	assert.Nil(t, g.Dependencies("a"))
}
