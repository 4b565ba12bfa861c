package engine

import (
	"github.com/architadhande/queryverse-data-platform/internal/catalog"
	"github.com/architadhande/queryverse-data-platform/internal/dag"
	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// buildResult is the validated dependency graph for one run.
type buildResult struct {
	// Graph nodes are qualified model paths; catalog-only dependencies
	// (raw tables) do not become nodes.
	Graph *dag.Graph
	// Models indexes the run's models by qualified path.
	Models map[string]*core.Model
	// Resolutions maps, per model path, each ref name as written to the
	// physical qualified name it renders to.
	Resolutions map[string]map[string]string
}

// BuildGraph resolves every reference in the model set against the
// models themselves and the catalog, and returns the dependency graph.
// The graph is rebuilt fresh for every run; nothing is cached across
// runs. Resolution rules: a qualified ref ("raw.orders",
// "staging.stg_x") matches a model path or a catalog entry; a bare ref
// matches exactly one model by name.
func BuildGraph(models []*core.Model, cat *catalog.Catalog) (*buildResult, error) {
	byPath := make(map[string]*core.Model, len(models))
	byName := make(map[string][]*core.Model)
	for _, m := range models {
		if _, dup := byPath[m.Path()]; dup {
			return nil, &core.DuplicateModelError{Path: m.Path()}
		}
		byPath[m.Path()] = m
		byName[m.Name] = append(byName[m.Name], m)
	}

	graph := dag.New()
	resolutions := make(map[string]map[string]string, len(models))
	for _, m := range models {
		graph.AddNode(m.Path())
		resolutions[m.Path()] = make(map[string]string, len(m.Refs))
	}

	for _, m := range models {
		for _, ref := range m.Refs {
			target, isModel, err := resolveRef(m, ref.Name, byPath, byName, cat)
			if err != nil {
				return nil, err
			}
			resolutions[m.Path()][ref.Name] = target
			if isModel {
				if err := graph.AddEdge(target, m.Path()); err != nil {
					return nil, err
				}
			}
		}
	}

	return &buildResult{Graph: graph, Models: byPath, Resolutions: resolutions}, nil
}

// resolveRef maps a ref name to a qualified physical name. isModel
// reports whether the target is part of this run's model set (and so
// becomes a graph edge) rather than an already-materialized catalog
// entry.
func resolveRef(m *core.Model, name string, byPath map[string]*core.Model, byName map[string][]*core.Model, cat *catalog.Catalog) (target string, isModel bool, err error) {
	// Qualified name: model path first, then catalog.
	if dep, ok := byPath[name]; ok {
		return dep.Path(), true, nil
	}

	if candidates, ok := byName[name]; ok {
		if len(candidates) > 1 {
			// The bare name is ambiguous across namespaces.
			return "", false, &core.DuplicateModelError{Path: name}
		}
		return candidates[0].Path(), true, nil
	}

	if cat.Has(name) {
		return name, false, nil
	}

	return "", false, &core.UnresolvedReferenceError{Model: m.Path(), Ref: name}
}
