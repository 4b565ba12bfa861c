package engine

import (
	"context"
	"sort"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Describe reports the engine's physical schema for a cataloged
// relation: column names, engine types, nullability, and the current
// row count. The name must be qualified.
func (e *Engine) Describe(ctx context.Context, name string) (*core.TableMetadata, error) {
	if !e.catalog.Has(name) {
		return nil, &core.NotFoundError{Name: name}
	}

	release, err := e.gate.Read(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.ensureConnected(ctx); err != nil {
		return nil, err
	}
	return e.db.GetTableMetadata(ctx, name)
}

// Analytics summarizes the warehouse contents from catalog metadata.
// It reads nothing from the engine itself.
func (e *Engine) Analytics() core.AnalyticsSummary {
	var summary core.AnalyticsSummary
	namespaces := make(map[string]bool)

	for _, entry := range e.catalog.List("") {
		switch t := entry.(type) {
		case *core.RawTable:
			summary.RawTables++
			summary.TotalRows += t.RowCount
		case *core.ModelEntry:
			summary.Models++
			summary.TotalRows += t.RowCount
		}
		if schema, _, ok := splitQualified(entry.QualifiedName()); ok {
			namespaces[schema] = true
		}
	}

	for ns := range namespaces {
		summary.Namespaces = append(summary.Namespaces, ns)
	}
	sort.Strings(summary.Namespaces)
	return summary
}

func splitQualified(name string) (schema, table string, ok bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i], name[i+1:], true
		}
	}
	return "", name, false
}
