// Package state persists run history and catalog metadata in a local
// SQLite database so both survive restarts. The analytical data itself
// lives in the engine; this store only holds bookkeeping.
package state

import (
	"context"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Store is the persistence surface used by the engine. The catalog
// write-through methods take no context; they are local writes on the
// mutation path and must not inherit a caller's cancellation.
type Store interface {
	// SaveRun persists a sealed run with its model runs and test
	// results in one transaction.
	SaveRun(ctx context.Context, run *core.Run) error
	// GetRun loads one run by id, or NotFoundError.
	GetRun(ctx context.Context, id string) (*core.Run, error)
	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*core.Run, error)

	// SaveCatalogEntry upserts a catalog entry.
	SaveCatalogEntry(entry core.CatalogEntry) error
	// SaveLineage appends a lineage edge.
	SaveLineage(edge core.LineageEdge) error
	// LoadCatalog returns all persisted entries and lineage edges for
	// warm-starting the in-memory catalog.
	LoadCatalog() ([]core.CatalogEntry, []core.LineageEdge, error)

	Close() error
}
