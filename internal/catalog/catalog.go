// Package catalog is the in-memory registry of everything queryable:
// raw tables produced by ingestion and models materialized by runs. It
// is the source of truth for name resolution and lineage. Reads return
// snapshots so callers never hold the lock.
package catalog

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Persister receives write-through copies of catalog mutations so the
// registry survives restarts. The sqlite state store implements it.
type Persister interface {
	SaveCatalogEntry(entry core.CatalogEntry) error
	SaveLineage(edge core.LineageEdge) error
}

// Catalog is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]core.CatalogEntry
	lineage []core.LineageEdge

	persister Persister
	logger    *slog.Logger
}

// New creates a catalog. persister may be nil for a purely in-memory
// registry; a nil logger discards.
func New(persister Persister, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{
		entries:   make(map[string]core.CatalogEntry),
		persister: persister,
		logger:    logger,
	}
}

// Register stores an entry under its qualified name, replacing any
// previous entry with that name. Re-ingesting a table or rebuilding a
// model is a whole-entry replacement, never an in-place schema edit.
func (c *Catalog) Register(entry core.CatalogEntry) error {
	c.mu.Lock()
	c.entries[entry.QualifiedName()] = entry
	c.mu.Unlock()

	c.logger.Debug("catalog entry registered",
		"name", entry.QualifiedName(), "kind", entry.EntryKind())

	if c.persister != nil {
		return c.persister.SaveCatalogEntry(entry)
	}
	return nil
}

// Lookup returns the entry registered under name.
func (c *Catalog) Lookup(name string) (core.CatalogEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		return nil, &core.NotFoundError{Name: name}
	}
	return entry, nil
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	_, ok := c.entries[name]
	c.mu.RUnlock()
	return ok
}

// List returns entries sorted by qualified name. A non-empty namespace
// restricts the listing to names under "<namespace>.".
func (c *Catalog) List(namespace string) []core.CatalogEntry {
	c.mu.RLock()
	out := make([]core.CatalogEntry, 0, len(c.entries))
	for name, entry := range c.entries {
		if namespace != "" && !strings.HasPrefix(name, namespace+".") {
			continue
		}
		out = append(out, entry)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].QualifiedName() < out[j].QualifiedName()
	})
	return out
}

// RecordLineage appends an edge stating that producer was built from
// consumed. Lineage is append-only; history is never rewritten.
func (c *Catalog) RecordLineage(producer string, consumed []string) error {
	edge := core.LineageEdge{
		Producer:   producer,
		Consumed:   append([]string(nil), consumed...),
		RecordedAt: time.Now().UTC(),
	}

	c.mu.Lock()
	c.lineage = append(c.lineage, edge)
	c.mu.Unlock()

	if c.persister != nil {
		return c.persister.SaveLineage(edge)
	}
	return nil
}

// Lineage returns a copy of every recorded edge in record order.
func (c *Catalog) Lineage() []core.LineageEdge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]core.LineageEdge(nil), c.lineage...)
}

// Upstream returns the inputs from the most recent edge for producer,
// or nil if nothing has been recorded.
func (c *Catalog) Upstream(producer string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.lineage) - 1; i >= 0; i-- {
		if c.lineage[i].Producer == producer {
			return append([]string(nil), c.lineage[i].Consumed...)
		}
	}
	return nil
}

// Load seeds the catalog from persisted state at startup. It does not
// write back through the persister.
func (c *Catalog) Load(entries []core.CatalogEntry, edges []core.LineageEdge) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		c.entries[e.QualifiedName()] = e
	}
	c.lineage = append(c.lineage, edges...)
	c.logger.Info("catalog loaded", "entries", len(entries), "lineage_edges", len(edges))
}
