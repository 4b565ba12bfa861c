package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Catalog entries are stored as a JSON payload keyed by qualified name,
// tagged with the entry kind so LoadCatalog can pick the right type.

// SaveCatalogEntry upserts a catalog entry. Implements catalog.Persister.
func (s *SQLiteStore) SaveCatalogEntry(entry core.CatalogEntry) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode catalog entry %s: %w", entry.QualifiedName(), err)
	}

	_, err = s.db.Exec(
		`INSERT INTO catalog_entries (name, kind, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, payload = excluded.payload, updated_at = excluded.updated_at`,
		entry.QualifiedName(), entry.EntryKind(), string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save catalog entry %s: %w", entry.QualifiedName(), err)
	}
	return nil
}

// SaveLineage appends a lineage edge. Implements catalog.Persister.
func (s *SQLiteStore) SaveLineage(edge core.LineageEdge) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	consumed, err := json.Marshal(edge.Consumed)
	if err != nil {
		return fmt.Errorf("failed to encode lineage for %s: %w", edge.Producer, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO lineage (producer, consumed, recorded_at) VALUES (?, ?, ?)`,
		edge.Producer, string(consumed), edge.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save lineage for %s: %w", edge.Producer, err)
	}
	return nil
}

// LoadCatalog returns every persisted entry and lineage edge.
func (s *SQLiteStore) LoadCatalog() ([]core.CatalogEntry, []core.LineageEdge, error) {
	if s.db == nil {
		return nil, nil, fmt.Errorf("database not opened")
	}

	entries, err := s.loadEntries()
	if err != nil {
		return nil, nil, err
	}
	edges, err := s.loadLineage()
	if err != nil {
		return nil, nil, err
	}
	return entries, edges, nil
}

func (s *SQLiteStore) loadEntries() ([]core.CatalogEntry, error) {
	rows, err := s.db.Query(`SELECT name, kind, payload FROM catalog_entries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []core.CatalogEntry
	for rows.Next() {
		var name, kind, payload string
		if err := rows.Scan(&name, &kind, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}

		entry, err := decodeEntry(kind, payload)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %s: %w", name, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func decodeEntry(kind, payload string) (core.CatalogEntry, error) {
	switch kind {
	case "raw":
		var t core.RawTable
		if err := json.Unmarshal([]byte(payload), &t); err != nil {
			return nil, fmt.Errorf("failed to decode raw table: %w", err)
		}
		return &t, nil
	case "model":
		var m core.ModelEntry
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return nil, fmt.Errorf("failed to decode model entry: %w", err)
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("unknown entry kind %q", kind)
	}
}

func (s *SQLiteStore) loadLineage() ([]core.LineageEdge, error) {
	rows, err := s.db.Query(`SELECT producer, consumed, recorded_at FROM lineage ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load lineage: %w", err)
	}
	defer rows.Close()

	var edges []core.LineageEdge
	for rows.Next() {
		var edge core.LineageEdge
		var consumed string
		var recordedAt sql.NullTime
		if err := rows.Scan(&edge.Producer, &consumed, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lineage edge: %w", err)
		}
		if err := json.Unmarshal([]byte(consumed), &edge.Consumed); err != nil {
			return nil, fmt.Errorf("lineage for %s: %w", edge.Producer, err)
		}
		if recordedAt.Valid {
			edge.RecordedAt = recordedAt.Time
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}
