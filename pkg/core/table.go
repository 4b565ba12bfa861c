package core

import "time"

// ColumnType is the inferred type of an ingested column.
type ColumnType string

// Column type constants, narrowest first. The type inferencer checks
// candidates in this order and falls back to text.
const (
	TypeInteger   ColumnType = "integer"
	TypeFloat     ColumnType = "float"
	TypeBoolean   ColumnType = "boolean"
	TypeTimestamp ColumnType = "timestamp"
	TypeText      ColumnType = "text"
)

// Column describes one column of a registered table.
type Column struct {
	Name string
	Type ColumnType
}

// RawTable is a table registered in the "raw" namespace after ingestion.
// Once registered its schema is immutable; re-ingesting the same target
// replaces the whole entry atomically.
type RawTable struct {
	// Name is the qualified name, e.g. "raw.customers".
	Name string
	// Columns in file order, with inferred types.
	Columns []Column
	// RowCount is the number of rows loaded into the engine.
	RowCount int64
	// SourceID identifies the uploaded file this table came from.
	SourceID string
	// Strategy is the name of the parsing strategy that succeeded.
	Strategy string
	// Warnings collected while parsing (ragged rows, coercion failures).
	Warnings []string
	// IngestedAt is when the table was registered.
	IngestedAt time.Time
}

// QualifiedName returns the catalog key for the table.
func (t *RawTable) QualifiedName() string { return t.Name }

// EntryKind identifies the kind of catalog entry.
func (t *RawTable) EntryKind() string { return "raw" }

// ModelEntry is a catalog entry for a materialized model.
type ModelEntry struct {
	// Name is the qualified name, e.g. "staging.stg_orders".
	Name string
	// Materialized is "view" or "table".
	Materialized string
	// RowCount of the materialization (0 for views).
	RowCount int64
	// BuiltAt is when the model was last materialized.
	BuiltAt time.Time
}

// QualifiedName returns the catalog key for the model.
func (m *ModelEntry) QualifiedName() string { return m.Name }

// EntryKind identifies the kind of catalog entry.
func (m *ModelEntry) EntryKind() string { return "model" }

// CatalogEntry is implemented by anything the catalog can register.
type CatalogEntry interface {
	QualifiedName() string
	EntryKind() string
}

// LineageEdge records that a producer was built from the named inputs.
// Lineage is append-only; edges are never rewritten.
type LineageEdge struct {
	Producer   string
	Consumed   []string
	RecordedAt time.Time
}
