package core

import "database/sql"

// AdapterConfig holds connection configuration for a database adapter.
type AdapterConfig struct {
	// Type selects the adapter: "duckdb" or "postgres".
	Type string
	// Path is the database file for embedded engines (empty for
	// in-memory DuckDB).
	Path string
	// Network fields for server databases.
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// Schema is the default schema.
	Schema string
	// Options holds driver-specific connection options.
	Options map[string]string
	// Params holds adapter-specific settings, decoded by the adapter.
	Params map[string]any
}

// TableMetadata describes a physical table in the engine.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []EngineColumn
	RowCount int64
}

// EngineColumn is a column as reported by the engine's information schema.
type EngineColumn struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Rows wraps sql.Rows so adapter consumers do not import database/sql.
type Rows struct {
	*sql.Rows
}
