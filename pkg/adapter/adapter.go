// Package adapter defines the database adapter contract for the
// QueryVerse engine. Concrete implementations live in pkg/adapters/
// subdirectories and register themselves via init().
package adapter

import (
	"context"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Config is re-exported for adapter implementations.
type Config = core.AdapterConfig

// Rows is re-exported for adapter implementations.
type Rows = core.Rows

// Adapter is implemented by every database backend. All engine-touching
// work in the platform goes through this interface.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection.
	Close() error

	// Ping verifies the engine is reachable.
	Ping(ctx context.Context) error

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// QueryRows runs a statement that returns rows.
	QueryRows(ctx context.Context, sql string, args ...any) (*Rows, error)

	// QueryCount runs a single-value COUNT style query.
	QueryCount(ctx context.Context, sql string) (int64, error)

	// GetTableMetadata reports schema and row count for a table.
	GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error)

	// Begin starts a transaction for atomic multi-statement DDL.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a minimal transaction handle.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Commit() error
	Rollback() error
}
