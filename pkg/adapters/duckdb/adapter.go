// Package duckdb provides the embedded DuckDB adapter, the default
// analytical engine for QueryVerse.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/architadhande/queryverse-data-platform/pkg/adapter"
	"github.com/architadhande/queryverse-data-platform/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements adapter.Adapter for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance. A nil logger discards.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Connect opens the DuckDB database. An empty path means in-memory.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("opening duckdb", "path", path)

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return &core.EngineUnavailableError{Err: fmt.Errorf("failed to open duckdb: %w", err)}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &core.EngineUnavailableError{Err: fmt.Errorf("failed to ping duckdb: %w", err)}
	}

	// DuckDB does not guarantee safe concurrent schema mutation; callers
	// serialize through the writer gate, and a single connection keeps
	// the driver honest about it.
	db.SetMaxOpenConns(1)

	a.DB = db
	a.Cfg = cfg

	params, err := ParseParams(cfg.Params)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("invalid duckdb params: %w", err)
	}
	if err := a.applyParams(ctx, params); err != nil {
		_ = db.Close()
		return err
	}

	return nil
}

// applyParams installs extensions and session settings.
func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		if err := a.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}
	for key, value := range p.Settings {
		if err := a.Exec(ctx, fmt.Sprintf("SET %s = '%s'", key, value)); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", key, err)
		}
	}
	return nil
}

// GetTableMetadata reports columns and row count via information_schema.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	schema := a.Cfg.Schema
	if schema == "" {
		schema = "main"
	}
	return a.GetTableMetadataCommon(ctx, table, schema)
}

var _ adapter.Adapter = (*Adapter)(nil)
