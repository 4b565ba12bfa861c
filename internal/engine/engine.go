// Package engine ties the platform together: it owns the analytical
// database connection, the catalog, the state store, and the writer
// gate, and exposes the operations the CLI drives (ingest, run, query,
// catalog, history).
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/architadhande/queryverse-data-platform/internal/catalog"
	"github.com/architadhande/queryverse-data-platform/internal/config"
	"github.com/architadhande/queryverse-data-platform/internal/gate"
	"github.com/architadhande/queryverse-data-platform/internal/ingest"
	"github.com/architadhande/queryverse-data-platform/internal/parser"
	"github.com/architadhande/queryverse-data-platform/internal/state"
	"github.com/architadhande/queryverse-data-platform/pkg/adapter"
	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Engine is the platform's single entry point. One Engine owns one
// embedded analytical database; mutations serialize behind its gate.
type Engine struct {
	cfg     *config.Config
	db      adapter.Adapter
	catalog *catalog.Catalog
	store   state.Store
	gate    *gate.Gate
	parser  *parser.Parser
	logger  *slog.Logger

	mu        sync.Mutex
	connected bool
}

// New assembles an engine from configuration. The database connection
// is established lazily on first use; the state store opens eagerly so
// the catalog can warm-start from persisted metadata.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	cat := catalog.New(store, logger)
	entries, edges, err := store.LoadCatalog()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	cat.Load(entries, edges)

	db, err := adapter.NewAdapter(adapterConfig(cfg), logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Engine{
		cfg:     cfg,
		db:      db,
		catalog: cat,
		store:   store,
		gate:    gate.New(int64(cfg.Query.MaxConcurrent)),
		parser:  parser.New(logger),
		logger:  logger,
	}, nil
}

// Close releases the database connection and the state store.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	if e.connected {
		if err := e.db.Close(); err != nil {
			firstErr = err
		}
		e.connected = false
	}
	if err := e.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Ping verifies the analytical engine is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.ensureConnected(ctx); err != nil {
		return err
	}
	if err := e.db.Ping(ctx); err != nil {
		return &core.EngineUnavailableError{Err: err}
	}
	return nil
}

// Catalog exposes the metadata registry for read access.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// RunHistory returns the most recent sealed runs, newest first.
func (e *Engine) RunHistory(ctx context.Context, limit int) ([]*core.Run, error) {
	return e.store.ListRuns(ctx, limit)
}

// Ingest parses an uploaded file and registers it under
// raw.<opts.TargetName>. It holds the writer gate for the full
// operation.
func (e *Engine) Ingest(ctx context.Context, sourceID string, data []byte, hint core.FormatHint, opts ingest.Options) (*core.RawTable, error) {
	release, err := e.gate.Write(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.ensureConnected(ctx); err != nil {
		return nil, err
	}

	ing := ingest.New(e.db, e.catalog, ingest.Config{
		SampleRows:     e.cfg.Ingest.SampleRows,
		AttemptTimeout: e.cfg.Ingest.AttemptTimeout,
		ReplacePolicy:  e.cfg.Ingest.ReplacePolicy,
	}, e.logger)

	return ing.Ingest(ctx, sourceID, data, hint, opts)
}

// ensureConnected establishes the database connection once. Failure is
// the fatal EngineUnavailable class.
func (e *Engine) ensureConnected(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.connected {
		return nil
	}

	if err := e.db.Connect(ctx, adapterConfig(e.cfg)); err != nil {
		return &core.EngineUnavailableError{Err: err}
	}
	e.connected = true
	e.logger.Info("engine connected", "type", e.cfg.Target.Type, "database", e.cfg.Target.Database)
	return nil
}

func adapterConfig(cfg *config.Config) adapter.Config {
	t := cfg.Target
	return adapter.Config{
		Type:     t.Type,
		Path:     t.Database,
		Host:     t.Host,
		Port:     t.Port,
		User:     t.User,
		Password: t.Password,
		Database: t.Database,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
}
