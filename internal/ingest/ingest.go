package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/architadhande/queryverse-data-platform/internal/catalog"
	"github.com/architadhande/queryverse-data-platform/pkg/adapter"
	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// RawNamespace is the schema all ingested tables land in.
const RawNamespace = "raw"

// insertBatchRows bounds multi-row INSERT statement size.
const insertBatchRows = 500

// maxRecordedWarnings caps per-table warning storage so a pathological
// file cannot balloon catalog metadata.
const maxRecordedWarnings = 100

// Config tunes the ingestion engine.
type Config struct {
	// SampleRows bounds type-inference sampling.
	SampleRows int
	// AttemptTimeout bounds each parsing strategy attempt.
	AttemptTimeout time.Duration
	// ReplacePolicy is core.ReplaceAlways or core.ReplaceFail.
	ReplacePolicy string
}

// Options select the target and format details for one ingestion.
type Options struct {
	// TargetName is the unqualified table name under raw.
	TargetName string
	// Delimiter optionally declares the delimiter for delimited input.
	Delimiter rune
	// Sheet optionally names the spreadsheet sheet.
	Sheet string
}

// Ingestor drives the parsing strategy chain and the type inferencer,
// loads the result into the engine, and registers it with the catalog.
type Ingestor struct {
	db      adapter.Adapter
	catalog *catalog.Catalog
	cfg     Config
	logger  *slog.Logger
}

// New creates an ingestor. A nil logger discards.
func New(db adapter.Adapter, cat *catalog.Catalog, cfg Config, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ReplacePolicy == "" {
		cfg.ReplacePolicy = core.ReplaceAlways
	}
	return &Ingestor{db: db, catalog: cat, cfg: cfg, logger: logger}
}

// Ingest parses data, infers column types, and atomically registers the
// table as raw.<target>. Readers never observe a partial table: the new
// table is built under a staging name and swapped in inside a single
// transaction.
func (i *Ingestor) Ingest(ctx context.Context, sourceID string, data []byte, hint core.FormatHint, opts Options) (*core.RawTable, error) {
	target := SanitizeIdentifier(opts.TargetName)
	qualified := RawNamespace + "." + target

	i.logger.Info("starting ingestion", "source", sourceID, "target", qualified, "hint", hint, "bytes", len(data))

	if _, err := i.catalog.Lookup(qualified); err == nil && i.cfg.ReplacePolicy == core.ReplaceFail {
		return nil, &core.SchemaConflictError{Table: qualified}
	}

	chain, err := NewChain(hint, i.cfg.AttemptTimeout, i.logger)
	if err != nil {
		return nil, err
	}

	grid, meta, err := chain.Parse(ctx, &Source{
		ID:        sourceID,
		Data:      data,
		Delimiter: opts.Delimiter,
		Sheet:     opts.Sheet,
	})
	if err != nil {
		return nil, err
	}

	columns := InferColumnTypes(grid, i.cfg.SampleRows)
	warnings := meta.Warnings

	if len(columns) > 0 {
		loadWarnings, err := i.load(ctx, target, columns, grid)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, loadWarnings...)
	}
	if len(warnings) > maxRecordedWarnings {
		dropped := len(warnings) - maxRecordedWarnings
		warnings = append(warnings[:maxRecordedWarnings],
			fmt.Sprintf("... and %d more warnings", dropped))
	}

	table := &core.RawTable{
		Name:       qualified,
		Columns:    columns,
		RowCount:   int64(len(grid.Rows)),
		SourceID:   sourceID,
		Strategy:   meta.Strategy,
		Warnings:   warnings,
		IngestedAt: time.Now().UTC(),
	}

	if err := i.catalog.Register(table); err != nil {
		return nil, err
	}
	if err := i.catalog.RecordLineage(qualified, []string{sourceID}); err != nil {
		return nil, err
	}

	i.logger.Info("ingestion complete",
		"target", qualified, "rows", table.RowCount,
		"columns", len(columns), "strategy", meta.Strategy, "warnings", len(warnings))

	return table, nil
}

// load builds raw.<target>__incoming with typed columns, inserts every
// row, and swaps it into place transactionally.
func (i *Ingestor) load(ctx context.Context, target string, columns []core.Column, grid *core.Grid) ([]string, error) {
	staging := target + "__incoming"

	if err := i.db.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", RawNamespace)); err != nil {
		return nil, &core.ExecutionFailureError{Model: RawNamespace + "." + target, Err: err}
	}
	if err := i.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", RawNamespace, staging)); err != nil {
		return nil, &core.ExecutionFailureError{Model: RawNamespace + "." + target, Err: err}
	}

	defs := make([]string, len(columns))
	for idx, col := range columns {
		defs[idx] = fmt.Sprintf("%s %s", col.Name, sqlType(col.Type))
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s.%s (%s)", RawNamespace, staging, strings.Join(defs, ", "))
	if err := i.db.Exec(ctx, createSQL); err != nil {
		return nil, &core.ExecutionFailureError{Model: RawNamespace + "." + target, Err: err}
	}

	warnings, err := i.insertRows(ctx, staging, columns, grid)
	if err != nil {
		_ = i.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", RawNamespace, staging))
		return nil, err
	}

	// Atomic swap: readers see either the old table or the new one.
	tx, err := i.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", RawNamespace, target)); err != nil {
		_ = tx.Rollback()
		return nil, &core.ExecutionFailureError{Model: RawNamespace + "." + target, Err: err}
	}
	if err := tx.Exec(ctx, fmt.Sprintf("ALTER TABLE %s.%s RENAME TO %s", RawNamespace, staging, target)); err != nil {
		_ = tx.Rollback()
		return nil, &core.ExecutionFailureError{Model: RawNamespace + "." + target, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, &core.ExecutionFailureError{Model: RawNamespace + "." + target, Err: err}
	}

	return warnings, nil
}

// insertRows loads the grid in batches, coercing cells to the inferred
// types. A value that does not fit its column (it appeared past the
// inference sample) loads as NULL with a warning.
func (i *Ingestor) insertRows(ctx context.Context, staging string, columns []core.Column, grid *core.Grid) ([]string, error) {
	if len(grid.Rows) == 0 {
		return nil, nil
	}

	var warnings []string
	colNames := make([]string, len(columns))
	for idx, col := range columns {
		colNames[idx] = col.Name
	}
	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	for start := 0; start < len(grid.Rows); start += insertBatchRows {
		end := min(start+insertBatchRows, len(grid.Rows))
		batch := grid.Rows[start:end]

		args := make([]any, 0, len(batch)*len(columns))
		placeholders := make([]string, len(batch))
		for bi, row := range batch {
			placeholders[bi] = rowPlaceholder
			for ci, cell := range row {
				value, ok := CoerceValue(cell, columns[ci].Type)
				if !ok {
					warnings = append(warnings, fmt.Sprintf(
						"row %d: %q does not fit %s column %s, loaded as null",
						start+bi+2, cell.Raw, columns[ci].Type, columns[ci].Name))
				}
				args = append(args, value)
			}
		}

		insertSQL := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES %s",
			RawNamespace, staging, strings.Join(colNames, ", "), strings.Join(placeholders, ", "))
		if err := i.db.Exec(ctx, insertSQL, args...); err != nil {
			return nil, &core.ExecutionFailureError{Model: RawNamespace + "." + staging, Err: err}
		}
	}

	return warnings, nil
}

// sqlType maps an inferred type to engine DDL.
func sqlType(t core.ColumnType) string {
	switch t {
	case core.TypeInteger:
		return "BIGINT"
	case core.TypeFloat:
		return "DOUBLE PRECISION"
	case core.TypeBoolean:
		return "BOOLEAN"
	case core.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}
