package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Query runs an ad-hoc read against the engine. Reads proceed
// concurrently with each other but queue behind mutations. The result
// is bounded by row count and execution time; zero limits fall back to
// the configured defaults.
func (e *Engine) Query(ctx context.Context, sql string, limits core.QueryLimits) (*core.QueryResult, error) {
	release, err := e.gate.Read(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.ensureConnected(ctx); err != nil {
		return nil, err
	}

	if limits.MaxRows <= 0 {
		limits.MaxRows = e.cfg.Query.MaxRows
	}
	if limits.Timeout <= 0 {
		limits.Timeout = e.cfg.Query.Timeout
	}

	queryCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	start := time.Now()
	rows, err := e.db.QueryRows(queryCtx, sql)
	if err != nil {
		return nil, queryError(queryCtx, start, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &core.QueryResult{Columns: columns}
	for rows.Next() {
		if len(result.Rows) >= limits.MaxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(queryCtx, start, err)
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

func queryError(ctx context.Context, start time.Time, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &core.TimeoutError{
			Unit:    "query",
			Elapsed: time.Since(start).Round(time.Millisecond).String(),
		}
	}
	return fmt.Errorf("query failed: %w", err)
}
