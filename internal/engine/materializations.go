package engine

import (
	"context"
	"fmt"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// materialize creates or replaces the model's view or table from its
// rendered SQL and returns the row count (zero for views).
func (e *Engine) materialize(ctx context.Context, model *core.Model, rendered string) (int64, error) {
	qualified := model.Path()

	if model.Namespace != "" {
		if err := e.db.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", model.Namespace)); err != nil {
			return 0, err
		}
	}

	switch model.Materialized {
	case core.MaterializedView:
		if err := e.db.Exec(ctx, fmt.Sprintf("CREATE OR REPLACE VIEW %s AS\n%s", qualified, rendered)); err != nil {
			return 0, err
		}
		return 0, nil

	case core.MaterializedTable:
		if err := e.db.Exec(ctx, fmt.Sprintf("CREATE OR REPLACE TABLE %s AS\n%s", qualified, rendered)); err != nil {
			return 0, err
		}
		return e.db.QueryCount(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", qualified))

	default:
		return 0, fmt.Errorf("unknown materialization %q", model.Materialized)
	}
}
