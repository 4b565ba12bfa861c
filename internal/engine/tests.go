package engine

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// quality test evaluation. Tests run after a successful materialization
// and read the model's own relation; failures are recorded in the run
// log, never raised, and never roll the materialization back.

// check is one expanded quality test.
type check struct {
	name  string
	kind  core.TestKind
	query string // counts offending rows; empty for row_count checks
	rc    *core.RowCountConfig
}

// runTests evaluates the model's tests concurrently and returns results
// in declaration order.
func (e *Engine) runTests(ctx context.Context, model *core.Model) []core.TestResult {
	checks := expandTests(model)
	if len(checks) == 0 {
		return nil
	}

	results := make([]core.TestResult, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = e.evaluate(ctx, model.Path(), c)
			return nil
		})
	}
	// Goroutines report through the results slice, never an error.
	_ = g.Wait()
	return results
}

func (e *Engine) evaluate(ctx context.Context, qualified string, c check) core.TestResult {
	result := core.TestResult{Name: c.name, Kind: c.kind}

	if c.kind == core.TestRowCount {
		return e.evaluateRowCount(ctx, qualified, c)
	}

	failing, err := e.db.QueryCount(ctx, c.query)
	if err != nil {
		result.Detail = fmt.Sprintf("test query failed: %v", err)
		return result
	}
	result.FailingRows = failing
	result.Passed = failing == 0
	if !result.Passed {
		result.Detail = fmt.Sprintf("%d offending rows", failing)
	}
	return result
}

func (e *Engine) evaluateRowCount(ctx context.Context, qualified string, c check) core.TestResult {
	result := core.TestResult{Name: c.name, Kind: c.kind}

	n, err := e.db.QueryCount(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", qualified))
	if err != nil {
		result.Detail = fmt.Sprintf("test query failed: %v", err)
		return result
	}

	switch {
	case n < c.rc.Min:
		result.Detail = fmt.Sprintf("%d rows, expected at least %d", n, c.rc.Min)
	case c.rc.Max > 0 && n > c.rc.Max:
		result.Detail = fmt.Sprintf("%d rows, expected at most %d", n, c.rc.Max)
	default:
		result.Passed = true
	}
	return result
}

// expandTests flattens the frontmatter test configuration into
// individual checks with their SQL.
func expandTests(model *core.Model) []check {
	qualified := model.Path()
	var checks []check

	for _, tc := range model.Tests {
		for _, col := range tc.NotNull {
			checks = append(checks, check{
				name: fmt.Sprintf("not_null %s", col),
				kind: core.TestNotNull,
				query: fmt.Sprintf(
					"SELECT COUNT(*) FROM %s WHERE %s IS NULL", qualified, col),
			})
		}
		for _, col := range tc.Unique {
			checks = append(checks, check{
				name: fmt.Sprintf("unique %s", col),
				kind: core.TestUnique,
				query: fmt.Sprintf(
					"SELECT COUNT(*) FROM (SELECT %s FROM %s WHERE %s IS NOT NULL GROUP BY %s HAVING COUNT(*) > 1) q",
					col, qualified, col, col),
			})
		}
		if av := tc.AcceptedValues; av != nil {
			checks = append(checks, check{
				name: fmt.Sprintf("accepted_values %s", av.Column),
				kind: core.TestAcceptedValues,
				query: fmt.Sprintf(
					"SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND %s NOT IN (%s)",
					qualified, av.Column, av.Column, quoteList(av.Values)),
			})
		}
		if tc.RowCount != nil {
			checks = append(checks, check{
				name: "row_count",
				kind: core.TestRowCount,
				rc:   tc.RowCount,
			})
		}
	}
	return checks
}

// quoteList renders values as a SQL string list, doubling embedded
// quotes.
func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return strings.Join(quoted, ", ")
}
