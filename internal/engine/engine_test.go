package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architadhande/queryverse-data-platform/internal/catalog"
	"github.com/architadhande/queryverse-data-platform/internal/config"
	"github.com/architadhande/queryverse-data-platform/internal/gate"
	"github.com/architadhande/queryverse-data-platform/internal/ingest"
	"github.com/architadhande/queryverse-data-platform/internal/parser"
	"github.com/architadhande/queryverse-data-platform/internal/state"
	"github.com/architadhande/queryverse-data-platform/pkg/adapter"
	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// fakeAdapter records statements and serves canned counts, standing in
// for the analytical engine.
type fakeAdapter struct {
	mu     sync.Mutex
	execs  []string
	counts map[string]int64 // substring match against the count query
	failOn []string         // Exec fails when the SQL contains any of these
	rowsDB func(ctx context.Context, sql string) (*adapter.Rows, error)
	meta   map[string]*core.TableMetadata
}

func (f *fakeAdapter) Connect(context.Context, adapter.Config) error { return nil }
func (f *fakeAdapter) Close() error                                  { return nil }
func (f *fakeAdapter) Ping(context.Context) error                    { return nil }

func (f *fakeAdapter) Exec(_ context.Context, sql string, _ ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, bad := range f.failOn {
		if strings.Contains(sql, bad) {
			return fmt.Errorf("forced failure on %q", bad)
		}
	}
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeAdapter) QueryRows(ctx context.Context, sql string, _ ...any) (*adapter.Rows, error) {
	if f.rowsDB == nil {
		return nil, fmt.Errorf("no rows configured")
	}
	return f.rowsDB(ctx, sql)
}

func (f *fakeAdapter) QueryCount(_ context.Context, sql string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for substr, n := range f.counts {
		if strings.Contains(sql, substr) {
			return n, nil
		}
	}
	return 0, nil
}

func (f *fakeAdapter) GetTableMetadata(_ context.Context, table string) (*core.TableMetadata, error) {
	if m, ok := f.meta[table]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("no metadata for %s", table)
}

func (f *fakeAdapter) Begin(context.Context) (adapter.Tx, error) {
	return &fakeTx{parent: f}, nil
}

type fakeTx struct {
	parent *fakeAdapter
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) error {
	return t.parent.Exec(ctx, sql, args...)
}

func (t *fakeTx) Commit() error   { return nil }
func (t *fakeTx) Rollback() error { return nil }

func (f *fakeAdapter) executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.execs...)
}

func testEngine(t *testing.T, db adapter.Adapter) *Engine {
	t.Helper()
	cfg := &config.Config{
		ModelsDir: t.TempDir(),
		StatePath: filepath.Join(t.TempDir(), "state.db"),
		Target:    &config.TargetConfig{Type: "duckdb", Database: "test.duckdb"},
		Ingest: config.IngestConfig{
			SampleRows:     100,
			AttemptTimeout: 5 * time.Second,
			ReplacePolicy:  core.ReplaceAlways,
		},
		Run:   config.RunConfig{ModelTimeout: time.Minute},
		Query: config.QueryConfig{MaxRows: 1000, Timeout: 10 * time.Second, MaxConcurrent: 8},
	}

	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(cfg.StatePath))
	t.Cleanup(func() { store.Close() })

	return &Engine{
		cfg:       cfg,
		db:        db,
		catalog:   catalog.New(store, nil),
		store:     store,
		gate:      gate.New(8),
		parser:    parser.New(nil),
		logger:    slog.New(slog.DiscardHandler),
		connected: true,
	}
}

func writeModel(t *testing.T, e *Engine, rel, content string) {
	t.Helper()
	path := filepath.Join(e.cfg.ModelsDir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func registerRaw(t *testing.T, e *Engine, name string) {
	t.Helper()
	require.NoError(t, e.catalog.Register(&core.RawTable{Name: name, IngestedAt: time.Now().UTC()}))
}

func TestRunBuildsModelsInDependencyOrder(t *testing.T) {
	db := &fakeAdapter{}
	e := testEngine(t, db)
	registerRaw(t, e, "raw.orders")

	writeModel(t, e, "staging/stg_orders.sql",
		"select * from {{ ref('raw.orders') }}\n")
	writeModel(t, e, "marts/daily.sql",
		"/*---\nmaterialized: table\n---*/\nselect count(*) n from {{ ref('stg_orders') }}\n")

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusSucceeded, run.Status)
	require.NotNil(t, run.CompletedAt)
	require.Len(t, run.Models, 2)
	assert.Equal(t, "staging.stg_orders", run.Models[0].ModelPath)
	assert.Equal(t, "marts.daily", run.Models[1].ModelPath)

	// Ref markers were spliced with physical names.
	execs := strings.Join(db.executed(), "\n")
	assert.Contains(t, execs, "CREATE OR REPLACE VIEW staging.stg_orders AS\nselect * from raw.orders")
	assert.Contains(t, execs, "CREATE OR REPLACE TABLE marts.daily AS\nselect count(*) n from staging.stg_orders")
	assert.Contains(t, execs, "CREATE SCHEMA IF NOT EXISTS staging")

	// Catalog and lineage were updated.
	entry, err := e.catalog.Lookup("marts.daily")
	require.NoError(t, err)
	assert.Equal(t, "model", entry.EntryKind())
	assert.Equal(t, []string{"staging.stg_orders"}, e.catalog.Upstream("marts.daily"))

	// The sealed run was persisted.
	history, err := e.RunHistory(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, run.ID, history[0].ID)
}

func TestRunSkipsTransitiveDependentsOnFailure(t *testing.T) {
	db := &fakeAdapter{failOn: []string{"staging.stg_orders"}}
	e := testEngine(t, db)
	registerRaw(t, e, "raw.orders")
	registerRaw(t, e, "raw.refunds")

	writeModel(t, e, "staging/stg_orders.sql", "select * from {{ ref('raw.orders') }}\n")
	writeModel(t, e, "marts/daily.sql", "select * from {{ ref('stg_orders') }}\n")
	writeModel(t, e, "staging/stg_refunds.sql", "select * from {{ ref('raw.refunds') }}\n")

	run, err := e.Run(context.Background())
	require.NoError(t, err)

	byPath := make(map[string]core.ModelRunStatus)
	for _, mr := range run.Models {
		byPath[mr.ModelPath] = mr.Status
	}
	assert.Equal(t, core.ModelRunStatusFailedExecution, byPath["staging.stg_orders"])
	assert.Equal(t, core.ModelRunStatusSkipped, byPath["marts.daily"])
	// The independent branch still ran.
	assert.Equal(t, core.ModelRunStatusSucceeded, byPath["staging.stg_refunds"])
	assert.Equal(t, core.RunStatusPartiallyFailed, run.Status)
}

func TestRunFailedWhenNothingSucceeds(t *testing.T) {
	db := &fakeAdapter{failOn: []string{"CREATE OR REPLACE VIEW"}}
	e := testEngine(t, db)
	registerRaw(t, e, "raw.orders")
	writeModel(t, e, "staging/stg_orders.sql", "select * from {{ ref('raw.orders') }}\n")

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, run.Status)
	assert.NotEmpty(t, run.Models[0].Error)
}

func TestRunGraphErrorsAbortBeforeExecution(t *testing.T) {
	t.Run("unresolved reference", func(t *testing.T) {
		db := &fakeAdapter{}
		e := testEngine(t, db)
		writeModel(t, e, "staging/stg_orders.sql", "select * from {{ ref('raw.missing') }}\n")

		_, err := e.Run(context.Background())
		var ur *core.UnresolvedReferenceError
		require.ErrorAs(t, err, &ur)
		assert.Equal(t, "raw.missing", ur.Ref)
		assert.Empty(t, db.executed())
	})

	t.Run("cycle", func(t *testing.T) {
		db := &fakeAdapter{}
		e := testEngine(t, db)
		writeModel(t, e, "staging/a.sql", "select * from {{ ref('b') }}\n")
		writeModel(t, e, "staging/b.sql", "select * from {{ ref('a') }}\n")

		_, err := e.Run(context.Background())
		var cyc *core.CyclicDependencyError
		require.ErrorAs(t, err, &cyc)
		assert.Empty(t, db.executed())
	})

	t.Run("no run persisted", func(t *testing.T) {
		db := &fakeAdapter{}
		e := testEngine(t, db)
		writeModel(t, e, "staging/bad.sql", "select * from {{ ref('nope') }}\n")

		_, err := e.Run(context.Background())
		require.Error(t, err)
		history, err := e.RunHistory(context.Background(), 5)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestRunSelectorLimitsToUpstreamClosure(t *testing.T) {
	db := &fakeAdapter{}
	e := testEngine(t, db)
	registerRaw(t, e, "raw.orders")
	registerRaw(t, e, "raw.refunds")

	writeModel(t, e, "staging/stg_orders.sql", "select * from {{ ref('raw.orders') }}\n")
	writeModel(t, e, "marts/daily.sql", "select * from {{ ref('stg_orders') }}\n")
	writeModel(t, e, "staging/stg_refunds.sql", "select * from {{ ref('raw.refunds') }}\n")

	run, err := e.Run(context.Background(), "daily")
	require.NoError(t, err)
	require.Len(t, run.Models, 2)
	assert.Equal(t, "staging.stg_orders", run.Models[0].ModelPath)
	assert.Equal(t, "marts.daily", run.Models[1].ModelPath)

	_, err = e.Run(context.Background(), "unknown_model")
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRunFailedTestsKeepMaterialization(t *testing.T) {
	db := &fakeAdapter{counts: map[string]int64{"IS NULL": 3}}
	e := testEngine(t, db)
	registerRaw(t, e, "raw.orders")

	writeModel(t, e, "staging/stg_orders.sql", `/*---
tests:
  - not_null: [order_id]
    unique: [order_id]
---*/
select * from {{ ref('raw.orders') }}
`)

	run, err := e.Run(context.Background())
	require.NoError(t, err)

	mr := run.Models[0]
	assert.Equal(t, core.ModelRunStatusFailedTests, mr.Status)
	require.Len(t, mr.Tests, 2)
	assert.False(t, mr.Tests[0].Passed)
	assert.Equal(t, int64(3), mr.Tests[0].FailingRows)
	assert.True(t, mr.Tests[1].Passed)

	// The view exists and the model is still cataloged.
	assert.True(t, e.catalog.Has("staging.stg_orders"))
	assert.Equal(t, core.RunStatusPartiallyFailed, run.Status)
}

func TestRunCancelledBetweenBoundaries(t *testing.T) {
	db := &fakeAdapter{}
	e := testEngine(t, db)
	registerRaw(t, e, "raw.orders")
	writeModel(t, e, "staging/stg_orders.sql", "select * from {{ ref('raw.orders') }}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx)
	// The write gate refuses a dead context before anything starts.
	require.Error(t, err)
	assert.Empty(t, db.executed())
}

func TestRunRepeatedSelectorIsIdempotent(t *testing.T) {
	db := &fakeAdapter{counts: map[string]int64{"marts.daily": 7}}
	e := testEngine(t, db)
	registerRaw(t, e, "raw.orders")

	writeModel(t, e, "staging/stg_orders.sql",
		"select * from {{ ref('raw.orders') }}\n")
	writeModel(t, e, "marts/daily.sql",
		"/*---\nmaterialized: table\n---*/\nselect count(*) n from {{ ref('stg_orders') }}\n")

	first, err := e.Run(context.Background(), "daily")
	require.NoError(t, err)
	second, err := e.Run(context.Background(), "daily")
	require.NoError(t, err)

	require.Len(t, first.Models, 2)
	require.Len(t, second.Models, len(first.Models))
	for i := range first.Models {
		assert.Equal(t, first.Models[i].ModelPath, second.Models[i].ModelPath)
		assert.Equal(t, first.Models[i].RowCount, second.Models[i].RowCount)
		assert.Equal(t, core.ModelRunStatusSucceeded, second.Models[i].Status)
	}
	assert.Equal(t, int64(7), second.Models[1].RowCount)
}

func TestIngestThreadsDeclaredDelimiterAndTarget(t *testing.T) {
	db := &fakeAdapter{}
	e := testEngine(t, db)

	// A declared delimiter makes the strict strategy parse pipes
	// directly; without it the sniffer would have handled this file.
	table, err := e.Ingest(context.Background(), "pipe.txt",
		[]byte("id|name\n1|a\n2|b\n"), core.FormatDelimited,
		ingest.Options{TargetName: "pipe", Delimiter: '|'})
	require.NoError(t, err)

	assert.Equal(t, "raw.pipe", table.Name)
	assert.Equal(t, "strict", table.Strategy)
	require.Len(t, table.Columns, 2)
	assert.True(t, e.catalog.Has("raw.pipe"))
}

func TestDescribeReportsEngineSchema(t *testing.T) {
	db := &fakeAdapter{meta: map[string]*core.TableMetadata{
		"raw.orders": {
			Schema:   "raw",
			Name:     "orders",
			RowCount: 2,
			Columns: []core.EngineColumn{
				{Name: "id", Type: "BIGINT", Position: 1},
				{Name: "amount", Type: "DOUBLE", Nullable: true, Position: 2},
			},
		},
	}}
	e := testEngine(t, db)
	registerRaw(t, e, "raw.orders")

	meta, err := e.Describe(context.Background(), "raw.orders")
	require.NoError(t, err)
	assert.Equal(t, "raw", meta.Schema)
	assert.Equal(t, int64(2), meta.RowCount)
	require.Len(t, meta.Columns, 2)
	assert.Equal(t, "amount", meta.Columns[1].Name)

	_, err = e.Describe(context.Background(), "raw.missing")
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestExpandTests(t *testing.T) {
	model := &core.Model{
		Name:      "stg_orders",
		Namespace: "staging",
		Tests: []core.TestConfig{{
			NotNull: []string{"id"},
			Unique:  []string{"id"},
			AcceptedValues: &core.AcceptedValuesConfig{
				Column: "status",
				Values: []string{"open", "o'brien"},
			},
			RowCount: &core.RowCountConfig{Min: 1},
		}},
	}

	checks := expandTests(model)
	require.Len(t, checks, 4)
	assert.Contains(t, checks[0].query, "WHERE id IS NULL")
	assert.Contains(t, checks[1].query, "HAVING COUNT(*) > 1")
	// Embedded quotes are doubled.
	assert.Contains(t, checks[2].query, "'o''brien'")
	assert.Equal(t, core.TestRowCount, checks[3].kind)
}

func TestOverallStatus(t *testing.T) {
	mk := func(statuses ...core.ModelRunStatus) []*core.ModelRun {
		out := make([]*core.ModelRun, len(statuses))
		for i, s := range statuses {
			out[i] = &core.ModelRun{Status: s}
		}
		return out
	}

	assert.Equal(t, core.RunStatusSucceeded, overallStatus(nil))
	assert.Equal(t, core.RunStatusSucceeded,
		overallStatus(mk(core.ModelRunStatusSucceeded)))
	assert.Equal(t, core.RunStatusPartiallyFailed,
		overallStatus(mk(core.ModelRunStatusSucceeded, core.ModelRunStatusFailedExecution)))
	assert.Equal(t, core.RunStatusPartiallyFailed,
		overallStatus(mk(core.ModelRunStatusSucceeded, core.ModelRunStatusFailedTests)))
	// A model with failing tests still materialized, so the run is
	// partial, not failed.
	assert.Equal(t, core.RunStatusPartiallyFailed,
		overallStatus(mk(core.ModelRunStatusFailedTests)))
	assert.Equal(t, core.RunStatusFailed,
		overallStatus(mk(core.ModelRunStatusFailedExecution, core.ModelRunStatusSkipped)))
}

func TestBuildGraphAmbiguousBareRef(t *testing.T) {
	cat := catalog.New(nil, nil)
	models := []*core.Model{
		{Name: "x", Namespace: "staging", SQL: "select 1"},
		{Name: "x", Namespace: "marts", SQL: "select 2"},
		{Name: "y", Namespace: "marts", SQL: "select * from {{ ref('x') }}",
			Refs: []core.Ref{{Name: "x", Start: 14, End: 30}}},
	}

	_, err := BuildGraph(models, cat)
	var dup *core.DuplicateModelError
	require.ErrorAs(t, err, &dup)
}

func TestQueryRespectsRowLimit(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"id", "name"})
	for i := 1; i <= 5; i++ {
		rows.AddRow(i, fmt.Sprintf("row-%d", i))
	}
	mock.ExpectQuery("select * from raw.orders").WillReturnRows(rows)

	db := &fakeAdapter{rowsDB: func(ctx context.Context, sql string) (*adapter.Rows, error) {
		r, err := mockDB.QueryContext(ctx, sql)
		if err != nil {
			return nil, err
		}
		return &adapter.Rows{Rows: r}, nil
	}}
	e := testEngine(t, db)

	result, err := e.Query(context.Background(), "select * from raw.orders",
		core.QueryLimits{MaxRows: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, result.Columns)
	assert.Len(t, result.Rows, 3)
	assert.True(t, result.Truncated)
	// Byte slices come back as strings.
	assert.Equal(t, "row-1", result.Rows[0][1])
}

func TestAnalytics(t *testing.T) {
	e := testEngine(t, &fakeAdapter{})
	require.NoError(t, e.catalog.Register(&core.RawTable{Name: "raw.orders", RowCount: 100}))
	require.NoError(t, e.catalog.Register(&core.RawTable{Name: "raw.refunds", RowCount: 20}))
	require.NoError(t, e.catalog.Register(&core.ModelEntry{Name: "staging.stg_orders", RowCount: 95}))

	summary := e.Analytics()
	assert.Equal(t, 2, summary.RawTables)
	assert.Equal(t, 1, summary.Models)
	assert.Equal(t, int64(215), summary.TotalRows)
	assert.Equal(t, []string{"raw", "staging"}, summary.Namespaces)
}

func TestScaffold(t *testing.T) {
	e := testEngine(t, &fakeAdapter{})
	registerRaw(t, e, "raw.orders")

	path, err := e.Scaffold("raw.orders")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.cfg.ModelsDir, "staging", "stg_orders.sql"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "name: stg_orders")
	assert.Contains(t, string(content), "_loaded_at")
	assert.Contains(t, string(content), "{{ ref('raw.orders') }}")

	// The scaffolded file is itself a valid model.
	model, err := parser.New(nil).LoadFile(e.cfg.ModelsDir, path)
	require.NoError(t, err)
	assert.Equal(t, "staging.stg_orders", model.Path())
	require.Len(t, model.Refs, 1)
	assert.Equal(t, "raw.orders", model.Refs[0].Name)

	// Refuses to overwrite.
	_, err = e.Scaffold("raw.orders")
	require.Error(t, err)

	// Unknown table.
	_, err = e.Scaffold("raw.missing")
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
}
