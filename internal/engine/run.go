package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/architadhande/queryverse-data-platform/internal/parser"
	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Run executes the transformation graph. selector optionally limits
// execution to the named models plus their upstream dependency closure.
// Graph errors (unresolved references, cycles, duplicates) abort before
// any model executes and no run is recorded. A model's execution
// failure skips its transitive dependents while independent branches
// continue; the sealed run is persisted before returning.
func (e *Engine) Run(ctx context.Context, selector ...string) (*core.Run, error) {
	release, err := e.gate.Write(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.ensureConnected(ctx); err != nil {
		return nil, err
	}

	models, err := e.parser.LoadDir(e.cfg.ModelsDir)
	if err != nil {
		return nil, err
	}

	build, err := BuildGraph(models, e.catalog)
	if err != nil {
		return nil, err
	}

	graph := build.Graph
	if len(selector) > 0 {
		keep, err := e.resolveSelector(build, selector)
		if err != nil {
			return nil, err
		}
		graph = graph.Subgraph(keep)
	}

	order, err := graph.TopoSort()
	if err != nil {
		return nil, err
	}

	run := &core.Run{
		ID:        uuid.New().String(),
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	e.logger.Info("run started", "run_id", run.ID, "models", len(order))

	skip := make(map[string]bool)
	cancelled := false
	for _, path := range order {
		// Cancellation is honored between model boundaries: the model
		// in flight finishes, the rest are skipped.
		if !cancelled && ctx.Err() != nil {
			cancelled = true
			run.Error = ctx.Err().Error()
		}

		model := build.Models[path]
		if cancelled || skip[path] {
			run.Models = append(run.Models, skippedModelRun(run.ID, path))
			continue
		}

		mr := e.executeModel(ctx, run.ID, model, build.Resolutions[path])
		run.Models = append(run.Models, mr)

		if mr.Status == core.ModelRunStatusFailedExecution {
			for dep := range graph.DependentsClosure(path) {
				skip[dep] = true
			}
		}
	}

	completed := time.Now().UTC()
	run.CompletedAt = &completed
	run.Status = overallStatus(run.Models)

	if err := e.store.SaveRun(ctx, run); err != nil {
		e.logger.Error("failed to persist run", "run_id", run.ID, "error", err)
	}

	e.logger.Info("run finished",
		"run_id", run.ID, "status", run.Status,
		"duration", completed.Sub(run.StartedAt).Round(time.Millisecond))
	return run, nil
}

// resolveSelector maps selector arguments (qualified paths or bare
// model names) to the upstream closure to execute.
func (e *Engine) resolveSelector(build *buildResult, selector []string) (map[string]bool, error) {
	var roots []string
	for _, sel := range selector {
		path, err := e.selectorPath(build, sel)
		if err != nil {
			return nil, err
		}
		roots = append(roots, path)
	}
	return build.Graph.UpstreamClosure(roots), nil
}

func (e *Engine) selectorPath(build *buildResult, sel string) (string, error) {
	if _, ok := build.Models[sel]; ok {
		return sel, nil
	}
	var match string
	for path, m := range build.Models {
		if m.Name != sel {
			continue
		}
		if match != "" {
			return "", &core.DuplicateModelError{Path: sel}
		}
		match = path
	}
	if match == "" {
		return "", &core.NotFoundError{Name: sel}
	}
	return match, nil
}

// executeModel materializes one model and evaluates its tests. A test
// failure never rolls back the materialization.
func (e *Engine) executeModel(ctx context.Context, runID string, model *core.Model, resolutions map[string]string) *core.ModelRun {
	mr := &core.ModelRun{
		ID:        uuid.New().String(),
		RunID:     runID,
		ModelPath: model.Path(),
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		mr.FinishedAt = time.Now().UTC()
		mr.Duration = mr.FinishedAt.Sub(mr.StartedAt)
	}()

	modelCtx := ctx
	if e.cfg.Run.ModelTimeout > 0 {
		var cancel context.CancelFunc
		modelCtx, cancel = context.WithTimeout(ctx, e.cfg.Run.ModelTimeout)
		defer cancel()
	}

	rendered := parser.Render(model.SQL, model.Refs, func(name string) string {
		return resolutions[name]
	})

	rowCount, err := e.materialize(modelCtx, model, rendered)
	if err != nil {
		mr.Status = core.ModelRunStatusFailedExecution
		mr.Error = executionError(model.Path(), modelCtx, mr.StartedAt, err).Error()
		e.logger.Error("model failed", "model", model.Path(), "error", mr.Error)
		return mr
	}
	mr.RowCount = rowCount

	mr.Tests = e.runTests(modelCtx, model)
	mr.Status = core.ModelRunStatusSucceeded
	for _, tr := range mr.Tests {
		if !tr.Passed {
			mr.Status = core.ModelRunStatusFailedTests
			break
		}
	}

	e.registerModel(model, rowCount, resolutions)

	e.logger.Info("model built",
		"model", model.Path(), "status", mr.Status,
		"rows", rowCount, "tests", len(mr.Tests))
	return mr
}

// registerModel records the materialization and its lineage in the
// catalog.
func (e *Engine) registerModel(model *core.Model, rowCount int64, resolutions map[string]string) {
	entry := &core.ModelEntry{
		Name:         model.Path(),
		Materialized: model.Materialized,
		RowCount:     rowCount,
		BuiltAt:      time.Now().UTC(),
	}
	if err := e.catalog.Register(entry); err != nil {
		e.logger.Error("failed to register model", "model", model.Path(), "error", err)
	}

	consumed := make([]string, 0, len(model.Refs))
	seen := make(map[string]bool)
	for _, ref := range model.Refs {
		q := resolutions[ref.Name]
		if !seen[q] {
			seen[q] = true
			consumed = append(consumed, q)
		}
	}
	if len(consumed) > 0 {
		if err := e.catalog.RecordLineage(model.Path(), consumed); err != nil {
			e.logger.Error("failed to record lineage", "model", model.Path(), "error", err)
		}
	}
}

// executionError classifies a materialization failure: deadline
// expiries become TimeoutError, everything else ExecutionFailure.
func executionError(path string, ctx context.Context, started time.Time, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &core.TimeoutError{
			Unit:    "model " + path,
			Elapsed: time.Since(started).Round(time.Millisecond).String(),
		}
	}
	var ee *core.ExecutionFailureError
	if errors.As(err, &ee) {
		return err
	}
	return &core.ExecutionFailureError{Model: path, Err: err}
}

func skippedModelRun(runID, path string) *core.ModelRun {
	now := time.Now().UTC()
	return &core.ModelRun{
		ID:         uuid.New().String(),
		RunID:      runID,
		ModelPath:  path,
		Status:     core.ModelRunStatusSkipped,
		StartedAt:  now,
		FinishedAt: now,
	}
}

// overallStatus derives the run status: succeeded only if every model
// succeeded outright; partially failed if at least one model
// materialized, which includes models whose tests failed since their
// data is kept; failed otherwise. An empty run is a success.
func overallStatus(models []*core.ModelRun) core.RunStatus {
	materialized, clean := 0, true
	for _, mr := range models {
		switch mr.Status {
		case core.ModelRunStatusSucceeded:
			materialized++
		case core.ModelRunStatusFailedTests:
			materialized++
			clean = false
		default:
			clean = false
		}
	}
	switch {
	case clean:
		return core.RunStatusSucceeded
	case materialized > 0:
		return core.RunStatusPartiallyFailed
	default:
		return core.RunStatusFailed
	}
}
