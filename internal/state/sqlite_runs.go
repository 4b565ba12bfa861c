package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// SaveRun persists a sealed run, its model runs, and their test results
// in a single transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *core.Run) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var completedAt any
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.UTC()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at, completed_at, error) VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt.UTC(), completedAt, run.Error,
	); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for i, mr := range run.Models {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO model_runs (id, run_id, model_path, status, row_count, duration_ms, error, started_at, finished_at, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			mr.ID, run.ID, mr.ModelPath, string(mr.Status), mr.RowCount,
			mr.Duration.Milliseconds(), mr.Error, mr.StartedAt.UTC(), mr.FinishedAt.UTC(), i,
		); err != nil {
			return fmt.Errorf("failed to save model run %s: %w", mr.ModelPath, err)
		}

		for j, tr := range mr.Tests {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO test_results (model_run_id, name, kind, passed, failing_rows, detail, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				mr.ID, tr.Name, string(tr.Kind), tr.Passed, tr.FailingRows, tr.Detail, j,
			); err != nil {
				return fmt.Errorf("failed to save test result %s: %w", tr.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun loads one run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.Run{}
	var status string
	var completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, started_at, completed_at, error FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &status, &run.StartedAt, &completedAt, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Name: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.Status = core.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}

	if err := s.loadModelRuns(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, with their
// model runs and test results.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, started_at, completed_at, error FROM runs
		 ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*core.Run
	for rows.Next() {
		run := &core.Run{}
		var status string
		var completedAt sql.NullTime
		if err := rows.Scan(&run.ID, &status, &run.StartedAt, &completedAt, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Status = core.RunStatus(status)
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	for _, run := range runs {
		if err := s.loadModelRuns(ctx, run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *SQLiteStore) loadModelRuns(ctx context.Context, run *core.Run) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model_path, status, row_count, duration_ms, error, started_at, finished_at
		 FROM model_runs WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load model runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		mr := &core.ModelRun{RunID: run.ID}
		var status string
		var durationMS int64
		if err := rows.Scan(&mr.ID, &mr.ModelPath, &status, &mr.RowCount,
			&durationMS, &mr.Error, &mr.StartedAt, &mr.FinishedAt); err != nil {
			return fmt.Errorf("failed to scan model run: %w", err)
		}
		mr.Status = core.ModelRunStatus(status)
		mr.Duration = time.Duration(durationMS) * time.Millisecond
		run.Models = append(run.Models, mr)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate model runs: %w", err)
	}

	for _, mr := range run.Models {
		if err := s.loadTestResults(ctx, mr); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) loadTestResults(ctx context.Context, mr *core.ModelRun) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, kind, passed, failing_rows, detail
		 FROM test_results WHERE model_run_id = ? ORDER BY position`, mr.ID)
	if err != nil {
		return fmt.Errorf("failed to load test results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr core.TestResult
		var kind string
		if err := rows.Scan(&tr.Name, &kind, &tr.Passed, &tr.FailingRows, &tr.Detail); err != nil {
			return fmt.Errorf("failed to scan test result: %w", err)
		}
		tr.Kind = core.TestKind(kind)
		mr.Tests = append(mr.Tests, tr)
	}
	return rows.Err()
}
