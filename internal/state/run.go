package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/synthmerge/synthbench/internal/backtest"
)

// ErrRunNotFound is returned when a run with the given ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded backtest run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	RepoPath   string
	ConfigPath string
	Summary    backtest.Summary
}

// SuccessRate mirrors the summary's rate for display.
func (r *Run) SuccessRate() (float64, bool) {
	return r.Summary.SuccessRate()
}

// RecordRun stores a finished run and its per-scenario outcomes in one
// transaction and returns the new run ID.
func (db *DB) RecordRun(run *Run, outcomes []backtest.Outcome) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (
			started_at, finished_at, repo_path, config_path,
			total, no_conflict, resolved, failed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.RepoPath,
		run.ConfigPath,
		run.Summary.Total,
		run.Summary.NoConflict,
		run.Summary.Resolved,
		run.Summary.Failed,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for i, out := range outcomes {
		_, err := tx.Exec(`
			INSERT INTO scenario_results (
				run_id, position, commit_hash, upstream_hash, verdict, diagnostic
			) VALUES (?, ?, ?, ?, ?, ?)`,
			runID,
			i,
			out.Scenario.Commit,
			out.Scenario.Upstream,
			out.Verdict.String(),
			nullString(out.Diagnostic),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert scenario result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = runID
	return runID, nil
}

// ListRuns returns all recorded runs, newest first.
func (db *DB) ListRuns() ([]*Run, error) {
	rows, err := db.Query(`
		SELECT id, started_at, finished_at, repo_path, config_path,
		       total, no_conflict, resolved, failed
		FROM runs
		ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetRun retrieves a single run by ID.
func (db *DB) GetRun(id int64) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, started_at, finished_at, repo_path, config_path,
		       total, no_conflict, resolved, failed
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListResults returns the per-scenario outcomes of a run in test order.
func (db *DB) ListResults(runID int64) ([]backtest.Outcome, error) {
	rows, err := db.Query(`
		SELECT commit_hash, upstream_hash, verdict, diagnostic
		FROM scenario_results
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var outcomes []backtest.Outcome
	for rows.Next() {
		var out backtest.Outcome
		var verdict string
		var diagnostic sql.NullString

		if err := rows.Scan(&out.Scenario.Commit, &out.Scenario.Upstream, &verdict, &diagnostic); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		out.Verdict, err = backtest.ParseVerdict(verdict)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored verdict: %w", err)
		}
		out.Diagnostic = diagnostic.String
		outcomes = append(outcomes, out)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return outcomes, nil
}

// scanner is an interface for sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a row into a Run struct.
func scanRun(s scanner) (*Run, error) {
	var run Run
	var startedAt, finishedAt string

	err := s.Scan(
		&run.ID,
		&startedAt,
		&finishedAt,
		&run.RepoPath,
		&run.ConfigPath,
		&run.Summary.Total,
		&run.Summary.NoConflict,
		&run.Summary.Resolved,
		&run.Summary.Failed,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	run.FinishedAt, err = time.Parse(time.RFC3339, finishedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid finished_at %q: %w", finishedAt, err)
	}

	return &run, nil
}

// nullString converts an empty string to a NULL-able value.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
