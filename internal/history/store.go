// Package history keeps a record of past runs in MySQL.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"scriptunit/internal/domain"
)

// Run is one recorded test run
type Run struct {
	RunID           string
	FinishedAt      time.Time
	Files           int
	FailedFiles     int
	Passed          int
	Failed          int
	Errors          int
	Ignored         int
	DurationSeconds float64
}

// Success reports whether the run had no failing file
func (r Run) Success() bool {
	return r.FailedFiles == 0
}

// Recorder stores and lists runs
type Recorder interface {
	Record(ctx context.Context, output *domain.TestResultsOutput) error
	Recent(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// Store is the MySQL Recorder
type Store struct {
	db *sql.DB
}

var schema = []string{
	"CREATE TABLE IF NOT EXISTS scriptunit_runs (" +
		"run_id CHAR(36) NOT NULL PRIMARY KEY," +
		"finished_at DATETIME NOT NULL," +
		"files INT NOT NULL," +
		"failed_files INT NOT NULL," +
		"passed INT NOT NULL," +
		"failed INT NOT NULL," +
		"errors INT NOT NULL," +
		"ignored INT NOT NULL," +
		"duration_seconds DOUBLE NOT NULL)",
	"CREATE TABLE IF NOT EXISTS scriptunit_failures (" +
		"id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
		"run_id CHAR(36) NOT NULL," +
		"file_path VARCHAR(1024) NOT NULL," +
		"suite_name VARCHAR(255) NOT NULL," +
		"test_name VARCHAR(255) NOT NULL," +
		"status VARCHAR(16) NOT NULL," +
		"message TEXT NOT NULL," +
		"INDEX idx_failures_run (run_id))",
}

// Open connects to MySQL and creates the history tables if needed
func Open(ctx context.Context, dsn string) (*Store, error) {
	dsn, err := normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	for _, statement := range schema {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create history tables: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Record stores a run summary and its failures in one transaction
func (s *Store) Record(ctx context.Context, output *domain.TestResultsOutput) error {
	run, err := runFromOutput(output)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO scriptunit_runs (run_id, finished_at, files, failed_files, passed, failed, errors, ignored, duration_seconds) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.RunID, run.FinishedAt, run.Files, run.FailedFiles, run.Passed, run.Failed, run.Errors, run.Ignored, run.DurationSeconds)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}

	for _, failure := range output.Details {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO scriptunit_failures (run_id, file_path, suite_name, test_name, status, message) VALUES (?, ?, ?, ?, ?, ?)",
			run.RunID, failure.FilePath, failure.SuiteName, failure.TestName, string(failure.Status), failure.Message)
		if err != nil {
			return fmt.Errorf("insert failure %s: %w", failure.TestName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 1
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, finished_at, files, failed_files, passed, failed, errors, ignored, duration_seconds FROM scriptunit_runs ORDER BY finished_at DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.FinishedAt, &r.Files, &r.FailedFiles, &r.Passed, &r.Failed, &r.Errors, &r.Ignored, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func runFromOutput(output *domain.TestResultsOutput) (Run, error) {
	meta := output.Meta
	if meta.RunID == "" {
		return Run{}, fmt.Errorf("run has no id")
	}
	finishedAt, err := time.Parse(time.RFC3339, meta.Timestamp)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: invalid timestamp %q: %w", meta.RunID, meta.Timestamp, err)
	}

	return Run{
		RunID:           meta.RunID,
		FinishedAt:      finishedAt.UTC(),
		Files:           meta.TotalTestFiles,
		FailedFiles:     meta.FailedTestFiles,
		Passed:          meta.PassedTestCases,
		Failed:          meta.FailedTestCases,
		Errors:          meta.ErrorTestCases,
		Ignored:         meta.IgnoredCases,
		DurationSeconds: meta.DurationSeconds,
	}, nil
}
