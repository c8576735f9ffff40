// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/typewarrior/typewarrior/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for test results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			class TEXT NOT NULL,
			wpm INTEGER NOT NULL,
			raw_wpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			max_combo INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS result_samples (
			result_id INTEGER NOT NULL,
			elapsed_seconds INTEGER NOT NULL,
			net_wpm INTEGER NOT NULL,
			raw_wpm INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			PRIMARY KEY (result_id, elapsed_seconds)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_ended_at ON results(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertResult stores a completed test and its per-second samples.
func (s *Store) InsertResult(ctx context.Context, result model.TestResult, samples []model.MetricSample) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO results (started_at, ended_at, mode, class, wpm, raw_wpm, accuracy, errors, max_combo, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.StartedAt.Format(time.RFC3339Nano),
		result.EndedAt.Format(time.RFC3339Nano),
		string(result.Mode),
		result.Class,
		result.WPM,
		result.RawWPM,
		result.Accuracy,
		result.Errors,
		result.MaxCombo,
		result.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(samples) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO result_samples (result_id, elapsed_seconds, net_wpm, raw_wpm, errors)
			 VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, sample := range samples {
			if _, err := stmt.ExecContext(ctx, id, sample.ElapsedSeconds, sample.NetWPM, sample.RawWPM, sample.Errors); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListResults returns completed tests matching the filter, oldest first.
func (s *Store) ListResults(ctx context.Context, filter model.StatsFilter) ([]model.TestResult, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, filter.Mode)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT started_at, ended_at, mode, class, wpm, raw_wpm, accuracy, errors, max_combo, duration_ms
		FROM results
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []model.TestResult
	for rows.Next() {
		var r model.TestResult
		var startedAt, endedAt, mode string
		if err := rows.Scan(&startedAt, &endedAt, &mode, &r.Class, &r.WPM, &r.RawWPM, &r.Accuracy, &r.Errors, &r.MaxCombo, &r.DurationMs); err != nil {
			return nil, err
		}
		r.Mode = model.Mode(mode)
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if r.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(results) > filter.Last {
		results = results[len(results)-filter.Last:]
	}
	return results, nil
}

// ListSamples returns the per-second timeseries of one stored result.
func (s *Store) ListSamples(ctx context.Context, resultID int64) ([]model.MetricSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT elapsed_seconds, net_wpm, raw_wpm, errors
		 FROM result_samples
		 WHERE result_id = ?
		 ORDER BY elapsed_seconds ASC`, resultID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var samples []model.MetricSample
	for rows.Next() {
		var sample model.MetricSample
		if err := rows.Scan(&sample.ElapsedSeconds, &sample.NetWPM, &sample.RawWPM, &sample.Errors); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
