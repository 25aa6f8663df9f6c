// Package history keeps a sqlite record of compiler runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store implements ports.HistoryStore.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when watch mode and a manual
	// compile share the database.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun inserts or replaces a run together with its artifacts.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	inputs := run.Inputs
	if inputs == nil {
		inputs = []string{}
	}
	rawInputs, err := json.Marshal(inputs)
	if err != nil {
		return fmt.Errorf("encode run inputs: %w", err)
	}

	return s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		id := run.ID.String()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (run_id, started_at_utc, duration_ms, inputs, exit_code, error_count, warning_count)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  started_at_utc=excluded.started_at_utc,
  duration_ms=excluded.duration_ms,
  inputs=excluded.inputs,
  exit_code=excluded.exit_code,
  error_count=excluded.error_count,
  warning_count=excluded.warning_count
`, id, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Duration.Milliseconds(), string(rawInputs),
			run.ExitCode, run.Errors, run.Warnings); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE run_id = ?`, id); err != nil {
			_ = tx.Rollback()
			return err
		}
		for i, a := range run.Artifacts {
			if _, err := tx.ExecContext(ctx, `INSERT INTO artifacts (run_id, seq, kind, path, error) VALUES (?, ?, ?, ?, ?)`,
				id, i, a.Kind, a.Path, a.Err); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// LoadRuns returns runs started at or after since, oldest first. A positive
// limit keeps only the most recent runs.
func (s *Store) LoadRuns(ctx context.Context, since time.Time, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT run_id, started_at_utc, duration_ms, inputs, exit_code, error_count, warning_count FROM runs`
	args := make([]any, 0, 2)
	if !since.IsZero() {
		query += " WHERE started_at_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY started_at_utc DESC, run_id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			idRaw, tsRaw, inputsRaw string
			durationMS              int64
			run                     Run
		)
		if err := rows.Scan(&idRaw, &tsRaw, &durationMS, &inputsRaw, &run.ExitCode, &run.Errors, &run.Warnings); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		if run.ID, err = uuid.Parse(idRaw); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", idRaw, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.StartedAt = ts.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(inputsRaw), &run.Inputs); err != nil {
			return nil, fmt.Errorf("decode run inputs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	rows.Close()

	for i := range runs {
		artifacts, err := s.loadArtifacts(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Artifacts = artifacts
	}
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return runs, nil
}

func (s *Store) loadArtifacts(ctx context.Context, id uuid.UUID) ([]Artifact, error) {
	var rows *sql.Rows
	err := s.withRetry("load artifacts", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `SELECT kind, path, error FROM artifacts WHERE run_id = ? ORDER BY seq`, id.String())
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Kind, &a.Path, &a.Err); err != nil {
			return nil, fmt.Errorf("scan artifact row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifact rows: %w", err)
	}
	return out, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
