package history

import (
	"context"
	"database/sql"
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
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultBusyTimeout = 2 * time.Second
)

// Store is a SQLite-backed run history.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open creates or opens the history database at path. A zero busyTimeout
// uses the default.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
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

	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
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

// SaveRun stores a run and its violation entries in one transaction. An
// empty run ID is filled with a fresh UUID; the stored run is returned.
func (s *Store) SaveRun(ctx context.Context, run Run, entries []Entry) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.Project = projectKey(run.Project)
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.ViolationCount = len(entries)

	err := s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, project_key, started_at_utc, duration_ms, type_count, violation_count, notice_count, commit_hash)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.Project,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.Duration.Milliseconds(),
			run.TypeCount,
			run.ViolationCount,
			run.NoticeCount,
			run.CommitHash,
		); err != nil {
			_ = tx.Rollback()
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO violations (run_id, fingerprint, kind, element, origin, location, line, component, message)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, run.ID, e.Fingerprint, e.Kind, e.Element, e.Origin, e.Location, e.Line, e.Component, e.Message); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// LatestRun returns the most recent run of project other than exceptID.
// It returns nil without error when there is none.
func (s *Store) LatestRun(ctx context.Context, project, exceptID string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		run   Run
		tsRaw string
		durMS int64
	)
	err := s.withRetry("load latest run", func() error {
		return s.db.QueryRowContext(ctx, `
SELECT id, project_key, commit_hash, started_at_utc, duration_ms, type_count, violation_count, notice_count
FROM runs
WHERE project_key = ? AND id <> ?
ORDER BY started_at_utc DESC, created_at_utc DESC
LIMIT 1`, projectKey(project), exceptID).Scan(
			&run.ID, &run.Project, &run.CommitHash, &tsRaw, &durMS,
			&run.TypeCount, &run.ViolationCount, &run.NoticeCount,
		)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
	}
	run.StartedAt = ts.UTC()
	run.Duration = time.Duration(durMS) * time.Millisecond
	return &run, nil
}

// Entries loads the violation entries stored for a run.
func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load entries", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT fingerprint, kind, element, origin, location, line, component, message
FROM violations
WHERE run_id = ?
ORDER BY fingerprint ASC, line ASC`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Fingerprint, &e.Kind, &e.Element, &e.Origin, &e.Location, &e.Line, &e.Component, &e.Message); err != nil {
			return nil, fmt.Errorf("scan violation row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate violation rows: %w", err)
	}
	return entries, nil
}

// Baseline compares current against the most recent stored run of project
// other than currentID.
func (s *Store) Baseline(ctx context.Context, project, currentID string, current []Entry) (Diff, error) {
	prev, err := s.LatestRun(ctx, project, currentID)
	if err != nil {
		return Diff{}, err
	}
	if prev == nil {
		return Diff{New: append([]Entry(nil), current...)}, nil
	}
	old, err := s.Entries(ctx, prev.ID)
	if err != nil {
		return Diff{}, err
	}
	d := Compare(old, current)
	d.Baseline = prev
	return d, nil
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

func projectKey(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "default"
	}
	return p
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// IsCorruptError reports whether err looks like a damaged database file.
func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
