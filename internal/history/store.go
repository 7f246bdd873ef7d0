// Package history records completed runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/srcflat/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed-width so started_at sorts correctly as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one recorded run
type Run struct {
	ID          string
	Root        string
	OutputDir   string
	Found       int
	Processed   int
	Collisions  int
	Failures    int
	FailedPaths []string
	DryRun      bool
	StartedAt   time.Time
	Duration    time.Duration
}

// Store manages the SQLite history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath.
// ":memory:" opens an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive across statements
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}

		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path
func (s *Store) Path() string {
	return s.dbPath
}

// Record stores a finished run
func (s *Store) Record(ctx context.Context, report *models.RunReport) error {
	if report == nil {
		return fmt.Errorf("record run: nil report")
	}

	failed := make([]string, 0)
	if report.Stats != nil {
		for _, f := range report.Stats.Failures {
			failed = append(failed, f.Path)
		}
	}
	failedJSON, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("marshal failed paths: %w", err)
	}

	query := `INSERT INTO runs
		(id, root, output_dir, found, processed, collisions, failures, failed_paths, dry_run, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		report.RunID,
		report.Root,
		report.OutputDir,
		report.Found,
		report.Processed(),
		report.Collisions(),
		len(failed),
		string(failedJSON),
		report.DryRun,
		report.StartedAt.UTC().Format(timeLayout),
		report.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. An empty root returns runs for every root.
func (s *Store) Recent(ctx context.Context, root string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT id, root, output_dir, found, processed, collisions, failures, failed_paths, dry_run, started_at, duration_ms
		FROM runs`
	args := []interface{}{}
	if root != "" {
		query += ` WHERE root = ?`
		args = append(args, root)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			failedJSON string
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&r.ID, &r.Root, &r.OutputDir, &r.Found, &r.Processed, &r.Collisions,
			&r.Failures, &failedJSON, &r.DryRun, &startedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(failedJSON), &r.FailedPaths); err != nil {
			return nil, fmt.Errorf("unmarshal failed paths for run %s: %w", r.ID, err)
		}
		r.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at for run %s: %w", r.ID, err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Count returns the number of recorded runs
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}
