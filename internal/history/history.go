// Package history records completed migrations in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wizzomafizzo/qflow-migrate/internal/rewrite"
	_ "modernc.org/sqlite"
)

// Record is one completed migration.
type Record struct {
	CreatedAt    time.Time
	ProjectPath  string
	Replacements rewrite.Rules
	ID           int64
	Rewritten    int
	Failed       int
}

// Recorder persists migration records.
type Recorder interface {
	Record(ctx context.Context, rec Record) (int64, error)
}

var _ Recorder = (*Store)(nil)

// Store is a SQLite-backed Recorder.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the history database at dbPath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{db: db, now: time.Now}
	if err := store.runMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run schema migration: %w", err)
	}

	return store, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}

// Record stores rec and returns its id. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, rec Record) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO runs (project_path, rewritten, failed, created_at) VALUES (?, ?, ?, ?)",
		rec.ProjectPath, rec.Rewritten, rec.Failed, rec.CreatedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for i, r := range rec.Replacements {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO replacements (run_id, position, old_text, new_text) VALUES (?, ?, ?, ?)",
			id, i, r.Old, r.New)
		if err != nil {
			return 0, fmt.Errorf("failed to insert replacement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// List returns recorded runs, newest first. An empty projectPath lists all
// projects; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, projectPath string, limit int) ([]Record, error) {
	query := "SELECT id, project_path, rewritten, failed, created_at FROM runs"
	var args []any
	if projectPath != "" {
		query += " WHERE project_path = ?"
		args = append(args, projectPath)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var rec Record
		var created int64
		if err := rows.Scan(&rec.ID, &rec.ProjectPath, &rec.Rewritten, &rec.Failed, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.CreatedAt = time.Unix(created, 0)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	for i := range records {
		replacements, err := s.replacements(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Replacements = replacements
	}

	return records, nil
}

func (s *Store) replacements(ctx context.Context, runID int64) (rewrite.Rules, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT old_text, new_text FROM replacements WHERE run_id = ? ORDER BY position", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query replacements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules rewrite.Rules
	for rows.Next() {
		var r rewrite.Rule
		if err := rows.Scan(&r.Old, &r.New); err != nil {
			return nil, fmt.Errorf("failed to scan replacement: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate replacements: %w", err)
	}
	return rules, nil
}
