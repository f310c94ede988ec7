// Package runlog persists analysis runs and their warnings in SQLite.
package runlog

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/tolstack/internal/domainerr"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	parent_id     TEXT,
	kind          TEXT NOT NULL,
	name          TEXT NOT NULL,
	seed          TEXT NOT NULL,
	disposition   TEXT NOT NULL,
	document_json TEXT,
	report_json   TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS runs_name_kind ON runs(name, kind, created_at);

CREATE TABLE IF NOT EXISTS run_warnings (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	message       TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region store
// Store manages recorded runs in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region save-run
// SaveRun inserts a run and its warnings atomically. An empty RunID gets a
// fresh UUID, a zero CreatedAt gets the current time, and ParentID is set
// to the latest earlier run with the same name and kind.
func (s *Store) SaveRun(rec Run, warnings []string) (Run, error) {
	if rec.RunID == "" {
		rec.RunID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	created := rec.CreatedAt.Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return Run{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parentID sql.NullString
	err = tx.QueryRow(
		`SELECT run_id FROM runs WHERE name = ? AND kind = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		rec.Name, rec.Kind,
	).Scan(&parentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("find parent: %w", err)
	}
	rec.ParentID = parentID.String

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, parent_id, kind, name, seed, disposition, document_json, report_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, nullIfEmpty(rec.ParentID), rec.Kind, rec.Name,
		strconv.FormatUint(rec.Seed, 10), rec.Disposition,
		nullIfEmpty(rec.DocumentJSON), nullIfEmpty(rec.ReportJSON), created,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	for _, w := range warnings {
		if err := LogWarning(tx, Warning{RunID: rec.RunID, Message: w, CreatedAt: rec.CreatedAt}); err != nil {
			return Run{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion save-run

// #region get-run
const runColumns = `run_id, parent_id, kind, name, seed, disposition, document_json, report_json, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var rec Run
	var parentID, docJSON, reportJSON sql.NullString
	var seed, createdStr string
	if err := row.Scan(&rec.RunID, &parentID, &rec.Kind, &rec.Name, &seed,
		&rec.Disposition, &docJSON, &reportJSON, &createdStr); err != nil {
		return Run{}, err
	}
	rec.ParentID = parentID.String
	rec.DocumentJSON = docJSON.String
	rec.ReportJSON = reportJSON.String
	rec.Seed, _ = strconv.ParseUint(seed, 10, 64)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// GetRun retrieves a run by ID. A missing run is a NOT_FOUND domain error.
func (s *Store) GetRun(id string) (Run, error) {
	rec, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, domainerr.WithMetadata(domainerr.CodeNotFound,
			fmt.Sprintf("run %s not found", id), map[string]string{"run_id": id})
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// #endregion list-runs

// #region warnings
// Warnings returns the warnings recorded for a run in insertion order.
func (s *Store) Warnings(runID string) ([]Warning, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, message, created_at FROM run_warnings WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	defer rows.Close()

	var out []Warning
	for rows.Next() {
		var w Warning
		var createdStr string
		if err := rows.Scan(&w.ID, &w.RunID, &w.Message, &createdStr); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		w.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, w)
	}
	return out, rows.Err()
}

// #endregion warnings
