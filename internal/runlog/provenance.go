package runlog

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-warning
// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// LogWarning appends a warning to an existing run.
func LogWarning(db execer, w Warning) error {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO run_warnings (run_id, message, created_at) VALUES (?, ?, ?)`,
		w.RunID, w.Message, w.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log warning: %w", err)
	}
	return nil
}

// #endregion log-warning

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
