// Package history keeps the final reports of past executions in SQLite.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/zerr"
	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultPath is the database location relative to the pipeline root.
const DefaultPath = ".drainage/history.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	execution_id TEXT PRIMARY KEY,
	pipeline     TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER NOT NULL,
	outcome      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_tasks (
	execution_id TEXT NOT NULL REFERENCES runs(execution_id) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	task_id      TEXT NOT NULL,
	state        TEXT NOT NULL,
	ran          INTEGER NOT NULL,
	duration_ms  INTEGER NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (execution_id, position)
);
`

var _ ports.HistoryStore = (*SQLiteStore)(nil)

// SQLiteStore implements ports.HistoryStore.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
// The caller is responsible for calling Close.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrHistoryOpenFailed, err.Error()), "path", path)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrHistoryOpenFailed, err.Error()), "path", path)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(domain.ErrHistoryOpenFailed, err.Error()), "path", path)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Record stores report, replacing an earlier record of the same execution.
func (s *SQLiteStore) Record(ctx context.Context, pipeline string, report *domain.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zerr.Wrap(domain.ErrHistoryWriteFailed, err.Error())
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_tasks WHERE execution_id = ?`, report.ExecutionID); err != nil {
		return writeError(err, report)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (execution_id, pipeline, started_at, finished_at, outcome)
		VALUES (?,?,?,?,?)`,
		report.ExecutionID, pipeline, report.Started.UnixNano(), report.Finished.UnixNano(), report.Outcome(),
	)
	if err != nil {
		return writeError(err, report)
	}

	for i, t := range report.Tasks {
		var msg string
		if t.Cause != nil {
			msg = t.Cause.Error()
		}
		ran := 0
		if t.Ran {
			ran = 1
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_tasks (execution_id, position, task_id, state, ran, duration_ms, error)
			VALUES (?,?,?,?,?,?,?)`,
			report.ExecutionID, i, t.ID.String(), t.State.String(), ran, t.Duration().Milliseconds(), msg,
		)
		if err != nil {
			return writeError(err, report)
		}
	}

	if err := tx.Commit(); err != nil {
		return writeError(err, report)
	}
	return nil
}

func writeError(err error, report *domain.Report) error {
	return zerr.With(zerr.Wrap(domain.ErrHistoryWriteFailed, err.Error()), "execution", report.ExecutionID)
}

// List returns up to limit summaries, newest first. A non-positive limit
// returns every run.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.execution_id, r.pipeline, r.started_at, r.finished_at, r.outcome,
		       COUNT(t.task_id),
		       COALESCE(GROUP_CONCAT(CASE WHEN t.state = 'Failed' THEN t.task_id END, ','), ''),
		       COALESCE(GROUP_CONCAT(CASE WHEN t.state = 'Canceled' THEN t.task_id END, ','), '')
		FROM runs r
		LEFT JOIN run_tasks t ON t.execution_id = r.execution_id
		GROUP BY r.execution_id
		ORDER BY r.started_at DESC, r.execution_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, zerr.Wrap(domain.ErrHistoryReadFailed, err.Error())
	}
	defer rows.Close()

	var out []domain.RunSummary
	for rows.Next() {
		var (
			sum               domain.RunSummary
			started, finished int64
			failed, canceled  string
		)
		if err := rows.Scan(&sum.ExecutionID, &sum.Pipeline, &started, &finished, &sum.Outcome,
			&sum.Tasks, &failed, &canceled); err != nil {
			return nil, zerr.Wrap(domain.ErrHistoryReadFailed, err.Error())
		}
		sum.Started = time.Unix(0, started)
		sum.Finished = time.Unix(0, finished)
		sum.Failed = splitList(failed)
		sum.Canceled = splitList(canceled)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(domain.ErrHistoryReadFailed, err.Error())
	}
	return out, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
