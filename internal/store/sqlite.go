package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cecilia-mis/trends-cli/internal/trend"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scored_runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	config_hash TEXT NOT NULL,
	records     INTEGER NOT NULL,
	rows        TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scored_runs_source ON scored_runs(source);
CREATE INDEX IF NOT EXISTS idx_scored_runs_created_at ON scored_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	rowsJSON, err := json.Marshal(run.Rows)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal rows")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scored_runs (id, source, config_hash, records, rows, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.ConfigHash, run.Records, string(rowsJSON), run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	var rowsJSON, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, config_hash, records, rows, created_at FROM scored_runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Source, &run.ConfigHash, &run.Records, &rowsJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse created_at for %s", id)
	}
	var rows []trend.Record
	if err := json.Unmarshal([]byte(rowsJSON), &rows); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal rows for %s", id)
	}
	run.Rows = rows
	return &run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, source, config_hash, records, created_at FROM scored_runs`
	var args []any
	if filter.Source != "" {
		query += ` WHERE source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &run.Source, &run.ConfigHash, &run.Records, &createdAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: parse created_at")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}
