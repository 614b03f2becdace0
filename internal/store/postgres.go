package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cecilia-mis/trends-cli/internal/trend"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scored_runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	config_hash TEXT NOT NULL,
	records     INTEGER NOT NULL,
	rows        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scored_runs_source ON scored_runs(source);
CREATE INDEX IF NOT EXISTS idx_scored_runs_created_at ON scored_runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	rowsJSON, err := json.Marshal(run.Rows)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal rows")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO scored_runs (id, source, config_hash, records, rows, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Source, run.ConfigHash, run.Records, rowsJSON, run.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert run %s", run.ID)
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	var rowsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, source, config_hash, records, rows, created_at FROM scored_runs WHERE id = $1`, id,
	).Scan(&run.ID, &run.Source, &run.ConfigHash, &run.Records, &rowsJSON, &run.CreatedAt)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: run %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	var rows []trend.Record
	if err := json.Unmarshal(rowsJSON, &rows); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal rows for %s", id)
	}
	run.Rows = rows
	return &run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, source, config_hash, records, created_at FROM scored_runs`
	var args []any
	if filter.Source != "" {
		query += ` WHERE source = $1`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Source, &run.ConfigHash, &run.Records, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
