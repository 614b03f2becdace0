// Package store persists scored trend runs. The scoring engine never
// reads stored runs back into scoring; this is output persistence and
// run history only.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/cecilia-mis/trends-cli/internal/trend"
)

// Run is one persisted scoring run: where the records came from, which
// configuration scored them, and the scored output rows.
type Run struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	ConfigHash string         `json:"config_hash"`
	Records    int            `json:"records"`
	Rows       []trend.Record `json:"rows,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Source string `json:"source,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for scored runs.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	// GetRun returns a run including its scored rows.
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns run summaries (no rows), newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Open builds a Store for the configured driver: "sqlite" with a file
// path, or "postgres" with a connection string.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
