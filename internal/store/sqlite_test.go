package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecilia-mis/trends-cli/internal/trend"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "trends.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRun(id, source string) *Run {
	return &Run{
		ID:         id,
		Source:     source,
		ConfigHash: "abc123",
		Records:    2,
		Rows: []trend.Record{
			{"keyword": "ai detector", "lewd_total_0_100": 97.0},
			{"keyword": "passport renewal", "lewd_total_0_100": 37.0},
		},
	}
}

func TestSQLiteSaveAndGetRun(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	run := sampleRun("run-1", "out/trends_20260831.csv")
	require.NoError(t, s.SaveRun(ctx, run))
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "out/trends_20260831.csv", got.Source)
	assert.Equal(t, "abc123", got.ConfigHash)
	assert.Equal(t, 2, got.Records)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "ai detector", got.Rows[0].String("keyword"))
	f, ok := got.Rows[0].Float("lewd_total_0_100")
	require.True(t, ok)
	assert.Equal(t, 97.0, f)
}

func TestSQLiteGetRun_NotFound(t *testing.T) {
	s := newSQLiteStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteListRuns(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, sampleRun("run-1", "a.csv")))
	require.NoError(t, s.SaveRun(ctx, sampleRun("run-2", "b.csv")))
	require.NoError(t, s.SaveRun(ctx, sampleRun("run-3", "a.csv")))

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	// Listing carries summaries only.
	assert.Nil(t, runs[0].Rows)

	runs, err = s.ListRuns(ctx, RunFilter{Source: "a.csv"})
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSQLiteSaveRun_DuplicateID(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, sampleRun("run-1", "a.csv")))
	err := s.SaveRun(ctx, sampleRun("run-1", "b.csv"))
	require.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	s, err := Open(context.Background(), "", filepath.Join(t.TempDir(), "trends.db"))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck
	assert.IsType(t, &SQLiteStore{}, s)
}
