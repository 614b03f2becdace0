package trend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordString(t *testing.T) {
	rec := Record{"keyword": "ai detector", "days": 90, "score": 12.5, "nil": nil}

	assert.Equal(t, "ai detector", rec.String("keyword"))
	assert.Equal(t, "90", rec.String("days"))
	assert.Equal(t, "12.5", rec.String("score"))
	assert.Equal(t, "", rec.String("nil"))
	assert.Equal(t, "", rec.String("absent"))
}

func TestRecordFloat(t *testing.T) {
	rec := Record{
		"f64":  42.5,
		"int":  7,
		"str":  " 3.25 ",
		"bad":  "n/a",
		"none": nil,
	}

	f, ok := rec.Float("f64")
	assert.True(t, ok)
	assert.Equal(t, 42.5, f)

	f, ok = rec.Float("int")
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	f, ok = rec.Float("str")
	assert.True(t, ok)
	assert.Equal(t, 3.25, f)

	_, ok = rec.Float("bad")
	assert.False(t, ok)
	_, ok = rec.Float("none")
	assert.False(t, ok)
	_, ok = rec.Float("absent")
	assert.False(t, ok)
}

func TestLoadBatch(t *testing.T) {
	csv := `keyword,geo,days,avg_volume,growth_pct,last_value,buyer
ai detector,US,90,54.2,120.5,80,enterprise
passport renewal,US,90,33.1,-5,31,
`
	path := filepath.Join(t.TempDir(), "trends.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	batch, err := LoadBatch(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"keyword", "geo", "days", "avg_volume", "growth_pct", "last_value", "buyer"}, batch.Columns)
	require.Len(t, batch.Rows, 2)

	assert.Equal(t, "ai detector", batch.Rows[0].String("keyword"))
	f, ok := batch.Rows[0].Float("avg_volume")
	require.True(t, ok)
	assert.Equal(t, 54.2, f)
	assert.Equal(t, "enterprise", batch.Rows[0].String("buyer"))
	assert.Equal(t, "", batch.Rows[1].String("buyer"))
}

func TestLoadBatch_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trends.csv")
	require.NoError(t, os.WriteFile(path, []byte("keyword,geo\nai detector,US\n"), 0644))

	_, err := LoadBatch(path)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInputFormat))
	// Missing columns are reported sorted so the message is stable.
	assert.Contains(t, err.Error(), "avg_volume, days, growth_pct, last_value")
}

func TestLoadBatch_MissingFile(t *testing.T) {
	_, err := LoadBatch(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInputFormat))
}

func TestWriteBatch_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "trends.csv")

	batch := &Batch{
		Columns: []string{"keyword", "geo", "days", "avg_volume", "growth_pct", "last_value"},
		Rows: []Record{
			{"keyword": "ai detector", "geo": "US", "days": 90, "avg_volume": 54.2, "growth_pct": 120.5, "last_value": 80.0},
		},
	}
	require.NoError(t, WriteBatch(batch, path))

	loaded, err := LoadBatch(path)
	require.NoError(t, err)
	assert.Equal(t, batch.Columns, loaded.Columns)
	require.Len(t, loaded.Rows, 1)
	assert.Equal(t, "ai detector", loaded.Rows[0].String("keyword"))
	f, _ := loaded.Rows[0].Float("growth_pct")
	assert.Equal(t, 120.5, f)
}

func TestWriteBatch_DiscoversColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trends.csv")
	batch := &Batch{
		Rows: []Record{
			{"keyword": "a", "geo": "US", "days": 30, "avg_volume": 1.0, "growth_pct": 2.0, "last_value": 3.0, "zeta": "z", "alpha": "a"},
		},
	}
	require.NoError(t, WriteBatch(batch, path))

	loaded, err := LoadBatch(path)
	require.NoError(t, err)
	// Base columns lead; the rest follow alphabetically.
	assert.Equal(t, []string{"keyword", "geo", "days", "avg_volume", "growth_pct", "last_value", "alpha", "zeta"}, loaded.Columns)
}

func TestScoredOutputPath(t *testing.T) {
	// A dated input keeps its date.
	assert.Equal(t,
		filepath.Join("out", "trends_scored_20260815.csv"),
		ScoredOutputPath("data/trends_20260815.csv", "out"))

	// An undated input takes today's date.
	got := ScoredOutputPath("data/some_export.csv", "out")
	assert.Regexp(t, `trends_scored_\d{8}\.csv$`, got)
}

func TestCollectedOutputPath(t *testing.T) {
	got := CollectedOutputPath("out")
	assert.Regexp(t, `trends_\d{8}\.csv$`, got)
	assert.Equal(t, "out", filepath.Dir(got))
}
