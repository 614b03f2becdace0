package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecilia-mis/trends-cli/internal/scoring"
	"github.com/cecilia-mis/trends-cli/internal/trend"
)

func TestWritePreview(t *testing.T) {
	results := []scoring.ScoreResult{
		{
			Row:   trend.Record{"keyword": "ai contract review"},
			Large: 25, Early: 25, WhoPays: 25, Desperate: 22, Total: 97,
		},
		{
			Row:   trend.Record{"keyword": "passport renewal"},
			Large: 6.25, Early: 12.5, WhoPays: 8, Desperate: 10, Total: 37,
		},
	}

	var sb strings.Builder
	writePreview(&sb, results)
	out := sb.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "keyword")
	assert.Contains(t, lines[0], "lewd_total_0_100")
	assert.Contains(t, lines[2], "ai contract review")
	assert.Contains(t, lines[2], "97")
	assert.Contains(t, lines[3], "passport renewal")
	assert.Contains(t, lines[3], "6.25")
}

func TestWritePreview_Empty(t *testing.T) {
	var sb strings.Builder
	writePreview(&sb, nil)
	assert.Empty(t, sb.String())
}

func TestWritePreviewCSV(t *testing.T) {
	results := []scoring.ScoreResult{
		{
			Row:   trend.Record{"keyword": "ai contract review"},
			Large: 25, Early: 25, WhoPays: 25, Desperate: 22, Total: 97,
		},
	}

	var sb strings.Builder
	require.NoError(t, writePreviewCSV(&sb, results))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "keyword,large_0_25,early_0_25,who_pays_0_25,desperate_0_25,lewd_total_0_100", lines[0])
	assert.Equal(t, "ai contract review,25.00,25.00,25.00,22.00,97", lines[1])
}

func TestScoreFile_UnknownFormat(t *testing.T) {
	err := scoreFile(context.Background(), scoreOptions{Input: "trends.csv", Format: "yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
