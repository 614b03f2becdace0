package enrich

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, cell := range cells {
			row.AddCell().Value = cell
		}
	}
	path := filepath.Join(t.TempDir(), "table.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoad_XLSX(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"keyword", "pain_count"},
		{"AI Detector", "12"},
		{"", "5"},
		{"blank value", ""},
	})

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m, 1)

	f, ok := m["ai detector"].Float()
	require.True(t, ok)
	assert.Equal(t, 12.0, f)
}

func TestLoad_XLSXBadShape(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"pain_count", "buyer"},
		{"5", "enterprise"},
	})

	_, err := Load(path)
	require.Error(t, err)
}
