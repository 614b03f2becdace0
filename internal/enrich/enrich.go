// Package enrich loads optional keyword side tables (pain-signal counts,
// buyer maps) into case-insensitive lookup maps.
package enrich

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrFormat indicates a side table missing the keyword column or not
// having exactly one value column.
var ErrFormat = eris.New("enrich: invalid side table")

// Value is a single enrichment cell: numbers keep their numeric form,
// anything else stays a trimmed string. Blank cells never become values;
// the loader drops their rows.
type Value struct {
	Num   float64
	Str   string
	IsNum bool
}

// Text renders the value for string-keyed lookups (payer categories).
func (v Value) Text() string {
	if !v.IsNum {
		return v.Str
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}

// Float reports the value as a number. String values are parsed on the
// fly; unparseable ones report ok=false, which downstream treats the same
// as absence.
func (v Value) Float() (float64, bool) {
	if v.IsNum {
		return v.Num, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Map is a lower-cased, trimmed keyword -> value lookup.
type Map map[string]Value

// Load reads a two-column side table from disk. An empty path yields an
// empty map. Format is chosen by extension: .xlsx sheets or CSV.
func Load(path string) (Map, error) {
	if path == "" {
		return Map{}, nil
	}
	var (
		header []string
		rows   [][]string
		err    error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		header, rows, err = readXLSX(path)
	} else {
		header, rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	return FromTable(header, rows)
}

// FromTable normalizes a raw two-column table into a Map. The table must
// have a keyword column and exactly one other column. Rows with blank
// keywords or blank values are dropped; later duplicate keywords
// overwrite earlier ones.
func FromTable(header []string, rows [][]string) (Map, error) {
	keyIdx := -1
	valIdx := -1
	extra := 0
	for i, col := range header {
		if col == "keyword" {
			keyIdx = i
			continue
		}
		valIdx = i
		extra++
	}
	if keyIdx < 0 {
		return nil, eris.Wrap(ErrFormat, "missing 'keyword' column")
	}
	if extra != 1 {
		return nil, eris.Wrapf(ErrFormat, "want exactly one value column besides 'keyword', got %d", extra)
	}

	m := make(Map, len(rows))
	for _, row := range rows {
		if keyIdx >= len(row) {
			continue
		}
		keyword := strings.TrimSpace(row[keyIdx])
		if keyword == "" {
			continue
		}
		var raw string
		if valIdx < len(row) {
			raw = strings.TrimSpace(row[valIdx])
		}
		if raw == "" {
			// Absent and blank enrichment are the same thing; never
			// store an empty entry.
			continue
		}
		m[strings.ToLower(keyword)] = coerce(raw)
	}
	return m, nil
}

// FromPairs normalizes an in-memory keyword->value mapping with the same
// rules as FromTable. Used by the scoring API, where side tables arrive
// inline instead of as files.
func FromPairs(pairs map[string]any) Map {
	m := make(Map, len(pairs))
	for k, v := range pairs {
		keyword := strings.TrimSpace(k)
		if keyword == "" {
			continue
		}
		switch n := v.(type) {
		case nil:
			continue
		case float64:
			m[strings.ToLower(keyword)] = Value{Num: n, IsNum: true}
		case int:
			m[strings.ToLower(keyword)] = Value{Num: float64(n), IsNum: true}
		case string:
			raw := strings.TrimSpace(n)
			if raw == "" {
				continue
			}
			m[strings.ToLower(keyword)] = coerce(raw)
		}
	}
	return m
}

// coerce tries integer, then real, then falls back to the trimmed string.
func coerce(raw string) Value {
	if n, err := strconv.Atoi(raw); err == nil {
		return Value{Num: float64(n), IsNum: true}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Value{Num: f, IsNum: true}
	}
	return Value{Str: raw}
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(ErrFormat, "open side table %s: %v", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, eris.Wrapf(ErrFormat, "read header of %s: %v", path, err)
	}
	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrapf(ErrFormat, "read %s: %v", path, err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
