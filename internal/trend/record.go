// Package trend supplies keyword trend records: CSV batch loading and
// writing, output path resolution, and live collection of search-interest
// metrics.
package trend

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrInputFormat indicates a record batch missing required fields.
var ErrInputFormat = eris.New("trend: invalid batch")

// RequiredColumns are the columns every trend batch must carry. They also
// fix the leading column order when a batch is written without one.
var RequiredColumns = []string{"keyword", "geo", "days", "avg_volume", "growth_pct", "last_value"}

// Record is one trend row. The scoring engine reads keyword, avg_volume,
// growth_pct, and optionally buyer; all other columns pass through to the
// output unchanged.
type Record map[string]any

// String returns the value under key rendered as a string, or "" when
// the key is absent.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Float returns the value under key coerced to a float64. Missing keys
// and non-numeric values report ok=false; callers decide whether that is
// lenient (treated as zero) or structural.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Batch is an ordered set of records plus the column order they arrived
// with.
type Batch struct {
	Columns []string
	Rows    []Record
}

// LoadBatch reads a trends CSV into a batch, failing fast when any
// required column is absent.
func LoadBatch(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(ErrInputFormat, "open trends CSV %s: %v", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(ErrInputFormat, "read header of %s: %v", path, err)
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, eris.Wrapf(ErrInputFormat, "trends CSV missing columns: %s", strings.Join(missing, ", "))
	}

	batch := &Batch{Columns: append([]string(nil), header...)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(ErrInputFormat, "read %s: %v", path, err)
		}
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		batch.Rows = append(batch.Rows, rec)
	}
	return batch, nil
}

// WriteBatch persists records to a CSV file, creating parent directories.
// The preferred base columns lead; any further columns follow in
// first-seen order.
func WriteBatch(batch *Batch, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "trend: create output dir for %s", path)
	}

	columns := batch.Columns
	if len(columns) == 0 {
		columns = discoverColumns(batch.Rows)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "trend: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return eris.Wrap(err, "trend: write header")
	}
	line := make([]string, len(columns))
	for _, rec := range batch.Rows {
		for i, col := range columns {
			line[i] = rec.String(col)
		}
		if err := w.Write(line); err != nil {
			return eris.Wrap(err, "trend: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "trend: flush")
}

// discoverColumns derives a column order from the rows themselves: the
// base columns that occur anywhere, then the rest in first-seen order.
func discoverColumns(rows []Record) []string {
	var columns []string
	seen := make(map[string]bool)
	for _, col := range RequiredColumns {
		for _, rec := range rows {
			if _, ok := rec[col]; ok {
				columns = append(columns, col)
				seen[col] = true
				break
			}
		}
	}
	for _, rec := range rows {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				columns = append(columns, k)
				seen[k] = true
			}
		}
	}
	return columns
}

var datedInput = regexp.MustCompile(`trends_(\d{8})`)

// ScoredOutputPath resolves where the scored CSV for inputPath belongs:
// trends_scored_YYYYMMDD.csv under dir, taking the date from the input
// file name when it carries one, else today (UTC).
func ScoredOutputPath(inputPath, dir string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	date := time.Now().UTC().Format("20060102")
	if m := datedInput.FindStringSubmatch(stem); m != nil {
		date = m[1]
	}
	return filepath.Join(dir, fmt.Sprintf("trends_scored_%s.csv", date))
}

// CollectedOutputPath resolves where a freshly collected batch belongs:
// trends_YYYYMMDD.csv under dir, dated today (UTC).
func CollectedOutputPath(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("trends_%s.csv", time.Now().UTC().Format("20060102")))
}
