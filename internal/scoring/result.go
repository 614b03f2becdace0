package scoring

import (
	"math"

	"github.com/cecilia-mis/trends-cli/internal/trend"
)

// ScoreColumns are the engine's output columns, appended after a
// record's original columns in this order.
var ScoreColumns = []string{
	"large_0_25",
	"early_0_25",
	"who_pays_0_25",
	"desperate_0_25",
	"lewd_total_0_100",
}

// ScoreResult holds the scoring output for a single trend record: the
// four axis scores in [0, 25], the integer total in [0, 100], and the
// original row for pass-through columns. Results are created once by the
// aggregator and never mutated.
type ScoreResult struct {
	Row       trend.Record
	Large     float64
	Early     float64
	WhoPays   float64
	Desperate float64
	Total     int
}

// Record converts the result to an output record: the original columns
// plus the five scoring columns, axis scores rounded to 2 decimal
// places for presentation.
func (r ScoreResult) Record() trend.Record {
	rec := r.Row.Clone()
	rec["large_0_25"] = round2(r.Large)
	rec["early_0_25"] = round2(r.Early)
	rec["who_pays_0_25"] = round2(r.WhoPays)
	rec["desperate_0_25"] = round2(r.Desperate)
	rec["lewd_total_0_100"] = r.Total
	return rec
}

// ScoredBatch converts results back into a batch whose columns are the
// input columns followed by the scoring columns.
func ScoredBatch(batch *trend.Batch, results []ScoreResult) *trend.Batch {
	columns := make([]string, 0, len(batch.Columns)+len(ScoreColumns))
	columns = append(columns, batch.Columns...)
	columns = append(columns, ScoreColumns...)

	rows := make([]trend.Record, len(results))
	for i, r := range results {
		rows[i] = r.Record()
	}
	return &trend.Batch{Columns: columns, Rows: rows}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
