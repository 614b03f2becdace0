package scoring

import (
	"context"
	"math"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cecilia-mis/trends-cli/internal/enrich"
	"github.com/cecilia-mis/trends-cli/internal/trend"
)

// Engine scores trend records against a frozen configuration and two
// optional enrichment maps. All state is read-only once built, so a
// single engine may score records concurrently.
type Engine struct {
	cfg    Config
	pain   enrich.Map
	buyers enrich.Map

	// payerTable is the who_pays category map with lower-cased trimmed
	// keys, built once so per-record classification is a plain lookup.
	payerTable map[string]float64
}

// New builds an engine for one batch. pain and buyers may be nil or
// empty.
func New(cfg Config, pain, buyers enrich.Map) *Engine {
	table := make(map[string]float64, len(cfg.Thresholds.WhoPays.Map))
	for cat, score := range cfg.Thresholds.WhoPays.Map {
		table[strings.ToLower(strings.TrimSpace(cat))] = score
	}
	return &Engine{cfg: cfg, pain: pain, buyers: buyers, payerTable: table}
}

// Config returns the engine's frozen configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// ScoreRecord scores a single record. Non-numeric volume or growth
// values degrade to zero rather than failing the record.
func (e *Engine) ScoreRecord(rec trend.Record) ScoreResult {
	avgVolume, _ := rec.Float("avg_volume")
	growth, _ := rec.Float("growth_pct")
	keyword := strings.TrimSpace(rec.String("keyword"))

	large := scale(avgVolume, e.cfg.Thresholds.Large)
	early := scale(growth, e.cfg.Thresholds.Early)
	whoPays := e.classifyPayer(keyword, rec)

	var desperate float64
	if count, ok := e.painCount(keyword); ok {
		desperate = scoreBins(count, e.cfg.Thresholds.Desperate.Bins)
	} else {
		desperate = scoreHeuristic(keyword, e.cfg.Thresholds.Desperate.Heuristics)
	}

	return ScoreResult{
		Row:       rec,
		Large:     large,
		Early:     early,
		WhoPays:   whoPays,
		Desperate: desperate,
		Total:     aggregate(large, early, whoPays, desperate, e.cfg.Weights),
	}
}

// ScoreBatch scores every record in the batch, preserving input order.
// Records are independent, so scoring fans out across CPUs; the only
// error source is context cancellation.
func (e *Engine) ScoreBatch(ctx context.Context, batch *trend.Batch) ([]ScoreResult, error) {
	results := make([]ScoreResult, len(batch.Rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rec := range batch.Rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.ScoreRecord(rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("scoring: batch complete", zap.Int("records", len(results)))
	return results, nil
}

// classifyPayer resolves the payer category — enrichment lookup first,
// then the record's own buyer field — and maps it through the category
// table. Unresolved or unknown categories take the configured default.
func (e *Engine) classifyPayer(keyword string, rec trend.Record) float64 {
	category := ""
	if keyword != "" {
		if v, ok := e.buyers[strings.ToLower(keyword)]; ok {
			category = v.Text()
		}
	}
	if category == "" {
		category = strings.TrimSpace(rec.String("buyer"))
	}
	if category == "" {
		return e.cfg.Thresholds.WhoPays.UnknownDefault
	}
	if score, ok := e.payerTable[strings.ToLower(strings.TrimSpace(category))]; ok {
		return score
	}
	return e.cfg.Thresholds.WhoPays.UnknownDefault
}

// painCount resolves the pain-signal count for a keyword. ok reports
// whether usable numeric pain data exists; a zero count is usable and
// still selects bin mode.
func (e *Engine) painCount(keyword string) (float64, bool) {
	if keyword == "" {
		return 0, false
	}
	v, ok := e.pain[strings.ToLower(keyword)]
	if !ok {
		return 0, false
	}
	count, ok := v.Float()
	if !ok || math.IsNaN(count) {
		return 0, false
	}
	return count, true
}

// scoreBins returns the score of the first bin whose max covers the
// count. A count above every max takes the last bin's score as a
// ceiling; an empty bin list scores 0.
func scoreBins(count float64, bins []Bin) float64 {
	for _, b := range bins {
		if count <= b.Max {
			return b.Score
		}
	}
	if len(bins) > 0 {
		return bins[len(bins)-1].Score
	}
	return 0
}

// heuristicBase and heuristicBonus parameterize keyword-text desperation
// estimation: a fixed base plus a bonus per matched token.
const (
	heuristicBase  = 7.0
	heuristicBonus = 3.0
)

// scoreHeuristic estimates desperation from the keyword text alone:
// base score plus a bonus for every token found as a case-insensitive
// substring, capped at 25.
func scoreHeuristic(keyword string, tokens []string) float64 {
	score := heuristicBase
	lower := strings.ToLower(keyword)
	for _, token := range tokens {
		t := strings.ToLower(token)
		if t != "" && strings.Contains(lower, t) {
			score += heuristicBonus
		}
	}
	return math.Min(score, 25)
}

// aggregate combines the four axis scores into the integer total. The
// weighted mean is scaled by 4 (each axis tops out at 25) and rounded
// half away from zero.
func aggregate(large, early, whoPays, desperate float64, weights map[string]float64) int {
	var totalWeight float64
	for _, w := range weights {
		totalWeight += w
	}
	if totalWeight == 0 {
		totalWeight = 1
	}
	weighted := large*weights[AxisLarge] +
		early*weights[AxisEarly] +
		whoPays*weights[AxisWhoPays] +
		desperate*weights[AxisDesperate]
	return int(math.Round(weighted / totalWeight * 4))
}
