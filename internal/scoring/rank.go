package scoring

import "sort"

// Rank returns the top n results by total, descending. The sort is
// stable: equal totals keep their input order. n is clamped to at least
// 1 for non-empty input; an empty batch ranks to nothing.
func Rank(results []ScoreResult, n int) []ScoreResult {
	if len(results) == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	ranked := make([]ScoreResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
