package trend

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCollect indicates a failed or unusable search-interest fetch.
var ErrCollect = eris.New("trend: collection failed")

// Series is a minimal search-interest response: named columns of values
// over a time window. An isPartial column may accompany the data and is
// never treated as a metric.
type Series struct {
	Columns []string             `json:"columns"`
	Points  map[string][]float64 `json:"points"`
}

// FirstMetric returns the first column that carries data, skipping the
// isPartial marker column.
func (s *Series) FirstMetric() (string, []float64, error) {
	for _, col := range s.Columns {
		if strings.EqualFold(col, "ispartial") {
			continue
		}
		if values, ok := s.Points[col]; ok {
			return col, values, nil
		}
	}
	return "", nil, eris.Wrap(ErrCollect, "no metric column in series")
}

// Client fetches interest-over-time data for a single keyword.
type Client interface {
	InterestOverTime(ctx context.Context, keyword, geo, timeframe string) (*Series, error)
}

// Timeframe converts a day window into the upstream timeframe token.
func Timeframe(days int) (string, error) {
	switch {
	case days <= 0:
		return "", eris.Wrap(ErrCollect, "days must be positive")
	case days <= 30:
		return fmt.Sprintf("now %d-d", days), nil
	case days <= 90:
		return "today 3-m", nil
	case days <= 180:
		return "today 6-m", nil
	case days <= 365:
		return "today 12-m", nil
	default:
		return fmt.Sprintf("today %d-y", int(math.Ceil(float64(days)/365))), nil
	}
}

// Summarize reduces a series to a trend record: average volume, growth
// percentage from first to last usable point, and the last value.
// Non-numeric and NaN points are dropped first.
func Summarize(keyword, geo string, days int, s *Series) (Record, error) {
	_, values, err := s.FirstMetric()
	if err != nil {
		return nil, err
	}
	numeric := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		numeric = append(numeric, v)
	}
	if len(numeric) == 0 {
		return nil, eris.Wrapf(ErrCollect, "no numeric data for %q", keyword)
	}

	var sum float64
	for _, v := range numeric {
		sum += v
	}
	first := numeric[0]
	last := numeric[len(numeric)-1]

	var growth float64
	if math.Abs(first) < 1e-9 {
		// Growth from nothing: call it 100% if there is any interest now.
		if last > 0 {
			growth = 100
		}
	} else {
		growth = (last - first) / first * 100
	}

	return Record{
		"keyword":    keyword,
		"geo":        geo,
		"days":       len(numeric),
		"avg_volume": round4(sum / float64(len(numeric))),
		"growth_pct": round4(growth),
		"last_value": round4(last),
	}, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Collector fetches and normalizes search-interest metrics for a
// keyword batch.
type Collector struct {
	geo    string
	days   int
	client Client
}

// NewCollector builds a collector for the given geo and day window.
func NewCollector(geo string, days int, client Client) (*Collector, error) {
	if geo == "" {
		return nil, eris.Wrap(ErrCollect, "geo must be provided")
	}
	if days <= 0 {
		return nil, eris.Wrap(ErrCollect, "days must be positive")
	}
	return &Collector{geo: geo, days: days, client: client}, nil
}

// CollectKeyword fetches and summarizes a single keyword.
func (c *Collector) CollectKeyword(ctx context.Context, keyword string) (Record, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, eris.Wrap(ErrCollect, "keyword cannot be blank")
	}
	timeframe, err := Timeframe(c.days)
	if err != nil {
		return nil, err
	}
	series, err := c.client.InterestOverTime(ctx, keyword, c.geo, timeframe)
	if err != nil {
		return nil, eris.Wrapf(err, "trend: collect %q", keyword)
	}
	return Summarize(keyword, c.geo, c.days, series)
}

// CollectKeywords fetches a batch, skipping blanks and case-insensitive
// duplicates while preserving first-seen order.
func (c *Collector) CollectKeywords(ctx context.Context, keywords []string) (*Batch, error) {
	batch := &Batch{Columns: append([]string(nil), RequiredColumns...)}
	seen := make(map[string]bool, len(keywords))
	for _, keyword := range keywords {
		normalized := strings.TrimSpace(keyword)
		if normalized == "" || seen[strings.ToLower(normalized)] {
			continue
		}
		seen[strings.ToLower(normalized)] = true

		rec, err := c.CollectKeyword(ctx, normalized)
		if err != nil {
			return nil, err
		}
		batch.Rows = append(batch.Rows, rec)
		zap.L().Debug("trend: collected keyword",
			zap.String("keyword", normalized),
			zap.String("geo", c.geo),
		)
	}
	zap.L().Info("trend: collection complete",
		zap.Int("keywords", len(batch.Rows)),
		zap.String("geo", c.geo),
	)
	return batch, nil
}
