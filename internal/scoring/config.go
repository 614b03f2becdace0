// Package scoring implements the four-axis opportunity scoring engine:
// volume scale (large), growth scale (early), payer classification
// (who_pays), and desperation estimation (desperate), aggregated into a
// weighted 0-100 total per keyword record.
package scoring

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrConfig indicates a malformed or named-but-missing override document.
var ErrConfig = eris.New("scoring: invalid config")

// Axis names used as keys in the weights mapping.
const (
	AxisLarge     = "large"
	AxisEarly     = "early"
	AxisWhoPays   = "who_pays"
	AxisDesperate = "desperate"
)

// Band holds the low/mid/high calibration points for a piecewise axis.
type Band struct {
	Low  float64 `yaml:"low"`
	Mid  float64 `yaml:"mid"`
	High float64 `yaml:"high"`
}

// WhoPaysConfig maps payer categories to axis scores.
type WhoPaysConfig struct {
	Map            map[string]float64 `yaml:"map"`
	UnknownDefault float64            `yaml:"unknown_default"`
}

// Bin is one bucket of the desperation pain-count table. Bins are
// consulted in configured order; the first bin whose Max is >= the pain
// count wins.
type Bin struct {
	Max   float64 `yaml:"max"`
	Score float64 `yaml:"score"`
}

// DesperateConfig configures the desperation axis: ordered pain-count
// bins and the fallback keyword heuristic tokens.
type DesperateConfig struct {
	Bins       []Bin    `yaml:"bins"`
	Heuristics []string `yaml:"heuristics_keywords"`
}

// Thresholds holds the per-axis calibration. Extra carries override axes
// not present in the defaults; they are retained verbatim but no axis
// reads them.
type Thresholds struct {
	Large     Band
	Early     Band
	WhoPays   WhoPaysConfig
	Desperate DesperateConfig
	Extra     map[string]any
}

// Config is the frozen configuration consumed by every scoring axis.
// Weights need not sum to 1; the aggregator normalizes by their sum.
type Config struct {
	Weights    map[string]float64
	Thresholds Thresholds
}

// DefaultConfig returns a fresh copy of the built-in configuration.
// Callers may mutate the result freely; the defaults themselves are
// never aliased.
func DefaultConfig() Config {
	return Config{
		Weights: map[string]float64{
			AxisLarge:     0.25,
			AxisEarly:     0.25,
			AxisWhoPays:   0.25,
			AxisDesperate: 0.25,
		},
		Thresholds: Thresholds{
			Large: Band{Low: 10, Mid: 30, High: 60},
			Early: Band{Low: 0, Mid: 40, High: 80},
			WhoPays: WhoPaysConfig{
				Map: map[string]float64{
					"student":    10,
					"job_seeker": 15,
					"creator":    18,
					"freelancer": 20,
					"SME":        23,
					"enterprise": 25,
				},
				UnknownDefault: 8,
			},
			Desperate: DesperateConfig{
				Bins: []Bin{
					{Max: 0, Score: 4},
					{Max: 3, Score: 10},
					{Max: 10, Score: 17},
					{Max: 30, Score: 22},
					{Max: 1_000_000_000, Score: 25},
				},
				Heuristics: []string{"need", "urgent", "stuck", "broken", "fail"},
			},
		},
	}
}

// ResolveConfig loads the override document at path and merges it over
// the defaults. An empty path yields the defaults verbatim. A named but
// missing file is an error; the resolver never silently proceeds on one.
func ResolveConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(ErrConfig, "read override %s: %v", path, err)
	}
	return ResolveConfigBytes(data)
}

// ResolveConfigBytes merges a raw YAML (or JSON) override document over
// the defaults. Weights overwrite matching keys; threshold axes present
// in the defaults are shallow-merged per sub-key, unknown axes are
// adopted wholesale into Thresholds.Extra.
func ResolveConfigBytes(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, eris.Wrapf(ErrConfig, "parse override: %v", err)
	}

	cfg := DefaultConfig()
	if raw == nil {
		return cfg, nil
	}

	if w, ok := raw["weights"]; ok {
		wm, ok := asMapping(w)
		if !ok {
			return Config{}, eris.Wrap(ErrConfig, "weights must be a mapping")
		}
		for axis, v := range wm {
			f, ok := asFloat(v)
			if !ok {
				return Config{}, eris.Wrapf(ErrConfig, "weight %s is not numeric", axis)
			}
			cfg.Weights[axis] = f
		}
	}

	th, ok := raw["thresholds"]
	if !ok {
		return cfg, nil
	}
	thm, ok := asMapping(th)
	if !ok {
		return Config{}, eris.Wrap(ErrConfig, "thresholds must be a mapping")
	}
	for axis, v := range thm {
		if err := cfg.Thresholds.merge(axis, v); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// merge applies one axis override. Known axes require a mapping value so
// the typed calibration stays readable; anything else is carried in Extra.
func (t *Thresholds) merge(axis string, v any) error {
	m, isMapping := asMapping(v)

	switch axis {
	case AxisLarge, AxisEarly, AxisWhoPays, AxisDesperate:
		if !isMapping {
			return eris.Wrapf(ErrConfig, "thresholds.%s must be a mapping", axis)
		}
	default:
		if t.Extra == nil {
			t.Extra = make(map[string]any)
		}
		t.Extra[axis] = v
		return nil
	}

	switch axis {
	case AxisLarge:
		mergeBand(&t.Large, m)
	case AxisEarly:
		mergeBand(&t.Early, m)
	case AxisWhoPays:
		if raw, ok := m["map"]; ok {
			cm, ok := asMapping(raw)
			if !ok {
				return eris.Wrap(ErrConfig, "thresholds.who_pays.map must be a mapping")
			}
			table := make(map[string]float64, len(cm))
			for cat, score := range cm {
				f, ok := asFloat(score)
				if !ok {
					return eris.Wrapf(ErrConfig, "who_pays score for %q is not numeric", cat)
				}
				table[cat] = f
			}
			t.WhoPays.Map = table
		}
		if raw, ok := m["unknown_default"]; ok {
			f, ok := asFloat(raw)
			if !ok {
				return eris.Wrap(ErrConfig, "who_pays.unknown_default is not numeric")
			}
			t.WhoPays.UnknownDefault = f
		}
	case AxisDesperate:
		if raw, ok := m["bins"]; ok {
			bins, err := parseBins(raw)
			if err != nil {
				return err
			}
			t.Desperate.Bins = bins
		}
		if raw, ok := m["heuristics_keywords"]; ok {
			tokens, err := parseTokens(raw)
			if err != nil {
				return err
			}
			t.Desperate.Heuristics = tokens
		}
	}
	return nil
}

// mergeBand replaces only the sub-keys the override specifies; the rest
// keep their default values.
func mergeBand(b *Band, m map[string]any) {
	if v, ok := asFloat(m["low"]); ok {
		b.Low = v
	}
	if v, ok := asFloat(m["mid"]); ok {
		b.Mid = v
	}
	if v, ok := asFloat(m["high"]); ok {
		b.High = v
	}
}

func parseBins(raw any) ([]Bin, error) {
	seq, ok := raw.([]any)
	if !ok {
		return nil, eris.Wrap(ErrConfig, "desperate.bins must be a sequence")
	}
	bins := make([]Bin, 0, len(seq))
	for i, item := range seq {
		m, ok := asMapping(item)
		if !ok {
			return nil, eris.Wrapf(ErrConfig, "desperate.bins[%d] must be a mapping", i)
		}
		var b Bin
		if v, ok := asFloat(m["max"]); ok {
			b.Max = v
		} else {
			return nil, eris.Wrapf(ErrConfig, "desperate.bins[%d].max is not numeric", i)
		}
		if v, ok := asFloat(m["score"]); ok {
			b.Score = v
		} else {
			return nil, eris.Wrapf(ErrConfig, "desperate.bins[%d].score is not numeric", i)
		}
		bins = append(bins, b)
	}
	return bins, nil
}

func parseTokens(raw any) ([]string, error) {
	seq, ok := raw.([]any)
	if !ok {
		return nil, eris.Wrap(ErrConfig, "desperate.heuristics_keywords must be a sequence")
	}
	tokens := make([]string, 0, len(seq))
	for _, item := range seq {
		if s, ok := item.(string); ok {
			tokens = append(tokens, s)
			continue
		}
		tokens = append(tokens, asString(item))
	}
	return tokens, nil
}

// ConfigHash returns a short SHA-256 hash of the configuration so runs
// can be tied back to the calibration that produced them.
func ConfigHash(cfg Config) string {
	data, err := json.Marshal(struct {
		Weights    map[string]float64 `json:"weights"`
		Thresholds Thresholds         `json:"thresholds"`
	}{cfg.Weights, cfg.Thresholds})
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16])
}

// asMapping normalizes the two mapping shapes yaml.v3 produces.
func asMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[asString(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
