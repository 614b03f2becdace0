package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecilia-mis/trends-cli/internal/trend"
)

func ranked(pairs ...any) []ScoreResult {
	results := make([]ScoreResult, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		results = append(results, ScoreResult{
			Row:   trend.Record{"keyword": pairs[i].(string)},
			Total: pairs[i+1].(int),
		})
	}
	return results
}

func TestRank(t *testing.T) {
	results := ranked("low", 20, "high", 90, "mid", 55)

	top := Rank(results, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].Row.String("keyword"))
	assert.Equal(t, "mid", top[1].Row.String("keyword"))

	// The input slice is untouched.
	assert.Equal(t, "low", results[0].Row.String("keyword"))
}

func TestRank_Stable(t *testing.T) {
	results := ranked("first", 50, "second", 50, "third", 50)

	top := Rank(results, 3)
	assert.Equal(t, "first", top[0].Row.String("keyword"))
	assert.Equal(t, "second", top[1].Row.String("keyword"))
	assert.Equal(t, "third", top[2].Row.String("keyword"))
}

func TestRank_Bounds(t *testing.T) {
	assert.Nil(t, Rank(nil, 10))
	assert.Nil(t, Rank([]ScoreResult{}, 10))

	results := ranked("a", 10, "b", 20)
	// n larger than the input returns everything.
	assert.Len(t, Rank(results, 100), 2)
	// n below 1 clamps to 1.
	top := Rank(results, 0)
	require.Len(t, top, 1)
	assert.Equal(t, "b", top[0].Row.String("keyword"))
}
