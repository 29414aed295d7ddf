package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/adaptive-selector/pkg/types"
)

func syntheticBars(n int, price func(i int) float64) []types.OHLCV {
	bars := make([]types.OHLCV, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		p := price(i)
		bars[i] = types.OHLCV{
			Open:      p * 0.999,
			High:      p * 1.002,
			Low:       p * 0.998,
			Close:     p,
			Volume:    1000,
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
		}
	}
	return bars
}

// TestBuild_EmptySeries tests that an empty bar series is rejected
func TestBuild_EmptySeries(t *testing.T) {
	builder := NewBuilder()
	_, err := builder.Build(nil)
	assert.Error(t, err)
}

// TestBuild_AlignedAndFinite tests that vectors are index-aligned with the
// bars, have the fixed dimension, and contain only finite values
func TestBuild_AlignedAndFinite(t *testing.T) {
	bars := syntheticBars(120, func(i int) float64 {
		return 100 + 10*math.Sin(float64(i)/7)
	})
	builder := NewBuilder()

	vectors, err := builder.Build(bars)
	require.NoError(t, err)
	require.Len(t, vectors, len(bars))

	for i, v := range vectors {
		require.Len(t, []float64(v), Dimension)
		assert.True(t, v.IsFinite(), "vector %d has non-finite entries", i)
		assert.Equal(t, 1.0, v[0], "bias slot must stay 1")
	}
}

// TestBuild_TrendDirection tests the sign of the EMA-distance feature on a
// steady uptrend and downtrend
func TestBuild_TrendDirection(t *testing.T) {
	builder := NewBuilder()

	up := syntheticBars(100, func(i int) float64 { return 100 + float64(i) })
	vectors, err := builder.Build(up)
	require.NoError(t, err)
	assert.Greater(t, vectors[len(vectors)-1][1], 0.0)

	down := syntheticBars(100, func(i int) float64 { return 200 - float64(i) })
	vectors, err = builder.Build(down)
	require.NoError(t, err)
	assert.Less(t, vectors[len(vectors)-1][1], 0.0)
}

// TestBuild_FlatSeriesNeutral tests that a flat price series produces
// neutral features: no trend, no momentum, centered RSI
func TestBuild_FlatSeriesNeutral(t *testing.T) {
	bars := syntheticBars(80, func(int) float64 { return 100 })
	builder := NewBuilder()

	vectors, err := builder.Build(bars)
	require.NoError(t, err)

	last := vectors[len(vectors)-1]
	assert.InDelta(t, 0.0, last[1], 1e-9) // trend
	assert.InDelta(t, 0.0, last[2], 1e-9) // momentum
	assert.InDelta(t, 0.0, last[5], 1e-9) // RSI centered at 50
	assert.InDelta(t, 0.0, last[6], 1e-9) // efficiency
}

// TestLatest_MatchesBuild tests that Latest returns the final vector of Build
func TestLatest_MatchesBuild(t *testing.T) {
	bars := syntheticBars(60, func(i int) float64 { return 100 + float64(i%9) })
	builder := NewBuilder()

	vectors, err := builder.Build(bars)
	require.NoError(t, err)
	latest, err := builder.Latest(bars)
	require.NoError(t, err)

	assert.Equal(t, vectors[len(vectors)-1], latest)
}

// TestClamp_BoundsExtremes tests non-finite scrubbing and clamping
func TestClamp_BoundsExtremes(t *testing.T) {
	assert.Equal(t, 0.0, clamp(math.NaN()))
	assert.Equal(t, 0.0, clamp(math.Inf(1)))
	assert.Equal(t, 10.0, clamp(1e6))
	assert.Equal(t, -10.0, clamp(-1e6))
	assert.Equal(t, 0.5, clamp(0.5))
}
