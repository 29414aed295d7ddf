package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestComputeWindowMetrics_FlatSeries verifies an all-zero return series
// yields zero-valued metrics rather than NaN.
func TestComputeWindowMetrics_FlatSeries(t *testing.T) {
	returns := make([]float64, 120)
	positions := make([]float64, 120)
	for i := range positions {
		positions[i] = 1
	}

	m, err := computeWindowMetrics(returns, positions, 0.02)
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.CAGR)
	assert.Equal(t, 0.0, m.Sharpe)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.HitRate)
	assert.False(t, math.IsNaN(m.Sortino))
	assert.False(t, math.IsNaN(m.Calmar))
	assert.False(t, math.IsNaN(m.ProfitFactor))
}

// TestComputeWindowMetrics_SteadyGain verifies a consistently profitable
// series produces positive growth and ratio metrics.
func TestComputeWindowMetrics_SteadyGain(t *testing.T) {
	returns := make([]float64, 200)
	positions := make([]float64, 200)
	for i := range returns {
		if i%2 == 0 {
			returns[i] = 0.01
		} else {
			returns[i] = -0.004
		}
		positions[i] = 1
	}

	m, err := computeWindowMetrics(returns, positions, 0.0)
	require.NoError(t, err)

	assert.Greater(t, m.CAGR, 0.0)
	assert.Greater(t, m.Sharpe, 0.0)
	assert.Greater(t, m.ProfitFactor, 1.0)
	assert.InDelta(t, 0.5, m.HitRate, 1e-9)
	assert.InDelta(t, 0.01, m.AvgWin, 1e-9)
	assert.InDelta(t, 0.004, m.AvgLoss, 1e-9)
	assert.GreaterOrEqual(t, m.MaxDrawdown, 0.0)
}

// TestCAGR_Wipeout verifies a total loss maps to -1 rather than a NaN power.
func TestCAGR_Wipeout(t *testing.T) {
	assert.Equal(t, -1.0, cagr([]float64{0.1, -1.0, 0.05}))
	assert.Equal(t, 0.0, cagr(nil))
}

// TestTradeCountAndTurnover verifies position-change accounting.
func TestTradeCountAndTurnover(t *testing.T) {
	positions := []float64{0, 1, 1, -1, 0}
	assert.Equal(t, 3, tradeCount(positions))
	assert.InDelta(t, 4.0, turnover(positions), 1e-12)
}

// TestRecoveryTime_LongestUnderwaterStretch checks the below-peak counter on
// a known equity path.
func TestRecoveryTime_LongestUnderwaterStretch(t *testing.T) {
	// Peak after bar 0, underwater for 3 bars, then a new peak.
	returns := []float64{0.10, -0.05, -0.02, 0.01, 0.20}
	assert.Equal(t, 3, recoveryTime(returns))

	// Monotone gains never dip below the running peak.
	assert.Equal(t, 0, recoveryTime([]float64{0.01, 0.02, 0.01}))
}

// TestSummarize_CapsInfiniteSentinels verifies a degenerate +Inf window
// cannot poison the cross-window average.
func TestSummarize_CapsInfiniteSentinels(t *testing.T) {
	records := []WindowMetrics{
		{Sortino: math.Inf(1), Calmar: math.Inf(1), ProfitFactor: math.Inf(1), Sharpe: 1},
		{Sortino: 2, Calmar: 3, ProfitFactor: 1.5, Sharpe: 3},
	}
	s := summarize("sma_cross", records)

	assert.Equal(t, 2, s.Windows)
	assert.Equal(t, 2.0, s.Sharpe)
	assert.False(t, math.IsInf(s.Sortino, 1))
	assert.False(t, math.IsInf(s.Calmar, 1))
	assert.False(t, math.IsInf(s.ProfitFactor, 1))
	assert.InDelta(t, (100.0+2)/2, s.Sortino, 1e-9)
}
