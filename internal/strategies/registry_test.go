package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/adaptive-selector/pkg/types"
)

func trendBars(n int, slope float64) []types.OHLCV {
	bars := make([]types.OHLCV, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := range bars {
		price += slope
		bars[i] = types.OHLCV{
			Open:      price,
			High:      price * 1.001,
			Low:       price * 0.999,
			Close:     price,
			Volume:    1000,
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
		}
	}
	return bars
}

// TestNewRegistry_UnknownNameFailsFast tests that a bad strategy name is a
// construction-time error, not a call-time one
func TestNewRegistry_UnknownNameFailsFast(t *testing.T) {
	_, err := NewRegistry([]string{"sma_cross", "no_such_strategy"})
	assert.Error(t, err)

	_, err = NewRegistry(nil)
	assert.Error(t, err)

	_, err = NewRegistry([]string{"momentum", "momentum"})
	assert.Error(t, err)
}

// TestNewRegistry_StableArmMapping tests the name/arm bijection
func TestNewRegistry_StableArmMapping(t *testing.T) {
	r, err := NewRegistry([]string{"momentum", "sma_cross", "rsi_reversal"})
	require.NoError(t, err)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"momentum", "sma_cross", "rsi_reversal"}, r.Names())

	arm, ok := r.Arm("sma_cross")
	require.True(t, ok)
	assert.Equal(t, 1, arm)
	assert.Equal(t, "sma_cross", r.Strategy(arm).Name())

	_, ok = r.Arm("donchian_breakout")
	assert.False(t, ok)
}

// TestDefaultRegistry_FullRoster tests that the default registry carries
// every known strategy
func TestDefaultRegistry_FullRoster(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, len(KnownNames()), r.Len())
}

// TestPositions_LengthAndBounds tests that every strategy returns a series
// aligned with the bars, bounded to [-1, 1]
func TestPositions_LengthAndBounds(t *testing.T) {
	bars := trendBars(120, 0.5)
	r := DefaultRegistry()

	for arm := 0; arm < r.Len(); arm++ {
		s := r.Strategy(arm)
		positions := s.Positions(bars)
		require.Len(t, positions, len(bars), "strategy %s", s.Name())
		for i, p := range positions {
			assert.GreaterOrEqual(t, p, -1.0, "strategy %s index %d", s.Name(), i)
			assert.LessOrEqual(t, p, 1.0, "strategy %s index %d", s.Name(), i)
		}
	}
}

// TestSMACross_LongInUptrend tests that the crossover strategy ends long in
// a steady uptrend and flat-or-short in a downtrend
func TestSMACross_LongInUptrend(t *testing.T) {
	s := &SMACross{Fast: 10, Slow: 30}

	up := s.Positions(trendBars(100, 1.0))
	assert.Equal(t, 1.0, up[len(up)-1])

	down := s.Positions(trendBars(100, -0.5))
	assert.Equal(t, 0.0, down[len(down)-1])
}

// TestMomentum_SignFollowsTrend tests momentum direction on both trends
func TestMomentum_SignFollowsTrend(t *testing.T) {
	s := &Momentum{Period: 20}

	up := s.Positions(trendBars(80, 1.0))
	assert.Equal(t, 1.0, up[len(up)-1])

	down := s.Positions(trendBars(80, -1.0))
	assert.Equal(t, -1.0, down[len(down)-1])
}

// TestDonchianBreakout_LongAtChannelHigh tests that new highs trigger a long
func TestDonchianBreakout_LongAtChannelHigh(t *testing.T) {
	s := &DonchianBreakout{Period: 20}

	up := s.Positions(trendBars(60, 2.0))
	assert.Equal(t, 1.0, up[len(up)-1])
}

// TestMeanReversion_FlatOnFlatSeries tests that a zero-variance series
// produces no positions
func TestMeanReversion_FlatOnFlatSeries(t *testing.T) {
	s := &MeanReversion{Period: 20, Entry: 1.5}

	flat := s.Positions(trendBars(60, 0))
	for _, p := range flat {
		assert.Equal(t, 0.0, p)
	}
}
