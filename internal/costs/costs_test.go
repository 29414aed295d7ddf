package costs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewModel_RejectsNegativeCoefficients tests construction guards
func TestNewModel_RejectsNegativeCoefficients(t *testing.T) {
	_, err := NewModel(-1, 0)
	assert.Error(t, err)

	_, err = NewModel(0, -0.001)
	assert.Error(t, err)

	_, err = NewModel(math.NaN(), 0)
	assert.Error(t, err)
}

// TestApply_NonNegativeMatchingLength tests the collaborator contract: fee
// and slippage series are non-negative and match the position series length
func TestApply_NonNegativeMatchingLength(t *testing.T) {
	model, err := NewModel(10, 0.0005)
	require.NoError(t, err)

	positions := []float64{0, 1, 1, -1, 0, 0.5}
	fees, slippage := model.Apply(positions)

	require.Len(t, fees, len(positions))
	require.Len(t, slippage, len(positions))
	for i := range fees {
		assert.GreaterOrEqual(t, fees[i], 0.0)
		assert.GreaterOrEqual(t, slippage[i], 0.0)
	}
}

// TestApply_NoCostWithoutTrading tests that a held position accrues nothing
func TestApply_NoCostWithoutTrading(t *testing.T) {
	model, err := NewModel(10, 0.0005)
	require.NoError(t, err)

	fees, slippage := model.Apply([]float64{0, 1, 1, 1, 1})

	// Only the entry at index 1 trades
	assert.InDelta(t, 10.0/10000, fees[1], 1e-12)
	assert.Greater(t, slippage[1], 0.0)
	for i := 2; i < 5; i++ {
		assert.Equal(t, 0.0, fees[i])
		assert.Equal(t, 0.0, slippage[i])
	}
}

// TestApply_FeeProportionalToDelta tests that the flip from long to short
// costs twice the entry
func TestApply_FeeProportionalToDelta(t *testing.T) {
	model, err := NewModel(20, 0)
	require.NoError(t, err)

	fees, _ := model.Apply([]float64{0, 1, -1})

	assert.InDelta(t, 2*fees[1], fees[2], 1e-12)
}

// TestNetReturns_SubtractsCosts tests netting against gross returns
func TestNetReturns_SubtractsCosts(t *testing.T) {
	model, err := NewModel(10, 0)
	require.NoError(t, err)

	gross := []float64{0.01, 0.01, 0.01}
	net := model.NetReturns([]float64{1, 1, 1}, gross)

	require.Len(t, net, 3)
	assert.Less(t, net[0], gross[0]) // entry trade charged
	assert.Equal(t, gross[1], net[1])
	assert.Equal(t, gross[2], net[2])
}

// TestTurnover_SumsAbsoluteChanges tests the turnover accumulator
func TestTurnover_SumsAbsoluteChanges(t *testing.T) {
	assert.Equal(t, 0.0, Turnover([]float64{0, 0, 0}))
	assert.InDelta(t, 4.0, Turnover([]float64{1, -1, 0}), 1e-12)
}
