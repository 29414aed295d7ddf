package costs

import (
	"math"

	apperrors "github.com/quantlab/adaptive-selector/internal/errors"
)

// Model converts position changes into fee and slippage drags. Fees are
// charged in basis points of traded notional; slippage follows a
// square-root-impact curve on the size of the position change.
type Model struct {
	FeeBps       float64 // per-side fee in basis points of traded notional
	SlippageCoef float64 // impact coefficient applied to sqrt(|position delta|)
}

// NewModel creates a cost model. Negative coefficients are rejected.
func NewModel(feeBps, slippageCoef float64) (*Model, error) {
	if feeBps < 0 || math.IsNaN(feeBps) || math.IsInf(feeBps, 0) {
		return nil, apperrors.NewInvalidInput("costs", "NewModel", "fee bps must be finite and >= 0, got %v", feeBps)
	}
	if slippageCoef < 0 || math.IsNaN(slippageCoef) || math.IsInf(slippageCoef, 0) {
		return nil, apperrors.NewInvalidInput("costs", "NewModel", "slippage coefficient must be finite and >= 0, got %v", slippageCoef)
	}
	return &Model{FeeBps: feeBps, SlippageCoef: slippageCoef}, nil
}

// Apply computes per-period fee and slippage series for a position series.
// Both outputs match the input length and are non-negative; cost accrues
// only when the position changes. The starting position is assumed flat.
func (m *Model) Apply(positions []float64) (fees, slippage []float64) {
	fees = make([]float64, len(positions))
	slippage = make([]float64, len(positions))

	prev := 0.0
	for i, pos := range positions {
		delta := math.Abs(pos - prev)
		if delta > 0 {
			fees[i] = delta * m.FeeBps / 10000
			slippage[i] = m.SlippageCoef * math.Sqrt(delta)
		}
		prev = pos
	}
	return fees, slippage
}

// NetReturns nets gross strategy returns of the costs implied by its
// position series. returns[i] is the period return earned by positions[i-1]
// held into bar i; trading costs at bar i are charged against that period.
func (m *Model) NetReturns(positions, grossReturns []float64) []float64 {
	fees, slippage := m.Apply(positions)
	net := make([]float64, len(grossReturns))
	for i := range grossReturns {
		net[i] = grossReturns[i]
		if i < len(fees) {
			net[i] -= fees[i] + slippage[i]
		}
	}
	return net
}

// Turnover is the total absolute position change over the series.
func Turnover(positions []float64) float64 {
	total := 0.0
	prev := 0.0
	for _, pos := range positions {
		total += math.Abs(pos - prev)
		prev = pos
	}
	return total
}
