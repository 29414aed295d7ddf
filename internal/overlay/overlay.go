package overlay

import (
	"math"

	"github.com/quantlab/adaptive-selector/pkg/types"
)

// Overlay is the position-sizing middleware applied to a strategy's raw
// signal before costing: volatility targeting scales exposure toward an
// annualized volatility budget, and the take-profit/stop-loss gate flats the
// position for the rest of a trade once either threshold is hit. Zero values
// disable the corresponding stage.
type Overlay struct {
	TargetVol   float64 // annualized volatility budget; 0 disables scaling
	VolWindow   int     // rolling window for realized volatility
	TakeProfit  float64 // fractional gain that closes the trade; 0 disables
	StopLoss    float64 // fractional loss that closes the trade; 0 disables
	MaxLeverage float64 // exposure cap after scaling
}

// Default returns the overlay with documented defaults: 20% vol target over
// a 20-bar window, no TP/SL, exposure capped at 1x.
func Default() Overlay {
	return Overlay{
		TargetVol:   0.20,
		VolWindow:   20,
		MaxLeverage: 1,
	}
}

// Apply transforms a raw position series into the sized, gated series. The
// output has the same length as the input.
func (o Overlay) Apply(positions []float64, bars []types.OHLCV) []float64 {
	out := make([]float64, len(positions))
	copy(out, positions)

	if o.TargetVol > 0 && o.VolWindow > 1 {
		o.applyVolTarget(out, bars)
	}
	if o.TakeProfit > 0 || o.StopLoss > 0 {
		o.applyExitGate(out, bars)
	}
	return out
}

// applyVolTarget scales each position by targetVol / realizedVol, capped at
// MaxLeverage. Bars without a full volatility window keep their raw size.
func (o Overlay) applyVolTarget(positions []float64, bars []types.OHLCV) {
	returns := barReturns(bars)
	maxScale := o.MaxLeverage
	if maxScale <= 0 {
		maxScale = 1
	}

	for i := range positions {
		if i < o.VolWindow || positions[i] == 0 {
			continue
		}
		vol := realizedVol(returns, i-1, o.VolWindow)
		if vol <= 0 {
			continue
		}
		scale := o.TargetVol / vol
		if scale > maxScale {
			scale = maxScale
		}
		positions[i] *= scale
	}
}

// applyExitGate walks each run of same-direction exposure, accumulating the
// trade's compounded return, and zeroes the remainder of the run once the
// take-profit or stop-loss threshold trips.
func (o Overlay) applyExitGate(positions []float64, bars []types.OHLCV) {
	returns := barReturns(bars)

	tradeReturn := 0.0
	exited := false
	prevSign := 0.0

	for i := range positions {
		sign := signum(positions[i])
		if sign != prevSign {
			// New trade (or flat): reset the gate
			tradeReturn = 0
			exited = false
			prevSign = sign
		}
		if sign == 0 {
			continue
		}
		if exited {
			positions[i] = 0
			continue
		}
		if i < len(returns) {
			tradeReturn = (1+tradeReturn)*(1+sign*returns[i]) - 1
		}
		if o.TakeProfit > 0 && tradeReturn >= o.TakeProfit {
			exited = true
		}
		if o.StopLoss > 0 && tradeReturn <= -o.StopLoss {
			exited = true
		}
	}
}

// barReturns gives the close-to-close return earned into each bar;
// index 0 is zero.
func barReturns(bars []types.OHLCV) []float64 {
	returns := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev > 0 {
			returns[i] = (bars[i].Close - prev) / prev
		}
	}
	return returns
}

// realizedVol is the annualized standard deviation of the window of returns
// ending at index end.
func realizedVol(returns []float64, end, window int) float64 {
	if end+1 < window {
		return 0
	}
	slice := returns[end+1-window : end+1]
	mean := 0.0
	for _, r := range slice {
		mean += r
	}
	mean /= float64(window)
	variance := 0.0
	for _, r := range slice {
		variance += (r - mean) * (r - mean)
	}
	return math.Sqrt(variance/float64(window)) * math.Sqrt(252)
}

func signum(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
