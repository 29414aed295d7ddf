package types

import (
	"math"
	"time"
)

type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// FeatureVector describes the market regime at one timestamp. Its length is
// fixed by the feature builder and must match the selector's configured
// dimension; entries are always finite.
type FeatureVector []float64

// IsFinite reports whether every entry of the vector is a finite number.
func (f FeatureVector) IsFinite() bool {
	for _, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the vector.
func (f FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(f))
	copy(out, f)
	return out
}

// CloseReturns converts a bar series into simple period returns on close
// prices. The result has len(bars)-1 entries when all closes are positive;
// bars with a non-positive previous close are skipped to keep the series
// finite.
func CloseReturns(bars []OHLCV) []float64 {
	if len(bars) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev <= 0 {
			continue
		}
		returns = append(returns, (bars[i].Close-prev)/prev)
	}
	return returns
}
