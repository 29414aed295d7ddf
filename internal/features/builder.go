package features

import (
	"math"

	apperrors "github.com/quantlab/adaptive-selector/internal/errors"
	"github.com/quantlab/adaptive-selector/pkg/types"
)

// Dimension is the fixed length of every feature vector the builder emits.
// Slot layout: bias, EMA trend distance, momentum, normalized ATR, Bollinger
// width, centered RSI, price efficiency, volume spike.
const Dimension = 8

// WarmupBars is the number of leading bars whose rolling indicators are not
// yet trustworthy. Callers sampling feature points should skip indices below
// this.
const WarmupBars = 20

// Config holds the indicator periods behind each feature slot.
type Config struct {
	FastEMAPeriod    int
	SlowEMAPeriod    int
	MomentumPeriod   int
	ATRPeriod        int
	BollingerPeriod  int
	BollingerStdDev  float64
	RSIPeriod        int
	EfficiencyPeriod int
	VolumePeriod     int
}

// DefaultConfig returns the standard regime-feature periods.
func DefaultConfig() Config {
	return Config{
		FastEMAPeriod:    20,
		SlowEMAPeriod:    50,
		MomentumPeriod:   10,
		ATRPeriod:        14,
		BollingerPeriod:  20,
		BollingerStdDev:  2.0,
		RSIPeriod:        14,
		EfficiencyPeriod: 10,
		VolumePeriod:     20,
	}
}

// Builder converts an OHLCV series into the fixed-dimension market-regime
// feature vectors the selector conditions on. Every emitted value is finite:
// indicators that cannot be computed yet contribute their neutral value, and
// extremes are clamped.
type Builder struct {
	cfg Config
}

// NewBuilder creates a feature builder with the default periods.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

// NewBuilderWithConfig creates a feature builder with custom periods.
func NewBuilderWithConfig(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// Dimension returns the feature vector length.
func (b *Builder) Dimension() int {
	return Dimension
}

// Build computes one feature vector per bar, index-aligned with the input.
// Bars before the indicator warmup carry neutral values; use WarmupBars to
// skip them when sampling training points.
func (b *Builder) Build(bars []types.OHLCV) ([]types.FeatureVector, error) {
	if len(bars) == 0 {
		return nil, apperrors.NewInvalidInput("features", "Build", "empty bar series")
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	emaFast := ema(closes, b.cfg.FastEMAPeriod)
	emaSlow := ema(closes, b.cfg.SlowEMAPeriod)
	atr := averageTrueRange(bars, b.cfg.ATRPeriod)
	rsi := relativeStrength(closes, b.cfg.RSIPeriod)

	vectors := make([]types.FeatureVector, len(bars))
	for i := range bars {
		v := make(types.FeatureVector, Dimension)
		v[0] = 1 // bias

		if closes[i] > 0 {
			v[1] = clamp((emaFast[i] - emaSlow[i]) / closes[i])
			v[3] = clamp(atr[i] / closes[i])
		}
		v[2] = clamp(momentum(closes, i, b.cfg.MomentumPeriod))
		v[4] = clamp(bollingerWidth(closes, i, b.cfg.BollingerPeriod, b.cfg.BollingerStdDev))
		v[5] = clamp(rsi[i]/100 - 0.5)
		v[6] = clamp(priceEfficiency(closes, i, b.cfg.EfficiencyPeriod))
		v[7] = clamp(volumeSpike(bars, i, b.cfg.VolumePeriod))

		vectors[i] = v
	}
	return vectors, nil
}

// Latest computes the feature vector for the most recent bar.
func (b *Builder) Latest(bars []types.OHLCV) (types.FeatureVector, error) {
	vectors, err := b.Build(bars)
	if err != nil {
		return nil, err
	}
	return vectors[len(vectors)-1], nil
}

// ema computes an exponential moving average seeded at the first close.
func ema(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(period) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// averageTrueRange computes Wilder-smoothed ATR per bar.
func averageTrueRange(bars []types.OHLCV, period int) []float64 {
	out := make([]float64, len(bars))
	if len(bars) == 0 {
		return out
	}
	out[0] = bars[0].High - bars[0].Low
	for i := 1; i < len(bars); i++ {
		tr := bars[i].High - bars[i].Low
		if hc := math.Abs(bars[i].High - bars[i-1].Close); hc > tr {
			tr = hc
		}
		if lc := math.Abs(bars[i].Low - bars[i-1].Close); lc > tr {
			tr = lc
		}
		out[i] = (out[i-1]*float64(period-1) + tr) / float64(period)
	}
	return out
}

// relativeStrength computes Wilder RSI per bar; bars before the first full
// period carry the neutral 50.
func relativeStrength(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = 50
	}
	if len(closes) <= period {
		return out
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// momentum is the rate of change over the lookback period.
func momentum(closes []float64, i, period int) float64 {
	if i < period || closes[i-period] <= 0 {
		return 0
	}
	return (closes[i] - closes[i-period]) / closes[i-period]
}

// bollingerWidth is the band width relative to the middle band.
func bollingerWidth(closes []float64, i, period int, stdDev float64) float64 {
	if i+1 < period {
		return 0
	}
	window := closes[i+1-period : i+1]
	mean := 0.0
	for _, c := range window {
		mean += c
	}
	mean /= float64(period)
	if mean <= 0 {
		return 0
	}
	variance := 0.0
	for _, c := range window {
		variance += (c - mean) * (c - mean)
	}
	sd := math.Sqrt(variance / float64(period))
	return 2 * stdDev * sd / mean
}

// priceEfficiency measures how directional the recent move was: net change
// over the sum of absolute bar-to-bar changes, in [0, 1].
func priceEfficiency(closes []float64, i, period int) float64 {
	if i < period {
		return 0
	}
	net := math.Abs(closes[i] - closes[i-period])
	path := 0.0
	for j := i - period + 1; j <= i; j++ {
		path += math.Abs(closes[j] - closes[j-1])
	}
	if path == 0 {
		return 0
	}
	return net / path
}

// volumeSpike is current volume relative to its rolling average, centered
// at zero.
func volumeSpike(bars []types.OHLCV, i, period int) float64 {
	if i+1 < period {
		return 0
	}
	sum := 0.0
	for j := i + 1 - period; j <= i; j++ {
		sum += bars[j].Volume
	}
	avg := sum / float64(period)
	if avg <= 0 {
		return 0
	}
	return bars[i].Volume/avg - 1
}

// clamp bounds a feature value to [-10, 10] and scrubs non-finite inputs so
// the selector's finiteness contract always holds.
func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v > 10 {
		return 10
	}
	if v < -10 {
		return -10
	}
	return v
}
