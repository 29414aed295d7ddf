package strategies

import (
	"math"

	"github.com/quantlab/adaptive-selector/pkg/types"
)

// SMACross goes long while the fast simple moving average is above the slow
// one, flat otherwise.
type SMACross struct {
	Fast int
	Slow int
}

func (s *SMACross) Name() string { return "sma_cross" }

func (s *SMACross) Positions(bars []types.OHLCV) []float64 {
	positions := make([]float64, len(bars))
	closes := closePrices(bars)
	for i := range bars {
		if i+1 < s.Slow {
			continue
		}
		fast := sma(closes, i, s.Fast)
		slow := sma(closes, i, s.Slow)
		if fast > slow {
			positions[i] = 1
		}
	}
	return positions
}

// Momentum holds long after a positive lookback return and short after a
// negative one.
type Momentum struct {
	Period int
}

func (s *Momentum) Name() string { return "momentum" }

func (s *Momentum) Positions(bars []types.OHLCV) []float64 {
	positions := make([]float64, len(bars))
	closes := closePrices(bars)
	for i := range bars {
		if i < s.Period || closes[i-s.Period] <= 0 {
			continue
		}
		change := (closes[i] - closes[i-s.Period]) / closes[i-s.Period]
		if change > 0 {
			positions[i] = 1
		} else if change < 0 {
			positions[i] = -1
		}
	}
	return positions
}

// MeanReversion fades moves beyond Entry standard deviations from the
// rolling mean, scaled back toward it.
type MeanReversion struct {
	Period int
	Entry  float64
}

func (s *MeanReversion) Name() string { return "mean_reversion" }

func (s *MeanReversion) Positions(bars []types.OHLCV) []float64 {
	positions := make([]float64, len(bars))
	closes := closePrices(bars)
	for i := range bars {
		if i+1 < s.Period {
			continue
		}
		mean := sma(closes, i, s.Period)
		sd := stdDev(closes, i, s.Period, mean)
		if sd == 0 {
			continue
		}
		z := (closes[i] - mean) / sd
		if z > s.Entry {
			positions[i] = -1
		} else if z < -s.Entry {
			positions[i] = 1
		}
	}
	return positions
}

// DonchianBreakout goes long on a close at the channel high and short at the
// channel low, holding the prior position in between.
type DonchianBreakout struct {
	Period int
}

func (s *DonchianBreakout) Name() string { return "donchian_breakout" }

func (s *DonchianBreakout) Positions(bars []types.OHLCV) []float64 {
	positions := make([]float64, len(bars))
	for i := range bars {
		if i < s.Period {
			continue
		}
		highest := bars[i-s.Period].High
		lowest := bars[i-s.Period].Low
		for j := i - s.Period + 1; j < i; j++ {
			if bars[j].High > highest {
				highest = bars[j].High
			}
			if bars[j].Low < lowest {
				lowest = bars[j].Low
			}
		}
		switch {
		case bars[i].Close >= highest:
			positions[i] = 1
		case bars[i].Close <= lowest:
			positions[i] = -1
		default:
			positions[i] = positions[i-1]
		}
	}
	return positions
}

// RSIReversal buys oversold and sells overbought RSI readings, flat in the
// neutral band.
type RSIReversal struct {
	Period     int
	Oversold   float64
	Overbought float64
}

func (s *RSIReversal) Name() string { return "rsi_reversal" }

func (s *RSIReversal) Positions(bars []types.OHLCV) []float64 {
	positions := make([]float64, len(bars))
	closes := closePrices(bars)
	if len(closes) <= s.Period {
		return positions
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= s.Period; i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(s.Period)
	avgLoss /= float64(s.Period)

	for i := s.Period; i < len(closes); i++ {
		if i > s.Period {
			diff := closes[i] - closes[i-1]
			gain, loss := 0.0, 0.0
			if diff > 0 {
				gain = diff
			} else {
				loss = -diff
			}
			avgGain = (avgGain*float64(s.Period-1) + gain) / float64(s.Period)
			avgLoss = (avgLoss*float64(s.Period-1) + loss) / float64(s.Period)
		}

		rsi := 50.0
		if avgLoss > 0 {
			rsi = 100 - 100/(1+avgGain/avgLoss)
		} else if avgGain > 0 {
			rsi = 100
		}

		switch {
		case rsi <= s.Oversold:
			positions[i] = 1
		case rsi >= s.Overbought:
			positions[i] = -1
		}
	}
	return positions
}

func closePrices(bars []types.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return closes
}

func sma(values []float64, i, period int) float64 {
	sum := 0.0
	for j := i + 1 - period; j <= i; j++ {
		sum += values[j]
	}
	return sum / float64(period)
}

func stdDev(values []float64, i, period int, mean float64) float64 {
	variance := 0.0
	for j := i + 1 - period; j <= i; j++ {
		variance += (values[j] - mean) * (values[j] - mean)
	}
	return math.Sqrt(variance / float64(period))
}
