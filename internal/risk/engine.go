package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	apperrors "github.com/quantlab/adaptive-selector/internal/errors"
)

const (
	// WindowSize is the rolling history bound: one trading year of daily
	// observations. Older entries are evicted on insert.
	WindowSize = 252

	// MinSamples is the floor below which ratio and quantile metrics return
	// their insufficient-data sentinel (0.0). Callers must treat that value
	// as "not yet computable", not as "zero risk".
	MinSamples = 30

	// TradingDaysPerYear is the annualization factor for daily returns.
	TradingDaysPerYear = 252.0
)

// Engine maintains rolling return and portfolio-value histories for one
// portfolio or strategy and computes point-in-time risk and performance
// statistics. All calculations are deterministic pure functions of the
// current buffers; the only mutators are AddReturn and AddPortfolioValue.
type Engine struct {
	riskFreeRate float64

	returns []float64
	values  []float64
}

// NewEngine creates a risk analytics engine with the given annual risk-free
// rate (e.g. 0.02 for 2%).
func NewEngine(riskFreeRate float64) *Engine {
	return &Engine{
		riskFreeRate: riskFreeRate,
		returns:      make([]float64, 0, WindowSize),
		values:       make([]float64, 0, WindowSize),
	}
}

// AddReturn appends a period return, evicting the oldest entry beyond the
// rolling window. Non-finite values are rejected.
func (e *Engine) AddReturn(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return apperrors.NewInvalidInput("risk", "AddReturn", "return must be finite, got %v", r)
	}
	e.returns = append(e.returns, r)
	if len(e.returns) > WindowSize {
		e.returns = e.returns[1:]
	}
	return nil
}

// AddPortfolioValue appends an absolute portfolio value, evicting the oldest
// entry beyond the rolling window. Values must be finite and non-negative.
func (e *Engine) AddPortfolioValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return apperrors.NewInvalidInput("risk", "AddPortfolioValue", "portfolio value must be finite and >= 0, got %v", v)
	}
	e.values = append(e.values, v)
	if len(e.values) > WindowSize {
		e.values = e.values[1:]
	}
	return nil
}

// Ready reports whether enough returns have been recorded for the ratio and
// quantile metrics to be computable. It lets callers distinguish the 0.0
// insufficient-data sentinel from a computed zero.
func (e *Engine) Ready() bool {
	return len(e.returns) >= MinSamples
}

// SampleCount returns the number of returns currently in the rolling window.
func (e *Engine) SampleCount() int {
	return len(e.returns)
}

// VaR computes historical-simulation Value-at-Risk: the (1-confidence)
// quantile of the return history scaled by sqrt(horizonDays). Returns the
// 0.0 sentinel below the sample floor.
func (e *Engine) VaR(confidence float64, horizonDays int) float64 {
	if len(e.returns) < MinSamples {
		return 0
	}
	if horizonDays < 1 {
		horizonDays = 1
	}
	q := percentile(e.returns, 1-confidence)
	return q * math.Sqrt(float64(horizonDays))
}

// CVaR computes Conditional Value-at-Risk: the mean of all returns at or
// below the one-day VaR threshold. Falls back to the VaR itself when the
// tail is degenerate (no returns below the threshold). Returns the 0.0
// sentinel below the sample floor.
func (e *Engine) CVaR(confidence float64) float64 {
	if len(e.returns) < MinSamples {
		return 0
	}
	threshold := percentile(e.returns, 1-confidence)
	sum := 0.0
	count := 0
	for _, r := range e.returns {
		if r <= threshold {
			sum += r
			count++
		}
	}
	if count == 0 {
		return threshold
	}
	return sum / float64(count)
}

// SharpeRatio computes the annualized Sharpe ratio over the rolling window:
// (mean*252 - riskFreeRate) / (stdev*sqrt(252)). Returns the 0.0 sentinel
// below the sample floor or when volatility is exactly zero.
func (e *Engine) SharpeRatio() float64 {
	if len(e.returns) < MinSamples {
		return 0
	}
	mean, std := meanStd(e.returns)
	if std == 0 {
		return 0
	}
	return (mean*TradingDaysPerYear - e.riskFreeRate) / (std * math.Sqrt(TradingDaysPerYear))
}

// SortinoRatio computes the annualized Sortino ratio against the given
// target return. The denominator is the annualized deviation of returns
// below target. Returns +Inf when no downside returns exist, and the 0.0
// sentinel below the sample floor.
func (e *Engine) SortinoRatio(target float64) float64 {
	if len(e.returns) < MinSamples {
		return 0
	}
	mean, _ := meanStd(e.returns)
	downside := e.downsideDeviation(target)
	if downside == 0 {
		return math.Inf(1)
	}
	return (mean*TradingDaysPerYear - e.riskFreeRate) / (downside * math.Sqrt(TradingDaysPerYear))
}

// MaxDrawdown computes drawdown statistics from the portfolio-value series:
// the worst peak-to-trough drawdown as a positive magnitude, the number of
// periods between that peak and its trough, and the drawdown at the most
// recent observation. Requires at least two values, else (0, 0, 0).
func (e *Engine) MaxDrawdown() (maxDD float64, duration int, currentDD float64) {
	if len(e.values) < 2 {
		return 0, 0, 0
	}

	runningMax := e.values[0]
	peakIdx := 0
	worst := 0.0
	worstDuration := 0

	for i, v := range e.values {
		if v > runningMax {
			runningMax = v
			peakIdx = i
		}
		if runningMax <= 0 {
			continue
		}
		dd := (v - runningMax) / runningMax
		if dd < worst {
			worst = dd
			worstDuration = i - peakIdx
		}
	}

	last := e.values[len(e.values)-1]
	current := 0.0
	if runningMax > 0 {
		current = (last - runningMax) / runningMax
	}

	return -worst, worstDuration, current
}

// CalmarRatio computes annualized return divided by max drawdown magnitude.
// Returns +Inf when the drawdown is exactly zero (the mathematical boundary)
// and the 0.0 sentinel below the sample floor.
func (e *Engine) CalmarRatio() float64 {
	if len(e.returns) < MinSamples {
		return 0
	}
	mean, _ := meanStd(e.returns)
	annualized := mean * TradingDaysPerYear
	maxDD, _, _ := e.MaxDrawdown()
	if maxDD == 0 {
		return math.Inf(1)
	}
	return annualized / maxDD
}

// OmegaRatio computes the probability-weighted gain/loss ratio around the
// given threshold: sum of returns above it over the magnitude of returns
// below it. Returns +Inf when no returns fall below the threshold and the
// 0.0 sentinel below the sample floor.
func (e *Engine) OmegaRatio(threshold float64) float64 {
	if len(e.returns) < MinSamples {
		return 0
	}
	gains := 0.0
	losses := 0.0
	for _, r := range e.returns {
		if r > threshold {
			gains += r - threshold
		} else {
			losses += threshold - r
		}
	}
	if losses == 0 {
		return math.Inf(1)
	}
	return gains / losses
}

// InformationRatio computes the annualized active return over the benchmark
// divided by annualized tracking error. The benchmark is aligned to the most
// recent overlapping observations. Returns the 0.0 sentinel below the sample
// floor or when tracking error is exactly zero.
func (e *Engine) InformationRatio(benchmark []float64) float64 {
	n := len(e.returns)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n < MinSamples {
		return 0
	}

	active := make([]float64, n)
	rets := e.returns[len(e.returns)-n:]
	bench := benchmark[len(benchmark)-n:]
	for i := range active {
		active[i] = rets[i] - bench[i]
	}

	mean, std := meanStd(active)
	if std == 0 {
		return 0
	}
	return (mean * TradingDaysPerYear) / (std * math.Sqrt(TradingDaysPerYear))
}

// BetaAlpha regresses the portfolio returns against the market returns and
// yields the per-period beta and the annualized alpha. Returns the (1.0, 0.0)
// sentinel below the sample floor or when market variance is zero.
func (e *Engine) BetaAlpha(market []float64) (beta, alpha float64) {
	n := len(e.returns)
	if len(market) < n {
		n = len(market)
	}
	if n < MinSamples {
		return 1, 0
	}

	rets := e.returns[len(e.returns)-n:]
	mkt := market[len(market)-n:]
	if stat.Variance(mkt, nil) == 0 {
		return 1, 0
	}

	intercept, slope := stat.LinearRegression(mkt, rets, nil, false)
	return slope, intercept * TradingDaysPerYear
}

// AnnualizedVolatility returns the annualized standard deviation of the
// rolling return window, or 0 with fewer than two samples.
func (e *Engine) AnnualizedVolatility() float64 {
	if len(e.returns) < 2 {
		return 0
	}
	_, std := meanStd(e.returns)
	return std * math.Sqrt(TradingDaysPerYear)
}

// DownsideVolatility returns the annualized deviation of returns below the
// given target, or 0 with fewer than two samples.
func (e *Engine) DownsideVolatility(target float64) float64 {
	if len(e.returns) < 2 {
		return 0
	}
	return e.downsideDeviation(target) * math.Sqrt(TradingDaysPerYear)
}

// Reset clears both rolling buffers.
func (e *Engine) Reset() {
	e.returns = e.returns[:0]
	e.values = e.values[:0]
}

// downsideDeviation is the per-period root-mean-square of shortfalls below
// target, taken over the downside observations only.
func (e *Engine) downsideDeviation(target float64) float64 {
	sumSquares := 0.0
	count := 0
	for _, r := range e.returns {
		if r < target {
			diff := r - target
			sumSquares += diff * diff
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSquares / float64(count))
}

// percentile computes the p-quantile (0 <= p <= 1) of values by sorting a
// copy and linearly interpolating between the two nearest order statistics.
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := p * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func meanStd(values []float64) (mean, std float64) {
	mean = stat.Mean(values, nil)
	if len(values) < 2 {
		return mean, 0
	}
	std = math.Sqrt(stat.Variance(values, nil))
	return mean, std
}
