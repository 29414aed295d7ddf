package evaluation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// DefaultBootstrapSamples is the number of resamples drawn when none is
// configured.
const DefaultBootstrapSamples = 1000

// Interval is a two-sided percentile confidence interval around a resampled
// mean. Lower never exceeds Upper.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Mean  float64 `json:"mean"`
}

// MetricIntervals holds the bootstrap intervals for one strategy's headline
// metrics.
type MetricIntervals struct {
	Strategy string `json:"strategy"`
	Windows  int    `json:"windows"`

	CAGR        Interval `json:"cagr"`
	Sharpe      Interval `json:"sharpe"`
	Sortino     Interval `json:"sortino"`
	Calmar      Interval `json:"calmar"`
	MaxDrawdown Interval `json:"max_drawdown"`
}

// Bootstrap estimates confidence intervals for per-strategy mean metrics by
// resampling window records with replacement. A fixed seed makes every
// estimate reproducible.
type Bootstrap struct {
	samples    int
	confidence float64
	seed       int64
}

// NewBootstrap validates the resample count and confidence level. samples=0
// selects DefaultBootstrapSamples.
func NewBootstrap(samples int, confidence float64, seed int64) (*Bootstrap, error) {
	if samples == 0 {
		samples = DefaultBootstrapSamples
	}
	if samples < 1 {
		return nil, fmt.Errorf("bootstrap samples must be positive, got %d", samples)
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("confidence level must be in (0, 1), got %f", confidence)
	}
	return &Bootstrap{samples: samples, confidence: confidence, seed: seed}, nil
}

// Estimate computes percentile intervals for every strategy with at least one
// window record. Strategies with no records are omitted. Iteration order is
// fixed by sorted strategy name, so equal seeds yield equal results.
func (b *Bootstrap) Estimate(records map[string][]WindowMetrics) map[string]MetricIntervals {
	names := make([]string, 0, len(records))
	for name, recs := range records {
		if len(recs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	rng := rand.New(rand.NewSource(b.seed))
	out := make(map[string]MetricIntervals, len(names))
	for _, name := range names {
		out[name] = b.estimateStrategy(name, records[name], rng)
	}
	return out
}

func (b *Bootstrap) estimateStrategy(name string, records []WindowMetrics, rng *rand.Rand) MetricIntervals {
	n := len(records)
	cagrs := make([]float64, b.samples)
	sharpes := make([]float64, b.samples)
	sortinos := make([]float64, b.samples)
	calmars := make([]float64, b.samples)
	drawdowns := make([]float64, b.samples)

	for s := 0; s < b.samples; s++ {
		var cagr, sharpe, sortino, calmar, dd float64
		for i := 0; i < n; i++ {
			r := records[rng.Intn(n)]
			cagr += r.CAGR
			sharpe += r.Sharpe
			sortino += boundedForMean(r.Sortino)
			calmar += boundedForMean(r.Calmar)
			dd += r.MaxDrawdown
		}
		fn := float64(n)
		cagrs[s] = cagr / fn
		sharpes[s] = sharpe / fn
		sortinos[s] = sortino / fn
		calmars[s] = calmar / fn
		drawdowns[s] = dd / fn
	}

	return MetricIntervals{
		Strategy:    name,
		Windows:     n,
		CAGR:        b.interval(cagrs),
		Sharpe:      b.interval(sharpes),
		Sortino:     b.interval(sortinos),
		Calmar:      b.interval(calmars),
		MaxDrawdown: b.interval(drawdowns),
	}
}

// interval takes the (alpha/2, 1-alpha/2) percentiles of the resampled means.
func (b *Bootstrap) interval(means []float64) Interval {
	sorted := make([]float64, len(means))
	copy(sorted, means)
	sort.Float64s(sorted)

	alpha := 1 - b.confidence
	lower := percentileOf(sorted, alpha/2)
	upper := percentileOf(sorted, 1-alpha/2)

	sum := 0.0
	for _, m := range means {
		sum += m
	}
	return Interval{Lower: lower, Upper: upper, Mean: sum / float64(len(means))}
}

// percentileOf interpolates linearly between the order statistics of an
// already-sorted slice.
func percentileOf(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
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
