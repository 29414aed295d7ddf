package evaluation

import (
	"math"
	"time"

	"github.com/quantlab/adaptive-selector/internal/risk"
)

// WindowMetrics is the out-of-sample performance record of one strategy over
// one test window, computed from its net-of-cost return series.
type WindowMetrics struct {
	Strategy    string    `json:"strategy"`
	WindowIndex int       `json:"window_index"`
	TestStart   time.Time `json:"test_start"`
	TestEnd     time.Time `json:"test_end"`

	CAGR         float64 `json:"cagr"`
	Sharpe       float64 `json:"sharpe"`
	Sortino      float64 `json:"sortino"`
	Calmar       float64 `json:"calmar"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	ProfitFactor float64 `json:"profit_factor"`
	HitRate      float64 `json:"hit_rate"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	Turnover     float64 `json:"turnover"`
	CVaR95       float64 `json:"cvar_95"`
	RecoveryTime int     `json:"recovery_time"`
	TradeCount   int     `json:"trade_count"`
}

// StrategySummary aggregates a strategy's window records by averaging each
// metric across its windows.
type StrategySummary struct {
	Strategy string `json:"strategy"`
	Windows  int    `json:"windows"`

	CAGR         float64 `json:"cagr"`
	Sharpe       float64 `json:"sharpe"`
	Sortino      float64 `json:"sortino"`
	Calmar       float64 `json:"calmar"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	ProfitFactor float64 `json:"profit_factor"`
	HitRate      float64 `json:"hit_rate"`
	Turnover     float64 `json:"turnover"`
	CVaR95       float64 `json:"cvar_95"`
	TradeCount   int     `json:"trade_count"`
}

// SkipRecord notes a strategy/window evaluation that failed and was skipped.
type SkipRecord struct {
	Strategy    string `json:"strategy"`
	WindowIndex int    `json:"window_index"`
	Reason      string `json:"reason"`
}

// computeWindowMetrics derives the full metric record from a net return
// series and its matching position series. Ratio metrics come from the risk
// engine and carry its insufficient-data sentinels.
func computeWindowMetrics(netReturns, positions []float64, riskFreeRate float64) (WindowMetrics, error) {
	engine := risk.NewEngine(riskFreeRate)
	equity := 1.0
	if err := engine.AddPortfolioValue(equity); err != nil {
		return WindowMetrics{}, err
	}
	for _, r := range netReturns {
		if err := engine.AddReturn(r); err != nil {
			return WindowMetrics{}, err
		}
		equity *= 1 + r
		if equity < 0 {
			equity = 0
		}
		if err := engine.AddPortfolioValue(equity); err != nil {
			return WindowMetrics{}, err
		}
	}

	maxDD, _, _ := engine.MaxDrawdown()
	m := WindowMetrics{
		CAGR:        cagr(netReturns),
		Sharpe:      engine.SharpeRatio(),
		Sortino:     engine.SortinoRatio(0),
		Calmar:      engine.CalmarRatio(),
		MaxDrawdown: maxDD,
		CVaR95:      engine.CVaR(0.95),
		Turnover:    turnover(positions),
	}
	m.ProfitFactor, m.HitRate, m.AvgWin, m.AvgLoss = tradeStats(netReturns, positions)
	m.RecoveryTime = recoveryTime(netReturns)
	m.TradeCount = tradeCount(positions)
	return m, nil
}

// cagr annualizes the compounded growth of the return series; an empty
// series or total wipeout yields 0.
func cagr(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	if growth <= 0 {
		return -1
	}
	years := float64(len(returns)) / risk.TradingDaysPerYear
	if years <= 0 {
		return 0
	}
	return math.Pow(growth, 1/years) - 1
}

// tradeStats derives profit factor, hit rate and average win/loss from the
// per-period returns earned while a position was held.
func tradeStats(netReturns, positions []float64) (profitFactor, hitRate, avgWin, avgLoss float64) {
	gains, losses := 0.0, 0.0
	wins, total := 0, 0
	winSum, lossSum := 0.0, 0.0

	for i, r := range netReturns {
		if i >= len(positions) || positions[i] == 0 || r == 0 {
			continue
		}
		total++
		if r > 0 {
			wins++
			gains += r
			winSum += r
		} else {
			losses += -r
			lossSum += -r
		}
	}

	if losses > 0 {
		profitFactor = gains / losses
	} else if gains > 0 {
		profitFactor = math.Inf(1)
	}
	if total > 0 {
		hitRate = float64(wins) / float64(total)
	}
	if wins > 0 {
		avgWin = winSum / float64(wins)
	}
	if n := total - wins; n > 0 {
		avgLoss = lossSum / float64(n)
	}
	return profitFactor, hitRate, avgWin, avgLoss
}

// recoveryTime is the longest stretch of periods spent below a prior equity
// peak.
func recoveryTime(returns []float64) int {
	equity := 1.0
	peak := 1.0
	longest := 0
	current := 0
	for _, r := range returns {
		equity *= 1 + r
		if equity >= peak {
			peak = equity
			current = 0
			continue
		}
		current++
		if current > longest {
			longest = current
		}
	}
	return longest
}

// tradeCount counts position changes.
func tradeCount(positions []float64) int {
	count := 0
	prev := 0.0
	for _, p := range positions {
		if p != prev {
			count++
		}
		prev = p
	}
	return count
}

func turnover(positions []float64) float64 {
	total := 0.0
	prev := 0.0
	for _, p := range positions {
		total += math.Abs(p - prev)
		prev = p
	}
	return total
}

// summarize averages a strategy's window records.
func summarize(name string, records []WindowMetrics) StrategySummary {
	s := StrategySummary{Strategy: name, Windows: len(records)}
	if len(records) == 0 {
		return s
	}
	n := float64(len(records))
	for _, r := range records {
		s.CAGR += r.CAGR
		s.Sharpe += r.Sharpe
		s.Sortino += boundedForMean(r.Sortino)
		s.Calmar += boundedForMean(r.Calmar)
		s.MaxDrawdown += r.MaxDrawdown
		s.ProfitFactor += boundedForMean(r.ProfitFactor)
		s.HitRate += r.HitRate
		s.Turnover += r.Turnover
		s.CVaR95 += r.CVaR95
		s.TradeCount += r.TradeCount
	}
	s.CAGR /= n
	s.Sharpe /= n
	s.Sortino /= n
	s.Calmar /= n
	s.MaxDrawdown /= n
	s.ProfitFactor /= n
	s.HitRate /= n
	s.Turnover /= n
	s.CVaR95 /= n
	return s
}

// boundedForMean caps the +Inf boundary sentinels so a single degenerate
// window cannot poison a cross-window average.
func boundedForMean(v float64) float64 {
	const bound = 100
	if math.IsInf(v, 1) || v > bound {
		return bound
	}
	if math.IsInf(v, -1) || v < -bound {
		return -bound
	}
	return v
}
