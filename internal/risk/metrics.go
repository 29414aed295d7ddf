package risk

// MetricsSnapshot is an immutable record of every risk and performance
// statistic the engine can compute, taken fresh from the rolling buffers at
// call time. It is a derived value, not stored state.
type MetricsSnapshot struct {
	VaR95  float64 `json:"var_95"`
	VaR99  float64 `json:"var_99"`
	CVaR95 float64 `json:"cvar_95"`
	CVaR99 float64 `json:"cvar_99"`

	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	CalmarRatio      float64 `json:"calmar_ratio"`
	OmegaRatio       float64 `json:"omega_ratio"`
	InformationRatio float64 `json:"information_ratio"`

	MaxDrawdown      float64 `json:"max_drawdown"`
	CurrentDrawdown  float64 `json:"current_drawdown"`
	DrawdownDuration int     `json:"drawdown_duration"`

	AnnualizedVolatility float64 `json:"annualized_volatility"`
	DownsideVolatility   float64 `json:"downside_volatility"`

	Beta  float64 `json:"beta"`
	Alpha float64 `json:"alpha"`

	SampleCount int `json:"sample_count"`
}

// ComprehensiveMetrics computes all statistics in one pass and packages them.
// marketReturns may be nil, in which case the information ratio stays at its
// sentinel and beta/alpha stay at (1.0, 0.0).
func (e *Engine) ComprehensiveMetrics(marketReturns []float64) MetricsSnapshot {
	maxDD, duration, currentDD := e.MaxDrawdown()

	snapshot := MetricsSnapshot{
		VaR95:  e.VaR(0.95, 1),
		VaR99:  e.VaR(0.99, 1),
		CVaR95: e.CVaR(0.95),
		CVaR99: e.CVaR(0.99),

		SharpeRatio:  e.SharpeRatio(),
		SortinoRatio: e.SortinoRatio(0),
		CalmarRatio:  e.CalmarRatio(),
		OmegaRatio:   e.OmegaRatio(0),

		MaxDrawdown:      maxDD,
		CurrentDrawdown:  currentDD,
		DrawdownDuration: duration,

		AnnualizedVolatility: e.AnnualizedVolatility(),
		DownsideVolatility:   e.DownsideVolatility(0),

		Beta:  1,
		Alpha: 0,

		SampleCount: len(e.returns),
	}

	if marketReturns != nil {
		snapshot.InformationRatio = e.InformationRatio(marketReturns)
		snapshot.Beta, snapshot.Alpha = e.BetaAlpha(marketReturns)
	}

	return snapshot
}
