package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Selector metrics
	picksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selector_picks_total",
			Help: "Total number of times each strategy arm was picked",
		},
		[]string{"strategy"},
	)

	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selector_updates_total",
			Help: "Total number of posterior updates per strategy arm",
		},
		[]string{"strategy"},
	)

	// Evaluation metrics
	windowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "selector_windows_evaluated_total",
			Help: "Total number of walk-forward windows evaluated",
		},
	)

	skipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selector_strategy_skips_total",
			Help: "Total number of strategy/window evaluations skipped on failure",
		},
		[]string{"strategy"},
	)

	lastSharpe = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "selector_last_sharpe_ratio",
			Help: "Most recent out-of-sample Sharpe ratio per strategy",
		},
		[]string{"strategy"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(picksTotal)
	prometheus.MustRegister(updatesTotal)
	prometheus.MustRegister(windowsTotal)
	prometheus.MustRegister(skipsTotal)
	prometheus.MustRegister(lastSharpe)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ArmPicked records a strategy arm being selected for a test window
func ArmPicked(strategy string) {
	picksTotal.WithLabelValues(strategy).Inc()
}

// SelectorUpdated records a posterior update for a strategy arm
func SelectorUpdated(strategy string) {
	updatesTotal.WithLabelValues(strategy).Inc()
}

// WindowEvaluated records completion of one walk-forward window
func WindowEvaluated() {
	windowsTotal.Inc()
}

// StrategySkipped records a strategy/window evaluation skipped on failure
func StrategySkipped(strategy string) {
	skipsTotal.WithLabelValues(strategy).Inc()
}

// ReportSharpe updates the out-of-sample Sharpe gauge for a strategy
func ReportSharpe(strategy string, sharpe float64) {
	lastSharpe.WithLabelValues(strategy).Set(sharpe)
}
