package evaluation

import (
	"fmt"
	"log"
	"sort"

	"github.com/quantlab/adaptive-selector/internal/costs"
	"github.com/quantlab/adaptive-selector/internal/features"
	"github.com/quantlab/adaptive-selector/internal/monitoring"
	"github.com/quantlab/adaptive-selector/internal/overlay"
	"github.com/quantlab/adaptive-selector/internal/risk"
	"github.com/quantlab/adaptive-selector/internal/strategies"
	"github.com/quantlab/adaptive-selector/pkg/types"
)

// Selector is the contextual bandit surface the evaluator drives: train-time
// updates inside each training window, one pick per test window.
type Selector interface {
	Pick(context types.FeatureVector, k int) ([]int, error)
	Update(context types.FeatureVector, arm int, reward float64) error
}

// Config holds the walk-forward parameters.
type Config struct {
	TrainBars    int
	TestBars     int
	TopK         int
	RiskFreeRate float64

	// SampleStride thins the feature points used for training updates; 1
	// updates on every post-warmup bar of the training slice.
	SampleStride int
}

// Evaluator drives leakage-free walk-forward evaluation of the selector
// against a fixed strategy roster and simple baselines. One bad strategy or
// window never aborts the run: its failure is logged, recorded and skipped.
type Evaluator struct {
	cfg       Config
	registry  *strategies.Registry
	selector  Selector // nil evaluates the full roster every window
	builder   *features.Builder
	costModel *costs.Model
	sizing    overlay.Overlay
}

// RunResult is the machine-readable outcome of one evaluation run.
type RunResult struct {
	Windows   []Window
	Records   map[string][]WindowMetrics
	Summaries map[string]StrategySummary
	Baselines map[string]StrategySummary
	Skipped   []SkipRecord
	Intervals map[string]MetricIntervals
}

// StrategyNames returns the summarized strategy names in sorted order.
func (r *RunResult) StrategyNames() []string {
	names := make([]string, 0, len(r.Summaries))
	for name := range r.Summaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewEvaluator wires an evaluator. selector may be nil to score the whole
// roster each window without adaptive selection.
func NewEvaluator(cfg Config, registry *strategies.Registry, sel Selector, builder *features.Builder, costModel *costs.Model, sizing overlay.Overlay) (*Evaluator, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, fmt.Errorf("strategy registry must not be empty")
	}
	if cfg.TrainBars < MinWindowBars || cfg.TestBars < MinWindowBars {
		return nil, fmt.Errorf("train and test windows must each cover at least %d bars", MinWindowBars)
	}
	if cfg.TopK < 1 || cfg.TopK > registry.Len() {
		return nil, fmt.Errorf("topk must be in [1, %d], got %d", registry.Len(), cfg.TopK)
	}
	if cfg.SampleStride < 1 {
		cfg.SampleStride = 1
	}
	if builder == nil {
		builder = features.NewBuilder()
	}
	return &Evaluator{
		cfg:       cfg,
		registry:  registry,
		selector:  sel,
		builder:   builder,
		costModel: costModel,
		sizing:    sizing,
	}, nil
}

// Run walks the windows over the bar series: trains the selector on each
// training slice, picks and scores strategies out-of-sample on the test
// slice, and evaluates the buy-and-hold and equal-weight baselines once over
// the full range.
func (e *Evaluator) Run(bars []types.OHLCV) (*RunResult, error) {
	windows := GenerateWindows(len(bars), e.cfg.TrainBars, e.cfg.TestBars)
	if len(windows) == 0 {
		return nil, fmt.Errorf("not enough data for walk-forward evaluation: %d bars", len(bars))
	}

	allFeatures, err := e.builder.Build(bars)
	if err != nil {
		return nil, err
	}
	marketReturns := barReturns(bars)

	// Raw signals are index-aligned with the full series; position at bar i
	// only looks backward, so per-window slicing stays leakage-free.
	rawPositions := make([][]float64, e.registry.Len())
	for arm := 0; arm < e.registry.Len(); arm++ {
		rawPositions[arm] = e.registry.Strategy(arm).Positions(bars)
	}

	result := &RunResult{
		Windows:   windows,
		Records:   make(map[string][]WindowMetrics),
		Summaries: make(map[string]StrategySummary),
		Baselines: make(map[string]StrategySummary),
	}

	log.Printf("🔄 walk-forward: %d windows, %d strategies, topk=%d", len(windows), e.registry.Len(), e.cfg.TopK)

	for wi, window := range windows {
		e.trainWindow(wi, window, allFeatures, marketReturns, rawPositions, result)
		e.testWindow(wi, window, bars, allFeatures, marketReturns, rawPositions, result)
		monitoring.WindowEvaluated()
	}

	for _, name := range e.registry.Names() {
		if records := result.Records[name]; len(records) > 0 {
			result.Summaries[name] = summarize(name, records)
		}
	}
	e.evaluateBaselines(bars, marketReturns, rawPositions, result)

	log.Printf("✅ walk-forward complete: %d strategies summarized, %d skips", len(result.Summaries), len(result.Skipped))
	return result, nil
}

// trainWindow scores every strategy over the training slice and feeds the
// selector one update per sampled feature point, skipping the indicator
// warmup at the head of the slice.
func (e *Evaluator) trainWindow(wi int, w Window, allFeatures []types.FeatureVector, marketReturns []float64, rawPositions [][]float64, result *RunResult) {
	if e.selector == nil {
		return
	}

	for arm := 0; arm < e.registry.Len(); arm++ {
		name := e.registry.Strategy(arm).Name()
		reward := e.trainReward(w, marketReturns, rawPositions[arm])

		var failed error
		for i := w.TrainStart + features.WarmupBars; i < w.TrainEnd; i += e.cfg.SampleStride {
			if err := e.selector.Update(allFeatures[i], arm, reward); err != nil {
				failed = err
				break
			}
			monitoring.SelectorUpdated(name)
		}
		if failed != nil {
			e.skip(result, name, wi, fmt.Sprintf("training update failed: %v", failed))
		}
	}
}

// trainReward is the realized Sharpe of the strategy's gross returns over
// the training slice.
func (e *Evaluator) trainReward(w Window, marketReturns []float64, positions []float64) float64 {
	engine := risk.NewEngine(e.cfg.RiskFreeRate)
	for i := w.TrainStart + 1; i < w.TrainEnd; i++ {
		r := positions[i-1] * marketReturns[i]
		if err := engine.AddReturn(r); err != nil {
			return 0
		}
	}
	return engine.SharpeRatio()
}

// testWindow picks strategies with the context observed at the end of
// training and scores each out-of-sample on the net-of-cost test slice.
func (e *Evaluator) testWindow(wi int, w Window, bars []types.OHLCV, allFeatures []types.FeatureVector, marketReturns []float64, rawPositions [][]float64, result *RunResult) {
	picks := e.pickArms(wi, w, allFeatures, result)

	for _, arm := range picks {
		name := e.registry.Strategy(arm).Name()
		record, err := e.evaluateStrategyWindow(w, bars, marketReturns, rawPositions[arm])
		if err != nil {
			e.skip(result, name, wi, err.Error())
			continue
		}
		record.Strategy = name
		record.WindowIndex = wi
		record.TestStart = bars[w.TestStart].Timestamp
		record.TestEnd = bars[w.TestEnd-1].Timestamp
		result.Records[name] = append(result.Records[name], record)
		monitoring.ReportSharpe(name, record.Sharpe)
	}
}

func (e *Evaluator) pickArms(wi int, w Window, allFeatures []types.FeatureVector, result *RunResult) []int {
	if e.selector == nil {
		picks := make([]int, e.registry.Len())
		for i := range picks {
			picks[i] = i
		}
		return picks
	}

	context := allFeatures[w.TrainEnd-1]
	picks, err := e.selector.Pick(context, e.cfg.TopK)
	if err != nil {
		// A failed pick degrades to the full roster rather than losing the window.
		log.Printf("⚠️  window %d: pick failed (%v), evaluating full roster", wi, err)
		all := make([]int, e.registry.Len())
		for i := range all {
			all[i] = i
		}
		return all
	}
	for _, arm := range picks {
		monitoring.ArmPicked(e.registry.Strategy(arm).Name())
	}
	return picks
}

// evaluateStrategyWindow applies the sizing overlay and cost model to the
// strategy's raw test-slice signal and computes its net-of-cost metrics.
func (e *Evaluator) evaluateStrategyWindow(w Window, bars []types.OHLCV, marketReturns []float64, positions []float64) (WindowMetrics, error) {
	if len(positions) != len(bars) {
		return WindowMetrics{}, fmt.Errorf("position series length %d does not match bars %d", len(positions), len(bars))
	}

	testBars := bars[w.TestStart:w.TestEnd]
	raw := positions[w.TestStart:w.TestEnd]
	sized := e.sizing.Apply(raw, testBars)

	gross := make([]float64, len(sized))
	for i := 1; i < len(sized); i++ {
		gross[i] = sized[i-1] * marketReturns[w.TestStart+i]
	}

	net := gross
	if e.costModel != nil {
		net = e.costModel.NetReturns(sized, gross)
	}
	return computeWindowMetrics(net, sized, e.cfg.RiskFreeRate)
}

// evaluateBaselines scores buy-and-hold and the equal-weight blend of the
// full roster once over the entire range.
func (e *Evaluator) evaluateBaselines(bars []types.OHLCV, marketReturns []float64, rawPositions [][]float64, result *RunResult) {
	hold := make([]float64, len(bars))
	for i := range hold {
		hold[i] = 1
	}
	e.addBaseline(result, "buy_and_hold", bars, marketReturns, hold)

	blend := make([]float64, len(bars))
	for i := range blend {
		sum := 0.0
		for _, positions := range rawPositions {
			sum += positions[i]
		}
		blend[i] = sum / float64(len(rawPositions))
	}
	e.addBaseline(result, "equal_weight", bars, marketReturns, blend)
}

func (e *Evaluator) addBaseline(result *RunResult, name string, bars []types.OHLCV, marketReturns, positions []float64) {
	full := Window{TrainStart: 0, TrainEnd: 1, TestStart: 0, TestEnd: len(bars)}
	record, err := e.evaluateStrategyWindow(full, bars, marketReturns, positions)
	if err != nil {
		log.Printf("⚠️  baseline %s failed: %v", name, err)
		return
	}
	record.Strategy = name
	result.Baselines[name] = summarize(name, []WindowMetrics{record})
}

func (e *Evaluator) skip(result *RunResult, name string, wi int, reason string) {
	log.Printf("⚠️  skipping %s in window %d: %s", name, wi, reason)
	monitoring.StrategySkipped(name)
	result.Skipped = append(result.Skipped, SkipRecord{Strategy: name, WindowIndex: wi, Reason: reason})
}

// barReturns gives the close-to-close return earned into each bar; index 0
// is zero.
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
