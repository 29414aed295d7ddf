package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/quantlab/adaptive-selector/internal/config"
	"github.com/quantlab/adaptive-selector/internal/costs"
	"github.com/quantlab/adaptive-selector/internal/evaluation"
	"github.com/quantlab/adaptive-selector/internal/features"
	"github.com/quantlab/adaptive-selector/internal/monitoring"
	"github.com/quantlab/adaptive-selector/internal/overlay"
	"github.com/quantlab/adaptive-selector/internal/selector"
	"github.com/quantlab/adaptive-selector/internal/strategies"
	"github.com/quantlab/adaptive-selector/pkg/data"
	"github.com/quantlab/adaptive-selector/pkg/reporting"
	"github.com/quantlab/adaptive-selector/pkg/types"
)

const (
	AppName    = "Walk-Forward Selector"
	AppVersion = "1.0.0"
)

func main() {
	flags := NewFlags()
	flag.Parse()

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}
	if *flags.ShowHelp {
		printUsageHelp()
		return
	}

	printHeader()
	loadEnvironment(*flags.EnvFile)

	cfg, err := loadConfiguration(flags)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if *flags.MetricsAddr != "" {
		serveMetrics(*flags.MetricsAddr)
	}

	bars, err := loadBars(cfg)
	if err != nil {
		log.Fatalf("❌ Data error: %v", err)
	}
	log.Printf("📈 %s: %d bars from %s to %s", cfg.Symbol, len(bars),
		bars[0].Timestamp.Format("2006-01-02"), bars[len(bars)-1].Timestamp.Format("2006-01-02"))

	result, sel, err := runEvaluation(cfg, bars)
	if err != nil {
		log.Fatalf("❌ Evaluation error: %v", err)
	}

	report(cfg, result, *flags.ConsoleOnly)

	if cfg.StateFile != "" && sel != nil {
		if err := sel.SaveStateFile(cfg.StateFile); err != nil {
			log.Printf("⚠️  Could not save selector state: %v", err)
		} else {
			log.Printf("💾 Selector state saved to %s", cfg.StateFile)
		}
	}
}

// loadConfiguration layers defaults, environment, an optional config file
// and finally explicit flags.
func loadConfiguration(flags *Flags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *flags.ConfigFile != "" {
		cfg, err = config.LoadFile(*flags.ConfigFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.FromEnv()
	}

	applyFlagOverrides(cfg, flags)

	if cfg.DataFile == "" {
		return nil, fmt.Errorf("no data file given (use -data or SELECTOR_DATA_FILE)")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides copies only the flags the user actually set.
func applyFlagOverrides(cfg *config.Config, flags *Flags) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["data"] {
		cfg.DataFile = *flags.DataFile
	}
	if set["symbol"] {
		cfg.Symbol = *flags.Symbol
	}
	if set["start"] {
		cfg.StartDate = *flags.StartDate
	}
	if set["end"] {
		cfg.EndDate = *flags.EndDate
	}
	if set["train-days"] {
		cfg.TrainDays = *flags.TrainDays
	}
	if set["test-days"] {
		cfg.TestDays = *flags.TestDays
	}
	if set["selector"] {
		cfg.SelectorType = *flags.Selector
	}
	if set["topk"] {
		cfg.TopK = *flags.TopK
	}
	if set["beta"] {
		cfg.Beta = *flags.Beta
	}
	if set["warmup"] {
		cfg.WarmupSamples = *flags.Warmup
	}
	if set["seed"] {
		cfg.Seed = *flags.Seed
	}
	if set["strategies"] {
		cfg.Strategies = splitRoster(*flags.Strategies)
	}
	if set["fee-bps"] {
		cfg.FeeBps = *flags.FeeBps
	}
	if set["slippage"] {
		cfg.SlippageCoef = *flags.SlippageCoef
	}
	if set["target-vol"] {
		cfg.TargetVol = *flags.TargetVol
	}
	if set["take-profit"] {
		cfg.TakeProfit = *flags.TakeProfit
	}
	if set["stop-loss"] {
		cfg.StopLoss = *flags.StopLoss
	}
	if set["risk-free"] {
		cfg.RiskFreeRate = *flags.RiskFree
	}
	if set["bootstrap"] {
		cfg.BootstrapSamples = *flags.BootstrapSamples
	}
	if set["confidence"] {
		cfg.ConfidenceLevel = *flags.Confidence
	}
	if set["output"] {
		cfg.OutputDir = *flags.OutputDir
	}
	if set["state"] {
		cfg.StateFile = *flags.StateFile
	}
}

func splitRoster(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func loadBars(cfg *config.Config) ([]types.OHLCV, error) {
	provider := data.NewCSVProvider()
	bars, err := provider.LoadBars(cfg.DataFile)
	if err != nil {
		return nil, err
	}
	if err := provider.ValidateBars(bars); err != nil {
		return nil, err
	}

	if cfg.StartDate != "" || cfg.EndDate != "" {
		start, end, err := parseDateRange(cfg.StartDate, cfg.EndDate)
		if err != nil {
			return nil, err
		}
		bars = data.NewRangeFilter().ByDateRange(bars, start, end)
		if len(bars) == 0 {
			return nil, fmt.Errorf("date range %s..%s leaves no bars", cfg.StartDate, cfg.EndDate)
		}
	}
	return bars, nil
}

func parseDateRange(startStr, endStr string) (start, end time.Time, err error) {
	start = time.Time{}
	end = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	if startStr != "" {
		if start, err = time.Parse("2006-01-02", startStr); err != nil {
			return start, end, fmt.Errorf("invalid start date %q: %w", startStr, err)
		}
	}
	if endStr != "" {
		if end, err = time.Parse("2006-01-02", endStr); err != nil {
			return start, end, fmt.Errorf("invalid end date %q: %w", endStr, err)
		}
	}
	return start, end, nil
}

func runEvaluation(cfg *config.Config, bars []types.OHLCV) (*evaluation.RunResult, *selector.ThompsonSelector, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}

	costModel, err := costs.NewModel(cfg.FeeBps, cfg.SlippageCoef)
	if err != nil {
		return nil, nil, err
	}

	sizing := overlay.Default()
	sizing.TargetVol = cfg.TargetVol
	sizing.TakeProfit = cfg.TakeProfit
	sizing.StopLoss = cfg.StopLoss

	var sel *selector.ThompsonSelector
	var evalSel evaluation.Selector
	if cfg.SelectorType == "thompson" {
		selCfg := selector.DefaultConfig(registry.Len(), features.Dimension)
		selCfg.Beta = cfg.Beta
		selCfg.WarmupSamples = cfg.WarmupSamples
		selCfg.Seed = cfg.Seed
		sel, err = selector.NewThompsonSelector(selCfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.StateFile != "" {
			if err := sel.LoadStateFile(cfg.StateFile); err == nil {
				log.Printf("♻️  Selector state restored from %s", cfg.StateFile)
			}
		}
		evalSel = sel
	}

	ev, err := evaluation.NewEvaluator(evaluation.Config{
		TrainBars:    cfg.TrainDays,
		TestBars:     cfg.TestDays,
		TopK:         cfg.TopK,
		RiskFreeRate: cfg.RiskFreeRate,
	}, registry, evalSel, features.NewBuilder(), costModel, sizing)
	if err != nil {
		return nil, nil, err
	}

	result, err := ev.Run(bars)
	if err != nil {
		return nil, nil, err
	}

	bootstrap, err := evaluation.NewBootstrap(cfg.BootstrapSamples, cfg.ConfidenceLevel, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	result.Intervals = bootstrap.Estimate(result.Records)

	return result, sel, nil
}

func buildRegistry(cfg *config.Config) (*strategies.Registry, error) {
	if len(cfg.Strategies) == 0 {
		return strategies.DefaultRegistry(), nil
	}
	return strategies.NewRegistry(cfg.Strategies)
}

func report(cfg *config.Config, result *evaluation.RunResult, consoleOnly bool) {
	console := reporting.NewDefaultConsoleReporter()
	console.PrintSummary(result)
	console.PrintIntervals(result)
	console.PrintSkips(result)

	if consoleOnly {
		return
	}

	stamp := time.Now().Format("20060102_150405")
	base := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s", cfg.Symbol, stamp))

	jsonPath := base + ".json"
	if err := reporting.NewDefaultJSONReporter().WriteJSON(result, jsonPath); err != nil {
		log.Printf("⚠️  Could not write JSON report: %v", err)
	} else {
		log.Printf("📄 JSON report written to %s", jsonPath)
	}

	xlsxPath := base + ".xlsx"
	if err := reporting.NewDefaultExcelReporter().WriteXLSX(result, xlsxPath); err != nil {
		log.Printf("⚠️  Could not write Excel report: %v", err)
	} else {
		log.Printf("📊 Excel report written to %s", xlsxPath)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	go func() {
		log.Printf("📡 Prometheus metrics on http://%s/metrics", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("⚠️  Metrics server stopped: %v", err)
		}
	}()
}

func printHeader() {
	fmt.Printf("🎯 %s v%s\n", strings.ToUpper(AppName), AppVersion)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))
}

func printUsageHelp() {
	fmt.Printf("%s v%s - Adaptive strategy selection with walk-forward validation\n\n", AppName, AppVersion)
	fmt.Printf("USAGE:\n  %s [OPTIONS]\n\n", filepath.Base(flag.CommandLine.Name()))
	PrintUsageExamples()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
}

func loadEnvironment(envFile string) {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("⚠️  Could not load %s (%v)", envFile, err)
	}
}
