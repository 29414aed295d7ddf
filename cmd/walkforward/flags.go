package main

import (
	"flag"
	"fmt"
)

// Flags holds all command line flags for the walk-forward command
type Flags struct {
	// Configuration
	ConfigFile *string
	DataFile   *string
	Symbol     *string
	StartDate  *string
	EndDate    *string

	// Walk-forward windows
	TrainDays *int
	TestDays  *int

	// Selector
	Selector *string // "thompson" or "none"
	TopK     *int
	Beta     *float64
	Warmup   *int
	Seed     *int64

	// Strategy roster
	Strategies *string // comma-separated list, empty = full roster

	// Costs and overlay
	FeeBps       *float64
	SlippageCoef *float64
	TargetVol    *float64
	TakeProfit   *float64
	StopLoss     *float64

	// Risk and bootstrap
	RiskFree         *float64
	BootstrapSamples *int
	Confidence       *float64

	// Output options
	OutputDir   *string
	StateFile   *string
	ConsoleOnly *bool
	MetricsAddr *string
	EnvFile     *string

	// Help and version
	ShowVersion *bool
	ShowHelp    *bool
}

// NewFlags creates and registers all command line flags
func NewFlags() *Flags {
	return &Flags{
		ConfigFile: flag.String("config", "", "JSON configuration file (overrides defaults, overridden by flags)"),
		DataFile:   flag.String("data", "", "CSV file with daily OHLCV bars"),
		Symbol:     flag.String("symbol", "", "Symbol label for reports"),
		StartDate:  flag.String("start", "", "Start date filter (YYYY-MM-DD)"),
		EndDate:    flag.String("end", "", "End date filter (YYYY-MM-DD, exclusive)"),

		TrainDays: flag.Int("train-days", 0, "Training window length in bars"),
		TestDays:  flag.Int("test-days", 0, "Test window length in bars (also the step)"),

		Selector: flag.String("selector", "", "Strategy selector: thompson or none"),
		TopK:     flag.Int("topk", 0, "Strategies picked per test window"),
		Beta:     flag.Float64("beta", 0, "Ridge regularizer for the bandit posterior"),
		Warmup:   flag.Int("warmup", -1, "Updates before the posterior is trusted"),
		Seed:     flag.Int64("seed", -1, "Seed for selector sampling and bootstrap"),

		Strategies: flag.String("strategies", "", "Comma-separated strategy roster (empty = all)"),

		FeeBps:       flag.Float64("fee-bps", -1, "Proportional fee in basis points per unit traded"),
		SlippageCoef: flag.Float64("slippage", -1, "Square-root slippage coefficient"),
		TargetVol:    flag.Float64("target-vol", -1, "Annualized volatility target (0 disables)"),
		TakeProfit:   flag.Float64("take-profit", -1, "Per-trade take profit fraction (0 disables)"),
		StopLoss:     flag.Float64("stop-loss", -1, "Per-trade stop loss fraction (0 disables)"),

		RiskFree:         flag.Float64("risk-free", -1, "Annualized risk-free rate"),
		BootstrapSamples: flag.Int("bootstrap", 0, "Bootstrap resample count"),
		Confidence:       flag.Float64("confidence", 0, "Bootstrap confidence level in (0, 1)"),

		OutputDir:   flag.String("output", "", "Directory for JSON and Excel reports"),
		StateFile:   flag.String("state", "", "Selector state file for warm restarts"),
		ConsoleOnly: flag.Bool("console-only", false, "Skip file reports"),
		MetricsAddr: flag.String("metrics-addr", "", "Address for the Prometheus endpoint (empty = disabled)"),
		EnvFile:     flag.String("env", ".env", "Environment file to load"),

		ShowVersion: flag.Bool("version", false, "Show version information"),
		ShowHelp:    flag.Bool("help", false, "Show help information"),
	}
}

// PrintUsageExamples prints common invocations
func PrintUsageExamples() {
	fmt.Println("EXAMPLES:")
	fmt.Println("  walkforward -data data/BTCUSDT_1d.csv")
	fmt.Println("  walkforward -data data/BTCUSDT_1d.csv -train-days 365 -test-days 90 -topk 2")
	fmt.Println("  walkforward -config configs/btc.json -selector none")
	fmt.Println("  walkforward -data data/BTCUSDT_1d.csv -state results/selector.json -seed 7")
	fmt.Println()
}
