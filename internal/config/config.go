package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config carries every scalar the evaluation run depends on. All defaults
// are set in Default; no behavior depends on an unstated default.
type Config struct {
	// Data
	Symbol    string `json:"symbol"`
	DataFile  string `json:"data_file"`
	StartDate string `json:"start_date"` // YYYY-MM-DD, empty = full range
	EndDate   string `json:"end_date"`

	// Walk-forward windows
	TrainDays int `json:"train_days"`
	TestDays  int `json:"test_days"`

	// Selector
	SelectorType  string  `json:"selector_type"` // "thompson" or "none"
	TopK          int     `json:"topk"`
	Beta          float64 `json:"beta"`
	WarmupSamples int     `json:"warmup_samples"`
	Seed          int64   `json:"seed"`

	// Strategy roster
	Strategies []string `json:"strategies"` // empty = full known roster

	// Costs and overlay
	FeeBps       float64 `json:"fee_bps"`
	SlippageCoef float64 `json:"slippage_coef"`
	TargetVol    float64 `json:"target_vol"`
	TakeProfit   float64 `json:"take_profit"`
	StopLoss     float64 `json:"stop_loss"`

	// Risk engine
	RiskFreeRate float64 `json:"risk_free_rate"`

	// Bootstrap
	BootstrapSamples int     `json:"bootstrap_samples"`
	ConfidenceLevel  float64 `json:"confidence_level"`

	// Output
	OutputDir string `json:"output_dir"`
	StateFile string `json:"state_file"` // selector warm-restart path, empty = disabled
}

// Default returns the documented defaults for every field.
func Default() *Config {
	return &Config{
		Symbol:           "BTCUSDT",
		TrainDays:        365,
		TestDays:         90,
		SelectorType:     "thompson",
		TopK:             2,
		Beta:             1.0,
		WarmupSamples:    50,
		Seed:             1,
		FeeBps:           5,
		SlippageCoef:     0.0002,
		TargetVol:        0.20,
		TakeProfit:       0,
		StopLoss:         0,
		RiskFreeRate:     0.02,
		BootstrapSamples: 1000,
		ConfidenceLevel:  0.95,
		OutputDir:        "results",
	}
}

// LoadFile overlays a JSON config file onto the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv overlays environment variables onto the defaults.
func FromEnv() *Config {
	cfg := Default()
	cfg.Symbol = getEnv("SELECTOR_SYMBOL", cfg.Symbol)
	cfg.DataFile = getEnv("SELECTOR_DATA_FILE", cfg.DataFile)
	cfg.TrainDays = getEnvInt("SELECTOR_TRAIN_DAYS", cfg.TrainDays)
	cfg.TestDays = getEnvInt("SELECTOR_TEST_DAYS", cfg.TestDays)
	cfg.TopK = getEnvInt("SELECTOR_TOPK", cfg.TopK)
	cfg.FeeBps = getEnvFloat("SELECTOR_FEE_BPS", cfg.FeeBps)
	cfg.SlippageCoef = getEnvFloat("SELECTOR_SLIPPAGE_COEF", cfg.SlippageCoef)
	cfg.TargetVol = getEnvFloat("SELECTOR_TARGET_VOL", cfg.TargetVol)
	cfg.BootstrapSamples = getEnvInt("SELECTOR_BOOTSTRAP_SAMPLES", cfg.BootstrapSamples)
	cfg.ConfidenceLevel = getEnvFloat("SELECTOR_CONFIDENCE_LEVEL", cfg.ConfidenceLevel)
	cfg.OutputDir = getEnv("SELECTOR_OUTPUT_DIR", cfg.OutputDir)
	if roster := getEnv("SELECTOR_STRATEGIES", ""); roster != "" {
		cfg.Strategies = splitList(roster)
	}
	return cfg
}

// Validate rejects configurations the run could not honor.
func (c *Config) Validate() error {
	if c.TrainDays < 1 {
		return fmt.Errorf("train_days must be >= 1, got %d", c.TrainDays)
	}
	if c.TestDays < 1 {
		return fmt.Errorf("test_days must be >= 1, got %d", c.TestDays)
	}
	if c.TopK < 1 {
		return fmt.Errorf("topk must be >= 1, got %d", c.TopK)
	}
	if c.Beta <= 0 {
		return fmt.Errorf("beta must be > 0, got %v", c.Beta)
	}
	if c.SelectorType != "thompson" && c.SelectorType != "none" {
		return fmt.Errorf("selector_type must be \"thompson\" or \"none\", got %q", c.SelectorType)
	}
	if c.BootstrapSamples < 1 {
		return fmt.Errorf("bootstrap_samples must be >= 1, got %d", c.BootstrapSamples)
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("confidence_level must be in (0, 1), got %v", c.ConfidenceLevel)
	}
	if c.FeeBps < 0 || c.SlippageCoef < 0 {
		return fmt.Errorf("fee_bps and slippage_coef must be >= 0")
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}
