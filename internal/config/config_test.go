package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault_Validates verifies the documented defaults pass validation
// (aside from the data file, which has no sensible default).
func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 365, cfg.TrainDays)
	assert.Equal(t, 90, cfg.TestDays)
	assert.Equal(t, "thompson", cfg.SelectorType)
	assert.Equal(t, 1000, cfg.BootstrapSamples)
}

// TestLoadFile_OverlaysDefaults verifies file values replace defaults while
// unset fields keep them.
func TestLoadFile_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"symbol": "ETHUSDT",
		"train_days": 180,
		"topk": 3,
		"strategies": ["momentum", "sma_cross"]
	}`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.Symbol)
	assert.Equal(t, 180, cfg.TrainDays)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, []string{"momentum", "sma_cross"}, cfg.Strategies)
	// Untouched fields keep their defaults.
	assert.Equal(t, 90, cfg.TestDays)
	assert.Equal(t, 0.95, cfg.ConfidenceLevel)
}

// TestLoadFile_RejectsInvalid verifies a config file that fails validation
// is rejected at load time.
func TestLoadFile_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"train_days": 0}`), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

// TestFromEnv_ReadsOverrides verifies environment variables overlay the
// defaults.
func TestFromEnv_ReadsOverrides(t *testing.T) {
	t.Setenv("SELECTOR_SYMBOL", "SOLUSDT")
	t.Setenv("SELECTOR_TRAIN_DAYS", "250")
	t.Setenv("SELECTOR_TARGET_VOL", "0.15")
	t.Setenv("SELECTOR_STRATEGIES", "momentum, rsi_reversal")

	cfg := FromEnv()
	assert.Equal(t, "SOLUSDT", cfg.Symbol)
	assert.Equal(t, 250, cfg.TrainDays)
	assert.Equal(t, 0.15, cfg.TargetVol)
	assert.Equal(t, []string{"momentum", "rsi_reversal"}, cfg.Strategies)
	assert.Equal(t, 90, cfg.TestDays)
}

// TestValidate_Bounds spot-checks each guard.
func TestValidate_Bounds(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.TrainDays = 0 },
		func(c *Config) { c.TestDays = -1 },
		func(c *Config) { c.TopK = 0 },
		func(c *Config) { c.Beta = 0 },
		func(c *Config) { c.SelectorType = "epsilon" },
		func(c *Config) { c.BootstrapSamples = 0 },
		func(c *Config) { c.ConfidenceLevel = 1 },
		func(c *Config) { c.FeeBps = -1 },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), "case %d", i)
	}
}
