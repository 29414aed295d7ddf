package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/quantlab/adaptive-selector/internal/evaluation"
)

// Report is the machine-readable evaluation report.
type Report struct {
	GeneratedAt time.Time                               `json:"generated_at"`
	Windows     int                                     `json:"windows"`
	Summaries   map[string]evaluation.StrategySummary   `json:"summaries"`
	Baselines   map[string]evaluation.StrategySummary   `json:"baselines"`
	Records     map[string][]evaluation.WindowMetrics   `json:"records"`
	Intervals   map[string]evaluation.MetricIntervals   `json:"intervals,omitempty"`
	Skipped     []evaluation.SkipRecord                 `json:"skipped,omitempty"`
}

// NewReport assembles a report from a run result.
func NewReport(result *evaluation.RunResult) *Report {
	return &Report{
		GeneratedAt: time.Now().UTC(),
		Windows:     len(result.Windows),
		Summaries:   result.Summaries,
		Baselines:   result.Baselines,
		Records:     result.Records,
		Intervals:   result.Intervals,
		Skipped:     result.Skipped,
	}
}

// DefaultJSONReporter implements JSON file output
type DefaultJSONReporter struct{}

// NewDefaultJSONReporter creates a new JSON reporter
func NewDefaultJSONReporter() *DefaultJSONReporter {
	return &DefaultJSONReporter{}
}

// WriteJSON writes the full report to path, creating parent directories.
func (r *DefaultJSONReporter) WriteJSON(result *evaluation.RunResult, path string) error {
	data, err := json.MarshalIndent(NewReport(result), "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
