package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quantlab/adaptive-selector/internal/evaluation"
)

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// PrintSummary renders the per-strategy averages and baselines as a table.
func (r *DefaultConsoleReporter) PrintSummary(result *evaluation.RunResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("📊 WALK-FORWARD SUMMARY (%d windows)", len(result.Windows))
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Strategy", "Windows", "CAGR", "Sharpe", "Sortino", "Max DD", "Hit Rate", "Turnover"})
	for _, name := range result.StrategyNames() {
		t.AppendRow(summaryRow(result.Summaries[name]))
	}

	if len(result.Baselines) > 0 {
		t.AppendSeparator()
		for _, name := range []string{"buy_and_hold", "equal_weight"} {
			if s, ok := result.Baselines[name]; ok {
				t.AppendRow(summaryRow(s))
			}
		}
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

func summaryRow(s evaluation.StrategySummary) table.Row {
	return table.Row{
		s.Strategy,
		s.Windows,
		fmt.Sprintf("%.2f%%", s.CAGR*100),
		fmt.Sprintf("%.2f", s.Sharpe),
		fmt.Sprintf("%.2f", s.Sortino),
		fmt.Sprintf("%.2f%%", s.MaxDrawdown*100),
		fmt.Sprintf("%.1f%%", s.HitRate*100),
		fmt.Sprintf("%.2fx", s.Turnover),
	}
}

// PrintIntervals renders the bootstrap confidence intervals, when present.
func (r *DefaultConsoleReporter) PrintIntervals(result *evaluation.RunResult) {
	if len(result.Intervals) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("🎯 BOOTSTRAP CONFIDENCE INTERVALS")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Strategy", "CAGR", "Sharpe", "Max DD"})
	for _, name := range result.StrategyNames() {
		mi, ok := result.Intervals[name]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{
			name,
			formatInterval(mi.CAGR, true),
			formatInterval(mi.Sharpe, false),
			formatInterval(mi.MaxDrawdown, true),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
	})
	t.Render()
	fmt.Println()
}

func formatInterval(iv evaluation.Interval, percent bool) string {
	if percent {
		return fmt.Sprintf("%.2f%% [%.2f%%, %.2f%%]", iv.Mean*100, iv.Lower*100, iv.Upper*100)
	}
	return fmt.Sprintf("%.2f [%.2f, %.2f]", iv.Mean, iv.Lower, iv.Upper)
}

// PrintSkips lists strategy/window evaluations that were skipped on failure.
func (r *DefaultConsoleReporter) PrintSkips(result *evaluation.RunResult) {
	if len(result.Skipped) == 0 {
		return
	}

	fmt.Printf("⚠️  %d strategy/window evaluations skipped:\n", len(result.Skipped))
	for _, s := range result.Skipped {
		fmt.Printf("   window %d, %s: %s\n", s.WindowIndex, s.Strategy, s.Reason)
	}
	fmt.Println()
}
