package reporting

import (
	"github.com/quantlab/adaptive-selector/internal/evaluation"
)

// Package reporting renders walk-forward evaluation results for humans and
// machines.

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	PrintSummary(result *evaluation.RunResult)
	PrintIntervals(result *evaluation.RunResult)
	PrintSkips(result *evaluation.RunResult)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteJSON(result *evaluation.RunResult, path string) error
	WriteXLSX(result *evaluation.RunResult, path string) error
}

// Reporter combines all reporting interfaces
type Reporter interface {
	ConsoleReporter
	FileReporter
}
