package data

import (
	"time"

	"github.com/quantlab/adaptive-selector/pkg/types"
)

// Provider loads a historical bar series from some source.
type Provider interface {
	// LoadBars loads historical bars from the specified source
	LoadBars(source string) ([]types.OHLCV, error)

	// ValidateBars validates the integrity of a loaded series
	ValidateBars(bars []types.OHLCV) error

	// Name returns the name of the provider
	Name() string
}

// Filter narrows a loaded bar series.
type Filter interface {
	// ByPeriod keeps the trailing bars covering the given duration
	ByPeriod(bars []types.OHLCV, period time.Duration) []types.OHLCV

	// ByDateRange keeps bars with start <= timestamp < end
	ByDateRange(bars []types.OHLCV, start, end time.Time) []types.OHLCV
}
