package data

import (
	"time"

	"github.com/quantlab/adaptive-selector/pkg/types"
)

// RangeFilter implements Filter with slice-preserving chronological filters.
type RangeFilter struct{}

// NewRangeFilter creates a new range filter
func NewRangeFilter() *RangeFilter {
	return &RangeFilter{}
}

// ByPeriod keeps the trailing bars within period of the latest timestamp.
func (f *RangeFilter) ByPeriod(bars []types.OHLCV, period time.Duration) []types.OHLCV {
	if period <= 0 || len(bars) == 0 {
		return bars
	}

	cutoff := bars[len(bars)-1].Timestamp.Add(-period)
	for i, bar := range bars {
		if !bar.Timestamp.Before(cutoff) {
			return bars[i:]
		}
	}
	return bars[len(bars):]
}

// ByDateRange keeps bars with start <= timestamp < end.
func (f *RangeFilter) ByDateRange(bars []types.OHLCV, start, end time.Time) []types.OHLCV {
	var filtered []types.OHLCV
	for _, bar := range bars {
		if !bar.Timestamp.Before(start) && bar.Timestamp.Before(end) {
			filtered = append(filtered, bar)
		}
	}
	return filtered
}
