package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/quantlab/adaptive-selector/pkg/types"
)

// ColumnMapping defines the column positions and timestamp layout of a CSV
// bar file.
type ColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultFormat matches the common timestamp,open,high,low,close,volume
// layout with second-resolution timestamps.
var DefaultFormat = ColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}

// CSVProvider implements Provider for CSV bar files. Malformed rows are
// logged and skipped; a missing file is an error, never silently replaced.
type CSVProvider struct {
	format ColumnMapping
}

// NewCSVProvider creates a CSV provider with the default column layout
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultFormat}
}

// NewCSVProviderWithFormat creates a CSV provider with a custom column layout
func NewCSVProviderWithFormat(format ColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// Name returns the name of the provider
func (p *CSVProvider) Name() string {
	return "CSV Provider"
}

// LoadBars reads and parses the file, dropping malformed rows.
func (p *CSVProvider) LoadBars(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("opening data file %s: %w", source, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var bars []types.OHLCV
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		bar, ok := p.parseRow(record, lineNum)
		if !ok {
			continue
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no usable rows in %s", source)
	}
	return bars, nil
}

func (p *CSVProvider) parseRow(record []string, lineNum int) (types.OHLCV, bool) {
	format := p.format
	if len(record) < format.MinColumns {
		log.Printf("⚠️ Insufficient columns at line %d (expected %d, got %d), skipping", lineNum, format.MinColumns, len(record))
		return types.OHLCV{}, false
	}

	timestamp, err := time.Parse(format.DateFormat, record[format.TimestampCol])
	if err != nil {
		log.Printf("⚠️ Invalid timestamp '%s' at line %d, skipping: %v", record[format.TimestampCol], lineNum, err)
		return types.OHLCV{}, false
	}

	fields := []struct {
		col  int
		name string
		dst  *float64
	}{
		{format.OpenCol, "open", new(float64)},
		{format.HighCol, "high", new(float64)},
		{format.LowCol, "low", new(float64)},
		{format.CloseCol, "close", new(float64)},
		{format.VolumeCol, "volume", new(float64)},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(record[f.col], 64)
		if err != nil {
			log.Printf("⚠️ Invalid %s '%s' at line %d, skipping: %v", f.name, record[f.col], lineNum, err)
			return types.OHLCV{}, false
		}
		*f.dst = v
	}

	bar := types.OHLCV{
		Timestamp: timestamp,
		Open:      *fields[0].dst,
		High:      *fields[1].dst,
		Low:       *fields[2].dst,
		Close:     *fields[3].dst,
		Volume:    *fields[4].dst,
	}

	if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
		log.Printf("⚠️ Invalid price data (negative or zero) at line %d, skipping", lineNum)
		return types.OHLCV{}, false
	}
	if bar.High < bar.Open || bar.High < bar.Close || bar.High < bar.Low {
		log.Printf("⚠️ High price is lower than other prices at line %d, skipping", lineNum)
		return types.OHLCV{}, false
	}
	if bar.Low > bar.Open || bar.Low > bar.Close {
		log.Printf("⚠️ Low price is higher than other prices at line %d, skipping", lineNum)
		return types.OHLCV{}, false
	}
	return bar, true
}

// ValidateBars checks price sanity and chronological order over a loaded
// series.
func (p *CSVProvider) ValidateBars(bars []types.OHLCV) error {
	if len(bars) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, bar := range bars {
		if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
			return fmt.Errorf("invalid price data at index %d: prices must be positive", i)
		}
		if bar.High < bar.Low {
			return fmt.Errorf("invalid price data at index %d: high (%.4f) cannot be less than low (%.4f)",
				i, bar.High, bar.Low)
		}
		if bar.High < bar.Open || bar.High < bar.Close {
			return fmt.Errorf("invalid price data at index %d: high (%.4f) must be >= open (%.4f) and close (%.4f)",
				i, bar.High, bar.Open, bar.Close)
		}
		if bar.Low > bar.Open || bar.Low > bar.Close {
			return fmt.Errorf("invalid price data at index %d: low (%.4f) must be <= open (%.4f) and close (%.4f)",
				i, bar.Low, bar.Open, bar.Close)
		}
		if i > 0 && bar.Timestamp.Before(bars[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be in chronological order", i)
		}
	}
	return nil
}
