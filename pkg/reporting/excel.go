package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/quantlab/adaptive-selector/internal/evaluation"
)

// ExcelStyles holds workbook formatting styles
type ExcelStyles struct {
	HeaderStyle  int
	PercentStyle int
	NumberStyle  int
}

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteXLSX writes the per-strategy summaries and window records to an Excel
// workbook.
func (r *DefaultExcelReporter) WriteXLSX(result *evaluation.RunResult, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const windowsSheet = "Windows"
	const intervalsSheet = "Intervals"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(windowsSheet)

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, result, styles); err != nil {
		return err
	}
	if err := r.writeWindowsSheet(fx, windowsSheet, result, styles); err != nil {
		return err
	}
	if len(result.Intervals) > 0 {
		fx.NewSheet(intervalsSheet)
		if err := r.writeIntervalsSheet(fx, intervalsSheet, result, styles); err != nil {
			return err
		}
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10, // 0.00%
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 2, // 0.00
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	return styles, err
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, result *evaluation.RunResult, styles ExcelStyles) error {
	headers := []string{"Strategy", "Windows", "CAGR", "Sharpe", "Sortino", "Calmar", "Max DD", "Profit Factor", "Hit Rate", "Turnover", "CVaR 95"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	row := 2
	writeSummary := func(s evaluation.StrategySummary) error {
		values := []interface{}{s.Strategy, s.Windows, s.CAGR, s.Sharpe, s.Sortino, s.Calmar, s.MaxDrawdown, s.ProfitFactor, s.HitRate, s.Turnover, s.CVaR95}
		if err := r.writeRow(fx, sheet, row, values); err != nil {
			return err
		}
		r.applyStyles(fx, sheet, row, map[int]int{
			3: styles.PercentStyle, 7: styles.PercentStyle, 9: styles.PercentStyle,
			4: styles.NumberStyle, 5: styles.NumberStyle, 6: styles.NumberStyle,
			8: styles.NumberStyle, 10: styles.NumberStyle, 11: styles.PercentStyle,
		})
		row++
		return nil
	}

	for _, name := range result.StrategyNames() {
		if err := writeSummary(result.Summaries[name]); err != nil {
			return err
		}
	}
	for _, name := range []string{"buy_and_hold", "equal_weight"} {
		if s, ok := result.Baselines[name]; ok {
			if err := writeSummary(s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writeWindowsSheet(fx *excelize.File, sheet string, result *evaluation.RunResult, styles ExcelStyles) error {
	headers := []string{"Strategy", "Window", "Test Start", "Test End", "CAGR", "Sharpe", "Max DD", "Hit Rate", "Trades"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	row := 2
	for _, name := range result.StrategyNames() {
		for _, m := range result.Records[name] {
			values := []interface{}{
				m.Strategy, m.WindowIndex,
				m.TestStart.Format("2006-01-02"), m.TestEnd.Format("2006-01-02"),
				m.CAGR, m.Sharpe, m.MaxDrawdown, m.HitRate, m.TradeCount,
			}
			if err := r.writeRow(fx, sheet, row, values); err != nil {
				return err
			}
			r.applyStyles(fx, sheet, row, map[int]int{
				5: styles.PercentStyle, 7: styles.PercentStyle, 8: styles.PercentStyle,
				6: styles.NumberStyle,
			})
			row++
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writeIntervalsSheet(fx *excelize.File, sheet string, result *evaluation.RunResult, styles ExcelStyles) error {
	headers := []string{"Strategy", "CAGR Low", "CAGR Mean", "CAGR High", "Sharpe Low", "Sharpe Mean", "Sharpe High", "Max DD Low", "Max DD Mean", "Max DD High"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	row := 2
	for _, name := range result.StrategyNames() {
		mi, ok := result.Intervals[name]
		if !ok {
			continue
		}
		values := []interface{}{
			mi.Strategy,
			mi.CAGR.Lower, mi.CAGR.Mean, mi.CAGR.Upper,
			mi.Sharpe.Lower, mi.Sharpe.Mean, mi.Sharpe.Upper,
			mi.MaxDrawdown.Lower, mi.MaxDrawdown.Mean, mi.MaxDrawdown.Upper,
		}
		if err := r.writeRow(fx, sheet, row, values); err != nil {
			return err
		}
		row++
	}
	return nil
}

func (r *DefaultExcelReporter) writeHeader(fx *excelize.File, sheet string, headers []string, styles ExcelStyles) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle)
	}
	return nil
}

func (r *DefaultExcelReporter) writeRow(fx *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *DefaultExcelReporter) applyStyles(fx *excelize.File, sheet string, row int, colStyles map[int]int) {
	for col, style := range colStyles {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			continue
		}
		fx.SetCellStyle(sheet, cell, cell, style)
	}
}
