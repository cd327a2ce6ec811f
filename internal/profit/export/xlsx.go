// Package export renders profitability reports into downloadable formats.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/vantage-erp/vantage-erp/internal/profit"
)

const (
	summarySheet = "Profitability Summary"
	detailSheet  = "Order Line Details"
)

var summaryHeaders = []string{
	"Order #", "Customer", "Date", "Revenue", "Cost", "Margin", "Margin %", "Currency",
}

var detailHeaders = []string{
	"Order #", "Customer", "Product Code", "Product Name", "Category",
	"Quantity", "UoM", "Unit Price", "Revenue", "Cost", "Margin", "Margin %",
}

type workbookStyles struct {
	header  int
	number  int
	percent int
}

// WriteWorkbook renders a report as an xlsx workbook. A detail sheet is added
// only when the filter asked for line details.
func WriteWorkbook(report *profit.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("export: nil report")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}
	styles, err := newWorkbookStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeSummary(f, styles, report); err != nil {
		return nil, err
	}
	if report.Filter.ShowDetails {
		if err := writeDetails(f, styles, report); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D3D3D3"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return workbookStyles{}, fmt.Errorf("export: header style: %w", err)
	}
	numberFmt := "#,##0.00"
	number, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numberFmt})
	if err != nil {
		return workbookStyles{}, fmt.Errorf("export: number style: %w", err)
	}
	percentFmt := "0.00%"
	percent, err := f.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt})
	if err != nil {
		return workbookStyles{}, fmt.Errorf("export: percent style: %w", err)
	}
	return workbookStyles{header: header, number: number, percent: percent}, nil
}

func writeSummary(f *excelize.File, styles workbookStyles, report *profit.Report) error {
	if err := writeHeaderRow(f, summarySheet, styles, summaryHeaders); err != nil {
		return err
	}
	row := 2
	for _, o := range report.Orders {
		values := []any{
			o.Name,
			o.Customer,
			o.Date.Format("2006-01-02"),
			o.Totals.Revenue,
			o.Totals.Cost,
			o.Totals.Margin,
			o.Totals.MarginPercent / 100,
			o.Currency,
		}
		if err := writeRow(f, summarySheet, row, values); err != nil {
			return err
		}
		row++
	}
	// Blank spacer row, then the grand total.
	totalRow := row + 1
	totals := []any{
		"TOTAL", "", "",
		report.Totals.Revenue,
		report.Totals.Cost,
		report.Totals.Margin,
		report.Totals.MarginPercent / 100,
		"",
	}
	if err := writeRow(f, summarySheet, totalRow, totals); err != nil {
		return err
	}
	if err := applyColumnStyle(f, summarySheet, styles.number, []string{"D", "E", "F"}, 2, totalRow); err != nil {
		return err
	}
	if err := applyColumnStyle(f, summarySheet, styles.percent, []string{"G"}, 2, totalRow); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("A%d", totalRow), styles.header); err != nil {
		return fmt.Errorf("export: total style: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 24); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "C", "H", 14); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}
	return nil
}

func writeDetails(f *excelize.File, styles workbookStyles, report *profit.Report) error {
	if _, err := f.NewSheet(detailSheet); err != nil {
		return fmt.Errorf("export: add sheet: %w", err)
	}
	if err := writeHeaderRow(f, detailSheet, styles, detailHeaders); err != nil {
		return err
	}
	row := 2
	for _, o := range report.Orders {
		for _, l := range o.Lines {
			values := []any{
				o.Name,
				o.Customer,
				l.ProductCode,
				l.ProductName,
				l.Category,
				l.Quantity,
				l.UOM,
				l.UnitPrice,
				l.Revenue,
				l.Cost,
				l.Margin,
				l.MarginPercent / 100,
			}
			if err := writeRow(f, detailSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	last := row - 1
	if last >= 2 {
		if err := applyColumnStyle(f, detailSheet, styles.number, []string{"F", "H", "I", "J", "K"}, 2, last); err != nil {
			return err
		}
		if err := applyColumnStyle(f, detailSheet, styles.percent, []string{"L"}, 2, last); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(detailSheet, "A", "E", 22); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}
	if err := f.SetColWidth(detailSheet, "F", "L", 13); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, styles workbookStyles, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("export: header cell: %w", err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, styles.header); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("export: cell %s: %w", cell, err)
		}
	}
	return nil
}

func applyColumnStyle(f *excelize.File, sheet string, style int, cols []string, first, last int) error {
	for _, col := range cols {
		from := fmt.Sprintf("%s%d", col, first)
		to := fmt.Sprintf("%s%d", col, last)
		if err := f.SetCellStyle(sheet, from, to, style); err != nil {
			return fmt.Errorf("export: column style: %w", err)
		}
	}
	return nil
}
