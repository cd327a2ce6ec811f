package export

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vantage-erp/vantage-erp/internal/profit"
)

func workbookTestReport(showDetails bool) *profit.Report {
	return &profit.Report{
		Filter: profit.ReportFilter{
			DateFrom:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			DateTo:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			CompanyID:   1,
			GroupBy:     profit.GroupByOrder,
			ShowDetails: showDetails,
		},
		Orders: []profit.OrderResult{
			{
				OrderID: 101, Name: "SO-0101", Customer: "Acme Corp",
				Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Currency: "USD",
				Lines: []profit.LineResult{
					{ProductID: 11, ProductName: "Widget", ProductCode: "WID-01", Category: "Hardware",
						UOM: "Units", Quantity: 2, UnitPrice: 55, Revenue: 110, Cost: 20, Margin: 90, MarginPercent: 81.8181818},
				},
				Totals: profit.Totals{Revenue: 110, Cost: 20, Margin: 90, MarginPercent: 81.8181818},
			},
			{
				OrderID: 102, Name: "SO-0102", Customer: "Globex",
				Date: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), Currency: "USD",
				Lines: []profit.LineResult{
					{ProductID: 12, ProductName: "Gadget", ProductCode: "GAD-01", Category: "Electronics",
						UOM: "Units", Quantity: 1, UnitPrice: 40, Revenue: 40, Cost: 30, Margin: 10, MarginPercent: 25},
				},
				Totals: profit.Totals{Revenue: 40, Cost: 30, Margin: 10, MarginPercent: 25},
			},
		},
		Totals: profit.Totals{Revenue: 150, Cost: 50, Margin: 100, MarginPercent: 66.6666667},
	}
}

func rawCell(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	value, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return value
}

func rawFloat(t *testing.T, f *excelize.File, sheet, cell string) float64 {
	t.Helper()
	value := rawCell(t, f, sheet, cell)
	parsed, err := strconv.ParseFloat(value, 64)
	require.NoError(t, err, "cell %s value %q", cell, value)
	return parsed
}

func TestWriteWorkbookSummarySheet(t *testing.T) {
	data, err := WriteWorkbook(workbookTestReport(false))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, "Order #", rawCell(t, f, summarySheet, "A1"))
	assert.Equal(t, "Margin %", rawCell(t, f, summarySheet, "G1"))

	assert.Equal(t, "SO-0101", rawCell(t, f, summarySheet, "A2"))
	assert.Equal(t, "Acme Corp", rawCell(t, f, summarySheet, "B2"))
	assert.Equal(t, "2024-01-10", rawCell(t, f, summarySheet, "C2"))
	assert.InDelta(t, 110.0, rawFloat(t, f, summarySheet, "D2"), 1e-9)
	assert.InDelta(t, 0.818181818, rawFloat(t, f, summarySheet, "G2"), 1e-6)
	assert.Equal(t, "USD", rawCell(t, f, summarySheet, "H2"))

	// Spacer row between data and total.
	assert.Empty(t, rawCell(t, f, summarySheet, "A4"))

	assert.Equal(t, "TOTAL", rawCell(t, f, summarySheet, "A5"))
	assert.InDelta(t, 150.0, rawFloat(t, f, summarySheet, "D5"), 1e-9)
	assert.InDelta(t, 50.0, rawFloat(t, f, summarySheet, "E5"), 1e-9)
	assert.InDelta(t, 100.0, rawFloat(t, f, summarySheet, "F5"), 1e-9)
	assert.InDelta(t, 0.666666667, rawFloat(t, f, summarySheet, "G5"), 1e-6)
}

func TestWriteWorkbookWithoutDetailsHasSingleSheet(t *testing.T) {
	data, err := WriteWorkbook(workbookTestReport(false))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{summarySheet}, f.GetSheetList())
}

func TestWriteWorkbookDetailSheet(t *testing.T) {
	data, err := WriteWorkbook(workbookTestReport(true))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.Contains(t, f.GetSheetList(), detailSheet)

	assert.Equal(t, "Product Code", rawCell(t, f, detailSheet, "C1"))
	assert.Equal(t, "SO-0101", rawCell(t, f, detailSheet, "A2"))
	assert.Equal(t, "WID-01", rawCell(t, f, detailSheet, "C2"))
	assert.Equal(t, "Widget", rawCell(t, f, detailSheet, "D2"))
	assert.InDelta(t, 2.0, rawFloat(t, f, detailSheet, "F2"), 1e-9)
	assert.InDelta(t, 90.0, rawFloat(t, f, detailSheet, "K2"), 1e-9)
	assert.Equal(t, "SO-0102", rawCell(t, f, detailSheet, "A3"))
}

func TestWriteWorkbookEmptyReport(t *testing.T) {
	report := workbookTestReport(false)
	report.Orders = nil
	report.Totals = profit.Totals{}

	data, err := WriteWorkbook(report)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, "Order #", rawCell(t, f, summarySheet, "A1"))
	assert.Equal(t, "TOTAL", rawCell(t, f, summarySheet, "A3"))
	assert.InDelta(t, 0.0, rawFloat(t, f, summarySheet, "D3"), 1e-9)
}

func TestWriteWorkbookNilReport(t *testing.T) {
	_, err := WriteWorkbook(nil)
	assert.Error(t, err)
}
