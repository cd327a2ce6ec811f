package profit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// MOCK ORDER STORE
// ============================================================================

type mockOrderStore struct {
	orders    []Order
	findError error

	lastFilter ReportFilter
}

func (m *mockOrderStore) FindOrders(_ context.Context, filter ReportFilter) ([]Order, error) {
	m.lastFilter = filter
	if m.findError != nil {
		return nil, m.findError
	}
	return m.orders, nil
}

func testFilter() ReportFilter {
	return ReportFilter{
		DateFrom:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		CompanyID:    1,
		GroupBy:      GroupByOrder,
		ShowDetails:  true,
		IncludeTaxes: true,
	}
}

func testOrder() Order {
	return Order{
		ID:           101,
		Name:         "SO-0101",
		CustomerID:   7,
		CustomerName: "Acme Corp",
		CompanyID:    1,
		OrderDate:    time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Currency:     "USD",
		State:        OrderStateSale,
		Lines: []OrderLine{
			{
				ID:            1,
				ProductID:     11,
				ProductName:   "Widget",
				ProductType:   "consu",
				CategoryID:    3,
				CategoryName:  "Hardware",
				UOM:           "Units",
				Quantity:      2,
				UnitPrice:     50,
				PriceSubtotal: 100,
				PriceTotal:    110,
				StandardCost:  10,
			},
		},
	}
}

func newTestService(store OrderStore) *Service {
	return NewService(store, slog.Default())
}

// ============================================================================
// BUILD REPORT
// ============================================================================

func TestBuildReportComputesLineAndTotals(t *testing.T) {
	store := &mockOrderStore{orders: []Order{testOrder()}}
	svc := newTestService(store)

	report, err := svc.BuildReport(context.Background(), testFilter())
	require.NoError(t, err)
	require.Len(t, report.Orders, 1)
	require.Len(t, report.Orders[0].Lines, 1)

	line := report.Orders[0].Lines[0]
	assert.InDelta(t, 110.0, line.Revenue, 1e-9)
	assert.InDelta(t, 20.0, line.Cost, 1e-9)
	assert.InDelta(t, 90.0, line.Margin, 1e-9)
	assert.InDelta(t, 81.8181818, line.MarginPercent, 1e-6)

	assert.InDelta(t, 110.0, report.Totals.Revenue, 1e-9)
	assert.InDelta(t, 20.0, report.Totals.Cost, 1e-9)
	assert.InDelta(t, 90.0, report.Totals.Margin, 1e-9)
}

func TestBuildReportExcludesTaxesWhenAsked(t *testing.T) {
	store := &mockOrderStore{orders: []Order{testOrder()}}
	svc := newTestService(store)

	filter := testFilter()
	filter.IncludeTaxes = false

	report, err := svc.BuildReport(context.Background(), filter)
	require.NoError(t, err)

	line := report.Orders[0].Lines[0]
	assert.InDelta(t, 100.0, line.Revenue, 1e-9)
	assert.InDelta(t, 80.0, line.Margin, 1e-9)
	assert.InDelta(t, 80.0, line.MarginPercent, 1e-9)
}

func TestBuildReportSkipsDeliveryAndServiceLines(t *testing.T) {
	order := testOrder()
	order.Lines = append(order.Lines,
		OrderLine{ID: 2, ProductID: 12, ProductName: "Shipping", IsDelivery: true, PriceTotal: 15, PriceSubtotal: 15},
		OrderLine{ID: 3, ProductID: 13, ProductName: "Install", ProductType: ProductTypeService, PriceTotal: 200, PriceSubtotal: 200},
	)
	store := &mockOrderStore{orders: []Order{order}}
	svc := newTestService(store)

	report, err := svc.BuildReport(context.Background(), testFilter())
	require.NoError(t, err)
	require.Len(t, report.Orders[0].Lines, 1)
	assert.InDelta(t, 110.0, report.Totals.Revenue, 1e-9)
}

func TestBuildReportCategoryFilter(t *testing.T) {
	order := testOrder()
	order.Lines = append(order.Lines, OrderLine{
		ID: 2, ProductID: 14, ProductName: "Cable", ProductType: "consu",
		CategoryID: 9, CategoryName: "Accessories",
		Quantity: 1, PriceSubtotal: 30, PriceTotal: 33, StandardCost: 5,
	})
	store := &mockOrderStore{orders: []Order{order}}
	svc := newTestService(store)

	filter := testFilter()
	filter.CategoryIDs = []int64{9}

	report, err := svc.BuildReport(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, report.Orders[0].Lines, 1)
	assert.Equal(t, int64(14), report.Orders[0].Lines[0].ProductID)
}

func TestBuildReportDropsOrdersWithNoRetainedLines(t *testing.T) {
	serviceOnly := testOrder()
	serviceOnly.ID = 102
	serviceOnly.Name = "SO-0102"
	serviceOnly.Lines = []OrderLine{
		{ID: 5, ProductID: 13, ProductName: "Consulting", ProductType: ProductTypeService, PriceTotal: 500},
	}
	store := &mockOrderStore{orders: []Order{testOrder(), serviceOnly}}
	svc := newTestService(store)

	report, err := svc.BuildReport(context.Background(), testFilter())
	require.NoError(t, err)
	require.Len(t, report.Orders, 1)
	assert.Equal(t, int64(101), report.Orders[0].OrderID)
}

func TestBuildReportNoOrders(t *testing.T) {
	svc := newTestService(&mockOrderStore{})

	_, err := svc.BuildReport(context.Background(), testFilter())
	assert.ErrorIs(t, err, ErrNoMatchingOrders)
}

func TestBuildReportAllLinesExcludedYieldsEmptyReport(t *testing.T) {
	// Orders were found, so this is not the no-matching-data case: the run
	// still succeeds and produces an empty report with zero totals.
	order := testOrder()
	order.Lines[0].ProductType = ProductTypeService
	svc := newTestService(&mockOrderStore{orders: []Order{order}})

	report, err := svc.BuildReport(context.Background(), testFilter())
	require.NoError(t, err)
	assert.Empty(t, report.Orders)
	assert.Zero(t, report.Totals.Revenue)
	assert.Zero(t, report.Totals.Cost)
	assert.Zero(t, report.Totals.Margin)
	assert.Zero(t, report.Totals.MarginPercent)
}

func TestBuildReportZeroRevenueGuard(t *testing.T) {
	order := testOrder()
	order.Lines[0].PriceSubtotal = 0
	order.Lines[0].PriceTotal = 0
	svc := newTestService(&mockOrderStore{orders: []Order{order}})

	report, err := svc.BuildReport(context.Background(), testFilter())
	require.NoError(t, err)

	line := report.Orders[0].Lines[0]
	assert.InDelta(t, -20.0, line.Margin, 1e-9)
	assert.Zero(t, line.MarginPercent)
	assert.Zero(t, report.Totals.MarginPercent)
}

func TestBuildReportStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	svc := newTestService(&mockOrderStore{findError: boom})

	_, err := svc.BuildReport(context.Background(), testFilter())
	assert.ErrorIs(t, err, boom)
}

func TestBuildReportInvalidFilter(t *testing.T) {
	svc := newTestService(&mockOrderStore{orders: []Order{testOrder()}})

	filter := testFilter()
	filter.DateTo = filter.DateFrom.AddDate(0, 0, -1)

	_, err := svc.BuildReport(context.Background(), filter)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestBuildReportRejectsMissingCompany(t *testing.T) {
	svc := newTestService(&mockOrderStore{orders: []Order{testOrder()}})

	filter := testFilter()
	filter.CompanyID = 0

	_, err := svc.BuildReport(context.Background(), filter)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestGenerateReportGroupsRows(t *testing.T) {
	second := testOrder()
	second.ID = 102
	second.Name = "SO-0102"
	store := &mockOrderStore{orders: []Order{testOrder(), second}}
	svc := newTestService(store)

	view, err := svc.GenerateReport(context.Background(), testFilter())
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "SO-0101", view.Rows[0].Label)
	assert.Equal(t, "SO-0102", view.Rows[1].Label)
}

func TestExcelFilename(t *testing.T) {
	filter := testFilter()
	assert.Equal(t, "Sales_Profitability_2024-01-01_2024-01-31.xlsx", filter.ExcelFilename())
}
