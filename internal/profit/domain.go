package profit

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Order states treated as confirmed and eligible for profitability inclusion.
// The values belong to the upstream order store and are not renamed here.
const (
	OrderStateSale = "sale"
	OrderStateDone = "done"
)

// MoveStateDone marks a completed fulfillment move whose valuation layers
// contribute to realized cost.
const MoveStateDone = "done"

// ProductTypeService excludes a line from the computation entirely.
const ProductTypeService = "service"

// GroupBy selects the presentation dimension for the report.
type GroupBy string

const (
	GroupByOrder    GroupBy = "order"
	GroupByCustomer GroupBy = "customer"
	GroupByCategory GroupBy = "category"
	GroupByProduct  GroupBy = "product"
)

var (
	ErrInvalidFilter    = errors.New("invalid report criteria")
	ErrNoMatchingOrders = errors.New("no sales orders found for the selected criteria")
	ErrExportNotFound   = errors.New("export request not found")
	ErrExportExists     = errors.New("export request already exists")
	ErrExportNotReady   = errors.New("export file not ready")
)

// ReportFilter captures the criteria of a single report run. It is treated
// as immutable once a run starts.
type ReportFilter struct {
	DateFrom     time.Time `json:"date_from" validate:"required"`
	DateTo       time.Time `json:"date_to" validate:"required"`
	CompanyID    int64     `json:"company_id" validate:"required,gt=0"`
	CustomerIDs  []int64   `json:"customer_ids,omitempty" validate:"omitempty,dive,gt=0"`
	CategoryIDs  []int64   `json:"category_ids,omitempty" validate:"omitempty,dive,gt=0"`
	GroupBy      GroupBy   `json:"group_by" validate:"required,oneof=order customer category product"`
	ShowDetails  bool      `json:"show_details"`
	IncludeTaxes bool      `json:"include_taxes"`
}

var validate = validator.New()

// Validate checks the filter before a run begins.
func (f ReportFilter) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if f.DateTo.Before(f.DateFrom) {
		return fmt.Errorf("%w: date_from must not be after date_to", ErrInvalidFilter)
	}
	return nil
}

// ExcelFilename derives the deterministic export name from the date range.
func (f ReportFilter) ExcelFilename() string {
	return fmt.Sprintf("Sales_Profitability_%s_%s.xlsx",
		f.DateFrom.Format("2006-01-02"), f.DateTo.Format("2006-01-02"))
}

// XLSXContentType is the MIME type served with spreadsheet downloads.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ValuationLayer is a recorded cost movement tied to a fulfillment move.
type ValuationLayer struct {
	ID    int64
	Value float64
}

// StockMove is a fulfillment move attached to an order line. Only moves in
// the done state contribute valuation layers to line cost.
type StockMove struct {
	ID     int64
	State  string
	Layers []ValuationLayer
}

// OrderLine is a read-only projection of one sales order line together with
// the product and valuation data the cost resolver needs.
type OrderLine struct {
	ID            int64
	ProductID     int64
	ProductName   string
	ProductCode   string
	ProductType   string
	CategoryID    int64
	CategoryName  string
	UOM           string
	Quantity      float64
	UnitPrice     float64
	PriceSubtotal float64
	PriceTotal    float64
	IsDelivery    bool
	StandardCost  float64
	LandedCost    *float64
	Moves         []StockMove
}

// Order is a read-only projection of one confirmed sales order.
type Order struct {
	ID           int64
	Name         string
	CustomerID   int64
	CustomerName string
	CompanyID    int64
	OrderDate    time.Time
	Currency     string
	State        string
	Lines        []OrderLine
}

// LineResult carries the computed profitability of one retained line.
type LineResult struct {
	ProductID     int64   `json:"product_id"`
	ProductName   string  `json:"product_name"`
	ProductCode   string  `json:"product_code"`
	CategoryID    int64   `json:"category_id"`
	Category      string  `json:"category"`
	UOM           string  `json:"uom"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	Revenue       float64 `json:"revenue"`
	Cost          float64 `json:"cost"`
	Margin        float64 `json:"margin"`
	MarginPercent float64 `json:"margin_percent"`
}

// Totals sums revenue, cost and margin over a set of lines.
type Totals struct {
	Revenue       float64 `json:"revenue"`
	Cost          float64 `json:"cost"`
	Margin        float64 `json:"margin"`
	MarginPercent float64 `json:"margin_percent"`
}

// OrderResult is one order's computed profitability.
type OrderResult struct {
	OrderID    int64        `json:"order_id"`
	Name       string       `json:"order_name"`
	CustomerID int64        `json:"customer_id"`
	Customer   string       `json:"customer"`
	Date       time.Time    `json:"date_order"`
	Currency   string       `json:"currency"`
	Lines      []LineResult `json:"lines"`
	Totals     Totals       `json:"totals"`
}

// Report is the complete result of one run. Orders keep the store's natural
// retrieval order.
type Report struct {
	Filter ReportFilter  `json:"filter"`
	Orders []OrderResult `json:"orders"`
	Totals Totals        `json:"totals"`
}

// GroupRow is one presentation row after grouping by the report dimension.
type GroupRow struct {
	Key           int64   `json:"key"`
	Label         string  `json:"label"`
	Revenue       float64 `json:"revenue"`
	Cost          float64 `json:"cost"`
	Margin        float64 `json:"margin"`
	MarginPercent float64 `json:"margin_percent"`
}

// ReportView pairs the raw report with its grouped presentation rows.
type ReportView struct {
	Report *Report    `json:"report"`
	Rows   []GroupRow `json:"rows"`
}

// ExportStatus tracks the lifecycle of a queued spreadsheet export.
type ExportStatus string

const (
	ExportStatusPending    ExportStatus = "PENDING"
	ExportStatusInProgress ExportStatus = "IN_PROGRESS"
	ExportStatusReady      ExportStatus = "READY"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportRequest records a queued export and, once ready, its stored file.
type ExportRequest struct {
	ID        uuid.UUID    `json:"id"`
	Filter    ReportFilter `json:"filter"`
	Status    ExportStatus `json:"status"`
	Filename  string       `json:"filename,omitempty"`
	FileSize  int64        `json:"file_size,omitempty"`
	Error     *string      `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// marginPercent applies the zero-revenue guard shared by every level of the
// computation.
func marginPercent(margin, revenue float64) float64 {
	if revenue == 0 {
		return 0
	}
	return margin / revenue * 100
}
