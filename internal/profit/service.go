package profit

import (
	"context"
	"fmt"
	"log/slog"
)

// OrderStore is the read-only query interface over the external order store.
// Implementations return confirmed orders matching the filter in the store's
// natural retrieval order.
type OrderStore interface {
	FindOrders(ctx context.Context, filter ReportFilter) ([]Order, error)
}

// Service computes sales profitability reports. Every run keeps its state
// local, so concurrent runs never share intermediate aggregation data.
type Service struct {
	store  OrderStore
	logger *slog.Logger
}

// NewService wires an OrderStore into a report service.
func NewService(store OrderStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// BuildReport runs the full computation for one filter: select qualifying
// orders, compute per-line revenue/cost/margin, accumulate order and grand
// totals. An empty order search fails with ErrNoMatchingOrders; a search
// that finds orders always yields a report, even when line filtering leaves
// it empty.
func (s *Service) BuildReport(ctx context.Context, filter ReportFilter) (*Report, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	orders, err := s.store.FindOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, ErrNoMatchingOrders
	}

	categories := make(map[int64]struct{}, len(filter.CategoryIDs))
	for _, id := range filter.CategoryIDs {
		categories[id] = struct{}{}
	}

	report := &Report{Filter: filter}
	dropped := 0

	for _, order := range orders {
		result := OrderResult{
			OrderID:    order.ID,
			Name:       order.Name,
			CustomerID: order.CustomerID,
			Customer:   order.CustomerName,
			Date:       order.OrderDate,
			Currency:   order.Currency,
		}

		for _, line := range order.Lines {
			if line.IsDelivery || line.ProductType == ProductTypeService {
				continue
			}
			if len(categories) > 0 {
				if _, ok := categories[line.CategoryID]; !ok {
					continue
				}
			}

			revenue := line.PriceSubtotal
			if filter.IncludeTaxes {
				revenue = line.PriceTotal
			}
			cost := LineCost(line)
			margin := revenue - cost

			result.Lines = append(result.Lines, LineResult{
				ProductID:     line.ProductID,
				ProductName:   line.ProductName,
				ProductCode:   line.ProductCode,
				CategoryID:    line.CategoryID,
				Category:      line.CategoryName,
				UOM:           line.UOM,
				Quantity:      line.Quantity,
				UnitPrice:     line.UnitPrice,
				Revenue:       revenue,
				Cost:          cost,
				Margin:        margin,
				MarginPercent: marginPercent(margin, revenue),
			})

			result.Totals.Revenue += revenue
			result.Totals.Cost += cost
			result.Totals.Margin += margin
		}

		// An order whose every line was excluded does not appear at all.
		if len(result.Lines) == 0 {
			dropped++
			continue
		}
		result.Totals.MarginPercent = marginPercent(result.Totals.Margin, result.Totals.Revenue)

		report.Orders = append(report.Orders, result)
		report.Totals.Revenue += result.Totals.Revenue
		report.Totals.Cost += result.Totals.Cost
		report.Totals.Margin += result.Totals.Margin
	}

	if dropped > 0 && s.logger != nil {
		s.logger.Warn("orders dropped after line filtering",
			slog.Int("dropped", dropped), slog.Int("kept", len(report.Orders)))
	}
	report.Totals.MarginPercent = marginPercent(report.Totals.Margin, report.Totals.Revenue)

	return report, nil
}

// GenerateReport runs the computation and groups the result by the filter's
// presentation dimension.
func (s *Service) GenerateReport(ctx context.Context, filter ReportFilter) (*ReportView, error) {
	report, err := s.BuildReport(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ReportView{Report: report, Rows: GroupReport(report, filter.GroupBy)}, nil
}
