package profit

// groupKey identifies an aggregation bucket for one grouping dimension.
type groupKey struct {
	id    int64
	label string
}

// GroupReport folds the report's results into presentation rows for the
// requested dimension. Grouping is a pure fold over already-computed line
// results; revenue and cost are never recomputed here. Rows keep first-seen
// order so reports stay reproducible.
func GroupReport(report *Report, dim GroupBy) []GroupRow {
	if report == nil {
		return nil
	}
	switch dim {
	case GroupByCustomer:
		return foldLines(report.Orders, func(o OrderResult, _ LineResult) groupKey {
			return groupKey{id: o.CustomerID, label: o.Customer}
		})
	case GroupByCategory:
		return foldLines(report.Orders, func(_ OrderResult, l LineResult) groupKey {
			return groupKey{id: l.CategoryID, label: l.Category}
		})
	case GroupByProduct:
		return foldLines(report.Orders, func(_ OrderResult, l LineResult) groupKey {
			return groupKey{id: l.ProductID, label: l.ProductName}
		})
	default:
		// One row per order, straight from the order totals.
		rows := make([]GroupRow, 0, len(report.Orders))
		for _, order := range report.Orders {
			rows = append(rows, GroupRow{
				Key:           order.OrderID,
				Label:         order.Name,
				Revenue:       order.Totals.Revenue,
				Cost:          order.Totals.Cost,
				Margin:        order.Totals.Margin,
				MarginPercent: order.Totals.MarginPercent,
			})
		}
		return rows
	}
}

func foldLines(orders []OrderResult, key func(OrderResult, LineResult) groupKey) []GroupRow {
	index := make(map[groupKey]int)
	var rows []GroupRow
	for _, order := range orders {
		for _, line := range order.Lines {
			k := key(order, line)
			i, ok := index[k]
			if !ok {
				i = len(rows)
				index[k] = i
				rows = append(rows, GroupRow{Key: k.id, Label: k.label})
			}
			rows[i].Revenue += line.Revenue
			rows[i].Cost += line.Cost
			rows[i].Margin += line.Margin
		}
	}
	for i := range rows {
		rows[i].MarginPercent = marginPercent(rows[i].Margin, rows[i].Revenue)
	}
	return rows
}
