package export

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vantage-erp/vantage-erp/internal/profit"
)

var moneyPrinter = message.NewPrinter(language.English)

var groupLabels = map[profit.GroupBy]string{
	profit.GroupByOrder:    "Order",
	profit.GroupByCustomer: "Customer",
	profit.GroupByCategory: "Category",
	profit.GroupByProduct:  "Product",
}

// BuildHTML renders the grouped report as a printable HTML document.
func BuildHTML(view *profit.ReportView) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}h2{font-size:16px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .row-label{text-align:left;} .total td{font-weight:bold;background:#efefef;}")
	b.WriteString("</style></head><body>")

	filter := view.Report.Filter
	b.WriteString(fmt.Sprintf("<h1>Sales Profitability – %s to %s</h1>",
		filter.DateFrom.Format("2006-01-02"), filter.DateTo.Format("2006-01-02")))

	label := groupLabels[filter.GroupBy]
	if label == "" {
		label = "Order"
	}
	b.WriteString("<section><h2>Summary by " + htmlEscape(label) + "</h2>")
	b.WriteString("<table><thead><tr><th>" + htmlEscape(label) + "</th><th>Revenue</th><th>Cost</th><th>Margin</th><th>Margin %</th></tr></thead><tbody>")
	for _, row := range view.Rows {
		b.WriteString("<tr><td class=\"row-label\">")
		b.WriteString(htmlEscape(row.Label))
		b.WriteString("</td><td>")
		b.WriteString(formatMoney(row.Revenue))
		b.WriteString("</td><td>")
		b.WriteString(formatMoney(row.Cost))
		b.WriteString("</td><td>")
		b.WriteString(formatMoney(row.Margin))
		b.WriteString("</td><td>")
		b.WriteString(formatPercent(row.MarginPercent))
		b.WriteString("</td></tr>")
	}
	totals := view.Report.Totals
	b.WriteString("<tr class=\"total\"><td class=\"row-label\">TOTAL</td><td>")
	b.WriteString(formatMoney(totals.Revenue))
	b.WriteString("</td><td>")
	b.WriteString(formatMoney(totals.Cost))
	b.WriteString("</td><td>")
	b.WriteString(formatMoney(totals.Margin))
	b.WriteString("</td><td>")
	b.WriteString(formatPercent(totals.MarginPercent))
	b.WriteString("</td></tr>")
	b.WriteString("</tbody></table></section>")

	if filter.ShowDetails {
		writeOrderDetails(&b, view.Report)
	}

	b.WriteString("</body></html>")
	return b.String()
}

func writeOrderDetails(b *strings.Builder, report *profit.Report) {
	b.WriteString("<section><h2>Order Line Details</h2>")
	for _, o := range report.Orders {
		b.WriteString("<h3>")
		b.WriteString(htmlEscape(o.Name))
		b.WriteString(" – ")
		b.WriteString(htmlEscape(o.Customer))
		b.WriteString(" (")
		b.WriteString(o.Date.Format("2006-01-02"))
		b.WriteString(")</h3>")
		b.WriteString("<table><thead><tr><th>Product</th><th>Category</th><th>Qty</th><th>UoM</th><th>Unit Price</th><th>Revenue</th><th>Cost</th><th>Margin</th><th>Margin %</th></tr></thead><tbody>")
		for _, l := range o.Lines {
			b.WriteString("<tr><td class=\"row-label\">")
			b.WriteString(htmlEscape(l.ProductName))
			b.WriteString("</td><td class=\"row-label\">")
			b.WriteString(htmlEscape(l.Category))
			b.WriteString("</td><td>")
			b.WriteString(formatMoney(l.Quantity))
			b.WriteString("</td><td class=\"row-label\">")
			b.WriteString(htmlEscape(l.UOM))
			b.WriteString("</td><td>")
			b.WriteString(formatMoney(l.UnitPrice))
			b.WriteString("</td><td>")
			b.WriteString(formatMoney(l.Revenue))
			b.WriteString("</td><td>")
			b.WriteString(formatMoney(l.Cost))
			b.WriteString("</td><td>")
			b.WriteString(formatMoney(l.Margin))
			b.WriteString("</td><td>")
			b.WriteString(formatPercent(l.MarginPercent))
			b.WriteString("</td></tr>")
		}
		b.WriteString("<tr class=\"total\"><td class=\"row-label\" colspan=\"5\">Order Total</td><td>")
		b.WriteString(formatMoney(o.Totals.Revenue))
		b.WriteString("</td><td>")
		b.WriteString(formatMoney(o.Totals.Cost))
		b.WriteString("</td><td>")
		b.WriteString(formatMoney(o.Totals.Margin))
		b.WriteString("</td><td>")
		b.WriteString(formatPercent(o.Totals.MarginPercent))
		b.WriteString("</td></tr>")
		b.WriteString("</tbody></table>")
	}
	b.WriteString("</section>")
}

func formatMoney(v float64) string {
	return moneyPrinter.Sprintf("%.2f", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func htmlEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
	)
	return replacer.Replace(v)
}
