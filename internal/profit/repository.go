package profit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides the PostgreSQL backed, read-only view over the order
// store. It only ever selects; orders, products and partners are owned by
// the upstream system.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindOrders returns confirmed orders matching the filter together with
// their lines, product data, fulfillment moves and valuation layers. The
// result keeps the store's retrieval order (order date, then id).
func (r *Repository) FindOrders(ctx context.Context, filter ReportFilter) ([]Order, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	conditions = append(conditions, fmt.Sprintf("so.state = ANY($%d)", argPos))
	args = append(args, []string{OrderStateSale, OrderStateDone})
	argPos++

	conditions = append(conditions, fmt.Sprintf("so.date_order >= $%d", argPos))
	args = append(args, filter.DateFrom)
	argPos++

	conditions = append(conditions, fmt.Sprintf("so.date_order <= $%d", argPos))
	args = append(args, filter.DateTo)
	argPos++

	conditions = append(conditions, fmt.Sprintf("so.company_id = $%d", argPos))
	args = append(args, filter.CompanyID)
	argPos++

	if len(filter.CustomerIDs) > 0 {
		// The customer picker is restricted to company partners with a
		// positive customer rank; enforce the same restriction here.
		conditions = append(conditions, fmt.Sprintf("so.customer_id = ANY($%d)", argPos))
		args = append(args, filter.CustomerIDs)
		argPos++
		conditions = append(conditions, "c.is_company AND c.customer_rank > 0")
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	query := fmt.Sprintf(`
		SELECT so.id, so.name, so.customer_id, c.name AS customer_name,
		       so.company_id, so.date_order, so.currency, so.state
		FROM sales_orders so
		JOIN customers c ON so.customer_id = c.id
		%s
		ORDER BY so.date_order, so.id
	`, whereClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	index := make(map[int64]int)
	var orderIDs []int64
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Name, &o.CustomerID, &o.CustomerName,
			&o.CompanyID, &o.OrderDate, &o.Currency, &o.State); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	if err := r.loadLines(ctx, orders, index, orderIDs); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) loadLines(ctx context.Context, orders []Order, index map[int64]int, orderIDs []int64) error {
	const query = `
		SELECT l.id, l.order_id, l.product_id, p.name, COALESCE(p.default_code, ''),
		       p.product_type, p.category_id, pc.name, p.uom, p.standard_cost,
		       l.quantity, l.unit_price, l.price_subtotal, l.price_total,
		       l.is_delivery, l.landed_cost_value
		FROM sales_order_lines l
		JOIN products p ON l.product_id = p.id
		JOIN product_categories pc ON p.category_id = pc.id
		WHERE l.order_id = ANY($1)
		ORDER BY l.order_id, l.id
	`
	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	// Lines are addressed by position; taking pointers while the slices are
	// still growing would leave them dangling after a reallocation.
	type linePos struct{ order, line int }
	lineIndex := make(map[int64]linePos)
	var lineIDs []int64
	for rows.Next() {
		var line OrderLine
		var orderID int64
		if err := rows.Scan(&line.ID, &orderID, &line.ProductID, &line.ProductName,
			&line.ProductCode, &line.ProductType, &line.CategoryID, &line.CategoryName,
			&line.UOM, &line.StandardCost, &line.Quantity, &line.UnitPrice,
			&line.PriceSubtotal, &line.PriceTotal, &line.IsDelivery, &line.LandedCost); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		i, ok := index[orderID]
		if !ok {
			continue
		}
		orders[i].Lines = append(orders[i].Lines, line)
		lineIndex[line.ID] = linePos{order: i, line: len(orders[i].Lines) - 1}
		lineIDs = append(lineIDs, line.ID)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(lineIDs) == 0 {
		return nil
	}

	resolve := func(lineID int64) *OrderLine {
		pos, ok := lineIndex[lineID]
		if !ok {
			return nil
		}
		return &orders[pos.order].Lines[pos.line]
	}
	return r.loadMoves(ctx, resolve, lineIDs)
}

func (r *Repository) loadMoves(ctx context.Context, resolve func(int64) *OrderLine, lineIDs []int64) error {
	const query = `
		SELECT m.id, m.order_line_id, m.state, vl.id, vl.value
		FROM stock_moves m
		LEFT JOIN stock_valuation_layers vl ON vl.move_id = m.id
		WHERE m.order_line_id = ANY($1)
		ORDER BY m.order_line_id, m.id, vl.id
	`
	rows, err := r.pool.Query(ctx, query, lineIDs)
	if err != nil {
		return fmt.Errorf("query stock moves: %w", err)
	}
	defer rows.Close()

	lastMove := make(map[int64]int64)
	for rows.Next() {
		var moveID, lineID int64
		var state string
		var layerID *int64
		var layerValue *float64
		if err := rows.Scan(&moveID, &lineID, &state, &layerID, &layerValue); err != nil {
			return fmt.Errorf("scan stock move: %w", err)
		}
		line := resolve(lineID)
		if line == nil {
			continue
		}
		// Rows arrive grouped per move, so a new move id means a new entry.
		if lastMove[lineID] != moveID || len(line.Moves) == 0 {
			line.Moves = append(line.Moves, StockMove{ID: moveID, State: state})
			lastMove[lineID] = moveID
		}
		if layerID != nil && layerValue != nil {
			move := &line.Moves[len(line.Moves)-1]
			move.Layers = append(move.Layers, ValuationLayer{ID: *layerID, Value: *layerValue})
		}
	}
	return rows.Err()
}
