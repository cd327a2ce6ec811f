package profit

// LineCost computes an order line's total cost from its recorded valuation
// data: standard cost times quantity, plus the landed-cost value when the
// line carries one, plus the valuation-layer values of completed fulfillment
// moves. Absent components contribute zero. Negative layer values (cost
// reversals from returns) pass through unclamped so margin is not overstated.
func LineCost(line OrderLine) float64 {
	cost := line.StandardCost * line.Quantity

	if line.LandedCost != nil {
		cost += *line.LandedCost
	}

	for _, move := range line.Moves {
		if move.State != MoveStateDone {
			continue
		}
		for _, layer := range move.Layers {
			cost += layer.Value
		}
	}

	return cost
}
