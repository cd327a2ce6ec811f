package profit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func TestLineCostStandardOnly(t *testing.T) {
	line := OrderLine{Quantity: 2, StandardCost: 10}
	assert.InDelta(t, 20.0, LineCost(line), 1e-9)
}

func TestLineCostAddsLandedCost(t *testing.T) {
	line := OrderLine{Quantity: 2, StandardCost: 10, LandedCost: floatPtr(5)}
	assert.InDelta(t, 25.0, LineCost(line), 1e-9)
}

func TestLineCostMissingLandedCost(t *testing.T) {
	line := OrderLine{Quantity: 3, StandardCost: 4}
	assert.InDelta(t, 12.0, LineCost(line), 1e-9)
}

func TestLineCostOnlyDoneMovesContribute(t *testing.T) {
	line := OrderLine{
		Quantity:     1,
		StandardCost: 10,
		Moves: []StockMove{
			{ID: 1, State: MoveStateDone, Layers: []ValuationLayer{{ID: 1, Value: 3}, {ID: 2, Value: 2}}},
			{ID: 2, State: "assigned", Layers: []ValuationLayer{{ID: 3, Value: 100}}},
		},
	}
	assert.InDelta(t, 15.0, LineCost(line), 1e-9)
}

func TestLineCostNegativeLayersPassThrough(t *testing.T) {
	line := OrderLine{
		Quantity:     1,
		StandardCost: 10,
		Moves: []StockMove{
			{ID: 1, State: MoveStateDone, Layers: []ValuationLayer{{ID: 1, Value: -4}}},
		},
	}
	assert.InDelta(t, 6.0, LineCost(line), 1e-9)
}

func TestLineCostZeroQuantity(t *testing.T) {
	line := OrderLine{Quantity: 0, StandardCost: 50, LandedCost: floatPtr(7)}
	assert.InDelta(t, 7.0, LineCost(line), 1e-9)
}
