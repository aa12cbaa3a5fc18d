package diff

import (
	"testing"

	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(code string, itemType types.ItemType, qty, cost, sell float64) types.LineItem {
	return types.LineItem{
		Code:     code,
		Name:     code,
		ItemType: itemType,
		Quantity: qty,
		Costs:    types.LineCosts{TotalCost: cost, TargetSellPrice: sell},
	}
}

func TestDiff(t *testing.T) {
	before := &types.Estimate{
		ID: "est_a",
		LineItems: []types.LineItem{
			line("FURN-80", types.ItemEquipment, 1, 1512, 3024),
			line("FILTER", types.ItemPart, 2, 40, 80),
		},
		Totals: types.Totals{GrandTotal: 3300, SubtotalAfterDiscount: 3104, DirectCostWithOverhead: 1552, AchievedGrossMargin: 0.5},
	}
	after := &types.Estimate{
		ID: "est_b",
		LineItems: []types.LineItem{
			line("FURN-80", types.ItemEquipment, 1, 1612, 3224),
			line("ADDER-CRANE", types.ItemService, 1, 400, 800),
		},
		Totals: types.Totals{GrandTotal: 4300, SubtotalAfterDiscount: 4024, DirectCostWithOverhead: 2012, AchievedGrossMargin: 0.5},
	}

	d := New().Diff(before, after)

	assert.Equal(t, 1000.0, d.TotalDelta)
	assert.Equal(t, 920.0, d.SubtotalDelta)
	assert.Equal(t, 460.0, d.CostDelta)
	assert.Equal(t, 0.0, d.MarginDelta)
	assert.InDelta(t, 30.303, d.PercentChange, 0.001)

	require.Len(t, d.AddedLines, 1)
	assert.Equal(t, "ADDER-CRANE", d.AddedLines[0].Code)
	assert.Equal(t, 800.0, d.AddedSell)

	require.Len(t, d.RemovedLines, 1)
	assert.Equal(t, "FILTER", d.RemovedLines[0].Code)
	assert.Equal(t, 80.0, d.RemovedSell)

	require.Len(t, d.ModifiedLines, 1)
	assert.Equal(t, 200.0, d.ModifiedLines[0].Delta)
	assert.Equal(t, 3024.0, d.ModifiedLines[0].OldSellPrice)
	assert.Equal(t, 200.0, d.ModifiedSell)
	assert.True(t, d.HasChanges())

	require.Len(t, d.ItemTypeDeltas, 3)
	assert.Equal(t, types.ItemEquipment, d.ItemTypeDeltas[0].ItemType)
	assert.Equal(t, 200.0, d.ItemTypeDeltas[0].Delta)
	assert.Equal(t, types.ItemPart, d.ItemTypeDeltas[1].ItemType)
	assert.Equal(t, -100.0, d.ItemTypeDeltas[1].PercentChange)
	assert.Equal(t, types.ItemService, d.ItemTypeDeltas[2].ItemType)
}

func TestDiffIdenticalEstimates(t *testing.T) {
	estimate := &types.Estimate{
		ID:        "est_a",
		LineItems: []types.LineItem{line("FURN-80", types.ItemEquipment, 1, 1512, 3024)},
		Totals:    types.Totals{GrandTotal: 3556.68},
	}

	d := New().Diff(estimate, estimate)
	assert.False(t, d.HasChanges())
	assert.Empty(t, d.ModifiedLines)
	assert.Equal(t, 0.0, d.PercentChange)
}

func TestDiffRepeatedCodesAreSummed(t *testing.T) {
	before := &types.Estimate{LineItems: []types.LineItem{
		line("LABOR", types.ItemLabor, 1, 100, 200),
		line("LABOR", types.ItemLabor, 1, 100, 200),
	}}
	after := &types.Estimate{LineItems: []types.LineItem{
		line("LABOR", types.ItemLabor, 2, 200, 400),
	}}

	d := New().Diff(before, after)
	assert.Empty(t, d.ModifiedLines)
	assert.Empty(t, d.AddedLines)
	assert.Empty(t, d.RemovedLines)
}
