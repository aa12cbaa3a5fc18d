package diff

import (
	"sort"

	"github.com/hvacbridge/estimator/pkg/pricing"
	"github.com/hvacbridge/estimator/pkg/types"
)

// Differ calculates price differences between two estimates
type Differ struct{}

func New() *Differ {
	return &Differ{}
}

// Diff compares two estimates line by line. Lines are keyed by code; added
// and changed lines follow the order of after, removed lines that of before.
func (d *Differ) Diff(before, after *types.Estimate) *DetailedDiff {
	diff := &DetailedDiff{
		BeforeID:    before.ID,
		AfterID:     after.ID,
		BeforeTotal: before.Totals.GrandTotal,
		AfterTotal:  after.Totals.GrandTotal,
		TotalDelta:  pricing.RoundMoney(after.Totals.GrandTotal - before.Totals.GrandTotal),
		SubtotalDelta: pricing.RoundMoney(
			after.Totals.SubtotalAfterDiscount - before.Totals.SubtotalAfterDiscount),
		CostDelta: pricing.RoundMoney(
			after.Totals.DirectCostWithOverhead - before.Totals.DirectCostWithOverhead),
		MarginDelta: pricing.RoundRate(
			after.Totals.AchievedGrossMargin - before.Totals.AchievedGrossMargin),
	}

	beforeLines := d.buildLineMap(before.LineItems)
	afterLines := d.buildLineMap(after.LineItems)

	for _, line := range after.LineItems {
		old, exists := beforeLines[line.Code]
		if !exists {
			diff.AddedLines = append(diff.AddedLines, LineChange{
				Code:      line.Code,
				Name:      line.Name,
				Cost:      line.Costs.TotalCost,
				SellPrice: line.Costs.TargetSellPrice,
			})
			diff.AddedSell += line.Costs.TargetSellPrice
			continue
		}
		if old.Costs.TotalCost != line.Costs.TotalCost || old.Costs.TargetSellPrice != line.Costs.TargetSellPrice || old.Quantity != line.Quantity {
			delta := pricing.RoundMoney(line.Costs.TargetSellPrice - old.Costs.TargetSellPrice)
			diff.ModifiedLines = append(diff.ModifiedLines, LineChange{
				Code:         line.Code,
				Name:         line.Name,
				OldQuantity:  old.Quantity,
				Quantity:     line.Quantity,
				OldCost:      old.Costs.TotalCost,
				Cost:         line.Costs.TotalCost,
				OldSellPrice: old.Costs.TargetSellPrice,
				SellPrice:    line.Costs.TargetSellPrice,
				Delta:        delta,
				IsModified:   true,
			})
			diff.ModifiedSell += delta
		}
	}

	for _, line := range before.LineItems {
		if _, exists := afterLines[line.Code]; !exists {
			diff.RemovedLines = append(diff.RemovedLines, LineChange{
				Code:      line.Code,
				Name:      line.Name,
				Cost:      line.Costs.TotalCost,
				SellPrice: line.Costs.TargetSellPrice,
			})
			diff.RemovedSell += line.Costs.TargetSellPrice
		}
	}

	diff.AddedSell = pricing.RoundMoney(diff.AddedSell)
	diff.RemovedSell = pricing.RoundMoney(diff.RemovedSell)
	diff.ModifiedSell = pricing.RoundMoney(diff.ModifiedSell)
	diff.ItemTypeDeltas = d.calculateItemTypeDeltas(before.LineItems, after.LineItems)

	if before.Totals.GrandTotal > 0 {
		diff.PercentChange = (diff.TotalDelta / before.Totals.GrandTotal) * 100
	}

	return diff
}

// HasChanges reports whether any line or total moved
func (dd *DetailedDiff) HasChanges() bool {
	return len(dd.AddedLines)+len(dd.RemovedLines)+len(dd.ModifiedLines) > 0 ||
		dd.TotalDelta != 0 || dd.MarginDelta != 0
}

// buildLineMap keys lines by code; repeated codes sum into one entry
func (d *Differ) buildLineMap(lines []types.LineItem) map[string]types.LineItem {
	m := make(map[string]types.LineItem, len(lines))
	for _, line := range lines {
		if existing, ok := m[line.Code]; ok {
			existing.Quantity += line.Quantity
			existing.Costs.TotalCost += line.Costs.TotalCost
			existing.Costs.TargetSellPrice += line.Costs.TargetSellPrice
			m[line.Code] = existing
			continue
		}
		m[line.Code] = line
	}
	return m
}

func (d *Differ) calculateItemTypeDeltas(before, after []types.LineItem) []ItemTypeDelta {
	beforeSell := make(map[types.ItemType]float64)
	for _, line := range before {
		beforeSell[line.ItemType] += line.Costs.TargetSellPrice
	}
	afterSell := make(map[types.ItemType]float64)
	for _, line := range after {
		afterSell[line.ItemType] += line.Costs.TargetSellPrice
	}

	all := make(map[types.ItemType]bool)
	for t := range beforeSell {
		all[t] = true
	}
	for t := range afterSell {
		all[t] = true
	}

	deltas := make([]ItemTypeDelta, 0, len(all))
	for itemType := range all {
		b := pricing.RoundMoney(beforeSell[itemType])
		a := pricing.RoundMoney(afterSell[itemType])
		delta := pricing.RoundMoney(a - b)

		percentChange := 0.0
		if b > 0 {
			percentChange = (delta / b) * 100
		}

		deltas = append(deltas, ItemTypeDelta{
			ItemType:      itemType,
			BeforeSell:    b,
			AfterSell:     a,
			Delta:         delta,
			PercentChange: percentChange,
		})
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].ItemType < deltas[j].ItemType })

	return deltas
}

// Data structures

type DetailedDiff struct {
	BeforeID       string          `json:"before_id"`
	AfterID        string          `json:"after_id"`
	BeforeTotal    float64         `json:"before_total"`
	AfterTotal     float64         `json:"after_total"`
	TotalDelta     float64         `json:"total_delta"`
	SubtotalDelta  float64         `json:"subtotal_delta"`
	CostDelta      float64         `json:"cost_delta"`
	MarginDelta    float64         `json:"margin_delta"`
	PercentChange  float64         `json:"percent_change"`
	AddedLines     []LineChange    `json:"added_lines"`
	RemovedLines   []LineChange    `json:"removed_lines"`
	ModifiedLines  []LineChange    `json:"modified_lines"`
	AddedSell      float64         `json:"added_sell"`
	RemovedSell    float64         `json:"removed_sell"`
	ModifiedSell   float64         `json:"modified_sell"`
	ItemTypeDeltas []ItemTypeDelta `json:"item_type_deltas"`
}

type LineChange struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	OldQuantity  float64 `json:"old_quantity,omitempty"`
	Quantity     float64 `json:"quantity,omitempty"`
	Cost         float64 `json:"cost"`
	OldCost      float64 `json:"old_cost,omitempty"`
	SellPrice    float64 `json:"sell_price"`
	OldSellPrice float64 `json:"old_sell_price,omitempty"`
	Delta        float64 `json:"delta,omitempty"`
	IsModified   bool    `json:"is_modified,omitempty"`
}

type ItemTypeDelta struct {
	ItemType      types.ItemType `json:"item_type"`
	BeforeSell    float64        `json:"before_sell"`
	AfterSell     float64        `json:"after_sell"`
	Delta         float64        `json:"delta"`
	PercentChange float64        `json:"percent_change"`
}
