package pricing

import (
	"fmt"
	"strings"

	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/types"
)

// lineInput is a validated line before costing
type lineInput struct {
	code              string
	name              string
	itemType          types.ItemType
	quantity          float64
	unitCost          float64
	laborHoursPerUnit float64
	taxable           bool
	notes             string
	features          []string
}

// pricedLine keeps the unrounded figures the aggregate step sums over
type pricedLine struct {
	item       types.LineItem
	totalCost  float64
	targetSell float64
	taxable    bool
}

// rates are the resolved per-estimate pricing rates
type rates struct {
	laborRatePerHour float64
	burden           float64
	overhead         float64
	contingency      float64
	targetMargin     float64
}

func priceLine(in lineInput, r rates) pricedLine {
	materialCost := in.unitCost * in.quantity
	laborHours := in.laborHoursPerUnit * in.quantity
	laborCost := laborHours * r.laborRatePerHour
	burdenCost := laborCost * r.burden
	directCost := materialCost + laborCost + burdenCost
	overheadCost := directCost * r.overhead
	contingencyCost := directCost * r.contingency
	totalCost := directCost + overheadCost + contingencyCost
	targetSell := totalCost / (1 - r.targetMargin)

	features := in.features
	if features == nil {
		features = []string{}
	}

	return pricedLine{
		item: types.LineItem{
			Code:              in.code,
			Name:              in.name,
			ItemType:          in.itemType,
			Quantity:          RoundRate(in.quantity),
			UnitCost:          RoundMoney(in.unitCost),
			LaborHoursPerUnit: RoundRate(in.laborHoursPerUnit),
			LaborHours:        RoundRate(laborHours),
			Taxable:           in.taxable,
			Notes:             in.notes,
			Features:          features,
			Costs: types.LineCosts{
				MaterialCost:    RoundMoney(materialCost),
				LaborCost:       RoundMoney(laborCost),
				LaborBurdenCost: RoundMoney(burdenCost),
				OverheadCost:    RoundMoney(overheadCost),
				ContingencyCost: RoundMoney(contingencyCost),
				TotalCost:       RoundMoney(totalCost),
				TargetSellPrice: RoundMoney(targetSell),
			},
		},
		totalCost:  totalCost,
		targetSell: targetSell,
		taxable:    in.taxable,
	}
}

func selectionLine(sel types.Selection, index int, catalog map[string]types.CatalogItem) (lineInput, error) {
	field := fmt.Sprintf("selections[%d]", index)
	sku := strings.TrimSpace(sel.SKU)
	if len(sku) > 120 {
		sku = sku[:120]
	}
	item, ok := catalog[sku]
	if !ok {
		return lineInput{}, normalize.Errorf("Unknown SKU in %s: %s", field, sku)
	}

	quantity, err := normalize.Positive(sel.Quantity, field+".quantity", 1)
	if err != nil {
		return lineInput{}, err
	}
	unitCost, err := normalize.NonNegative(sel.UnitCostOverride, field+".unitCostOverride", item.UnitCost)
	if err != nil {
		return lineInput{}, err
	}
	laborHours, err := normalize.NonNegative(sel.LaborHoursPerUnitOverride, field+".laborHoursPerUnitOverride", item.DefaultLaborHours)
	if err != nil {
		return lineInput{}, err
	}
	notes, err := lineText(sel.Notes, field+".notes", 500, item.Notes)
	if err != nil {
		return lineInput{}, err
	}

	return lineInput{
		code:              sku,
		name:              item.Name,
		itemType:          item.ItemType,
		quantity:          quantity,
		unitCost:          unitCost,
		laborHoursPerUnit: laborHours,
		taxable:           item.Taxable,
		notes:             notes,
		features:          item.Features,
	}, nil
}

func manualLine(item types.ManualItem, index int) (lineInput, error) {
	field := fmt.Sprintf("manual_items[%d]", index)

	name, err := lineText(item.Name, field+".name", 240, "")
	if err != nil {
		return lineInput{}, err
	}
	code, err := lineText(item.Code, field+".code", 120, fmt.Sprintf("manual-%d", index+1))
	if err != nil {
		return lineInput{}, err
	}
	quantity, err := normalize.Positive(item.Quantity, field+".quantity", 1)
	if err != nil {
		return lineInput{}, err
	}
	unitCost, err := normalize.NonNegative(item.UnitCost, field+".unitCost", 0)
	if err != nil {
		return lineInput{}, err
	}
	laborHours, err := normalize.NonNegative(item.LaborHoursPerUnit, field+".laborHoursPerUnit", 0)
	if err != nil {
		return lineInput{}, err
	}
	itemType, err := lineText(item.ItemType, field+".itemType", 40, string(types.ItemService))
	if err != nil {
		return lineInput{}, err
	}
	notes, err := lineText(item.Notes, field+".notes", 500, "")
	if err != nil {
		return lineInput{}, err
	}

	taxable := true
	if item.Taxable != nil {
		taxable = *item.Taxable
	}

	return lineInput{
		code:              code,
		name:              name,
		itemType:          types.ItemType(strings.ToLower(itemType)),
		quantity:          quantity,
		unitCost:          unitCost,
		laborHoursPerUnit: laborHours,
		taxable:           taxable,
		notes:             notes,
		features:          normalize.Features(item.Features),
	}, nil
}

// lineText reads an optional line string; an empty string counts as absent
func lineText(value any, field string, maxLength int, def string) (string, error) {
	if text, ok := value.(string); ok && text == "" {
		return def, nil
	}
	return normalize.String(value, field, normalize.StringOptions{MaxLength: maxLength, AllowEmpty: true, Default: def})
}
