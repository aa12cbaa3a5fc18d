package changeout

import (
	"strings"

	"github.com/hvacbridge/estimator/pkg/types"
)

// scoreAdderCandidate rates a non-equipment catalog item as the adder for a
// risk. An item with no keyword hit scores zero and is never picked.
func scoreAdderCandidate(item types.CatalogItem, keywords []string) int {
	category := strings.ToLower(item.Attributes.SourceCategory)
	subcategory := strings.ToLower(item.Attributes.SourceSubcategory)
	blob := strings.ToLower(strings.TrimSpace(item.Name)) + " " + category + " " + subcategory

	score, hits := 0, 0
	for _, keyword := range keywords {
		if strings.Contains(blob, strings.ToLower(keyword)) {
			score += 3
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	if strings.Contains(category, "adder") {
		score += 3
	}
	if strings.Contains(category, "install") {
		score += 2
	}
	if strings.Contains(subcategory, "adder") {
		score += 2
	}
	if item.ItemType == types.ItemLabor {
		score++
	}
	return score
}

// catalogAdder returns the best scoring item; ties keep the earlier item
func catalogAdder(catalog types.Catalog, keywords []string) (types.CatalogItem, bool) {
	var best types.CatalogItem
	bestScore := 0
	for _, item := range catalog {
		if item.ItemType == types.ItemEquipment {
			continue
		}
		if score := scoreAdderCandidate(item, keywords); score > bestScore {
			best, bestScore = item, score
		}
	}
	return best, bestScore > 0
}

func adderFromCatalog(item types.CatalogItem) types.ManualItem {
	itemType := item.ItemType
	if itemType == types.ItemEquipment {
		itemType = types.ItemService
	}
	taxable := item.Taxable
	return types.ManualItem{
		Code:              item.SKU,
		Name:              item.Name,
		ItemType:          string(itemType),
		Quantity:          1.0,
		UnitCost:          item.UnitCost,
		LaborHoursPerUnit: item.DefaultLaborHours,
		Taxable:           &taxable,
	}
}

func adderFromFallback(f fallbackAdder) types.ManualItem {
	taxable := false
	return types.ManualItem{
		Code:              f.code,
		Name:              f.name,
		ItemType:          string(f.itemType),
		Quantity:          1.0,
		UnitCost:          0.0,
		LaborHoursPerUnit: f.laborHours,
		Taxable:           &taxable,
	}
}

// complexityAdders resolves one manual line per active install condition and
// records where each came from.
func complexityAdders(intake types.ChangeoutIntake, catalog types.Catalog) ([]types.ManualItem, []types.AdderResolution) {
	adders := []types.ManualItem{}
	resolution := []types.AdderResolution{}

	for _, risk := range activeAdders(intake) {
		if item, ok := catalogAdder(catalog, risk.keywords); ok {
			adders = append(adders, adderFromCatalog(item))
			resolution = append(resolution, types.AdderResolution{
				Risk:   risk.code,
				Source: types.AdderFromCatalog,
				SKU:    item.SKU,
				Name:   item.Name,
			})
			continue
		}
		adders = append(adders, adderFromFallback(risk.fallback))
		resolution = append(resolution, types.AdderResolution{
			Risk:   risk.code,
			Source: types.AdderFromFallback,
			SKU:    risk.fallback.code,
			Name:   risk.fallback.name,
		})
	}
	return adders, resolution
}
