package normalize

import (
	"fmt"
	"strings"

	"github.com/hvacbridge/estimator/pkg/types"
)

// CatalogItem validates one raw catalog entry
func CatalogItem(raw map[string]any) (types.CatalogItem, error) {
	if raw == nil {
		return types.CatalogItem{}, Errorf("catalog item must be an object")
	}

	sku, err := String(raw["sku"], "catalog item sku", StringOptions{MaxLength: 120})
	if err != nil {
		return types.CatalogItem{}, err
	}
	if sku == "" {
		return types.CatalogItem{}, Errorf("catalog item sku cannot be empty")
	}
	name, err := String(raw["name"], "catalog item name", StringOptions{MaxLength: 240})
	if err != nil {
		return types.CatalogItem{}, err
	}

	rawType := raw["itemType"]
	if rawType == nil {
		rawType = string(types.ItemPart)
	}
	itemType, err := String(rawType, "catalog item itemType", StringOptions{MaxLength: 40})
	if err != nil {
		return types.CatalogItem{}, err
	}
	kind, err := ParseItemType(itemType)
	if err != nil {
		return types.CatalogItem{}, err
	}

	unitCost, err := NonNegative(raw["unitCost"], "catalog item unitCost", 0)
	if err != nil {
		return types.CatalogItem{}, err
	}
	laborHours, err := NonNegative(raw["defaultLaborHours"], "catalog item defaultLaborHours", 0)
	if err != nil {
		return types.CatalogItem{}, err
	}

	notes := ""
	if value, ok := raw["notes"]; ok && value != nil && value != "" {
		if notes, err = String(value, "catalog item notes", StringOptions{MaxLength: 500, AllowEmpty: true}); err != nil {
			return types.CatalogItem{}, err
		}
	}

	attrs, err := Attributes(raw["attributes"])
	if err != nil {
		return types.CatalogItem{}, err
	}

	return types.CatalogItem{
		SKU:               sku,
		Name:              name,
		ItemType:          kind,
		UnitCost:          unitCost,
		DefaultLaborHours: laborHours,
		Taxable:           BoolDefault(raw["taxable"], true),
		Features:          Features(raw["features"]),
		Notes:             notes,
		Attributes:        attrs,
	}, nil
}

// Catalog normalizes a full replacement catalog. Duplicate skus collapse to
// the last occurrence, kept at the position of the first.
func Catalog(items []map[string]any) (types.Catalog, error) {
	catalog := make(types.Catalog, 0, len(items))
	position := make(map[string]int, len(items))

	for i, raw := range items {
		item, err := CatalogItem(raw)
		if err != nil {
			if verr, ok := AsValidation(err); ok {
				return nil, &ValidationError{Message: fmt.Sprintf("items[%d]: %s", i, verr.Message), Details: verr.Details}
			}
			return nil, err
		}
		if idx, seen := position[item.SKU]; seen {
			catalog[idx] = item
			continue
		}
		position[item.SKU] = len(catalog)
		catalog = append(catalog, item)
	}
	return catalog, nil
}

// ParseItemType lower-cases and validates an item type
func ParseItemType(value string) (types.ItemType, error) {
	kind := types.ItemType(strings.ToLower(strings.TrimSpace(value)))
	for _, allowed := range types.ItemTypes {
		if kind == allowed {
			return kind, nil
		}
	}
	names := make([]string, len(types.ItemTypes))
	for i, allowed := range types.ItemTypes {
		names[i] = string(allowed)
	}
	return "", Errorf("catalog item itemType must be one of: %s", strings.Join(names, ", "))
}
