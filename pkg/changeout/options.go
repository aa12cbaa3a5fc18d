package changeout

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/types"
)

const (
	phaseSingle = "single"
	phaseThree  = "three"

	tonnageTolerance = 0.01
)

var (
	tonnageInName   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(ton|t)\b`)
	systemSeparator = regexp.MustCompile(`[_-]+`)
)

func normalizePhase(value any) string {
	phase := strings.ToLower(normalize.Text(value))
	switch {
	case phase == "":
		return ""
	case phase == "3" || strings.Contains(phase, "three"):
		return phaseThree
	case phase == "1" || strings.Contains(phase, "single"):
		return phaseSingle
	}
	return phase
}

// canonicalSystemType folds the many ways a system is written into one code
func canonicalSystemType(value string) string {
	text := strings.ToLower(value)
	text = systemSeparator.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")

	switch {
	case text == "":
		return ""
	case strings.Contains(text, "mini split") || strings.Contains(text, "ductless"):
		return "mini_split"
	case strings.Contains(text, "package"):
		return "package_unit"
	case strings.Contains(text, "heat pump") || text == "hp":
		return "split_heat_pump"
	case strings.Contains(text, "gas") && strings.Contains(text, "split"):
		return "split_ac_furnace"
	case strings.Contains(text, "air conditioner") || strings.Contains(text, "split ac") || text == "ac":
		return "split_ac"
	}
	return strings.ReplaceAll(text, " ", "_")
}

func tonnageFromName(name string) *float64 {
	match := tonnageInName.FindStringSubmatch(name)
	if match == nil {
		return nil
	}
	tons, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}
	return &tons
}

func brandFromName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "ac pro"):
		return "AC Pro"
	case strings.Contains(lower, "day & night"):
		return "Day & Night"
	}
	return ""
}

func systemTypeFromName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "heat pump"):
		return "Heat Pump"
	case strings.Contains(lower, "mini split") || strings.Contains(lower, "mini-split"):
		return "Mini Split"
	case strings.Contains(lower, "package"):
		return "Package Unit"
	case strings.Contains(lower, "air conditioner"):
		return "Air Conditioner"
	}
	return ""
}

// summarizeOption reads an equipment item's planner facts, falling back to
// its name when attributes are missing.
func summarizeOption(item types.CatalogItem) types.EquipmentOption {
	attrs := item.Attributes

	tonnage := attrs.Tonnage
	if tonnage == nil {
		tonnage = tonnageFromName(item.Name)
	}
	brand := attrs.Brand
	if brand == "" {
		brand = brandFromName(item.Name)
	}
	systemType := attrs.SystemType
	if systemType == "" {
		systemType = systemTypeFromName(item.Name)
	}
	features := item.Features
	if features == nil {
		features = []string{}
	}

	return types.EquipmentOption{
		SKU:                 item.SKU,
		Name:                item.Name,
		ItemType:            item.ItemType,
		Brand:               brand,
		Tonnage:             tonnage,
		SEER2:               attrs.SEER2,
		SystemType:          systemType,
		SystemTypeCanonical: canonicalSystemType(systemType),
		Phase:               normalizePhase(attrs.Phase),
		VendorContact:       attrs.VendorContact,
		VendorQuoteRequired: attrs.QuoteRequired(),
		UnitCost:            item.UnitCost,
		DefaultLaborHours:   item.DefaultLaborHours,
		Features:            features,
		Notes:               item.Notes,
	}
}

// request is the intake reduced to what option matching needs
type request struct {
	brands     []string
	tonnage    *float64
	systemType string
	phase      string
}

func brandIn(brand string, brands []string) bool {
	for _, candidate := range brands {
		if strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(brand)) {
			return true
		}
	}
	return false
}

func tonnageMatches(a, b *float64) bool {
	return a != nil && b != nil && math.Abs(*a-*b) < tonnageTolerance
}

// contradicts reports whether an option conflicts with the request. Missing
// attributes on either side never exclude an option.
func (r request) contradicts(option types.EquipmentOption) bool {
	if option.Brand != "" && len(r.brands) > 0 && !brandIn(option.Brand, r.brands) {
		return true
	}
	if r.tonnage != nil && option.Tonnage != nil && math.Abs(*option.Tonnage-*r.tonnage) > tonnageTolerance {
		return true
	}
	if r.systemType != "" && option.SystemTypeCanonical != "" && option.SystemTypeCanonical != r.systemType {
		return true
	}
	if r.phase != "" && option.Phase != "" && option.Phase != r.phase {
		return true
	}
	return false
}

func (r request) score(option types.EquipmentOption) int {
	score := 0
	if len(r.brands) > 0 && brandIn(option.Brand, r.brands) {
		score += 4
	}
	if tonnageMatches(r.tonnage, option.Tonnage) {
		score += 3
	}
	if r.systemType != "" && option.SystemTypeCanonical == r.systemType {
		score += 3
	}
	if r.phase != "" && option.Phase == r.phase {
		score += 2
	}
	if !option.VendorQuoteRequired {
		score++
	}
	return score
}

// rankOptions filters out contradicting options and orders the rest by score.
// Equal scores keep catalog order.
func rankOptions(options []types.EquipmentOption, r request, limit int) []types.EquipmentOption {
	ranked := []types.EquipmentOption{}
	for _, option := range options {
		if !r.contradicts(option) {
			ranked = append(ranked, option)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return r.score(ranked[i]) > r.score(ranked[j])
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func equipmentOptions(catalog types.Catalog) []types.EquipmentOption {
	options := []types.EquipmentOption{}
	for _, item := range catalog {
		if item.ItemType == types.ItemEquipment {
			options = append(options, summarizeOption(item))
		}
	}
	return options
}

func findOption(options []types.EquipmentOption, sku string) (types.EquipmentOption, bool) {
	if sku == "" {
		return types.EquipmentOption{}, false
	}
	for _, option := range options {
		if option.SKU == sku {
			return option, true
		}
	}
	return types.EquipmentOption{}, false
}

func clampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultLimit
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
