package types

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Attributes holds the catalog facts the planner reasons about as typed
// fields. Keys that are not recognized are kept in Extra.
type Attributes struct {
	Brand               string
	Tonnage             *float64
	SEER2               *float64
	SystemType          string
	Phase               string
	VendorContact       string
	VendorQuoteRequired *bool
	SourceCategory      string
	SourceSubcategory   string
	Extra               map[string]any
}

// attributeField maps one typed field to the vendor spellings seen in catalogs.
// Aliases are checked in order: exact key first, then case-insensitive.
type attributeField struct {
	canonical string
	aliases   []string
}

var attributeFields = []attributeField{
	{canonical: "brand", aliases: []string{"brand", "manufacturer", "oemBrand"}},
	{canonical: "tonnage", aliases: []string{"tonnage", "capacity_tons"}},
	{canonical: "seer2", aliases: []string{"seer2", "seer_2", "seer_rating", "seer"}},
	{canonical: "systemType", aliases: []string{"systemType", "system_type", "system"}},
	{canonical: "phase", aliases: []string{"phase", "power_phase"}},
	{canonical: "vendorContact", aliases: []string{"vendorContact", "vendor_contact", "supplier_contact", "distributor_contact"}},
	{canonical: "vendorQuoteRequired", aliases: []string{"vendorQuoteRequired", "vendor_quote_required", "quote_required"}},
	{canonical: "sourceCategory", aliases: []string{"sourceCategory", "source_category"}},
	{canonical: "sourceSubcategory", aliases: []string{"sourceSubcategory", "source_subcategory"}},
}

// ParseAttributes splits an already-sanitized attribute map into typed fields
// and a residual map. Values that do not fit their typed field stay in Extra.
func ParseAttributes(raw map[string]any) Attributes {
	attrs := Attributes{}
	if len(raw) == 0 {
		return attrs
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	used := make(map[string]bool)
	for _, field := range attributeFields {
		key, ok := lookupAttribute(raw, keys, field.aliases)
		if !ok {
			continue
		}
		if attrs.assign(field.canonical, raw[key]) {
			used[key] = true
		}
	}

	for _, key := range keys {
		if used[key] {
			continue
		}
		if attrs.Extra == nil {
			attrs.Extra = make(map[string]any)
		}
		attrs.Extra[key] = raw[key]
	}
	return attrs
}

func lookupAttribute(raw map[string]any, sortedKeys []string, aliases []string) (string, bool) {
	for _, alias := range aliases {
		if _, ok := raw[alias]; ok {
			return alias, true
		}
	}
	for _, alias := range aliases {
		for _, key := range sortedKeys {
			if strings.EqualFold(key, alias) {
				return key, true
			}
		}
	}
	return "", false
}

func (a *Attributes) assign(field string, value any) bool {
	switch field {
	case "brand":
		a.Brand = attributeText(value)
		return a.Brand != ""
	case "tonnage":
		a.Tonnage = attributeNumber(value)
		return a.Tonnage != nil
	case "seer2":
		a.SEER2 = attributeNumber(value)
		return a.SEER2 != nil
	case "systemType":
		a.SystemType = attributeText(value)
		return a.SystemType != ""
	case "phase":
		a.Phase = attributeText(value)
		return a.Phase != ""
	case "vendorContact":
		a.VendorContact = attributeText(value)
		return a.VendorContact != ""
	case "vendorQuoteRequired":
		required := attributeBool(value)
		a.VendorQuoteRequired = &required
		return true
	case "sourceCategory":
		a.SourceCategory = attributeText(value)
		return a.SourceCategory != ""
	case "sourceSubcategory":
		a.SourceSubcategory = attributeText(value)
		return a.SourceSubcategory != ""
	}
	return false
}

// QuoteRequired reports whether the vendor must quote before pricing
func (a Attributes) QuoteRequired() bool {
	return a.VendorQuoteRequired != nil && *a.VendorQuoteRequired
}

// Map flattens the attributes back into a single key/value map
func (a Attributes) Map() map[string]any {
	out := make(map[string]any, len(a.Extra)+9)
	for key, value := range a.Extra {
		out[key] = value
	}
	if a.Brand != "" {
		out["brand"] = a.Brand
	}
	if a.Tonnage != nil {
		out["tonnage"] = *a.Tonnage
	}
	if a.SEER2 != nil {
		out["seer2"] = *a.SEER2
	}
	if a.SystemType != "" {
		out["systemType"] = a.SystemType
	}
	if a.Phase != "" {
		out["phase"] = a.Phase
	}
	if a.VendorContact != "" {
		out["vendorContact"] = a.VendorContact
	}
	if a.VendorQuoteRequired != nil {
		out["vendorQuoteRequired"] = *a.VendorQuoteRequired
	}
	if a.SourceCategory != "" {
		out["sourceCategory"] = a.SourceCategory
	}
	if a.SourceSubcategory != "" {
		out["sourceSubcategory"] = a.SourceSubcategory
	}
	return out
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Map())
}

func (a *Attributes) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = ParseAttributes(raw)
	return nil
}

func attributeText(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return ""
	}
}

func attributeNumber(value any) *float64 {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}
	return nil
}

func attributeBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1", "y":
			return true
		}
	case float64:
		return v == 1
	}
	return false
}
