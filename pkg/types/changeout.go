package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lane is the changeout workflow classification
type Lane string

const (
	LaneNeedsQuestions      Lane = "needs_questions"
	LaneManualReview        Lane = "manual_review"
	LaneAwaitingVendorQuote Lane = "awaiting_vendor_quote"
	LaneAutoReady           Lane = "auto_ready"
	LaneNeedsSelection      Lane = "needs_selection"
)

// StringList accepts either a single string or a list of strings in JSON
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var single any
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = nil
	switch v := single.(type) {
	case nil:
	case []any:
		for _, item := range v {
			if text := strings.TrimSpace(fmt.Sprint(item)); item != nil && text != "" {
				*l = append(*l, text)
			}
		}
	default:
		if text := strings.TrimSpace(fmt.Sprint(v)); text != "" {
			*l = append(*l, text)
		}
	}
	return nil
}

// ChangeoutIntake is one customer intake for a full system replacement
type ChangeoutIntake struct {
	RequestedBrand          StringList     `json:"requestedBrand,omitempty"`
	RequestedBrands         StringList     `json:"requestedBrands,omitempty"`
	AlternateBrands         StringList     `json:"alternateBrands,omitempty"`
	PrimaryBrands           StringList     `json:"primaryBrands,omitempty"`
	Tonnage                 any            `json:"tonnage,omitempty"`
	SystemType              string         `json:"systemType,omitempty"`
	Phase                   any            `json:"phase,omitempty"`
	PropertyType            string         `json:"propertyType,omitempty"`
	SelectedEquipmentSKU    string         `json:"selectedEquipmentSku,omitempty"`
	SelectedEquipmentSKUAlt string         `json:"selected_equipment_sku,omitempty"`
	PricingKnown            *bool          `json:"pricingKnown,omitempty"`
	InstallConditions       map[string]any `json:"installConditions,omitempty"`
	PermitFee               any            `json:"permitFee,omitempty"`
	TripCharge              any            `json:"tripCharge,omitempty"`
}

// RiskFlag marks an installation or scope risk
type RiskFlag struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// EquipmentOption summarizes a catalog equipment item for ranking
type EquipmentOption struct {
	SKU                 string   `json:"sku"`
	Name                string   `json:"name"`
	ItemType            ItemType `json:"itemType"`
	Brand               string   `json:"brand"`
	Tonnage             *float64 `json:"tonnage"`
	SEER2               *float64 `json:"seer2"`
	SystemType          string   `json:"systemType"`
	SystemTypeCanonical string   `json:"systemTypeCanonical"`
	Phase               string   `json:"phase"`
	VendorContact       string   `json:"vendorContact"`
	VendorQuoteRequired bool     `json:"vendorQuoteRequired"`
	UnitCost            float64  `json:"unitCost"`
	DefaultLaborHours   float64  `json:"defaultLaborHours"`
	Features            []string `json:"features"`
	Notes               string   `json:"notes"`
}

// AdderSource tells where a complexity adder came from
type AdderSource string

const (
	AdderFromCatalog  AdderSource = "catalog"
	AdderFromFallback AdderSource = "fallback"
)

// AdderResolution records how one risk's adder was resolved
type AdderResolution struct {
	Risk   string      `json:"risk"`
	Source AdderSource `json:"source"`
	SKU    string      `json:"sku"`
	Name   string      `json:"name"`
}

// VendorQuote is the distributor follow-up checklist
type VendorQuote struct {
	Contacts  []string `json:"contacts"`
	Checklist []string `json:"checklist"`
}

// ProfitTargets snapshots the margin policy the plan was built under
type ProfitTargets struct {
	TargetGrossMargin         float64 `json:"targetGrossMargin"`
	MinimumGrossMargin        float64 `json:"minimumGrossMargin"`
	EnforceMinimumGrossMargin bool    `json:"enforceMinimumGrossMargin"`
}

// ChangeoutPlan is the classifier output for one intake
type ChangeoutPlan struct {
	Lane                       Lane              `json:"lane"`
	ConfidenceScore            float64           `json:"confidence_score"`
	RiskFlags                  []RiskFlag        `json:"risk_flags"`
	MissingFields              []string          `json:"missing_fields"`
	FollowUpQuestions          []string          `json:"follow_up_questions"`
	RecommendedOptions         []EquipmentOption `json:"recommended_options"`
	ComplexityAdders           []ManualItem      `json:"complexity_adders"`
	ComplexityAddersResolution []AdderResolution `json:"complexity_adders_resolution"`
	VendorQuote                VendorQuote       `json:"vendor_quote"`
	ProfitTargets              ProfitTargets     `json:"profit_targets"`
	DraftEstimateRequest       *EstimateRequest  `json:"draft_estimate_request"`
	EstimatePreview            *Estimate         `json:"estimate_preview"`
	NextStep                   string            `json:"next_step"`
}
