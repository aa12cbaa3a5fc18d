package types

import "time"

// ItemType classifies a catalog item or line
type ItemType string

const (
	ItemEquipment  ItemType = "equipment"
	ItemPart       ItemType = "part"
	ItemService    ItemType = "service"
	ItemLabor      ItemType = "labor"
	ItemConsumable ItemType = "consumable"
)

// ItemTypes lists the allowed catalog item types in display order
var ItemTypes = []ItemType{ItemEquipment, ItemPart, ItemService, ItemLabor, ItemConsumable}

// CatalogItem represents a purchasable or billable catalog entry
type CatalogItem struct {
	SKU               string     `json:"sku"`
	Name              string     `json:"name"`
	ItemType          ItemType   `json:"itemType"`
	UnitCost          float64    `json:"unitCost"`
	DefaultLaborHours float64    `json:"defaultLaborHours"`
	Taxable           bool       `json:"taxable"`
	Features          []string   `json:"features"`
	Notes             string     `json:"notes"`
	Attributes        Attributes `json:"attributes"`
}

// Catalog is an ordered catalog snapshot
type Catalog []CatalogItem

// BySKU indexes the catalog by exact sku
func (c Catalog) BySKU() map[string]CatalogItem {
	index := make(map[string]CatalogItem, len(c))
	for _, item := range c {
		index[item.SKU] = item
	}
	return index
}

// EstimatorConfig is the per-business pricing policy
type EstimatorConfig struct {
	BusinessName              string  `json:"businessName"`
	Currency                  string  `json:"currency"`
	LaborRatePerHour          float64 `json:"laborRatePerHour"`
	LaborBurdenRate           float64 `json:"laborBurdenRate"`
	OverheadRate              float64 `json:"overheadRate"`
	ContingencyRate           float64 `json:"contingencyRate"`
	TargetGrossMargin         float64 `json:"targetGrossMargin"`
	MinimumGrossMargin        float64 `json:"minimumGrossMargin"`
	EnforceMinimumGrossMargin bool    `json:"enforceMinimumGrossMargin"`
	DefaultTaxRate            float64 `json:"defaultTaxRate"`
	DefaultPermitFee          float64 `json:"defaultPermitFee"`
	DefaultTripCharge         float64 `json:"defaultTripCharge"`
	EstimateExpirationDays    int     `json:"estimateExpirationDays"`
	PaymentTerms              string  `json:"paymentTerms"`
}

// Profile is one business profile: pricing config plus its catalog snapshot
type Profile struct {
	UserID    string          `json:"user_id"`
	Config    EstimatorConfig `json:"config"`
	Catalog   Catalog         `json:"catalog"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Selection picks a catalog item by sku. Numeric fields accept raw JSON
// values (numbers or numeric strings) and are validated by the engine.
type Selection struct {
	SKU                       string `json:"sku"`
	Quantity                  any    `json:"quantity,omitempty"`
	UnitCostOverride          any    `json:"unitCostOverride,omitempty"`
	LaborHoursPerUnitOverride any    `json:"laborHoursPerUnitOverride,omitempty"`
	Notes                     any    `json:"notes,omitempty"`
}

// ManualItem is an ad-hoc line not backed by the catalog
type ManualItem struct {
	Code              any      `json:"code,omitempty"`
	Name              any      `json:"name,omitempty"`
	ItemType          any      `json:"itemType,omitempty"`
	Quantity          any      `json:"quantity,omitempty"`
	UnitCost          any      `json:"unitCost,omitempty"`
	LaborHoursPerUnit any      `json:"laborHoursPerUnit,omitempty"`
	Taxable           *bool    `json:"taxable,omitempty"`
	Notes             any      `json:"notes,omitempty"`
	Features          []string `json:"features,omitempty"`
}

// Adjustments are per-estimate pricing overrides
type Adjustments struct {
	TargetGrossMarginOverride     any  `json:"targetGrossMarginOverride,omitempty"`
	MinimumGrossMarginOverride    any  `json:"minimumGrossMarginOverride,omitempty"`
	TaxRate                       any  `json:"taxRate,omitempty"`
	DiscountPercent               any  `json:"discountPercent,omitempty"`
	DiscountAmount                any  `json:"discountAmount,omitempty"`
	PermitFee                     any  `json:"permitFee,omitempty"`
	TripCharge                    any  `json:"tripCharge,omitempty"`
	AutoRaiseToMinimumGrossMargin bool `json:"autoRaiseToMinimumGrossMargin,omitempty"`
	AllowMarginOverride           bool `json:"allowMarginOverride,omitempty"`
}

// EstimateRequest is everything the engine needs besides the profile
type EstimateRequest struct {
	Selections  []Selection    `json:"selections"`
	ManualItems []ManualItem   `json:"manual_items"`
	Customer    map[string]any `json:"customer,omitempty"`
	Project     map[string]any `json:"project,omitempty"`
	Adjustments Adjustments    `json:"adjustments"`
}

// LineCosts is the cost breakdown of one priced line
type LineCosts struct {
	MaterialCost    float64 `json:"materialCost"`
	LaborCost       float64 `json:"laborCost"`
	LaborBurdenCost float64 `json:"laborBurdenCost"`
	OverheadCost    float64 `json:"overheadCost"`
	ContingencyCost float64 `json:"contingencyCost"`
	TotalCost       float64 `json:"totalCost"`
	TargetSellPrice float64 `json:"targetSellPrice"`
}

// LineItem is one priced estimate row
type LineItem struct {
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	ItemType          ItemType  `json:"itemType"`
	Quantity          float64   `json:"quantity"`
	UnitCost          float64   `json:"unitCost"`
	LaborHoursPerUnit float64   `json:"laborHoursPerUnit"`
	LaborHours        float64   `json:"laborHours"`
	Taxable           bool      `json:"taxable"`
	Notes             string    `json:"notes"`
	Features          []string  `json:"features"`
	Costs             LineCosts `json:"costs"`
}

// Assumptions snapshots the config values an estimate was priced with
type Assumptions struct {
	LaborRatePerHour          float64 `json:"laborRatePerHour"`
	LaborBurdenRate           float64 `json:"laborBurdenRate"`
	OverheadRate              float64 `json:"overheadRate"`
	ContingencyRate           float64 `json:"contingencyRate"`
	TargetGrossMargin         float64 `json:"targetGrossMargin"`
	MinimumGrossMargin        float64 `json:"minimumGrossMargin"`
	EnforceMinimumGrossMargin bool    `json:"enforceMinimumGrossMargin"`
	DefaultTaxRate            float64 `json:"defaultTaxRate"`
	PaymentTerms              string  `json:"paymentTerms"`
}

// AdditionalCosts are fixed job costs outside the line items
type AdditionalCosts struct {
	PermitFee  float64 `json:"permitFee"`
	TripCharge float64 `json:"tripCharge"`
}

// Totals holds the aggregate money and margin figures
type Totals struct {
	DirectCostWithOverhead   float64 `json:"directCostWithOverhead"`
	RecommendedSubtotal      float64 `json:"recommendedSubtotal"`
	DiscountTotal            float64 `json:"discountTotal"`
	DiscountFromPercent      float64 `json:"discountFromPercent"`
	DiscountFromAmount       float64 `json:"discountFromAmount"`
	SubtotalAfterDiscount    float64 `json:"subtotalAfterDiscount"`
	MinimumAllowedSubtotal   float64 `json:"minimumAllowedSubtotal"`
	TaxableSubtotal          float64 `json:"taxableSubtotal"`
	TaxRate                  float64 `json:"taxRate"`
	TaxTotal                 float64 `json:"taxTotal"`
	GrandTotal               float64 `json:"grandTotal"`
	GrossProfit              float64 `json:"grossProfit"`
	AchievedGrossMargin      float64 `json:"achievedGrossMargin"`
	MinimumGrossMarginTarget float64 `json:"minimumGrossMarginTarget"`
}

// Guardrails records margin-override bookkeeping
type Guardrails struct {
	AutoRaiseToMinimumGrossMargin bool `json:"autoRaiseToMinimumGrossMargin"`
	AdjustedToMinimumGrossMargin  bool `json:"adjustedToMinimumGrossMargin"`
	BelowMinimumGrossMargin       bool `json:"belowMinimumGrossMargin"`
	AllowMarginOverride           bool `json:"allowMarginOverride"`
}

// Estimate represents a complete, margin-validated estimate
type Estimate struct {
	ID              string          `json:"estimate_id"`
	GeneratedAt     time.Time       `json:"generated_at"`
	ExpiresAt       time.Time       `json:"expires_at"`
	Currency        string          `json:"currency"`
	Customer        map[string]any  `json:"customer"`
	Project         map[string]any  `json:"project"`
	Assumptions     Assumptions     `json:"assumptions"`
	LineItems       []LineItem      `json:"line_items"`
	AdditionalCosts AdditionalCosts `json:"additional_costs"`
	Totals          Totals          `json:"totals"`
	Alerts          []string        `json:"alerts"`
	Guardrails      Guardrails      `json:"guardrails"`
	PolicyResults   []PolicyResult  `json:"policy_results,omitempty"`
}

// PolicyResult represents policy evaluation outcome
type PolicyResult struct {
	PolicyName string        `json:"policy"`
	Outcome    PolicyOutcome `json:"outcome"`
	Message    string        `json:"message"`
}

// PolicyOutcome represents policy evaluation result
type PolicyOutcome string

const (
	PolicyPass PolicyOutcome = "PASS"
	PolicyWarn PolicyOutcome = "WARN"
	PolicyFail PolicyOutcome = "FAIL"
)
