// Package changeout classifies full-system replacement intakes into workflow
// lanes and, when an intake is fully resolved, prices it.
package changeout

import (
	"math"
	"strconv"
	"strings"

	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/pricing"
	"github.com/hvacbridge/estimator/pkg/types"
)

// Option list limits
const (
	DefaultLimit = 6
	MaxLimit     = 20
)

// DefaultPrimaryBrands are offered when the intake names no brand
var DefaultPrimaryBrands = []string{"AC Pro", "Day & Night"}

// Input is one planning request against a profile snapshot
type Input struct {
	Config   types.EstimatorConfig
	Catalog  types.Catalog
	Intake   types.ChangeoutIntake
	Customer map[string]any
	Project  map[string]any
	Limit    int
}

// Planner builds changeout plans. Engine prices auto-ready previews.
type Planner struct {
	Engine *pricing.Engine
}

func NewPlanner(engine *pricing.Engine) *Planner {
	if engine == nil {
		engine = pricing.NewEngine()
	}
	return &Planner{Engine: engine}
}

// Plan classifies the intake. It only fails when an auto-ready preview
// cannot be priced, which points at an inconsistent config or catalog.
func (p *Planner) Plan(in Input) (*types.ChangeoutPlan, error) {
	intake := in.Intake
	limit := clampLimit(in.Limit)

	requested := requestedBrands(intake)
	brands := requested
	if len(brands) == 0 {
		brands = append(append([]string{}, intake.PrimaryBrands...), DefaultPrimaryBrands...)
	}

	req := request{
		brands:     brands,
		systemType: canonicalSystemType(intake.SystemType),
		phase:      requestedPhase(intake),
	}
	if tons, ok := normalize.Number(intake.Tonnage); ok {
		req.tonnage = &tons
	}

	options := equipmentOptions(in.Catalog)
	recommended := rankOptions(options, req, limit)

	selectedSKU := strings.TrimSpace(intake.SelectedEquipmentSKU)
	if selectedSKU == "" {
		selectedSKU = strings.TrimSpace(intake.SelectedEquipmentSKUAlt)
	}
	selected, hasSelection := findOption(recommended, selectedSKU)
	if !hasSelection {
		selected, hasSelection = findOption(options, selectedSKU)
	}

	missing := []string{}
	if req.tonnage == nil {
		missing = append(missing, "tonnage")
	}
	if req.systemType == "" {
		missing = append(missing, "systemType")
	}
	if req.phase == "" {
		missing = append(missing, "phase")
	}

	flags := riskFlags(intake)
	manualReview := requiresManualReview(flags)
	adders, resolution := complexityAdders(intake, in.Catalog)

	var selection *types.EquipmentOption
	if hasSelection {
		selection = &selected
	}
	lane := classify(intake, missing, selection, len(recommended), manualReview)

	plan := &types.ChangeoutPlan{
		Lane:                       lane,
		RiskFlags:                  flags,
		MissingFields:              missing,
		FollowUpQuestions:          followUpQuestions(missing, flags, lane, brands),
		RecommendedOptions:         recommended,
		ComplexityAdders:           adders,
		ComplexityAddersResolution: resolution,
		VendorQuote:                vendorChecklist(brands, recommended),
		ProfitTargets: types.ProfitTargets{
			TargetGrossMargin:         in.Config.TargetGrossMargin,
			MinimumGrossMargin:        in.Config.MinimumGrossMargin,
			EnforceMinimumGrossMargin: in.Config.EnforceMinimumGrossMargin,
		},
		NextStep: nextSteps[lane],
	}
	plan.ConfidenceScore = confidence(lane, len(missing), len(recommended), hasSelection, manualReview)

	if lane == types.LaneAutoReady && selection != nil {
		draft := draftRequest(in, *selection, req.tonnage, adders)
		preview, err := p.Engine.Compute(in.Config, in.Catalog, draft)
		if err != nil {
			return nil, err
		}
		plan.DraftEstimateRequest = &draft
		plan.EstimatePreview = preview
	}

	return plan, nil
}

func requestedBrands(intake types.ChangeoutIntake) []string {
	var brands []string
	brands = append(brands, intake.RequestedBrand...)
	brands = append(brands, intake.RequestedBrands...)
	brands = append(brands, intake.AlternateBrands...)
	if len(brands) == 0 {
		return nil
	}
	return dedupe(brands)
}

// requestedPhase assumes single-phase for residential intakes. Commercial
// jobs must state it.
func requestedPhase(intake types.ChangeoutIntake) string {
	if phase := normalizePhase(intake.Phase); phase != "" {
		return phase
	}
	if isCommercial(intake) {
		return ""
	}
	return phaseSingle
}

// classify picks the lane; the checks run in priority order
func classify(intake types.ChangeoutIntake, missing []string, selected *types.EquipmentOption, recommended int, manualReview bool) types.Lane {
	switch {
	case len(missing) > 0:
		return types.LaneNeedsQuestions
	case manualReview:
		return types.LaneManualReview
	case selected != nil:
		pricingKnown := intake.PricingKnown == nil || *intake.PricingKnown
		if !pricingKnown || selected.VendorQuoteRequired {
			return types.LaneAwaitingVendorQuote
		}
		return types.LaneAutoReady
	case recommended > 0:
		return types.LaneNeedsSelection
	}
	return types.LaneAwaitingVendorQuote
}

// confidence is a heuristic signal for the UI, not a calibrated probability
func confidence(lane types.Lane, missing, recommended int, selected, manualReview bool) float64 {
	score := 0.35
	score += math.Max(0, 0.2-float64(missing)*0.08)
	if recommended > 0 {
		score += 0.12
	}
	if selected {
		score += 0.2
	}
	if manualReview {
		score -= 0.2
	}
	switch lane {
	case types.LaneAwaitingVendorQuote:
		score -= 0.12
	case types.LaneAutoReady:
		score += 0.1
	}
	return math.Min(0.97, math.Max(0.05, math.Round(score*100)/100))
}

func draftRequest(in Input, selected types.EquipmentOption, requestedTonnage *float64, adders []types.ManualItem) types.EstimateRequest {
	project := make(map[string]any, len(in.Project)+1)
	for key, value := range in.Project {
		project[key] = value
	}
	if summary := normalize.Text(project["summary"]); summary != "" {
		project["summary"] = summary
	} else {
		project["summary"] = projectSummary(selected, requestedTonnage)
	}

	customer := in.Customer
	if customer == nil {
		customer = map[string]any{}
	}

	var adjustments types.Adjustments
	if fee, ok := normalize.Number(in.Intake.PermitFee); ok {
		adjustments.PermitFee = fee
	}
	if charge, ok := normalize.Number(in.Intake.TripCharge); ok {
		adjustments.TripCharge = charge
	}

	return types.EstimateRequest{
		Selections:  []types.Selection{{SKU: selected.SKU, Quantity: 1.0}},
		ManualItems: adders,
		Customer:    customer,
		Project:     project,
		Adjustments: adjustments,
	}
}

// projectSummary reads like "4 Ton AC Pro Heat Pump"
func projectSummary(selected types.EquipmentOption, requestedTonnage *float64) string {
	tonnage := ""
	switch {
	case selected.Tonnage != nil && *selected.Tonnage != 0:
		tonnage = strconv.FormatFloat(*selected.Tonnage, 'f', -1, 64)
	case requestedTonnage != nil && *requestedTonnage != 0:
		tonnage = strconv.FormatFloat(*requestedTonnage, 'f', -1, 64)
	}
	return strings.Join(strings.Fields(tonnage+" Ton "+selected.Brand+" "+selected.SystemType), " ")
}
