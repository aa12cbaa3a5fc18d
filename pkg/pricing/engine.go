// Package pricing turns catalog selections and manual lines into a fully
// costed, margin-validated estimate.
package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/policy"
	"github.com/hvacbridge/estimator/pkg/types"
)

// GuardrailMessage is returned when an enforced minimum margin is violated
const GuardrailMessage = "Estimate subtotal is below minimum gross margin guardrail. Set allowMarginOverride=true or adjust pricing."

// belowMinimumTolerance absorbs cent rounding when comparing to the floor
const belowMinimumTolerance = 0.01

// GuardrailViolation is the hard veto of the minimum-margin guardrail. It
// unwraps to a ValidationError carrying the same figures as details.
type GuardrailViolation struct {
	MinimumAllowedSubtotal   float64
	AchievedGrossMargin      float64
	MinimumGrossMarginTarget float64
}

func (v *GuardrailViolation) Error() string {
	return GuardrailMessage
}

// Details returns the diagnostic payload callers render
func (v *GuardrailViolation) Details() map[string]any {
	return map[string]any{
		"minimumAllowedSubtotal":   v.MinimumAllowedSubtotal,
		"achievedGrossMargin":      v.AchievedGrossMargin,
		"minimumGrossMarginTarget": v.MinimumGrossMarginTarget,
	}
}

func (v *GuardrailViolation) Unwrap() error {
	return &normalize.ValidationError{Message: GuardrailMessage, Details: v.Details()}
}

// Engine computes estimates. Now and NewID are injectable for tests.
type Engine struct {
	Now   func() time.Time
	NewID func() string
}

func NewEngine() *Engine {
	return &Engine{
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: func() string { return "est_" + uuid.New().String() },
	}
}

// adjustments are the resolved per-estimate overrides
type adjustments struct {
	targetMargin    float64
	minimumMargin   float64
	taxRate         float64
	discountPercent float64
	discountAmount  float64
	permitFee       float64
	tripCharge      float64
}

func resolveAdjustments(cfg types.EstimatorConfig, adj types.Adjustments) (adjustments, error) {
	var out adjustments
	var err error

	if out.targetMargin, err = normalize.Rate(adj.TargetGrossMarginOverride, "targetGrossMargin", cfg.TargetGrossMargin, normalize.MaxGrossMargin); err != nil {
		return out, err
	}
	if out.minimumMargin, err = normalize.Rate(adj.MinimumGrossMarginOverride, "minimumGrossMargin", cfg.MinimumGrossMargin, normalize.MaxGrossMargin); err != nil {
		return out, err
	}
	if out.taxRate, err = normalize.Rate(adj.TaxRate, "taxRate", cfg.DefaultTaxRate, normalize.MaxTaxRate); err != nil {
		return out, err
	}
	if out.discountPercent, err = normalize.Rate(adj.DiscountPercent, "discountPercent", 0, normalize.MaxDiscountPercent); err != nil {
		return out, err
	}
	if out.discountAmount, err = normalize.NonNegative(adj.DiscountAmount, "discountAmount", 0); err != nil {
		return out, err
	}
	if out.permitFee, err = normalize.NonNegative(adj.PermitFee, "permitFee", cfg.DefaultPermitFee); err != nil {
		return out, err
	}
	if out.tripCharge, err = normalize.NonNegative(adj.TripCharge, "tripCharge", cfg.DefaultTripCharge); err != nil {
		return out, err
	}
	return out, nil
}

// Compute prices a request against a config and catalog snapshot. It fails
// fast with a ValidationError on the first malformed input, and with a
// GuardrailViolation when an enforced minimum margin cannot be met.
func (e *Engine) Compute(cfg types.EstimatorConfig, catalog types.Catalog, req types.EstimateRequest) (*types.Estimate, error) {
	if len(req.Selections) == 0 && len(req.ManualItems) == 0 {
		return nil, normalize.Errorf("At least one selection or manual item is required")
	}

	adj, err := resolveAdjustments(cfg, req.Adjustments)
	if err != nil {
		return nil, err
	}

	r := rates{
		laborRatePerHour: cfg.LaborRatePerHour,
		burden:           cfg.LaborBurdenRate,
		overhead:         cfg.OverheadRate,
		contingency:      cfg.ContingencyRate,
		targetMargin:     adj.targetMargin,
	}

	// Stage 1: price lines, selections first
	bySKU := catalog.BySKU()
	lines := make([]pricedLine, 0, len(req.Selections)+len(req.ManualItems))
	for i, sel := range req.Selections {
		in, err := selectionLine(sel, i, bySKU)
		if err != nil {
			return nil, err
		}
		lines = append(lines, priceLine(in, r))
	}
	for i, item := range req.ManualItems {
		in, err := manualLine(item, i)
		if err != nil {
			return nil, err
		}
		lines = append(lines, priceLine(in, r))
	}

	// Stage 2: aggregate cost and recommended price
	lineCost := 0.0
	for _, line := range lines {
		lineCost += line.totalCost
	}
	totalCost := lineCost + adj.permitFee + adj.tripCharge
	recommended := totalCost / (1 - adj.targetMargin)

	// Stage 3: discount, capped at the recommended subtotal
	split := splitDiscount(recommended, adj.discountPercent, adj.discountAmount)
	subtotal := recommended - split.total()

	// Stage 4: minimum margin guardrail
	minimumAllowed := totalCost / (1 - adj.minimumMargin)
	autoRaise := req.Adjustments.AutoRaiseToMinimumGrossMargin
	adjusted := false
	if subtotal < minimumAllowed && autoRaise {
		subtotal = minimumAllowed
		split = split.absorb(math.Max(0, recommended-subtotal))
		adjusted = true
	}
	belowMinimum := subtotal < minimumAllowed-belowMinimumTolerance

	// Stage 5: proportional tax allocation
	taxableSell, allSell := 0.0, 0.0
	for _, line := range lines {
		allSell += line.targetSell
		if line.taxable {
			taxableSell += line.targetSell
		}
	}
	taxableRatio := 1.0
	if allSell > 0 {
		taxableRatio = taxableSell / allSell
	}
	taxableSubtotal := subtotal * taxableRatio
	taxTotal := taxableSubtotal * adj.taxRate

	// Stage 6: margin
	grossProfit := subtotal - totalCost
	achieved := 0.0
	if subtotal > 0 {
		achieved = grossProfit / subtotal
	}

	results := policy.EvaluateGuardrails(policy.GuardrailInput{
		AchievedGrossMargin:     achieved,
		TargetGrossMargin:       adj.targetMargin,
		BelowMinimumGrossMargin: belowMinimum,
		AdjustedToMinimum:       adjusted,
		EnforceMinimum:          cfg.EnforceMinimumGrossMargin,
		AllowMarginOverride:     req.Adjustments.AllowMarginOverride,
	})
	if policy.HasFailures(results) {
		return nil, &GuardrailViolation{
			MinimumAllowedSubtotal:   RoundMoney(minimumAllowed),
			AchievedGrossMargin:      RoundRate(achieved),
			MinimumGrossMarginTarget: RoundRate(adj.minimumMargin),
		}
	}

	// Stage 7: assemble
	now := e.now()
	expirationDays := cfg.EstimateExpirationDays
	if expirationDays <= 0 {
		expirationDays = 30
	}

	lineItems := make([]types.LineItem, len(lines))
	for i, line := range lines {
		lineItems[i] = line.item
	}

	roundedSubtotal := RoundMoney(subtotal)
	roundedTax := RoundMoney(taxTotal)
	roundedDiscount := RoundMoney(split.total())
	fromPercent := RoundMoney(split.fromPercent)

	return &types.Estimate{
		ID:          e.newID(),
		GeneratedAt: now,
		ExpiresAt:   now.AddDate(0, 0, expirationDays),
		Currency:    cfg.Currency,
		Customer:    passthrough(req.Customer),
		Project:     passthrough(req.Project),
		Assumptions: types.Assumptions{
			LaborRatePerHour:          RoundMoney(cfg.LaborRatePerHour),
			LaborBurdenRate:           RoundRate(cfg.LaborBurdenRate),
			OverheadRate:              RoundRate(cfg.OverheadRate),
			ContingencyRate:           RoundRate(cfg.ContingencyRate),
			TargetGrossMargin:         RoundRate(adj.targetMargin),
			MinimumGrossMargin:        RoundRate(adj.minimumMargin),
			EnforceMinimumGrossMargin: cfg.EnforceMinimumGrossMargin,
			DefaultTaxRate:            RoundRate(adj.taxRate),
			PaymentTerms:              cfg.PaymentTerms,
		},
		LineItems: lineItems,
		AdditionalCosts: types.AdditionalCosts{
			PermitFee:  RoundMoney(adj.permitFee),
			TripCharge: RoundMoney(adj.tripCharge),
		},
		Totals: types.Totals{
			DirectCostWithOverhead:   RoundMoney(totalCost),
			RecommendedSubtotal:      RoundMoney(recommended),
			DiscountTotal:            roundedDiscount,
			DiscountFromPercent:      fromPercent,
			DiscountFromAmount:       RoundMoney(roundedDiscount - fromPercent),
			SubtotalAfterDiscount:    roundedSubtotal,
			MinimumAllowedSubtotal:   RoundMoney(minimumAllowed),
			TaxableSubtotal:          RoundMoney(taxableSubtotal),
			TaxRate:                  RoundRate(adj.taxRate),
			TaxTotal:                 roundedTax,
			GrandTotal:               RoundMoney(roundedSubtotal + roundedTax),
			GrossProfit:              RoundMoney(grossProfit),
			AchievedGrossMargin:      RoundRate(achieved),
			MinimumGrossMarginTarget: RoundRate(adj.minimumMargin),
		},
		Alerts: policy.Alerts(results),
		Guardrails: types.Guardrails{
			AutoRaiseToMinimumGrossMargin: autoRaise,
			AdjustedToMinimumGrossMargin:  adjusted,
			BelowMinimumGrossMargin:       belowMinimum,
			AllowMarginOverride:           req.Adjustments.AllowMarginOverride,
		},
		PolicyResults: results,
	}, nil
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now()
}

func (e *Engine) newID() string {
	if e.NewID == nil {
		return "est_" + uuid.New().String()
	}
	return e.NewID()
}

func passthrough(blob map[string]any) map[string]any {
	if blob == nil {
		return map[string]any{}
	}
	return blob
}

// Summary renders a one-line description of an estimate for logs
func Summary(estimate *types.Estimate) string {
	return fmt.Sprintf("%s: %d lines, subtotal %.2f, grand total %.2f %s, margin %.4f",
		estimate.ID,
		len(estimate.LineItems),
		estimate.Totals.SubtotalAfterDiscount,
		estimate.Totals.GrandTotal,
		estimate.Currency,
		estimate.Totals.AchievedGrossMargin,
	)
}
