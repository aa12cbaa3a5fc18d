// Package explain spells out how every figure of an estimate was derived.
package explain

import (
	"fmt"
	"strings"

	"github.com/hvacbridge/estimator/pkg/render"
	"github.com/hvacbridge/estimator/pkg/types"
)

// Explainer generates formula-level explanations for estimates
type Explainer struct{}

func New() *Explainer {
	return &Explainer{}
}

// Step is one formula with the numbers substituted in
type Step struct {
	Label   string  `json:"label"`
	Formula string  `json:"formula"`
	Value   float64 `json:"value"`
}

// LineExplanation explains one priced line
type LineExplanation struct {
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	ItemType  types.ItemType `json:"itemType"`
	What      string         `json:"what"`
	Why       string         `json:"why"`
	Breakdown []Step         `json:"breakdown"`
}

// MarginAnalysis compares the achieved margin with the configured targets
type MarginAnalysis struct {
	Achieved        float64  `json:"achieved"`
	Target          float64  `json:"target"`
	Minimum         float64  `json:"minimum"`
	AutoRaised      bool     `json:"autoRaised"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// EstimateExplanation explains an entire estimate
type EstimateExplanation struct {
	EstimateID string            `json:"estimate_id"`
	Currency   string            `json:"currency"`
	GrandTotal float64           `json:"grand_total"`
	LineCount  int               `json:"line_count"`
	Lines      []LineExplanation `json:"lines"`
	Totals     []Step            `json:"totals"`
	Margin     MarginAnalysis    `json:"margin"`
}

// ExplainEstimate generates a comprehensive explanation for an estimate
func (e *Explainer) ExplainEstimate(estimate *types.Estimate) *EstimateExplanation {
	explanation := &EstimateExplanation{
		EstimateID: estimate.ID,
		Currency:   estimate.Currency,
		GrandTotal: estimate.Totals.GrandTotal,
		LineCount:  len(estimate.LineItems),
		Lines:      make([]LineExplanation, 0, len(estimate.LineItems)),
	}

	for _, line := range estimate.LineItems {
		explanation.Lines = append(explanation.Lines, e.ExplainLine(line, estimate.Assumptions, estimate.Currency))
	}
	explanation.Totals = e.explainTotals(estimate)
	explanation.Margin = e.analyzeMargin(estimate)

	return explanation
}

// ExplainLine generates the cost chain for a single line
func (e *Explainer) ExplainLine(line types.LineItem, a types.Assumptions, currency string) LineExplanation {
	money := func(v float64) string { return render.FormatMoney(v, currency) }
	c := line.Costs
	direct := c.MaterialCost + c.LaborCost + c.LaborBurdenCost

	return LineExplanation{
		Code:     line.Code,
		Name:     line.Name,
		ItemType: line.ItemType,
		What:     fmt.Sprintf("%g × %s (%s)", line.Quantity, line.Name, line.ItemType),
		Why:      e.explainWhy(line),
		Breakdown: []Step{
			{"Material", fmt.Sprintf("%g × %s", line.Quantity, money(line.UnitCost)), c.MaterialCost},
			{"Labor", fmt.Sprintf("%g h × %s/h", line.LaborHours, money(a.LaborRatePerHour)), c.LaborCost},
			{"Labor burden", fmt.Sprintf("%s × %s", money(c.LaborCost), percent(a.LaborBurdenRate)), c.LaborBurdenCost},
			{"Overhead", fmt.Sprintf("%s × %s", money(direct), percent(a.OverheadRate)), c.OverheadCost},
			{"Contingency", fmt.Sprintf("%s × %s", money(direct), percent(a.ContingencyRate)), c.ContingencyCost},
			{"Total cost", fmt.Sprintf("%s + %s + %s", money(direct), money(c.OverheadCost), money(c.ContingencyCost)), c.TotalCost},
			{"Target sell", fmt.Sprintf("%s / (1 - %s)", money(c.TotalCost), percent(a.TargetGrossMargin)), c.TargetSellPrice},
		},
	}
}

func (e *Explainer) explainWhy(line types.LineItem) string {
	var reasons []string
	switch line.ItemType {
	case types.ItemEquipment:
		reasons = append(reasons, "Equipment priced from catalog unit cost")
	case types.ItemLabor:
		reasons = append(reasons, "Labor line billed at the configured hourly rate")
	case types.ItemService:
		reasons = append(reasons, "Service line")
	default:
		reasons = append(reasons, "Material line")
	}
	if !line.Taxable {
		reasons = append(reasons, "excluded from taxable subtotal")
	}
	if line.Notes != "" {
		reasons = append(reasons, line.Notes)
	}
	return strings.Join(reasons, "; ")
}

func (e *Explainer) explainTotals(estimate *types.Estimate) []Step {
	money := func(v float64) string { return render.FormatMoney(v, estimate.Currency) }
	t := estimate.Totals
	a := estimate.Assumptions
	extra := estimate.AdditionalCosts

	lineCost := 0.0
	for _, line := range estimate.LineItems {
		lineCost += line.Costs.TotalCost
	}

	steps := []Step{
		{"Total cost", fmt.Sprintf("%s lines + %s permit + %s trip", money(lineCost), money(extra.PermitFee), money(extra.TripCharge)), t.DirectCostWithOverhead},
		{"Recommended subtotal", fmt.Sprintf("%s / (1 - %s)", money(t.DirectCostWithOverhead), percent(a.TargetGrossMargin)), t.RecommendedSubtotal},
	}
	if t.DiscountTotal > 0 {
		steps = append(steps,
			Step{"Discount", fmt.Sprintf("%s percent + %s amount", money(t.DiscountFromPercent), money(t.DiscountFromAmount)), t.DiscountTotal})
	}
	if estimate.Guardrails.AdjustedToMinimumGrossMargin {
		steps = append(steps,
			Step{"Subtotal", fmt.Sprintf("raised to minimum %s / (1 - %s)", money(t.DirectCostWithOverhead), percent(a.MinimumGrossMargin)), t.SubtotalAfterDiscount})
	} else {
		steps = append(steps,
			Step{"Subtotal", fmt.Sprintf("%s - %s", money(t.RecommendedSubtotal), money(t.DiscountTotal)), t.SubtotalAfterDiscount})
	}
	steps = append(steps,
		Step{"Taxable subtotal", fmt.Sprintf("%s × taxable share of target sell", money(t.SubtotalAfterDiscount)), t.TaxableSubtotal},
		Step{"Tax", fmt.Sprintf("%s × %s", money(t.TaxableSubtotal), percent(t.TaxRate)), t.TaxTotal},
		Step{"Grand total", fmt.Sprintf("%s + %s", money(t.SubtotalAfterDiscount), money(t.TaxTotal)), t.GrandTotal},
		Step{"Gross margin", fmt.Sprintf("(%s - %s) / %s", money(t.SubtotalAfterDiscount), money(t.DirectCostWithOverhead), money(t.SubtotalAfterDiscount)), t.AchievedGrossMargin},
	)
	return steps
}

func (e *Explainer) analyzeMargin(estimate *types.Estimate) MarginAnalysis {
	analysis := MarginAnalysis{
		Achieved:   estimate.Totals.AchievedGrossMargin,
		Target:     estimate.Assumptions.TargetGrossMargin,
		Minimum:    estimate.Assumptions.MinimumGrossMargin,
		AutoRaised: estimate.Guardrails.AdjustedToMinimumGrossMargin,
	}

	if estimate.Guardrails.BelowMinimumGrossMargin {
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Margin is below the %s floor; reduce the discount or raise to %s",
				percent(analysis.Minimum), render.FormatMoney(estimate.Totals.MinimumAllowedSubtotal, estimate.Currency)))
	} else if analysis.Achieved < analysis.Target {
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Margin %s is under the %s target", percent(analysis.Achieved), percent(analysis.Target)))
	}
	if analysis.AutoRaised {
		analysis.Recommendations = append(analysis.Recommendations, "Discount was reduced to hold the minimum margin")
	}

	return analysis
}

func percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}
