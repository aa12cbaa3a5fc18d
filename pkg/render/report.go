package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hvacbridge/estimator/pkg/types"
)

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteEstimateReport writes a human-readable estimate
func WriteEstimateReport(w io.Writer, estimate *types.Estimate) error {
	fmt.Fprintln(w, "\n╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║           HVAC ESTIMATE REPORT                             ║")
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")

	fmt.Fprintf(w, "\nEstimate ID: %s\n", estimate.ID)
	fmt.Fprintf(w, "Generated:   %s\n", formatDate(estimate.GeneratedAt))
	fmt.Fprintf(w, "Expires:     %s\n", formatDate(estimate.ExpiresAt))
	fmt.Fprintf(w, "Margin:      %s\n", marginSymbol(estimate))

	section(w, "LINE ITEMS")
	for _, line := range estimate.LineItems {
		fmt.Fprintf(w, "\n  %s  %s\n", line.Code, line.Name)
		fmt.Fprintf(w, "  qty %-6g  cost %12s  sell %12s\n",
			line.Quantity,
			FormatMoney(line.Costs.TotalCost, estimate.Currency),
			FormatMoney(line.Costs.TargetSellPrice, estimate.Currency))
	}

	section(w, "TOTALS")
	totals := estimate.Totals
	row := func(label string, amount float64) {
		fmt.Fprintf(w, "  %-30s  %14s\n", label, FormatMoney(amount, estimate.Currency))
	}
	row("Direct cost with overhead", totals.DirectCostWithOverhead)
	row("Recommended subtotal", totals.RecommendedSubtotal)
	if totals.DiscountTotal > 0 {
		row("Discount", -totals.DiscountTotal)
	}
	row("Subtotal after discount", totals.SubtotalAfterDiscount)
	row("Minimum allowed subtotal", totals.MinimumAllowedSubtotal)
	row("Tax", totals.TaxTotal)
	fmt.Fprintf(w, "  %-30s  %13.2f%%\n", "Achieved gross margin", totals.AchievedGrossMargin*100)

	if len(estimate.Alerts) > 0 {
		section(w, "ALERTS")
		for _, alert := range estimate.Alerts {
			fmt.Fprintf(w, "  ⚠  %s\n", alert)
		}
	}

	fmt.Fprintln(w, "\n╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintf(w, "║  GRAND TOTAL:  %-20s                        ║\n", FormatMoney(totals.GrandTotal, estimate.Currency))
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)

	return nil
}

// WritePlanReport writes a human-readable changeout plan
func WritePlanReport(w io.Writer, plan *types.ChangeoutPlan) error {
	fmt.Fprintln(w, "\n╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║           CHANGEOUT PLAN                                   ║")
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")

	fmt.Fprintf(w, "\nLane:        %s\n", plan.Lane)
	fmt.Fprintf(w, "Confidence:  %.2f\n", plan.ConfidenceScore)
	fmt.Fprintf(w, "Next step:   %s\n", plan.NextStep)

	if len(plan.MissingFields) > 0 {
		fmt.Fprintf(w, "Missing:     %s\n", strings.Join(plan.MissingFields, ", "))
	}

	if len(plan.RiskFlags) > 0 {
		section(w, "RISK FLAGS")
		for _, flag := range plan.RiskFlags {
			fmt.Fprintf(w, "  ⚠  %-24s %s\n", flag.Code, flag.Label)
		}
	}

	if len(plan.RecommendedOptions) > 0 {
		section(w, "RECOMMENDED OPTIONS")
		for i, option := range plan.RecommendedOptions {
			quote := ""
			if option.VendorQuoteRequired {
				quote = "  (vendor quote)"
			}
			fmt.Fprintf(w, "  %d. %-22s %s%s\n", i+1, option.SKU, option.Name, quote)
		}
	}

	if len(plan.ComplexityAddersResolution) > 0 {
		section(w, "COMPLEXITY ADDERS")
		for _, adder := range plan.ComplexityAddersResolution {
			fmt.Fprintf(w, "  %-22s %-9s %s\n", adder.Risk, adder.Source, adder.SKU)
		}
	}

	if len(plan.FollowUpQuestions) > 0 {
		section(w, "FOLLOW-UP QUESTIONS")
		for _, question := range plan.FollowUpQuestions {
			fmt.Fprintf(w, "  ?  %s\n", question)
		}
	}

	if plan.EstimatePreview != nil {
		return WriteEstimateReport(w, plan.EstimatePreview)
	}
	fmt.Fprintln(w)
	return nil
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, "\n┌─────────────────────────────────────────────────────────────┐")
	fmt.Fprintf(w, "│ %-59s │\n", title)
	fmt.Fprintln(w, "└─────────────────────────────────────────────────────────────┘")
}

func marginSymbol(estimate *types.Estimate) string {
	achieved := fmt.Sprintf("%.2f%%", estimate.Totals.AchievedGrossMargin*100)
	switch {
	case estimate.Guardrails.BelowMinimumGrossMargin:
		return "⚠ BELOW MINIMUM " + achieved
	case estimate.Totals.AchievedGrossMargin < estimate.Assumptions.TargetGrossMargin:
		return "● BELOW TARGET " + achieved
	default:
		return "✓ ON TARGET " + achieved
	}
}
