package output

import (
	"fmt"
	"strings"

	"github.com/hvacbridge/estimator/pkg/diff"
	"github.com/hvacbridge/estimator/pkg/render"
	"github.com/hvacbridge/estimator/pkg/types"
)

// CIAnnotator renders guardrail outcomes for CI logs and chat threads
type CIAnnotator struct {
	ciType string // "github", "generic"
}

func NewCIAnnotator(ciType string) *CIAnnotator {
	return &CIAnnotator{
		ciType: ciType,
	}
}

// AnnotateEstimate generates annotations for an estimate
func (ca *CIAnnotator) AnnotateEstimate(estimate *types.Estimate, policyResults []types.PolicyResult) string {
	if ca.ciType == "github" {
		return ca.githubAnnotations(estimate, policyResults)
	}
	return ca.markdownTable(estimate, policyResults)
}

// AnnotateDiff generates annotations for an estimate diff
func (ca *CIAnnotator) AnnotateDiff(d *diff.DetailedDiff) string {
	if ca.ciType == "github" {
		return ca.githubDiffAnnotations(d)
	}
	return ca.markdownDiffTable(d)
}

// GitHub Actions format
func (ca *CIAnnotator) githubAnnotations(estimate *types.Estimate, policyResults []types.PolicyResult) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("::notice title=HVAC Estimate::%s total %s (margin %.2f%%)\n",
		estimate.ID, render.FormatMoney(estimate.Totals.GrandTotal, estimate.Currency), estimate.Totals.AchievedGrossMargin*100))

	for _, result := range policyResults {
		switch result.Outcome {
		case types.PolicyFail:
			output.WriteString(fmt.Sprintf("::error title=Policy Violation::%s: %s\n",
				result.PolicyName, result.Message))
		case types.PolicyWarn:
			output.WriteString(fmt.Sprintf("::warning title=Policy Warning::%s: %s\n",
				result.PolicyName, result.Message))
		}
	}

	if estimate.Guardrails.AdjustedToMinimumGrossMargin {
		output.WriteString(fmt.Sprintf("::notice title=Guardrail::Subtotal raised to %s\n",
			render.FormatMoney(estimate.Totals.SubtotalAfterDiscount, estimate.Currency)))
	}

	return output.String()
}

func (ca *CIAnnotator) githubDiffAnnotations(d *diff.DetailedDiff) string {
	var output strings.Builder

	deltaSymbol := "📈"
	deltaType := "increased"
	if d.TotalDelta < 0 {
		deltaSymbol = "📉"
		deltaType = "decreased"
	}

	output.WriteString(fmt.Sprintf("::notice title=Price Change::%s Grand total %s by $%.2f (%.1f%%)\n",
		deltaSymbol, deltaType, abs(d.TotalDelta), abs(d.PercentChange)))

	if len(d.AddedLines) > 0 {
		output.WriteString(fmt.Sprintf("::notice title=Lines Added::%d lines added (+$%.2f)\n",
			len(d.AddedLines), d.AddedSell))
	}
	if len(d.RemovedLines) > 0 {
		output.WriteString(fmt.Sprintf("::notice title=Lines Removed::%d lines removed (-$%.2f)\n",
			len(d.RemovedLines), d.RemovedSell))
	}
	for _, change := range d.ModifiedLines {
		if abs(change.Delta) > 1.0 {
			output.WriteString(fmt.Sprintf("::notice title=Line Modified::%s: $%.2f → $%.2f (Δ $%.2f)\n",
				change.Code, change.OldSellPrice, change.SellPrice, change.Delta))
		}
	}

	return output.String()
}

// Markdown format, used for chat threads and most CI systems
func (ca *CIAnnotator) markdownTable(estimate *types.Estimate, policyResults []types.PolicyResult) string {
	var output strings.Builder
	money := func(v float64) string { return render.FormatMoney(v, estimate.Currency) }

	output.WriteString("## 🔧 HVAC Estimate\n\n")
	output.WriteString(fmt.Sprintf("**Grand Total:** %s  \n", money(estimate.Totals.GrandTotal)))
	output.WriteString(fmt.Sprintf("**Gross Margin:** %.2f%% (target %.2f%%)  \n",
		estimate.Totals.AchievedGrossMargin*100, estimate.Assumptions.TargetGrossMargin*100))
	output.WriteString(fmt.Sprintf("**Lines:** %d  \n\n", len(estimate.LineItems)))

	output.WriteString("### Line Items\n\n")
	output.WriteString("| Code | Item | Sell Price |\n")
	output.WriteString("|------|------|-----------:|\n")
	for _, line := range estimate.LineItems {
		output.WriteString(fmt.Sprintf("| %s | %s | %s |\n", line.Code, line.Name, money(line.Costs.TargetSellPrice)))
	}
	output.WriteString("\n")

	if len(policyResults) > 0 {
		output.WriteString("### Policy Evaluation\n\n")
		output.WriteString("| Policy | Status | Message |\n")
		output.WriteString("|--------|--------|----------|\n")
		for _, result := range policyResults {
			output.WriteString(fmt.Sprintf("| %s | %s %s | %s |\n",
				result.PolicyName, policyEmoji(result.Outcome), result.Outcome, result.Message))
		}
		output.WriteString("\n")
	}

	return output.String()
}

func (ca *CIAnnotator) markdownDiffTable(d *diff.DetailedDiff) string {
	var output strings.Builder

	output.WriteString("## 📊 Estimate Change Analysis\n\n")

	deltaSymbol := "📈"
	if d.TotalDelta < 0 {
		deltaSymbol = "📉"
	}
	output.WriteString(fmt.Sprintf("%s **Total Change:** $%.2f → $%.2f (Δ $%.2f, %.1f%%)  \n",
		deltaSymbol, d.BeforeTotal, d.AfterTotal, d.TotalDelta, d.PercentChange))
	output.WriteString(fmt.Sprintf("**Margin Change:** %+.2f pts  \n\n", d.MarginDelta*100))

	if len(d.AddedLines) > 0 || len(d.RemovedLines) > 0 || len(d.ModifiedLines) > 0 {
		output.WriteString("### Line Changes\n\n")
		output.WriteString("| Change | Line | Price Impact |\n")
		output.WriteString("|--------|------|-------------:|\n")

		for _, line := range d.AddedLines {
			output.WriteString(fmt.Sprintf("| ➕ Added | %s | +$%.2f |\n", line.Code, line.SellPrice))
		}
		for _, line := range d.RemovedLines {
			output.WriteString(fmt.Sprintf("| ➖ Removed | %s | -$%.2f |\n", line.Code, line.SellPrice))
		}
		for _, line := range d.ModifiedLines {
			if abs(line.Delta) > 0.01 {
				output.WriteString(fmt.Sprintf("| 📝 Modified | %s | $%.2f |\n", line.Code, line.Delta))
			}
		}
		output.WriteString("\n")
	}

	return output.String()
}

func policyEmoji(outcome types.PolicyOutcome) string {
	switch outcome {
	case types.PolicyPass:
		return "✅"
	case types.PolicyWarn:
		return "⚠️"
	case types.PolicyFail:
		return "❌"
	default:
		return "❓"
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
