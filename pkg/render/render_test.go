package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEstimate() *types.Estimate {
	generated := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	return &types.Estimate{
		ID:          "est_123",
		GeneratedAt: generated,
		ExpiresAt:   generated.AddDate(0, 0, 30),
		Currency:    "USD",
		Customer:    map[string]any{"name": "Pat <Doe>"},
		Project:     map[string]any{},
		Assumptions: types.Assumptions{
			TargetGrossMargin: 0.5,
			PaymentTerms:      "**50%** deposit <script>alert(1)</script>",
		},
		LineItems: []types.LineItem{{
			Code:     "FURN-80",
			Name:     "Furnace & Coil",
			Quantity: 2,
			Features: []string{"80% AFUE", "Quiet"},
			Costs:    types.LineCosts{TotalCost: 1512, TargetSellPrice: 3024},
		}},
		Totals: types.Totals{
			RecommendedSubtotal:   3324,
			DiscountTotal:         100,
			SubtotalAfterDiscount: 3224,
			TaxTotal:              225.68,
			GrandTotal:            3449.68,
			AchievedGrossMargin:   0.4845,
		},
		Alerts: []string{"Estimated gross margin is below target after discounts."},
	}
}

func TestRenderEstimateHTML(t *testing.T) {
	doc, err := RenderEstimateHTML(sampleEstimate(), "Cool & Co")
	require.NoError(t, err)

	assert.Contains(t, doc, "<title>Estimate est_123</title>")
	assert.Contains(t, doc, "<h1>Cool &amp; Co</h1>")
	assert.Contains(t, doc, "Pat &lt;Doe&gt;")
	assert.Contains(t, doc, "HVAC service estimate")
	assert.Contains(t, doc, "Furnace &amp; Coil")
	assert.Contains(t, doc, "80% AFUE | Quiet")
	assert.Contains(t, doc, "$1,512.00")
	assert.Contains(t, doc, "$3,024.00")
	assert.Contains(t, doc, "-$100.00")
	assert.Contains(t, doc, "$3,449.68")
	assert.Contains(t, doc, "March 4, 2026")
	assert.Contains(t, doc, "<strong>50%</strong> deposit")
	assert.NotContains(t, doc, "<script>")
	assert.Contains(t, doc, "Estimated gross margin is below target after discounts.")
}

func TestRenderEstimateHTMLDefaults(t *testing.T) {
	estimate := sampleEstimate()
	estimate.Customer = map[string]any{}
	estimate.Totals.DiscountTotal = 0
	estimate.Assumptions.PaymentTerms = ""

	doc, err := RenderEstimateHTML(estimate, "")
	require.NoError(t, err)
	assert.Contains(t, doc, "<h1>HVAC Estimate</h1>")
	assert.Contains(t, doc, "<div>Customer</div>")
	assert.NotContains(t, doc, "Discount")
	assert.NotContains(t, doc, "Payment terms")
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   float64
		currency string
		want     string
	}{
		{0, "USD", "$0.00"},
		{5, "usd", "$5.00"},
		{999.999, "USD", "$1,000.00"},
		{1234567.891, "USD", "$1,234,567.89"},
		{-432.4, "USD", "-$432.40"},
		{100, "MXN", "MXN 100.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.amount, tt.currency))
	}
}

func TestWriteEstimateReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEstimateReport(&buf, sampleEstimate()))

	out := buf.String()
	assert.Contains(t, out, "HVAC ESTIMATE REPORT")
	assert.Contains(t, out, "est_123")
	assert.Contains(t, out, "● BELOW TARGET 48.45%")
	assert.Contains(t, out, "GRAND TOTAL:  $3,449.68")
	assert.Contains(t, out, "⚠  Estimated gross margin is below target after discounts.")
}

func TestWritePlanReport(t *testing.T) {
	plan := &types.ChangeoutPlan{
		Lane:            types.LaneNeedsQuestions,
		ConfidenceScore: 0.47,
		MissingFields:   []string{"tonnage"},
		RiskFlags:       []types.RiskFlag{{Code: "tight_attic", Label: "Tight attic access"}},
		FollowUpQuestions: []string{
			"What tonnage should we quote (e.g. 3.0, 4.0, 5.0)?",
		},
		NextStep: "Answer follow-up questions to complete scope before pricing.",
	}

	var buf bytes.Buffer
	require.NoError(t, WritePlanReport(&buf, plan))
	out := buf.String()
	assert.Contains(t, out, "Lane:        needs_questions")
	assert.Contains(t, out, "Confidence:  0.47")
	assert.Contains(t, out, "Missing:     tonnage")
	assert.Contains(t, out, "tight_attic")
	assert.Contains(t, out, "?  What tonnage should we quote")
	assert.NotContains(t, out, "GRAND TOTAL")
}
