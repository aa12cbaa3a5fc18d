package policy

import (
	"testing"

	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcomes(results []types.PolicyResult) []types.PolicyOutcome {
	out := make([]types.PolicyOutcome, len(results))
	for i, r := range results {
		out[i] = r.Outcome
	}
	return out
}

func TestEvaluateGuardrails(t *testing.T) {
	tests := []struct {
		name   string
		in     GuardrailInput
		want   []types.PolicyOutcome
		alerts []string
	}{
		{
			name:   "healthy margin",
			in:     GuardrailInput{AchievedGrossMargin: 0.4, TargetGrossMargin: 0.4, EnforceMinimum: true},
			want:   []types.PolicyOutcome{types.PolicyPass, types.PolicyPass},
			alerts: []string{},
		},
		{
			name:   "below target only",
			in:     GuardrailInput{AchievedGrossMargin: 0.35, TargetGrossMargin: 0.4, EnforceMinimum: true},
			want:   []types.PolicyOutcome{types.PolicyWarn, types.PolicyPass},
			alerts: []string{AlertBelowTarget},
		},
		{
			name: "below enforced minimum",
			in: GuardrailInput{
				AchievedGrossMargin: 0.2, TargetGrossMargin: 0.4,
				BelowMinimumGrossMargin: true, EnforceMinimum: true,
			},
			want:   []types.PolicyOutcome{types.PolicyWarn, types.PolicyFail},
			alerts: []string{AlertBelowTarget, AlertBelowMinimum},
		},
		{
			name: "override downgrades minimum to warning",
			in: GuardrailInput{
				AchievedGrossMargin: 0.2, TargetGrossMargin: 0.4,
				BelowMinimumGrossMargin: true, EnforceMinimum: true, AllowMarginOverride: true,
			},
			want:   []types.PolicyOutcome{types.PolicyWarn, types.PolicyWarn},
			alerts: []string{AlertBelowTarget, AlertBelowMinimum},
		},
		{
			name: "auto raised",
			in: GuardrailInput{
				AchievedGrossMargin: 0.3, TargetGrossMargin: 0.4,
				AdjustedToMinimum: true, EnforceMinimum: true,
			},
			want:   []types.PolicyOutcome{types.PolicyWarn, types.PolicyPass, types.PolicyWarn},
			alerts: []string{AlertBelowTarget, AlertAutoRaised},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := EvaluateGuardrails(tt.in)
			assert.Equal(t, tt.want, outcomes(results))
			assert.Equal(t, tt.alerts, Alerts(results))
		})
	}
}

func TestPolicyEngine_Evaluate(t *testing.T) {
	estimate := &types.Estimate{
		Totals: types.Totals{
			GrandTotal:          10000,
			AchievedGrossMargin: 0.32,
			RecommendedSubtotal: 10000,
			DiscountTotal:       1500,
		},
		LineItems: []types.LineItem{
			{ItemType: types.ItemEquipment},
			{ItemType: types.ItemEquipment},
			{ItemType: types.ItemEquipment},
			{ItemType: types.ItemLabor},
		},
	}

	tests := []struct {
		name   string
		policy Policy
		want   types.PolicyOutcome
	}{
		{"budget pass", NewTotalBudgetPolicy("b", 12000, 0), types.PolicyPass},
		{"budget warn", NewTotalBudgetPolicy("b", 12000, 9000), types.PolicyWarn},
		{"budget fail", NewTotalBudgetPolicy("b", 8000, 0), types.PolicyFail},
		{"margin pass", NewMinimumMarginPolicy("m", 0.3, 0), types.PolicyPass},
		{"margin warn", NewMinimumMarginPolicy("m", 0.3, 0.35), types.PolicyWarn},
		{"margin fail", NewMinimumMarginPolicy("m", 0.4, 0), types.PolicyFail},
		{"discount pass", NewMaxDiscountPolicy("d", 0.2), types.PolicyPass},
		{"discount fail", NewMaxDiscountPolicy("d", 0.1), types.PolicyFail},
		{"equipment lines fail", NewLineCountPolicy("l", types.ItemEquipment, 2), types.PolicyFail},
		{"all lines pass", NewLineCountPolicy("l", "", 4), types.PolicyPass},
		{"unknown type", Policy{Name: "x", Type: "NOPE"}, types.PolicyFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := New()
			pe.LoadPolicies([]Policy{tt.policy})
			results := pe.Evaluate(estimate)
			require.Len(t, results, 1)
			assert.Equal(t, tt.want, results[0].Outcome, results[0].Message)
			assert.Equal(t, tt.want == types.PolicyFail, HasFailures(results))
		})
	}
}

func TestCanonicalize(t *testing.T) {
	policies := []Policy{
		{Name: "budget", Type: " total_budget "},
		{Name: "systems", Type: "line_count", ItemType: "Equipment"},
	}
	require.NoError(t, Canonicalize(policies))
	assert.Equal(t, PolicyTypeTotalBudget, policies[0].Type)
	assert.Equal(t, PolicyTypeLineCount, policies[1].Type)
	assert.Equal(t, types.ItemEquipment, policies[1].ItemType)

	err := Canonicalize([]Policy{{Name: "bad", Type: "LINE_COUNT", ItemType: "widget"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `policy "bad"`)
}
