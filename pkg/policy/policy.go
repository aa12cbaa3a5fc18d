package policy

import (
	"fmt"
	"strings"

	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/types"
)

// Guardrail alert texts. Estimates surface these verbatim as alerts.
const (
	AlertBelowTarget  = "Estimated gross margin is below target after discounts."
	AlertBelowMinimum = "Estimated gross margin is below configured minimum guardrail."
	AlertAutoRaised   = "Subtotal was automatically raised to satisfy minimum gross margin guardrail."
)

// marginEpsilon keeps float noise from tripping the target check
const marginEpsilon = 1e-9

// Guardrail policy names
const (
	TargetMarginPolicy  = "Target gross margin"
	MinimumMarginPolicy = "Minimum gross margin guardrail"
	AutoRaisePolicy     = "Minimum margin auto-raise"
)

// GuardrailInput is the margin state of an estimate before it is finalized
type GuardrailInput struct {
	AchievedGrossMargin     float64
	TargetGrossMargin       float64
	BelowMinimumGrossMargin bool
	AdjustedToMinimum       bool
	EnforceMinimum          bool
	AllowMarginOverride     bool
}

// EvaluateGuardrails checks the margin guardrails in alert order. Falling
// below target is always a warning; falling below minimum is a failure only
// when enforcement is on and no override was granted.
func EvaluateGuardrails(in GuardrailInput) []types.PolicyResult {
	results := make([]types.PolicyResult, 0, 3)

	if in.AchievedGrossMargin < in.TargetGrossMargin-marginEpsilon {
		results = append(results, types.PolicyResult{PolicyName: TargetMarginPolicy, Outcome: types.PolicyWarn, Message: AlertBelowTarget})
	} else {
		results = append(results, types.PolicyResult{
			PolicyName: TargetMarginPolicy,
			Outcome:    types.PolicyPass,
			Message:    fmt.Sprintf("Gross margin %.2f%% meets target %.2f%%", in.AchievedGrossMargin*100, in.TargetGrossMargin*100),
		})
	}

	switch {
	case in.BelowMinimumGrossMargin && in.EnforceMinimum && !in.AllowMarginOverride:
		results = append(results, types.PolicyResult{PolicyName: MinimumMarginPolicy, Outcome: types.PolicyFail, Message: AlertBelowMinimum})
	case in.BelowMinimumGrossMargin:
		results = append(results, types.PolicyResult{PolicyName: MinimumMarginPolicy, Outcome: types.PolicyWarn, Message: AlertBelowMinimum})
	default:
		results = append(results, types.PolicyResult{PolicyName: MinimumMarginPolicy, Outcome: types.PolicyPass, Message: "Gross margin is at or above the minimum guardrail"})
	}

	if in.AdjustedToMinimum {
		results = append(results, types.PolicyResult{PolicyName: AutoRaisePolicy, Outcome: types.PolicyWarn, Message: AlertAutoRaised})
	}

	return results
}

// Alerts returns the messages of every non-passing result, in order
func Alerts(results []types.PolicyResult) []string {
	alerts := []string{}
	for _, result := range results {
		if result.Outcome != types.PolicyPass {
			alerts = append(alerts, result.Message)
		}
	}
	return alerts
}

// PolicyEngine evaluates finished estimates against business policies
type PolicyEngine struct {
	policies []Policy
}

func New() *PolicyEngine {
	return &PolicyEngine{
		policies: []Policy{},
	}
}

// LoadPolicies loads policy definitions
func (pe *PolicyEngine) LoadPolicies(policies []Policy) {
	pe.policies = policies
}

// Evaluate checks estimate against all policies
func (pe *PolicyEngine) Evaluate(estimate *types.Estimate) []types.PolicyResult {
	var results []types.PolicyResult

	for _, policy := range pe.policies {
		result := pe.evaluatePolicy(policy, estimate)
		results = append(results, result)
	}

	return results
}

// HasFailures checks if any policy failed
func HasFailures(results []types.PolicyResult) bool {
	for _, result := range results {
		if result.Outcome == types.PolicyFail {
			return true
		}
	}
	return false
}

func (pe *PolicyEngine) evaluatePolicy(policy Policy, estimate *types.Estimate) types.PolicyResult {
	switch policy.Type {
	case PolicyTypeTotalBudget:
		return pe.evaluateTotalBudget(policy, estimate)
	case PolicyTypeMinimumMargin:
		return pe.evaluateMinimumMargin(policy, estimate)
	case PolicyTypeMaxDiscount:
		return pe.evaluateMaxDiscount(policy, estimate)
	case PolicyTypeLineCount:
		return pe.evaluateLineCount(policy, estimate)
	default:
		return types.PolicyResult{
			PolicyName: policy.Name,
			Outcome:    types.PolicyFail,
			Message:    fmt.Sprintf("Unknown policy type: %s", policy.Type),
		}
	}
}

func (pe *PolicyEngine) evaluateTotalBudget(policy Policy, estimate *types.Estimate) types.PolicyResult {
	total := estimate.Totals.GrandTotal

	if total > policy.MaxAmount {
		return types.PolicyResult{
			PolicyName: policy.Name,
			Outcome:    types.PolicyFail,
			Message: fmt.Sprintf(
				"Grand total $%.2f exceeds budget of $%.2f (%.1f%% over)",
				total,
				policy.MaxAmount,
				((total-policy.MaxAmount)/policy.MaxAmount)*100,
			),
		}
	}

	if policy.WarnThreshold > 0 && total > policy.WarnThreshold {
		return types.PolicyResult{
			PolicyName: policy.Name,
			Outcome:    types.PolicyWarn,
			Message: fmt.Sprintf(
				"Grand total $%.2f exceeds warning threshold of $%.2f",
				total,
				policy.WarnThreshold,
			),
		}
	}

	return types.PolicyResult{
		PolicyName: policy.Name,
		Outcome:    types.PolicyPass,
		Message:    fmt.Sprintf("Grand total $%.2f within budget of $%.2f", total, policy.MaxAmount),
	}
}

func (pe *PolicyEngine) evaluateMinimumMargin(policy Policy, estimate *types.Estimate) types.PolicyResult {
	margin := estimate.Totals.AchievedGrossMargin

	if margin < policy.MinRatio {
		return types.PolicyResult{
			PolicyName: policy.Name,
			Outcome:    types.PolicyFail,
			Message:    fmt.Sprintf("Gross margin %.2f%% is below floor of %.2f%%", margin*100, policy.MinRatio*100),
		}
	}

	if policy.WarnRatio > 0 && margin < policy.WarnRatio {
		return types.PolicyResult{
			PolicyName: policy.Name,
			Outcome:    types.PolicyWarn,
			Message:    fmt.Sprintf("Gross margin %.2f%% is below warning level of %.2f%%", margin*100, policy.WarnRatio*100),
		}
	}

	return types.PolicyResult{
		PolicyName: policy.Name,
		Outcome:    types.PolicyPass,
		Message:    fmt.Sprintf("Gross margin %.2f%% meets floor of %.2f%%", margin*100, policy.MinRatio*100),
	}
}

func (pe *PolicyEngine) evaluateMaxDiscount(policy Policy, estimate *types.Estimate) types.PolicyResult {
	ratio := 0.0
	if estimate.Totals.RecommendedSubtotal > 0 {
		ratio = estimate.Totals.DiscountTotal / estimate.Totals.RecommendedSubtotal
	}

	if ratio > policy.MaxRatio {
		return types.PolicyResult{
			PolicyName: policy.Name,
			Outcome:    types.PolicyFail,
			Message:    fmt.Sprintf("Discount of %.1f%% exceeds limit of %.1f%%", ratio*100, policy.MaxRatio*100),
		}
	}

	return types.PolicyResult{
		PolicyName: policy.Name,
		Outcome:    types.PolicyPass,
		Message:    fmt.Sprintf("Discount of %.1f%% within limit of %.1f%%", ratio*100, policy.MaxRatio*100),
	}
}

func (pe *PolicyEngine) evaluateLineCount(policy Policy, estimate *types.Estimate) types.PolicyResult {
	count := 0
	for _, line := range estimate.LineItems {
		if policy.ItemType == "" || line.ItemType == policy.ItemType {
			count++
		}
	}

	if count > policy.MaxCount {
		return types.PolicyResult{
			PolicyName: policy.Name,
			Outcome:    types.PolicyFail,
			Message:    fmt.Sprintf("%d %s lines exceeds limit of %d", count, lineLabel(policy.ItemType), policy.MaxCount),
		}
	}

	return types.PolicyResult{
		PolicyName: policy.Name,
		Outcome:    types.PolicyPass,
		Message:    fmt.Sprintf("%d %s lines within limit of %d", count, lineLabel(policy.ItemType), policy.MaxCount),
	}
}

func lineLabel(itemType types.ItemType) string {
	if itemType == "" {
		return "estimate"
	}
	return string(itemType)
}

// Policy definitions

type PolicyType string

const (
	PolicyTypeTotalBudget   PolicyType = "TOTAL_BUDGET"
	PolicyTypeMinimumMargin PolicyType = "MINIMUM_MARGIN"
	PolicyTypeMaxDiscount   PolicyType = "MAX_DISCOUNT"
	PolicyTypeLineCount     PolicyType = "LINE_COUNT"
)

type Policy struct {
	Name          string         `json:"name"`
	Type          PolicyType     `json:"type"`
	MaxAmount     float64        `json:"max_amount,omitempty"`     // TOTAL_BUDGET
	WarnThreshold float64        `json:"warn_threshold,omitempty"` // TOTAL_BUDGET
	MinRatio      float64        `json:"min_ratio,omitempty"`      // MINIMUM_MARGIN
	WarnRatio     float64        `json:"warn_ratio,omitempty"`     // MINIMUM_MARGIN
	MaxRatio      float64        `json:"max_ratio,omitempty"`      // MAX_DISCOUNT
	ItemType      types.ItemType `json:"item_type,omitempty"`      // LINE_COUNT, empty counts all lines
	MaxCount      int            `json:"max_count,omitempty"`      // LINE_COUNT
}

// Canonicalize upper-cases policy types and resolves item type aliases in
// place, so policies decoded from JSON match the HCL loader's output.
func Canonicalize(policies []Policy) error {
	for i := range policies {
		policies[i].Type = PolicyType(strings.ToUpper(strings.TrimSpace(string(policies[i].Type))))
		if policies[i].ItemType == "" {
			continue
		}
		kind, err := normalize.ParseItemType(string(policies[i].ItemType))
		if err != nil {
			return fmt.Errorf("policy %q: %w", policies[i].Name, err)
		}
		policies[i].ItemType = kind
	}
	return nil
}

// Helper to create common policies

func NewTotalBudgetPolicy(name string, maxAmount, warnThreshold float64) Policy {
	return Policy{
		Name:          name,
		Type:          PolicyTypeTotalBudget,
		MaxAmount:     maxAmount,
		WarnThreshold: warnThreshold,
	}
}

func NewMinimumMarginPolicy(name string, minRatio, warnRatio float64) Policy {
	return Policy{
		Name:      name,
		Type:      PolicyTypeMinimumMargin,
		MinRatio:  minRatio,
		WarnRatio: warnRatio,
	}
}

func NewMaxDiscountPolicy(name string, maxRatio float64) Policy {
	return Policy{
		Name:     name,
		Type:     PolicyTypeMaxDiscount,
		MaxRatio: maxRatio,
	}
}

func NewLineCountPolicy(name string, itemType types.ItemType, maxCount int) Policy {
	return Policy{
		Name:     name,
		Type:     PolicyTypeLineCount,
		ItemType: itemType,
		MaxCount: maxCount,
	}
}
