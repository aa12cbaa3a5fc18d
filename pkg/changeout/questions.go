package changeout

import (
	"fmt"
	"strings"

	"github.com/hvacbridge/estimator/pkg/types"
)

var missingFieldQuestions = map[string]string{
	"tonnage":    "What tonnage should we quote (e.g. 3.0, 4.0, 5.0)?",
	"systemType": "Is this split heat pump, split AC furnace, package unit, or mini-split?",
	"phase":      "Is this single-phase or three-phase power?",
}

var riskQuestions = []struct {
	risk     string
	question string
}{
	{RiskCraneRequired, "Please confirm crane size window and staging restrictions."},
	{RiskCurbAdapter, "Please capture curb dimensions so we can confirm adapter requirements."},
	{RiskCommercialJob, "For commercial scope, confirm controls sequence and final equipment availability before final pricing."},
}

var nextSteps = map[types.Lane]string{
	types.LaneAutoReady:           "Review estimate preview and send/export.",
	types.LaneNeedsSelection:      "Choose one recommended equipment option and re-run plan.",
	types.LaneNeedsQuestions:      "Answer follow-up questions to complete scope before pricing.",
	types.LaneAwaitingVendorQuote: "Collect distributor pricing/stock info, then re-run plan with selected SKU.",
	types.LaneManualReview:        "Route to estimator review due to complexity/commercial constraints.",
}

// followUpQuestions lists what to ask next, deduplicated in insertion order
func followUpQuestions(missing []string, flags []types.RiskFlag, lane types.Lane, brands []string) []string {
	var questions []string
	for _, field := range missing {
		if q, ok := missingFieldQuestions[field]; ok {
			questions = append(questions, q)
		}
	}
	for _, rq := range riskQuestions {
		if hasRisk(flags, rq.risk) {
			questions = append(questions, rq.question)
		}
	}
	if lane == types.LaneAwaitingVendorQuote && len(brands) > 0 {
		questions = append(questions, fmt.Sprintf("Need current distributor pricing and stock check for %s.", strings.Join(brands, ", ")))
	}
	return dedupe(questions)
}

func vendorChecklist(brands []string, options []types.EquipmentOption) types.VendorQuote {
	var contacts []string
	for _, option := range options {
		if option.VendorContact != "" {
			contacts = append(contacts, option.VendorContact)
		}
	}

	checklist := make([]string, 0, len(brands)+2)
	for _, brand := range brands {
		checklist = append(checklist, fmt.Sprintf("Confirm %s equipment availability + net cost.", brand))
	}
	checklist = append(checklist,
		"Confirm lead time and warranty registration requirements.",
		"Confirm any model substitutions currently in stock.",
	)

	return types.VendorQuote{Contacts: dedupe(contacts), Checklist: checklist}
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := []string{}
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}
