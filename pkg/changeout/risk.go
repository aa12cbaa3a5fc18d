package changeout

import (
	"strings"

	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/types"
)

// Risk codes derived from the intake itself rather than install conditions
const (
	RiskCommercialJob   = "commercial_job"
	RiskThreePhasePower = "three_phase_power"
	RiskCraneRequired   = "crane_required"
	RiskCurbAdapter     = "curb_adapter_required"
)

// riskAdder ties an install-condition flag to its risk code, the keywords
// used to find a catalog adder, and the template used when none matches.
type riskAdder struct {
	condition string
	code      string
	label     string
	keywords  []string
	fallback  fallbackAdder
}

type fallbackAdder struct {
	code       string
	name       string
	itemType   types.ItemType
	laborHours float64
}

// riskAdders is evaluated in order; flags and adders keep this order.
var riskAdders = []riskAdder{
	{
		condition: "tightAttic",
		code:      "tight_attic",
		label:     "Tight attic access",
		keywords:  []string{"tight attic", "attic access", "crawl access", "restricted attic"},
		fallback:  fallbackAdder{code: "ADDER-TIGHT-ATTIC", name: "Tight attic access labor adder", itemType: types.ItemLabor, laborHours: 3.5},
	},
	{
		condition: "craneRequired",
		code:      RiskCraneRequired,
		label:     "Crane or lift required",
		keywords:  []string{"crane", "lift", "rigging"},
		fallback:  fallbackAdder{code: "ADDER-CRANE", name: "Crane / lift coordination adder", itemType: types.ItemService, laborHours: 4},
	},
	{
		condition: "curbAdapterRequired",
		code:      RiskCurbAdapter,
		label:     "Curb adapter required",
		keywords:  []string{"curb adapter", "adapter curb", "roof curb"},
		fallback:  fallbackAdder{code: "ADDER-CURB-ADAPTER", name: "Curb adapter fabrication/install adder", itemType: types.ItemService, laborHours: 2.5},
	},
	{
		condition: "downflowMobileHomeCoil",
		code:      "mobile_home_downflow",
		label:     "Downflow mobile-home coil configuration",
		keywords:  []string{"mobile home", "downflow", "manufactured home"},
		fallback:  fallbackAdder{code: "ADDER-MOBILE-DOWNFLOW", name: "Downflow mobile-home adaptation adder", itemType: types.ItemLabor, laborHours: 2},
	},
	{
		condition: "lineSetReplacementRequired",
		code:      "line_set_replacement",
		label:     "Line set replacement required",
		keywords:  []string{"line set", "lineset", "line-set"},
		fallback:  fallbackAdder{code: "ADDER-LINESET", name: "Line-set replacement labor adder", itemType: types.ItemLabor, laborHours: 2.5},
	},
	{
		condition: "electricalUpgrade",
		code:      "electrical_upgrade",
		label:     "Electrical upgrade likely",
		keywords:  []string{"electrical", "breaker", "disconnect", "wire", "conductor"},
		fallback:  fallbackAdder{code: "ADDER-ELECTRICAL", name: "Electrical scope review adder", itemType: types.ItemService, laborHours: 1.5},
	},
}

// manualReviewRisks route a plan to an estimator regardless of options
var manualReviewRisks = map[string]bool{
	RiskCommercialJob:   true,
	RiskThreePhasePower: true,
	RiskCraneRequired:   true,
	RiskCurbAdapter:     true,
}

func isCommercial(intake types.ChangeoutIntake) bool {
	return strings.EqualFold(strings.TrimSpace(intake.PropertyType), "commercial")
}

// activeAdders returns the table rows whose install condition is set
func activeAdders(intake types.ChangeoutIntake) []riskAdder {
	var active []riskAdder
	for _, adder := range riskAdders {
		if normalize.Bool(intake.InstallConditions[adder.condition]) {
			active = append(active, adder)
		}
	}
	return active
}

func riskFlags(intake types.ChangeoutIntake) []types.RiskFlag {
	flags := []types.RiskFlag{}
	if isCommercial(intake) {
		flags = append(flags, types.RiskFlag{Code: RiskCommercialJob, Label: "Commercial job scope"})
	}
	if normalizePhase(intake.Phase) == phaseThree {
		flags = append(flags, types.RiskFlag{Code: RiskThreePhasePower, Label: "3-phase equipment / power"})
	}
	for _, adder := range activeAdders(intake) {
		flags = append(flags, types.RiskFlag{Code: adder.code, Label: adder.label})
	}
	return flags
}

func requiresManualReview(flags []types.RiskFlag) bool {
	for _, flag := range flags {
		if manualReviewRisks[flag.Code] {
			return true
		}
	}
	return false
}

func hasRisk(flags []types.RiskFlag, code string) bool {
	for _, flag := range flags {
		if flag.Code == code {
			return true
		}
	}
	return false
}
