package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hvacbridge/estimator/pkg/output"
	"github.com/hvacbridge/estimator/pkg/policy"
	"github.com/hvacbridge/estimator/pkg/profile"
	"github.com/hvacbridge/estimator/pkg/render"
	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	policyFile      string
	failOnViolation bool
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Evaluate a saved estimate against margin and business policies",
	Long: `Report the margin guardrail results carried by an estimate, plus any
business policies from a policy file.

Policies come from "policy" blocks of an HCL profile or from a JSON file:
{
  "policies": [
    {"name": "Job budget", "type": "TOTAL_BUDGET", "max_amount": 15000, "warn_threshold": 12000},
    {"name": "Floor margin", "type": "MINIMUM_MARGIN", "min_ratio": 0.3, "warn_ratio": 0.35},
    {"name": "Discount cap", "type": "MAX_DISCOUNT", "max_ratio": 0.1},
    {"name": "One system", "type": "LINE_COUNT", "item_type": "equipment", "max_count": 2}
  ]
}`,
	RunE: runPolicy,
}

func init() {
	policyCmd.Flags().StringVar(&estimateFile, "estimate", "", "Path to the estimate JSON")
	policyCmd.Flags().StringVar(&policyFile, "policy-file", "", "Path to a policy JSON or HCL profile file")
	policyCmd.Flags().BoolVar(&failOnViolation, "fail-on-violation", false, "Exit with an error on policy failure")
	policyCmd.Flags().StringVar(&outputFormat, "format", "cli", "Output format (cli, json, ci)")
	policyCmd.MarkFlagRequired("estimate")
}

func runPolicy(cmd *cobra.Command, args []string) error {
	estimate, err := readEstimate(estimateFile)
	if err != nil {
		return err
	}

	policies, err := loadPolicies(policyFile)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	engine := policy.New()
	engine.LoadPolicies(policies)
	results := append([]types.PolicyResult{}, estimate.PolicyResults...)
	results = append(results, engine.Evaluate(estimate)...)

	switch outputFormat {
	case "json":
		err = render.WriteJSON(cmd.OutOrStdout(), results)
	case "ci":
		_, err = fmt.Fprint(cmd.OutOrStdout(), output.NewCIAnnotator("github").AnnotateEstimate(estimate, results))
	case "cli":
		writePolicyResults(cmd.OutOrStdout(), results, estimate)
	default:
		err = fmt.Errorf("unsupported output format: %s", outputFormat)
	}
	if err != nil {
		return err
	}

	if failOnViolation && policy.HasFailures(results) {
		log.Error("Policy evaluation failed")
		return fmt.Errorf("policy evaluation failed")
	}
	return nil
}

func loadPolicies(path string) ([]policy.Policy, error) {
	if path == "" {
		return nil, nil
	}
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		p, err := profile.NewLoader().LoadFile(path)
		if err != nil {
			return nil, err
		}
		return p.Policies, nil
	}

	var doc struct {
		Policies []policy.Policy `json:"policies"`
	}
	if err := readJSONFile(path, &doc); err != nil {
		return nil, err
	}
	if err := policy.Canonicalize(doc.Policies); err != nil {
		return nil, err
	}
	return doc.Policies, nil
}

func writePolicyResults(w io.Writer, results []types.PolicyResult, estimate *types.Estimate) {
	fmt.Fprintln(w, "\n╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║           POLICY EVALUATION RESULTS                        ║")
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")

	fmt.Fprintf(w, "\nGrand total: %s   Margin: %.2f%%\n\n",
		render.FormatMoney(estimate.Totals.GrandTotal, estimate.Currency),
		estimate.Totals.AchievedGrossMargin*100)

	passCount, warnCount, failCount := 0, 0, 0
	for _, result := range results {
		var symbol string
		switch result.Outcome {
		case types.PolicyPass:
			symbol = "✓"
			passCount++
		case types.PolicyWarn:
			symbol = "⚠"
			warnCount++
		case types.PolicyFail:
			symbol = "✗"
			failCount++
		}
		fmt.Fprintf(w, "%s %s: %s\n", symbol, result.PolicyName, result.Message)
	}

	fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d failed\n\n", passCount, warnCount, failCount)

	switch {
	case failCount > 0:
		fmt.Fprintln(w, "❌ POLICY EVALUATION FAILED")
	case warnCount > 0:
		fmt.Fprintln(w, "⚠️  POLICY EVALUATION PASSED WITH WARNINGS")
	default:
		fmt.Fprintln(w, "✅ POLICY EVALUATION PASSED")
	}
}
