package commands

import (
	"fmt"

	"github.com/hvacbridge/estimator/pkg/engine"
	"github.com/spf13/cobra"
)

var (
	intakeFile string
	planLimit  int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Classify a full-system changeout intake",
	Long: `Rank equipment options, flag install risks and pick a workflow lane for
a changeout intake. Auto-ready intakes include a priced preview.

The intake file holds either a bare intake object or
{"intake": {...}, "customer": {...}, "project": {...}, "limit": 3}.

Example:
  estimator plan --profile profile.hcl --intake intake.json --format cli`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&profileFile, "profile", "", "Path to an HCL profile file (default: configured store)")
	planCmd.Flags().StringVar(&intakeFile, "intake", "", "Path to the intake JSON")
	planCmd.Flags().IntVar(&planLimit, "limit", 0, "Maximum recommended options (1-5, default 3)")
	planCmd.Flags().StringVar(&outputFormat, "format", "json", "Output format (json, cli)")
	planCmd.MarkFlagRequired("intake")
}

func runPlan(cmd *cobra.Command, args []string) error {
	var req engine.PlanRequest
	if err := readJSONFile(intakeFile, &req); err != nil {
		return err
	}
	var probe map[string]any
	if err := readJSONFile(intakeFile, &probe); err != nil {
		return err
	}
	if _, wrapped := probe["intake"]; !wrapped {
		req = engine.PlanRequest{}
		if err := readJSONFile(intakeFile, &req.Intake); err != nil {
			return err
		}
	}
	if planLimit > 0 {
		req.Limit = planLimit
	}

	sess, err := openSession(cmd.Context(), profileFile)
	if err != nil {
		return err
	}
	defer sess.Close()

	plan, err := sess.service.Plan(cmd.Context(), sess.user, req)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}
	return engine.WritePlan(cmd.OutOrStdout(), plan, outputFormat)
}
