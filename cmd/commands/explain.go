package commands

import (
	"fmt"
	"io"

	"github.com/hvacbridge/estimator/pkg/explain"
	"github.com/hvacbridge/estimator/pkg/render"
	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain how each estimate line was priced",
	Long:  `Price a request and print every formula with its numbers substituted.`,
	RunE:  runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&profileFile, "profile", "", "Path to an HCL profile file (default: configured store)")
	explainCmd.Flags().StringVar(&requestFile, "request", "", "Path to the estimate request JSON")
	explainCmd.Flags().StringVar(&outputFormat, "format", "cli", "Output format (cli, json)")
	explainCmd.MarkFlagRequired("request")
}

func runExplain(cmd *cobra.Command, args []string) error {
	var req types.EstimateRequest
	if err := readJSONFile(requestFile, &req); err != nil {
		return err
	}

	sess, err := openSession(cmd.Context(), profileFile)
	if err != nil {
		return err
	}
	defer sess.Close()

	_, explanation, err := sess.service.Explain(cmd.Context(), sess.user, req)
	if err != nil {
		return fmt.Errorf("estimation failed: %w", err)
	}

	if outputFormat == "json" {
		return render.WriteJSON(cmd.OutOrStdout(), explanation)
	}
	writeExplanation(cmd.OutOrStdout(), explanation)
	return nil
}

func writeExplanation(w io.Writer, e *explain.EstimateExplanation) {
	fmt.Fprintf(w, "\nEstimate %s (%d lines)\n", e.EstimateID, e.LineCount)

	for _, line := range e.Lines {
		fmt.Fprintf(w, "\n%s  %s\n", line.Code, line.Name)
		fmt.Fprintf(w, "  %s\n", line.What)
		if line.Why != "" {
			fmt.Fprintf(w, "  %s\n", line.Why)
		}
		for _, step := range line.Breakdown {
			fmt.Fprintf(w, "    %-14s %s\n", step.Label, step.Formula)
		}
	}

	fmt.Fprintln(w, "\nTotals")
	for _, step := range e.Totals {
		fmt.Fprintf(w, "    %-22s %s\n", step.Label, step.Formula)
	}

	for _, rec := range e.Margin.Recommendations {
		fmt.Fprintf(w, "\n  ⚠  %s\n", rec)
	}
	fmt.Fprintln(w)
}
