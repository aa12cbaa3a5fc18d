package commands

import (
	"fmt"
	"io"

	"github.com/hvacbridge/estimator/pkg/diff"
	"github.com/hvacbridge/estimator/pkg/output"
	"github.com/hvacbridge/estimator/pkg/render"
	"github.com/spf13/cobra"
)

var (
	beforeFile string
	afterFile  string
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two saved estimates",
	Long: `Compare two estimate JSON files line by line.

Example:
  estimator diff --before v1.json --after v2.json`,
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&beforeFile, "before", "", "Path to the earlier estimate JSON")
	diffCmd.Flags().StringVar(&afterFile, "after", "", "Path to the later estimate JSON")
	diffCmd.Flags().StringVar(&outputFormat, "format", "cli", "Output format (cli, json, ci)")
	diffCmd.MarkFlagRequired("before")
	diffCmd.MarkFlagRequired("after")
}

func runDiff(cmd *cobra.Command, args []string) error {
	before, err := readEstimate(beforeFile)
	if err != nil {
		return fmt.Errorf("failed to load before estimate: %w", err)
	}
	after, err := readEstimate(afterFile)
	if err != nil {
		return fmt.Errorf("failed to load after estimate: %w", err)
	}

	d := diff.New().Diff(before, after)

	switch outputFormat {
	case "json":
		return render.WriteJSON(cmd.OutOrStdout(), d)
	case "ci":
		_, err := fmt.Fprint(cmd.OutOrStdout(), output.NewCIAnnotator("generic").AnnotateDiff(d))
		return err
	case "cli":
		writeDiff(cmd.OutOrStdout(), d, before.Currency)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func writeDiff(w io.Writer, d *diff.DetailedDiff, currency string) {
	fmt.Fprintln(w, "\n╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║           ESTIMATE DIFFERENCE REPORT                       ║")
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")

	fmt.Fprintf(w, "\nBefore:  %s\n", render.FormatMoney(d.BeforeTotal, currency))
	fmt.Fprintf(w, "After:   %s\n", render.FormatMoney(d.AfterTotal, currency))

	deltaSymbol := "↑"
	if d.TotalDelta < 0 {
		deltaSymbol = "↓"
	}
	fmt.Fprintf(w, "Delta:   %s %s (%.1f%%)\n", deltaSymbol, render.FormatMoney(d.TotalDelta, currency), d.PercentChange)
	fmt.Fprintf(w, "Margin:  %+.2f pts\n", d.MarginDelta*100)

	for _, line := range d.AddedLines {
		fmt.Fprintf(w, "  + %-20s %s\n", line.Code, render.FormatMoney(line.SellPrice, currency))
	}
	for _, line := range d.RemovedLines {
		fmt.Fprintf(w, "  - %-20s %s\n", line.Code, render.FormatMoney(line.SellPrice, currency))
	}
	for _, line := range d.ModifiedLines {
		fmt.Fprintf(w, "  ~ %-20s %s -> %s\n", line.Code,
			render.FormatMoney(line.OldSellPrice, currency), render.FormatMoney(line.SellPrice, currency))
	}
	fmt.Fprintln(w)
}
