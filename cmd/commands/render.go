package commands

import (
	"fmt"
	"os"

	"github.com/hvacbridge/estimator/pkg/render"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	estimateFile string
	businessName string
	outFile      string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a saved estimate as printable HTML",
	Long: `Render an estimate JSON (as written by "estimate --format json") into a
standalone printable HTML document.

Example:
  estimator render --estimate estimate.json --business "Cool Air HVAC" --out estimate.html`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&estimateFile, "estimate", "", "Path to the estimate JSON")
	renderCmd.Flags().StringVar(&businessName, "business", "", "Business name for the header")
	renderCmd.Flags().StringVar(&outFile, "out", "", "Write to this file instead of stdout")
	renderCmd.MarkFlagRequired("estimate")
}

func runRender(cmd *cobra.Command, args []string) error {
	estimate, err := readEstimate(estimateFile)
	if err != nil {
		return err
	}

	html, err := render.RenderEstimateHTML(estimate, businessName)
	if err != nil {
		return fmt.Errorf("failed to render estimate: %w", err)
	}

	if outFile == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), html)
		return err
	}
	if err := os.WriteFile(outFile, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outFile, err)
	}
	log.WithField("file", outFile).Info("Estimate rendered")
	return nil
}
