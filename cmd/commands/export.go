package commands

import (
	"fmt"

	"github.com/hvacbridge/estimator/pkg/config"
	"github.com/hvacbridge/estimator/pkg/crm"
	"github.com/hvacbridge/estimator/pkg/engine"
	"github.com/hvacbridge/estimator/pkg/render"
	"github.com/spf13/cobra"
)

var exportOptionsFile string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Preview the Housecall Pro request for a saved estimate",
	Long: `Map an estimate onto the Housecall Pro request it would be sent as. No
network call is made.

The options file uses the keys mode, customer_id, job_id, estimate_id,
estimate_option_id, option_name, note, method, endpoint and the *_path
templates. Without a mode it is inferred from the ids present.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&estimateFile, "estimate", "", "Path to the estimate JSON")
	exportCmd.Flags().StringVar(&exportOptionsFile, "options", "", "Path to export options JSON")
	exportCmd.MarkFlagRequired("estimate")
}

func runExport(cmd *cobra.Command, args []string) error {
	estimate, err := readEstimate(estimateFile)
	if err != nil {
		return err
	}

	var opts crm.ExportOptions
	if exportOptionsFile != "" {
		if err := readJSONFile(exportOptionsFile, &opts); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	svc := engine.New(engine.Options{Housecall: cfg.Housecall, Source: "cli"})
	req, err := svc.Export(estimate, opts)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return render.WriteJSON(cmd.OutOrStdout(), req)
}
