package commands

import (
	"fmt"

	"github.com/hvacbridge/estimator/pkg/engine"
	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/pricing"
	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	profileFile  string
	requestFile  string
	outputFormat string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Price an estimate request against a profile",
	Long: `Price selections and manual items against a business profile and
apply the margin guardrails.

Examples:
  # Price against an HCL profile file
  estimator estimate --profile profile.hcl --request request.json

  # Price against the configured store and print a printable HTML page
  estimator estimate --user shop-42 --request request.json --format html`,
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().StringVar(&profileFile, "profile", "", "Path to an HCL profile file (default: configured store)")
	estimateCmd.Flags().StringVar(&requestFile, "request", "", "Path to the estimate request JSON")
	estimateCmd.Flags().StringVar(&outputFormat, "format", "cli", "Output format (cli, json, html, ci)")
	estimateCmd.MarkFlagRequired("request")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	var req types.EstimateRequest
	if err := readJSONFile(requestFile, &req); err != nil {
		return err
	}

	log.Info("Starting estimate")

	sess, err := openSession(cmd.Context(), profileFile)
	if err != nil {
		return err
	}
	defer sess.Close()

	estimate, err := sess.service.Estimate(cmd.Context(), sess.user, req)
	if err != nil {
		if verr, ok := normalize.AsValidation(err); ok && verr.Message == pricing.GuardrailMessage {
			return fmt.Errorf("estimate rejected: %s (details: %v)", verr.Message, verr.Details)
		}
		return fmt.Errorf("estimation failed: %w", err)
	}

	return engine.WriteEstimate(cmd.OutOrStdout(), estimate, outputFormat, sess.businessName)
}
