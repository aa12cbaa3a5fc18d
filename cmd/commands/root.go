package commands

import (
	"github.com/spf13/cobra"
)

var (
	userFlag string
	auditDir string
)

var rootCmd = &cobra.Command{
	Use:   "estimator",
	Short: "HVAC estimate and changeout planning engine",
	Long: `Margin-guarded HVAC estimates and full-system changeout plans, priced
from a per-business config and catalog.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "Profile owner (default: DEFAULT_USER)")
	rootCmd.PersistentFlags().StringVar(&auditDir, "audit-dir", "", "Write audit records to this directory (default: AUDIT_DIR)")

	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(serverCmd)
}
