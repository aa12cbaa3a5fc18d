package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check profile store connectivity",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	profiles, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer profiles.Close()

	if err := profiles.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("%s store ping failed: %w", profiles.Backend(), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s store healthy\n", profiles.Backend())
	return nil
}
