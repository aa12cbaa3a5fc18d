package commands

import (
	"fmt"

	"github.com/hvacbridge/estimator/pkg/config"
	"github.com/hvacbridge/estimator/pkg/profile"
	"github.com/hvacbridge/estimator/pkg/render"
	"github.com/hvacbridge/estimator/pkg/store"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage stored business profiles",
}

var profileImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an HCL profile file into the configured store",
	Long: `Apply the config block of an HCL profile over the stored config and
replace the stored catalog with its item blocks.

Example:
  STORE_BACKEND=sqlite estimator profile import --file profile.hcl --user shop-42`,
	RunE: runProfileImport,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored profile as JSON",
	RunE:  runProfileShow,
}

func init() {
	profileImportCmd.Flags().StringVar(&profileFile, "file", "", "Path to the HCL profile file")
	profileImportCmd.MarkFlagRequired("file")

	profileCmd.AddCommand(profileImportCmd)
	profileCmd.AddCommand(profileShowCmd)
}

func openStore(cmd *cobra.Command) (*store.Store, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}
	profiles, err := store.Open(cmd.Context(), cfg.Store)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open profile store: %w", err)
	}
	user := userFlag
	if user == "" {
		user = cfg.DefaultUser
	}
	return profiles, user, nil
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	p, err := profile.NewLoader().LoadFile(profileFile)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	profiles, user, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer profiles.Close()

	saved, err := profiles.Import(cmd.Context(), user, p.ConfigPatch, p.Items)
	if err != nil {
		return fmt.Errorf("failed to import profile: %w", err)
	}

	log.WithFields(log.Fields{
		"user":  user,
		"store": profiles.Backend(),
		"items": len(saved.Catalog),
		"hash":  p.Hash,
	}).Info("Profile imported")
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	profiles, user, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer profiles.Close()

	p, err := profiles.GetProfile(cmd.Context(), user)
	if err != nil {
		return err
	}
	return render.WriteJSON(cmd.OutOrStdout(), p)
}
