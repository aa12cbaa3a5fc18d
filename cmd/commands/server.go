package commands

import (
	"fmt"

	"github.com/hvacbridge/estimator/pkg/api"
	"github.com/hvacbridge/estimator/pkg/config"
	"github.com/hvacbridge/estimator/pkg/engine"
	"github.com/hvacbridge/estimator/pkg/profile"
	"github.com/hvacbridge/estimator/pkg/store"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serverPort string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP API server",
	Long: `Start the estimator HTTP API.

Environment variables:
  BRIDGE_TOKEN      - Shared token required on every route except /health
  STORE_BACKEND     - memory, postgres, dynamodb or sqlite (default: memory)
  DATABASE_URL      - PostgreSQL connection string (postgres backend)
  SQLITE_PATH       - SQLite file (default: estimator.db)
  DYNAMODB_PROFILE_TABLE, DYNAMODB_ENDPOINT, AWS_REGION - DynamoDB backend
  PROFILE_FILE      - HCL profile seeded into DEFAULT_USER at startup
  AUDIT_DIR         - Write audit records here
  CORS_ORIGINS      - Comma-separated CORS origins
  LOG_LEVEL         - Logging level (debug/info/warn/error)`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().StringVar(&serverPort, "port", "", "HTTP server port (default: PORT or 8080)")
}

func runServer(cmd *cobra.Command, args []string) error {
	log.Info("Initializing estimator HTTP API server")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.BridgeToken == "" {
		return fmt.Errorf("BRIDGE_TOKEN environment variable is required")
	}
	if serverPort == "" {
		serverPort = cfg.Port
	}

	profiles, err := store.Open(cmd.Context(), cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open profile store: %w", err)
	}

	opts := engine.Options{
		Store:     profiles,
		AuditDir:  cfg.AuditDir,
		Source:    "api",
		Housecall: cfg.Housecall,
	}
	if cfg.ProfileFile != "" {
		p, err := profile.NewLoader().LoadFile(cfg.ProfileFile)
		if err != nil {
			return fmt.Errorf("failed to load PROFILE_FILE: %w", err)
		}
		if _, err := profiles.Import(cmd.Context(), cfg.DefaultUser, p.ConfigPatch, p.Items); err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
		opts.Policies = p.Policies
	}

	svc := engine.New(opts)
	defer svc.Close()

	log.WithFields(log.Fields{
		"port":  serverPort,
		"store": profiles.Backend(),
		"audit": cfg.AuditDir != "",
	}).Info("Server configuration loaded")

	return api.New(cfg, svc, profiles.Backend()).Start(serverPort)
}
