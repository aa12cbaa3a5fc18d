package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hvacbridge/estimator/pkg/crm"
	"github.com/hvacbridge/estimator/pkg/store"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	LogLevel    string
	BridgeToken string
	DefaultUser string
	AuditDir    string
	ProfileFile string
	CORSOrigins []string
	Store       store.Options
	Housecall   crm.Paths
}

// Load reads the process configuration from the environment. A .env file in
// the working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	backend := strings.ToLower(getEnv("STORE_BACKEND", "memory"))
	switch backend {
	case "memory", "postgres", "dynamodb", "sqlite":
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of memory, postgres, dynamodb, sqlite (got %q)", backend)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if backend == "postgres" && databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required for STORE_BACKEND=postgres")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		BridgeToken: os.Getenv("BRIDGE_TOKEN"),
		DefaultUser: getEnv("DEFAULT_USER", "default"),
		AuditDir:    os.Getenv("AUDIT_DIR"),
		ProfileFile: os.Getenv("PROFILE_FILE"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		Store: store.Options{
			Backend:        backend,
			DatabaseURL:    databaseURL,
			SQLitePath:     getEnv("SQLITE_PATH", "estimator.db"),
			DynamoTable:    getEnv("DYNAMODB_PROFILE_TABLE", "estimator_profiles"),
			DynamoEndpoint: os.Getenv("DYNAMODB_ENDPOINT"),
			AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		},
		Housecall: crm.Paths{
			CreateEstimate: os.Getenv("HOUSECALL_PRO_CREATE_ESTIMATE_PATH"),
			AddToJob:       os.Getenv("HOUSECALL_PRO_ADD_TO_JOB_PATH"),
			UpdateEstimate: os.Getenv("HOUSECALL_PRO_UPDATE_ESTIMATE_PATH"),
			AddOptionNote:  os.Getenv("HOUSECALL_PRO_ADD_OPTION_NOTE_PATH"),
		}.Merge(crm.DefaultPaths()),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
