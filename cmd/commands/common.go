package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hvacbridge/estimator/pkg/config"
	"github.com/hvacbridge/estimator/pkg/engine"
	"github.com/hvacbridge/estimator/pkg/profile"
	"github.com/hvacbridge/estimator/pkg/store"
	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
)

// session is what a command needs to run against one profile
type session struct {
	service      *engine.Service
	user         string
	businessName string
}

func (s *session) Close() error {
	return s.service.Close()
}

// openSession builds a service. With a profile file the profile lives in
// memory for this run only; without one the configured store is used.
func openSession(ctx context.Context, profilePath string) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	user := userFlag
	if user == "" {
		user = cfg.DefaultUser
	}
	opts := engine.Options{
		AuditDir:  auditDir,
		Source:    "cli",
		Housecall: cfg.Housecall,
	}
	if opts.AuditDir == "" {
		opts.AuditDir = cfg.AuditDir
	}

	if profilePath != "" {
		p, err := profile.NewLoader().LoadFile(profilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		profiles := store.New(store.NewMemoryBackend())
		if _, err := profiles.Import(ctx, user, p.ConfigPatch, p.Items); err != nil {
			return nil, fmt.Errorf("failed to import profile: %w", err)
		}
		opts.Store = profiles
		opts.Policies = p.Policies
		return &session{service: engine.New(opts), user: user, businessName: p.Config.BusinessName}, nil
	}

	profiles, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}
	opts.Store = profiles

	businessName := ""
	if current, err := profiles.GetProfile(ctx, user); err == nil {
		businessName = current.Config.BusinessName
	}

	log.WithFields(log.Fields{"store": profiles.Backend(), "user": user}).Debug("Using profile store")
	return &session{service: engine.New(opts), user: user, businessName: businessName}, nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func readEstimate(path string) (*types.Estimate, error) {
	var wrapper struct {
		Estimate *types.Estimate `json:"estimate"`
	}
	if err := readJSONFile(path, &wrapper); err == nil && wrapper.Estimate != nil {
		return wrapper.Estimate, nil
	}

	var estimate types.Estimate
	if err := readJSONFile(path, &estimate); err != nil {
		return nil, err
	}
	if estimate.ID == "" && len(estimate.LineItems) == 0 {
		return nil, fmt.Errorf("%s does not contain an estimate", path)
	}
	return &estimate, nil
}
