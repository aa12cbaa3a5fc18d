// Package engine ties the profile store to the pricing engine, the changeout
// planner and the audit trail. CLI commands and HTTP handlers go through it.
package engine

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/hvacbridge/estimator/pkg/audit"
	"github.com/hvacbridge/estimator/pkg/changeout"
	"github.com/hvacbridge/estimator/pkg/crm"
	"github.com/hvacbridge/estimator/pkg/explain"
	"github.com/hvacbridge/estimator/pkg/policy"
	"github.com/hvacbridge/estimator/pkg/pricing"
	"github.com/hvacbridge/estimator/pkg/store"
	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
)

// Options configure a Service. Empty AuditDir disables the audit trail.
type Options struct {
	Store     store.ProfileStore
	Pricing   *pricing.Engine
	AuditDir  string
	Source    string
	Housecall crm.Paths
	Policies  []policy.Policy
}

// Service orchestrates one estimator request end to end
type Service struct {
	store     store.ProfileStore
	pricing   *pricing.Engine
	planner   *changeout.Planner
	explainer *explain.Explainer
	exporter  *crm.Exporter
	policies  *policy.PolicyEngine
	audit     *audit.AuditTrail
	source    string
}

// PlanRequest is one changeout intake for the planner
type PlanRequest struct {
	Intake   types.ChangeoutIntake `json:"intake"`
	Customer map[string]any        `json:"customer,omitempty"`
	Project  map[string]any        `json:"project,omitempty"`
	Limit    int                   `json:"limit,omitempty"`
}

func New(opts Options) *Service {
	engine := opts.Pricing
	if engine == nil {
		engine = pricing.NewEngine()
	}
	profiles := opts.Store
	if profiles == nil {
		profiles = store.New(store.NewMemoryBackend())
	}

	policies := policy.New()
	policies.LoadPolicies(opts.Policies)

	s := &Service{
		store:     profiles,
		pricing:   engine,
		planner:   changeout.NewPlanner(engine),
		explainer: explain.New(),
		exporter:  crm.NewExporter(opts.Housecall),
		policies:  policies,
		source:    opts.Source,
	}
	if opts.AuditDir != "" {
		s.audit = audit.New(opts.AuditDir)
	}
	return s
}

// Store exposes the profile store for profile management endpoints
func (s *Service) Store() store.ProfileStore {
	return s.store
}

// Estimate prices a request against the user's stored profile
func (s *Service) Estimate(ctx context.Context, userID string, req types.EstimateRequest) (*types.Estimate, error) {
	log.WithFields(log.Fields{
		"user":        userID,
		"selections":  len(req.Selections),
		"manual_item": len(req.ManualItems),
	}).Info("Starting estimate")

	// Stage 1: load profile snapshot
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile loading failed: %w", err)
	}

	// Stage 2: price
	estimate, err := s.pricing.Compute(profile.Config, profile.Catalog, req)
	if err != nil {
		log.WithError(err).WithField("user", userID).Warn("Estimate rejected")
		return nil, err
	}

	// Stage 3: business policies on top of the margin guardrails
	if extra := s.policies.Evaluate(estimate); len(extra) > 0 {
		estimate.PolicyResults = append(estimate.PolicyResults, extra...)
	}

	log.WithFields(log.Fields{
		"estimate_id": estimate.ID,
		"lines":       len(estimate.LineItems),
		"grand_total": estimate.Totals.GrandTotal,
		"margin":      estimate.Totals.AchievedGrossMargin,
	}).Info("Estimate completed")

	// Stage 4: audit
	if s.audit != nil {
		if _, err := s.audit.LogEstimate(estimate, s.metadata(ctx, userID)); err != nil {
			log.WithError(err).Warn("Failed to write estimate audit record")
		}
	}
	return estimate, nil
}

// Plan classifies a changeout intake against the user's stored profile
func (s *Service) Plan(ctx context.Context, userID string, req PlanRequest) (*types.ChangeoutPlan, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile loading failed: %w", err)
	}

	plan, err := s.planner.Plan(changeout.Input{
		Config:   profile.Config,
		Catalog:  profile.Catalog,
		Intake:   req.Intake,
		Customer: req.Customer,
		Project:  req.Project,
		Limit:    req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("changeout planning failed: %w", err)
	}

	log.WithFields(log.Fields{
		"user":       userID,
		"lane":       plan.Lane,
		"confidence": plan.ConfidenceScore,
		"options":    len(plan.RecommendedOptions),
	}).Info("Changeout plan completed")

	if s.audit != nil {
		if _, err := s.audit.LogPlan(plan, s.metadata(ctx, userID)); err != nil {
			log.WithError(err).Warn("Failed to write plan audit record")
		}
	}
	return plan, nil
}

// Explain prices the request and returns the estimate with its explanation
func (s *Service) Explain(ctx context.Context, userID string, req types.EstimateRequest) (*types.Estimate, *explain.EstimateExplanation, error) {
	estimate, err := s.Estimate(ctx, userID, req)
	if err != nil {
		return nil, nil, err
	}
	return estimate, s.explainer.ExplainEstimate(estimate), nil
}

// Export maps an estimate onto a Housecall Pro request
func (s *Service) Export(estimate *types.Estimate, opts crm.ExportOptions) (*crm.ExportRequest, error) {
	req, err := s.exporter.Request(estimate, opts)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"estimate_id": estimate.ID,
		"mode":        req.Mode,
		"path":        req.Path,
	}).Info("Housecall export prepared")
	return req, nil
}

// Health pings the profile store
func (s *Service) Health(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}
	return nil
}

func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) metadata(ctx context.Context, userID string) audit.AuditMetadata {
	source := s.source
	if source == "" {
		source = "cli"
	}
	return audit.AuditMetadata{
		User:      userID,
		Source:    source,
		RequestID: middleware.GetReqID(ctx),
	}
}
