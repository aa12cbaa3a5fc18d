package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/hvacbridge/estimator/pkg/crm"
	"github.com/hvacbridge/estimator/pkg/policy"
	"github.com/hvacbridge/estimator/pkg/pricing"
	"github.com/hvacbridge/estimator/pkg/store"
	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T, opts Options) *Service {
	t.Helper()

	profiles := store.New(store.NewMemoryBackend())
	_, err := profiles.ReplaceCatalog(context.Background(), "tech", []map[string]any{
		{"sku": "COIL", "name": "Evaporator coil", "unitCost": 100, "defaultLaborHours": 1},
		{
			"sku":               "HP-3T",
			"name":              "AC Pro 3 Ton Heat Pump",
			"itemType":          "equipment",
			"unitCost":          3000,
			"defaultLaborHours": 8,
			"attributes":        map[string]any{"brand": "AC Pro", "tonnage": 3, "systemType": "heat pump"},
		},
	})
	require.NoError(t, err)

	opts.Store = profiles
	opts.Pricing = &pricing.Engine{
		Now:   func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) },
		NewID: func() string { return "est_service" },
	}
	return New(opts)
}

func coilRequest() types.EstimateRequest {
	return types.EstimateRequest{
		Selections: []types.Selection{{SKU: "COIL", Quantity: 1.0}},
		Customer:   map[string]any{"name": "Pat Doe"},
	}
}

func TestService_Estimate(t *testing.T) {
	svc := testService(t, Options{})

	estimate, err := svc.Estimate(context.Background(), "tech", coilRequest())
	require.NoError(t, err)

	assert.Equal(t, "est_service", estimate.ID)
	require.Len(t, estimate.LineItems, 1)
	assert.InDelta(t, 225.0, estimate.Totals.DirectCostWithOverhead, 0.001)
	assert.InDelta(t, 375.0, estimate.Totals.SubtotalAfterDiscount, 0.001)
	assert.InDelta(t, 408.75, estimate.Totals.GrandTotal, 0.001)
	assert.Empty(t, estimate.Alerts)
}

func TestService_EstimateUnknownSKU(t *testing.T) {
	svc := testService(t, Options{})

	_, err := svc.Estimate(context.Background(), "tech", types.EstimateRequest{
		Selections: []types.Selection{{SKU: "NOPE"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOPE")
}

func TestService_EstimateAppendsBusinessPolicies(t *testing.T) {
	svc := testService(t, Options{
		Policies: []policy.Policy{policy.NewTotalBudgetPolicy("Budget", 300, 250)},
	})

	estimate, err := svc.Estimate(context.Background(), "tech", coilRequest())
	require.NoError(t, err)

	var budget *types.PolicyResult
	for i := range estimate.PolicyResults {
		if estimate.PolicyResults[i].PolicyName == "Budget" {
			budget = &estimate.PolicyResults[i]
		}
	}
	require.NotNil(t, budget)
	assert.Equal(t, types.PolicyFail, budget.Outcome)
	assert.True(t, policy.HasFailures(estimate.PolicyResults))
}

func TestService_AuditTrail(t *testing.T) {
	dir := t.TempDir()
	svc := testService(t, Options{AuditDir: dir, Source: "api"})

	_, err := svc.Estimate(context.Background(), "tech", coilRequest())
	require.NoError(t, err)
	_, err = svc.Plan(context.Background(), "tech", PlanRequest{Intake: types.ChangeoutIntake{}})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestService_Plan(t *testing.T) {
	svc := testService(t, Options{})

	plan, err := svc.Plan(context.Background(), "tech", PlanRequest{
		Intake: types.ChangeoutIntake{},
		Limit:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, types.LaneNeedsQuestions, plan.Lane)
	assert.Nil(t, plan.EstimatePreview)
	assert.NotEmpty(t, plan.FollowUpQuestions)
}

func TestService_Explain(t *testing.T) {
	svc := testService(t, Options{})

	estimate, explanation, err := svc.Explain(context.Background(), "tech", coilRequest())
	require.NoError(t, err)
	assert.Equal(t, estimate.ID, explanation.EstimateID)
	require.Len(t, explanation.Lines, 1)
	assert.Equal(t, "COIL", explanation.Lines[0].Code)
}

func TestService_Export(t *testing.T) {
	svc := testService(t, Options{Housecall: crm.Paths{CreateEstimate: "/custom/estimates"}})

	estimate, err := svc.Estimate(context.Background(), "tech", coilRequest())
	require.NoError(t, err)

	req, err := svc.Export(estimate, crm.ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, crm.ModeCreateEstimate, req.Mode)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/custom/estimates", req.Path)

	req, err = svc.Export(estimate, crm.ExportOptions{JobID: "job_1"})
	require.NoError(t, err)
	assert.Equal(t, "/v1/jobs/job_1/estimates", req.Path)
}

type failingStore struct{ store.ProfileStore }

func (failingStore) GetProfile(context.Context, string) (*types.Profile, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestService_StoreErrors(t *testing.T) {
	svc := New(Options{Store: failingStore{}})

	_, err := svc.Estimate(context.Background(), "tech", coilRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile loading failed")

	_, err = svc.Plan(context.Background(), "tech", PlanRequest{})
	assert.Error(t, err)

	assert.EqualError(t, svc.Health(context.Background()), "store ping failed: connection refused")
}

func TestWriteEstimate(t *testing.T) {
	svc := testService(t, Options{})
	estimate, err := svc.Estimate(context.Background(), "tech", coilRequest())
	require.NoError(t, err)

	for _, format := range []string{FormatJSON, FormatCLI, FormatHTML, FormatCI} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteEstimate(&buf, estimate, format, "Cool Air"))
			assert.NotEmpty(t, buf.String())
		})
	}

	var buf bytes.Buffer
	assert.EqualError(t, WriteEstimate(&buf, estimate, "xml", ""), "unsupported output format: xml")
}
