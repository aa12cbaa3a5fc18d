package crm

import (
	"encoding/json"
	"testing"

	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportEstimate() *types.Estimate {
	return &types.Estimate{
		ID:       "est_abc",
		Currency: "USD",
		Customer: map[string]any{"name": "Jane Q Public", "email": "jane@example.com", "phone": "555-0101"},
		Project:  map[string]any{"summary": "4 Ton AC Pro Heat Pump", "notes": "Side yard access"},
		LineItems: []types.LineItem{
			{
				Code:       "ACPRO-HP-4T-18",
				Name:       "AC Pro 4 Ton Heat Pump",
				ItemType:   types.ItemEquipment,
				Quantity:   1,
				Taxable:    true,
				LaborHours: 8,
				Features:   []string{"18 SEER2", "Variable speed"},
				Costs:      types.LineCosts{TotalCost: 5210.456, TargetSellPrice: 10420.91},
			},
			{
				Code:     "manual-2",
				ItemType: types.ItemService,
				Quantity: 3,
				Notes:    "Haul away",
				Costs:    types.LineCosts{TotalCost: 150, TargetSellPrice: 300},
			},
		},
		Totals: types.Totals{TaxRate: 0.07, DiscountTotal: 250.004, GrandTotal: 11120.55, AchievedGrossMargin: 0.4871},
	}
}

func TestBuildPayload(t *testing.T) {
	payload, err := BuildPayload(exportEstimate(), ExportOptions{})
	require.NoError(t, err)

	assert.Empty(t, payload.CustomerID)
	require.NotNil(t, payload.Customer)
	assert.Equal(t, "Jane", payload.Customer.FirstName)
	assert.Equal(t, "Q Public", payload.Customer.LastName)
	assert.Equal(t, "555-0101", payload.Customer.PhoneNumber)

	assert.Equal(t, "4 Ton AC Pro Heat Pump", payload.Name)
	assert.Equal(t, "4 Ton AC Pro Heat Pump", payload.Message)
	assert.Equal(t, "Side yard access", payload.Note)
	assert.Equal(t, 0.07, payload.TaxRate)
	require.NotNil(t, payload.Discount)
	assert.Equal(t, Discount{Amount: 250, Type: "fixed"}, *payload.Discount)
	assert.Equal(t, Metadata{Source: Source, EstimateID: "est_abc", Currency: "USD", GrandTotal: 11120.55, AchievedMargin: 0.4871}, payload.Metadata)

	require.Len(t, payload.Options, 1)
	lines := payload.Options[0].LineItems
	require.Len(t, lines, 2)
	assert.Equal(t, "AC Pro 4 Ton Heat Pump", lines[0].Name)
	assert.Equal(t, "Code: ACPRO-HP-4T-18\nFeatures: 18 SEER2, Variable speed", lines[0].Description)
	assert.Equal(t, 10420.91, lines[0].UnitPrice)
	assert.Equal(t, LineMetadata{SourceItemType: "equipment", SourceCostTotal: 5210.46, SourceLaborHours: 8}, lines[0].Metadata)

	assert.Equal(t, "Line item 2", lines[1].Name)
	assert.Equal(t, "Code: manual-2\nHaul away", lines[1].Description)
	assert.Equal(t, 100.0, lines[1].UnitPrice)
	assert.False(t, lines[1].Taxable)
}

func TestBuildPayloadCustomerID(t *testing.T) {
	estimate := exportEstimate()
	estimate.Customer["housecall_customer_id"] = "cus_1"

	payload, err := BuildPayload(estimate, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "cus_1", payload.CustomerID)
	assert.Nil(t, payload.Customer)

	payload, err = BuildPayload(estimate, ExportOptions{CustomerID: " cus_2 ", OptionName: "Good"})
	require.NoError(t, err)
	assert.Equal(t, "cus_2", payload.CustomerID)
	assert.Equal(t, "Good", payload.Name)
}

func TestBuildPayloadCompactsEmptyValues(t *testing.T) {
	estimate := exportEstimate()
	estimate.Customer = map[string]any{}
	estimate.Project = map[string]any{}
	estimate.Totals.DiscountTotal = 0

	payload, err := BuildPayload(estimate, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "HVAC Estimate", payload.Name)
	assert.Equal(t, "HVAC estimate from pricing agent", payload.Message)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"customer", "customer_id", "job_id", "note", "discount"} {
		assert.NotContains(t, decoded, key)
	}
	assert.Contains(t, decoded, "tax_rate")
}

func TestBuildPayloadRequiresLines(t *testing.T) {
	_, err := BuildPayload(&types.Estimate{}, ExportOptions{})
	assert.EqualError(t, err, "estimate.line_items must contain at least one item")

	_, err = BuildPayload(nil, ExportOptions{})
	assert.EqualError(t, err, "estimate is required")
}

func TestInferMode(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		ctx      Context
		want     Mode
	}{
		{"nothing known", "", Context{}, ModeCreateEstimate},
		{"job", "", Context{JobID: "job_1"}, ModeAddToJob},
		{"estimate", "", Context{JobID: "job_1", EstimateID: "e_1"}, ModeUpdateEstimate},
		{"option", "", Context{EstimateID: "e_1", EstimateOptionID: "o_1"}, ModeAddOptionNote},
		{"option without estimate", "", Context{EstimateOptionID: "o_1"}, ModeCreateEstimate},
		{"explicit wins", " Create_Estimate ", Context{EstimateID: "e_1"}, ModeCreateEstimate},
		{"unknown explicit ignored", "delete", Context{JobID: "job_1"}, ModeAddToJob},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferMode(tt.explicit, tt.ctx))
		})
	}
}

func TestBuildExportRequestModes(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		req, err := BuildExportRequest(exportEstimate(), ExportOptions{})
		require.NoError(t, err)
		assert.Equal(t, ModeCreateEstimate, req.Mode)
		assert.Equal(t, "POST", req.Method)
		assert.Equal(t, "/v1/estimates", req.Path)
		assert.IsType(t, &Payload{}, req.Payload)
	})

	t.Run("add to job from project context", func(t *testing.T) {
		estimate := exportEstimate()
		estimate.Project["housecall_job_id"] = "job 7"
		req, err := BuildExportRequest(estimate, ExportOptions{})
		require.NoError(t, err)
		assert.Equal(t, ModeAddToJob, req.Mode)
		assert.Equal(t, "/v1/jobs/job%207/estimates", req.Path)
		assert.Equal(t, "/v1/jobs/{job_id}/estimates", req.PathTemplate)
		assert.Equal(t, "job 7", req.Payload.(*Payload).JobID)
	})

	t.Run("update", func(t *testing.T) {
		req, err := BuildExportRequest(exportEstimate(), ExportOptions{EstimateID: "e_9"})
		require.NoError(t, err)
		assert.Equal(t, ModeUpdateEstimate, req.Mode)
		assert.Equal(t, "PATCH", req.Method)
		assert.Equal(t, "/v1/estimates/e_9", req.Path)
	})

	t.Run("option note", func(t *testing.T) {
		req, err := BuildExportRequest(exportEstimate(), ExportOptions{EstimateID: "e_9", EstimateOptionID: "o_2", Note: "Customer prefers mornings"})
		require.NoError(t, err)
		assert.Equal(t, ModeAddOptionNote, req.Mode)
		assert.Equal(t, "/v1/estimates/e_9/options/o_2/notes", req.Path)
		assert.Equal(t, OptionNote{Note: "Customer prefers mornings", Metadata: Metadata{Source: Source, EstimateID: "est_abc"}}, req.Payload)
	})

	t.Run("overrides", func(t *testing.T) {
		override := map[string]any{"custom": true}
		req, err := BuildExportRequest(exportEstimate(), ExportOptions{
			Mode:            "add_to_job",
			JobID:           "job_1",
			Method:          "put",
			Endpoint:        "/v2/custom",
			PayloadOverride: override,
		})
		require.NoError(t, err)
		assert.Equal(t, "PUT", req.Method)
		assert.Equal(t, "/v2/custom", req.Path)
		assert.Equal(t, "/v2/custom", req.PathTemplate)
		assert.Equal(t, override, req.Payload)
	})
}

func TestBuildExportRequestMissingIDs(t *testing.T) {
	tests := []struct {
		mode string
		opts ExportOptions
		want string
	}{
		{"add_to_job", ExportOptions{}, "job_id is required for Housecall mode=add_to_job"},
		{"update_estimate", ExportOptions{}, "estimate_id is required for Housecall mode=update_estimate"},
		{"add_option_note", ExportOptions{EstimateID: "e_1"}, "estimate_id and estimate_option_id are required for Housecall mode=add_option_note"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			opts := tt.opts
			opts.Mode = tt.mode
			_, err := BuildExportRequest(exportEstimate(), opts)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestExporterCustomPaths(t *testing.T) {
	exporter := NewExporter(Paths{AddToJob: "/api/jobs/{job_id}/quotes/{appointment_id}"})
	assert.Equal(t, "/v1/estimates", exporter.Paths.CreateEstimate)

	_, err := exporter.Request(exportEstimate(), ExportOptions{JobID: "job_1"})
	assert.EqualError(t, err, "missing required value for endpoint template key: appointment_id")

	req, err := exporter.Request(exportEstimate(), ExportOptions{JobID: "job_1", AppointmentID: "a/1"})
	require.NoError(t, err)
	assert.Equal(t, "/api/jobs/job_1/quotes/a%2F1", req.Path)
}

func TestResolvePath(t *testing.T) {
	path, err := ResolvePath(" /v1/estimates/{estimate_id} ", map[string]string{"estimate_id": " e 1 "})
	require.NoError(t, err)
	assert.Equal(t, "/v1/estimates/e%201", path)

	_, err = ResolvePath("  ", nil)
	assert.EqualError(t, err, "housecall endpoint template is required")
}
