package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
)

// AuditTrail writes one JSON record per computed estimate or plan
type AuditTrail struct {
	auditDir string
	now      func() time.Time
}

func New(auditDir string) *AuditTrail {
	return &AuditTrail{
		auditDir: auditDir,
		now:      time.Now,
	}
}

// Dir returns the directory records are written to
func (at *AuditTrail) Dir() string {
	return at.auditDir
}

// LogEstimate creates an audit record for an estimate
func (at *AuditTrail) LogEstimate(estimate *types.Estimate, metadata AuditMetadata) (string, error) {
	record := EstimateRecord{
		Timestamp:     at.now().UTC(),
		EstimateID:    estimate.ID,
		Currency:      estimate.Currency,
		LineCount:     len(estimate.LineItems),
		Totals:        estimate.Totals,
		Assumptions:   estimate.Assumptions,
		Guardrails:    estimate.Guardrails,
		Alerts:        estimate.Alerts,
		LineTypeCount: at.countLineTypes(estimate.LineItems),
		Metadata:      metadata,
	}

	filename := fmt.Sprintf("estimate_%s_%s.json",
		record.EstimateID,
		record.Timestamp.Format("20060102_150405"),
	)
	return at.writeAuditRecord(filename, record)
}

// LogPlan creates an audit record for a changeout plan
func (at *AuditTrail) LogPlan(plan *types.ChangeoutPlan, metadata AuditMetadata) (string, error) {
	record := PlanRecord{
		Timestamp:       at.now().UTC(),
		Lane:            plan.Lane,
		ConfidenceScore: plan.ConfidenceScore,
		MissingFields:   plan.MissingFields,
		RiskFlags:       plan.RiskFlags,
		OptionCount:     len(plan.RecommendedOptions),
		Adders:          plan.ComplexityAddersResolution,
		Metadata:        metadata,
	}
	if plan.EstimatePreview != nil {
		record.PreviewEstimateID = plan.EstimatePreview.ID
		record.PreviewGrandTotal = plan.EstimatePreview.Totals.GrandTotal
	}

	filename := fmt.Sprintf("plan_%s_%s.json",
		record.Lane,
		record.Timestamp.Format("20060102_150405.000000"),
	)
	return at.writeAuditRecord(filename, record)
}

func (at *AuditTrail) writeAuditRecord(filename string, record any) (string, error) {
	if err := os.MkdirAll(at.auditDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create audit directory: %w", err)
	}

	path := filepath.Join(at.auditDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create audit file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return "", fmt.Errorf("failed to write audit record: %w", err)
	}

	log.WithField("file", path).Info("Audit record written")
	return path, nil
}

func (at *AuditTrail) countLineTypes(lines []types.LineItem) map[types.ItemType]int {
	counts := make(map[types.ItemType]int)
	for _, line := range lines {
		counts[line.ItemType]++
	}
	return counts
}

// VerifyDeterminism checks that two estimates of the same request agree on
// every priced figure. Ids and timestamps are ignored.
func (at *AuditTrail) VerifyDeterminism(estimate1, estimate2 *types.Estimate) bool {
	if estimate1.Totals != estimate2.Totals || len(estimate1.LineItems) != len(estimate2.LineItems) {
		return false
	}
	for i := range estimate1.LineItems {
		a, b := estimate1.LineItems[i], estimate2.LineItems[i]
		if a.Code != b.Code || a.Quantity != b.Quantity || a.Costs != b.Costs {
			return false
		}
	}
	return true
}

// Data structures

type EstimateRecord struct {
	Timestamp     time.Time              `json:"timestamp"`
	EstimateID    string                 `json:"estimate_id"`
	Currency      string                 `json:"currency"`
	LineCount     int                    `json:"line_count"`
	LineTypeCount map[types.ItemType]int `json:"line_type_count"`
	Totals        types.Totals           `json:"totals"`
	Assumptions   types.Assumptions      `json:"assumptions"`
	Guardrails    types.Guardrails       `json:"guardrails"`
	Alerts        []string               `json:"alerts"`
	Metadata      AuditMetadata          `json:"metadata"`
}

type PlanRecord struct {
	Timestamp         time.Time               `json:"timestamp"`
	Lane              types.Lane              `json:"lane"`
	ConfidenceScore   float64                 `json:"confidence_score"`
	MissingFields     []string                `json:"missing_fields"`
	RiskFlags         []types.RiskFlag        `json:"risk_flags"`
	OptionCount       int                     `json:"option_count"`
	Adders            []types.AdderResolution `json:"adders"`
	PreviewEstimateID string                  `json:"preview_estimate_id,omitempty"`
	PreviewGrandTotal float64                 `json:"preview_grand_total,omitempty"`
	Metadata          AuditMetadata           `json:"metadata"`
}

type AuditMetadata struct {
	User           string            `json:"user,omitempty"`
	Source         string            `json:"source"` // "cli", "api"
	RequestID      string            `json:"request_id,omitempty"`
	AdditionalTags map[string]string `json:"additional_tags,omitempty"`
}
