// Package crm maps finished estimates onto Housecall Pro request shapes.
// It only builds requests; sending them is left to the caller.
package crm

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/pricing"
	"github.com/hvacbridge/estimator/pkg/types"
)

// Source tags every payload this package builds
const Source = "hvac-estimator"

// Mode selects which Housecall endpoint an export targets
type Mode string

const (
	ModeCreateEstimate Mode = "create_estimate"
	ModeAddToJob       Mode = "add_to_job"
	ModeUpdateEstimate Mode = "update_estimate"
	ModeAddOptionNote  Mode = "add_option_note"
)

// Paths are the endpoint templates per mode. Placeholders use {key}.
type Paths struct {
	CreateEstimate string `json:"create_estimate_path,omitempty"`
	AddToJob       string `json:"add_to_job_path,omitempty"`
	UpdateEstimate string `json:"update_estimate_path,omitempty"`
	AddOptionNote  string `json:"add_option_note_path,omitempty"`
}

// DefaultPaths returns the public Housecall v1 endpoints
func DefaultPaths() Paths {
	return Paths{
		CreateEstimate: "/v1/estimates",
		AddToJob:       "/v1/jobs/{job_id}/estimates",
		UpdateEstimate: "/v1/estimates/{estimate_id}",
		AddOptionNote:  "/v1/estimates/{estimate_id}/options/{estimate_option_id}/notes",
	}
}

// Merge fills blank templates from fallback
func (p Paths) Merge(fallback Paths) Paths {
	pick := func(value, def string) string {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
		return def
	}
	return Paths{
		CreateEstimate: pick(p.CreateEstimate, fallback.CreateEstimate),
		AddToJob:       pick(p.AddToJob, fallback.AddToJob),
		UpdateEstimate: pick(p.UpdateEstimate, fallback.UpdateEstimate),
		AddOptionNote:  pick(p.AddOptionNote, fallback.AddOptionNote),
	}
}

// ExportOptions steer one export. Empty ids fall back to the housecall_*
// keys of the estimate project.
type ExportOptions struct {
	Mode             string         `json:"mode,omitempty"`
	CustomerID       string         `json:"customer_id,omitempty"`
	JobID            string         `json:"job_id,omitempty"`
	EstimateID       string         `json:"estimate_id,omitempty"`
	EstimateOptionID string         `json:"estimate_option_id,omitempty"`
	AppointmentID    string         `json:"appointment_id,omitempty"`
	OptionName       string         `json:"option_name,omitempty"`
	Note             string         `json:"note,omitempty"`
	Method           string         `json:"method,omitempty"`
	Endpoint         string         `json:"endpoint,omitempty"`
	PayloadOverride  map[string]any `json:"payload_override,omitempty"`
	Paths
}

// Context holds the Housecall record ids an export refers to
type Context struct {
	JobID            string `json:"jobId"`
	EstimateID       string `json:"estimateId"`
	EstimateOptionID string `json:"estimateOptionId"`
	AppointmentID    string `json:"appointmentId"`
}

// LineMetadata keeps the internal costing next to the CRM line
type LineMetadata struct {
	SourceItemType   string  `json:"source_item_type,omitempty"`
	SourceCostTotal  float64 `json:"source_cost_total"`
	SourceLaborHours float64 `json:"source_labor_hours"`
}

// LineItem is one Housecall estimate option line
type LineItem struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Quantity    float64      `json:"quantity"`
	UnitPrice   float64      `json:"unit_price"`
	Taxable     bool         `json:"taxable"`
	Metadata    LineMetadata `json:"metadata"`
}

// Customer is a customer draft for estimates without a Housecall customer id
type Customer struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Company     string `json:"company,omitempty"`
	Address     any    `json:"address,omitempty"`
}

func (c Customer) empty() bool {
	return c.FirstName == "" && c.LastName == "" && c.Email == "" &&
		c.PhoneNumber == "" && c.Company == "" && c.Address == nil
}

type Option struct {
	Name      string     `json:"name"`
	Message   string     `json:"message,omitempty"`
	LineItems []LineItem `json:"line_items"`
}

type Discount struct {
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

type Metadata struct {
	Source         string  `json:"source"`
	EstimateID     string  `json:"estimate_id,omitempty"`
	Currency       string  `json:"currency,omitempty"`
	GrandTotal     float64 `json:"grand_total"`
	AchievedMargin float64 `json:"achieved_margin"`
}

// Payload is the estimate body sent to the create, add and update endpoints
type Payload struct {
	CustomerID string    `json:"customer_id,omitempty"`
	Customer   *Customer `json:"customer,omitempty"`
	JobID      string    `json:"job_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Note       string    `json:"note,omitempty"`
	Message    string    `json:"message,omitempty"`
	TaxRate    float64   `json:"tax_rate"`
	Options    []Option  `json:"options"`
	Discount   *Discount `json:"discount,omitempty"`
	Metadata   Metadata  `json:"metadata"`
}

// OptionNote is the body of the add_option_note endpoint
type OptionNote struct {
	Note     string   `json:"note,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// ExportRequest is a fully resolved Housecall call
type ExportRequest struct {
	Mode         Mode    `json:"mode"`
	Context      Context `json:"context"`
	Method       string  `json:"method"`
	Path         string  `json:"path"`
	PathTemplate string  `json:"path_template"`
	Payload      any     `json:"payload"`
}

// BuildPayload maps an estimate onto a Housecall estimate body
func BuildPayload(estimate *types.Estimate, opts ExportOptions) (*Payload, error) {
	if estimate == nil {
		return nil, errors.New("estimate is required")
	}
	if len(estimate.LineItems) == 0 {
		return nil, errors.New("estimate.line_items must contain at least one item")
	}

	lines := make([]LineItem, len(estimate.LineItems))
	for i, line := range estimate.LineItems {
		lines[i] = toLineItem(line, i)
	}

	summary := normalize.Text(estimate.Project["summary"])
	optionName := firstNonEmpty(opts.OptionName, summary, "HVAC Estimate")
	message := firstNonEmpty(summary, "HVAC estimate from pricing agent")
	currency := firstNonEmpty(estimate.Currency, "USD")

	payload := &Payload{
		JobID:   firstNonEmpty(opts.JobID, projectKey(estimate, "housecall_job_id", "housecallJobId")),
		Name:    optionName,
		Note:    firstNonEmpty(opts.Note, normalize.Text(estimate.Project["notes"])),
		Message: message,
		TaxRate: estimate.Totals.TaxRate,
		Options: []Option{{Name: optionName, Message: message, LineItems: lines}},
		Metadata: Metadata{
			Source:         Source,
			EstimateID:     estimate.ID,
			Currency:       currency,
			GrandTotal:     pricing.RoundMoney(estimate.Totals.GrandTotal),
			AchievedMargin: estimate.Totals.AchievedGrossMargin,
		},
	}

	customerID, customer := extractCustomer(estimate.Customer)
	switch {
	case strings.TrimSpace(opts.CustomerID) != "":
		payload.CustomerID = strings.TrimSpace(opts.CustomerID)
	case customerID != "":
		payload.CustomerID = customerID
	case !customer.empty():
		payload.Customer = &customer
	}

	if discount := pricing.RoundMoney(estimate.Totals.DiscountTotal); discount > 0 {
		payload.Discount = &Discount{Amount: discount, Type: "fixed"}
	}

	return payload, nil
}

// Exporter resolves export requests against a set of endpoint templates
type Exporter struct {
	Paths Paths
}

func NewExporter(paths Paths) *Exporter {
	return &Exporter{Paths: paths.Merge(DefaultPaths())}
}

// BuildExportRequest resolves an export with the default endpoints
func BuildExportRequest(estimate *types.Estimate, opts ExportOptions) (*ExportRequest, error) {
	return NewExporter(Paths{}).Request(estimate, opts)
}

// Request picks the export mode, validates the ids it needs and resolves
// the endpoint path
func (e *Exporter) Request(estimate *types.Estimate, opts ExportOptions) (*ExportRequest, error) {
	if estimate == nil {
		return nil, errors.New("estimate is required")
	}

	ctx := Context{
		JobID:            firstNonEmpty(opts.JobID, projectKey(estimate, "housecall_job_id", "housecallJobId")),
		EstimateID:       firstNonEmpty(opts.EstimateID, projectKey(estimate, "housecall_estimate_id", "housecallEstimateId")),
		EstimateOptionID: firstNonEmpty(opts.EstimateOptionID, projectKey(estimate, "housecall_estimate_option_id", "housecallEstimateOptionId")),
		AppointmentID:    firstNonEmpty(opts.AppointmentID, projectKey(estimate, "housecall_appointment_id", "housecallAppointmentId")),
	}
	mode := InferMode(opts.Mode, ctx)
	paths := opts.Paths.Merge(e.Paths)

	var payload any
	if opts.PayloadOverride != nil {
		payload = opts.PayloadOverride
	}

	template, method := paths.CreateEstimate, "POST"
	switch mode {
	case ModeAddToJob:
		if ctx.JobID == "" {
			return nil, errors.New("job_id is required for Housecall mode=add_to_job")
		}
		template = paths.AddToJob
	case ModeUpdateEstimate:
		if ctx.EstimateID == "" {
			return nil, errors.New("estimate_id is required for Housecall mode=update_estimate")
		}
		template, method = paths.UpdateEstimate, "PATCH"
	case ModeAddOptionNote:
		if ctx.EstimateID == "" || ctx.EstimateOptionID == "" {
			return nil, errors.New("estimate_id and estimate_option_id are required for Housecall mode=add_option_note")
		}
		template = paths.AddOptionNote
		if payload == nil {
			payload = OptionNote{
				Note:     firstNonEmpty(opts.Note, normalize.Text(estimate.Project["notes"])),
				Metadata: Metadata{Source: Source, EstimateID: estimate.ID},
			}
		}
	}

	if payload == nil {
		built, err := BuildPayload(estimate, opts)
		if err != nil {
			return nil, err
		}
		payload = built
	}

	path := strings.TrimSpace(opts.Endpoint)
	if path != "" {
		template = path
	} else {
		resolved, err := ResolvePath(template, map[string]string{
			"job_id":             ctx.JobID,
			"estimate_id":        ctx.EstimateID,
			"estimate_option_id": ctx.EstimateOptionID,
			"appointment_id":     ctx.AppointmentID,
		})
		if err != nil {
			return nil, err
		}
		path = resolved
	}

	if override := strings.TrimSpace(opts.Method); override != "" {
		method = override
	}

	return &ExportRequest{
		Mode:         mode,
		Context:      ctx,
		Method:       strings.ToUpper(method),
		Path:         path,
		PathTemplate: strings.TrimSpace(template),
		Payload:      payload,
	}, nil
}

// InferMode honors an explicit known mode, otherwise picks the most
// specific mode the context ids allow
func InferMode(explicit string, ctx Context) Mode {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(explicit))); mode {
	case ModeCreateEstimate, ModeAddToJob, ModeUpdateEstimate, ModeAddOptionNote:
		return mode
	}
	switch {
	case ctx.EstimateOptionID != "" && ctx.EstimateID != "":
		return ModeAddOptionNote
	case ctx.EstimateID != "":
		return ModeUpdateEstimate
	case ctx.JobID != "":
		return ModeAddToJob
	}
	return ModeCreateEstimate
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// ResolvePath substitutes {key} placeholders with path-escaped values
func ResolvePath(template string, values map[string]string) (string, error) {
	template = strings.TrimSpace(template)
	if template == "" {
		return "", errors.New("housecall endpoint template is required")
	}

	var missing string
	resolved := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		value := strings.TrimSpace(values[key])
		if value == "" {
			if missing == "" {
				missing = key
			}
			return match
		}
		return url.PathEscape(value)
	})
	if missing != "" {
		return "", fmt.Errorf("missing required value for endpoint template key: %s", missing)
	}
	return resolved, nil
}

func toLineItem(line types.LineItem, index int) LineItem {
	quantity := line.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	return LineItem{
		Name:        firstNonEmpty(line.Name, fmt.Sprintf("Line item %d", index+1)),
		Description: describe(line),
		Quantity:    quantity,
		UnitPrice:   pricing.RoundMoney(line.Costs.TargetSellPrice / quantity),
		Taxable:     line.Taxable,
		Metadata: LineMetadata{
			SourceItemType:   string(line.ItemType),
			SourceCostTotal:  pricing.RoundMoney(line.Costs.TotalCost),
			SourceLaborHours: line.LaborHours,
		},
	}
}

func describe(line types.LineItem) string {
	var parts []string
	if line.Code != "" {
		parts = append(parts, "Code: "+line.Code)
	}
	if line.Notes != "" {
		parts = append(parts, line.Notes)
	}
	if len(line.Features) > 0 {
		parts = append(parts, "Features: "+strings.Join(line.Features, ", "))
	}
	return strings.Join(parts, "\n")
}

// extractCustomer returns a known Housecall customer id, or a draft built
// from the estimate customer blob
func extractCustomer(blob map[string]any) (string, Customer) {
	text := func(keys ...string) string {
		for _, key := range keys {
			if value := normalize.Text(blob[key]); value != "" {
				return value
			}
		}
		return ""
	}

	first := text("first_name", "firstName")
	last := text("last_name", "lastName")
	if name := text("name"); name != "" && (first == "" || last == "") {
		parts := strings.Fields(name)
		if first == "" {
			first = parts[0]
		}
		if last == "" && len(parts) > 1 {
			last = strings.Join(parts[1:], " ")
		}
	}

	customer := Customer{
		FirstName:   first,
		LastName:    last,
		Email:       text("email"),
		PhoneNumber: text("phone", "phone_number"),
		Company:     text("company"),
	}
	switch address := blob["address"].(type) {
	case string:
		if trimmed := strings.TrimSpace(address); trimmed != "" {
			customer.Address = trimmed
		}
	case map[string]any:
		if len(address) > 0 {
			customer.Address = address
		}
	}

	return text("housecall_customer_id", "housecallCustomerId", "customer_id", "customerId"), customer
}

func projectKey(estimate *types.Estimate, keys ...string) string {
	for _, key := range keys {
		if value := normalize.Text(estimate.Project[key]); value != "" {
			return value
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
