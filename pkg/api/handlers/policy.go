package handlers

import (
	"net/http"

	"github.com/hvacbridge/estimator/pkg/policy"
	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
)

// PolicyHandler evaluates an estimate against business policies
type PolicyHandler struct{}

func NewPolicyHandler() *PolicyHandler {
	return &PolicyHandler{}
}

// PolicyRequest carries the estimate and the policies to apply
type PolicyRequest struct {
	Estimate *types.Estimate `json:"estimate"`
	Policies []policy.Policy `json:"policies"`
}

// PolicyResponse represents the API response for policy evaluation
type PolicyResponse struct {
	Results       []types.PolicyResult `json:"results"`
	HasViolations bool                 `json:"has_violations"`
	HasWarnings   bool                 `json:"has_warnings"`
}

// Handle evaluates the margin guardrail results carried by the estimate
// followed by the requested policies
func (h *PolicyHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req PolicyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if req.Estimate == nil {
		WriteValidationError(w, "estimate is required", nil)
		return
	}
	if err := policy.Canonicalize(req.Policies); err != nil {
		WriteServiceError(w, err)
		return
	}

	engine := policy.New()
	engine.LoadPolicies(req.Policies)

	results := append([]types.PolicyResult{}, req.Estimate.PolicyResults...)
	results = append(results, engine.Evaluate(req.Estimate)...)

	response := PolicyResponse{Results: results, HasViolations: policy.HasFailures(results)}
	for _, result := range results {
		if result.Outcome == types.PolicyWarn {
			response.HasWarnings = true
		}
	}

	log.WithFields(log.Fields{
		"policies":   len(results),
		"violations": response.HasViolations,
		"warnings":   response.HasWarnings,
	}).Info("Policy evaluation completed")

	WriteJSON(w, http.StatusOK, response)
}
