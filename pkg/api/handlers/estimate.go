package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hvacbridge/estimator/pkg/engine"
	"github.com/hvacbridge/estimator/pkg/render"
	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
)

// EstimateHandler handles estimate requests
type EstimateHandler struct {
	service     *engine.Service
	defaultUser string
}

func NewEstimateHandler(svc *engine.Service, defaultUser string) *EstimateHandler {
	return &EstimateHandler{service: svc, defaultUser: defaultUser}
}

// EstimateRequest is an engine request plus presentation options
type EstimateRequest struct {
	types.EstimateRequest
	Output string `json:"output,omitempty"`
}

// EstimateResponse represents the API response for estimates
type EstimateResponse struct {
	Estimate      *types.Estimate `json:"estimate"`
	PrintableHTML string          `json:"printable_html,omitempty"`
}

// Handle prices the request against the caller's profile
func (h *EstimateHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	output := strings.ToLower(strings.TrimSpace(req.Output))
	if output != "" && output != "json" && output != "html" {
		WriteValidationError(w, "Invalid output", map[string]any{
			"provided": req.Output,
			"allowed":  []string{"json", "html"},
		})
		return
	}

	user := UserID(r, h.defaultUser)
	estimate, err := h.service.Estimate(r.Context(), user, req.EstimateRequest)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	response := EstimateResponse{Estimate: estimate}
	if output == "html" {
		profile, err := h.service.Store().GetProfile(r.Context(), user)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		html, err := render.RenderEstimateHTML(estimate, profile.Config.BusinessName)
		if err != nil {
			WriteInternalError(w, fmt.Sprintf("Failed to render estimate: %v", err))
			return
		}
		response.PrintableHTML = html
	}

	log.WithFields(log.Fields{
		"estimate_id": estimate.ID,
		"grand_total": estimate.Totals.GrandTotal,
		"lines":       len(estimate.LineItems),
		"output":      output,
	}).Info("Estimate served")

	WriteJSON(w, http.StatusOK, response)
}
