package handlers

import (
	"net/http"

	"github.com/hvacbridge/estimator/pkg/engine"
	"github.com/hvacbridge/estimator/pkg/types"
)

// ExplainHandler handles explainability requests
type ExplainHandler struct {
	service     *engine.Service
	defaultUser string
}

func NewExplainHandler(svc *engine.Service, defaultUser string) *ExplainHandler {
	return &ExplainHandler{service: svc, defaultUser: defaultUser}
}

// Handle prices the request and returns the formula breakdown
func (h *ExplainHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req types.EstimateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	_, explanation, err := h.service.Explain(r.Context(), UserID(r, h.defaultUser), req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, explanation)
}
