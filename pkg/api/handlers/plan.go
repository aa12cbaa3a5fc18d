package handlers

import (
	"net/http"

	"github.com/hvacbridge/estimator/pkg/engine"
)

// PlanHandler handles changeout planning requests
type PlanHandler struct {
	service     *engine.Service
	defaultUser string
}

func NewPlanHandler(svc *engine.Service, defaultUser string) *PlanHandler {
	return &PlanHandler{service: svc, defaultUser: defaultUser}
}

func (h *PlanHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req engine.PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	plan, err := h.service.Plan(r.Context(), UserID(r, h.defaultUser), req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"plan": plan})
}
