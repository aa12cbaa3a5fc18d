package handlers

import (
	"net/http"

	"github.com/hvacbridge/estimator/pkg/engine"
)

// HealthHandler reports process and store health
type HealthHandler struct {
	service *engine.Service
	backend string
}

func NewHealthHandler(svc *engine.Service, backend string) *HealthHandler {
	return &HealthHandler{service: svc, backend: backend}
}

// Handle responds 503 when the profile store cannot be reached
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "unhealthy",
			"service": "hvac-estimator",
			"store":   h.backend,
			"error":   err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "hvac-estimator",
		"store":   h.backend,
	})
}
