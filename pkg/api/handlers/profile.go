package handlers

import (
	"net/http"

	"github.com/hvacbridge/estimator/pkg/engine"
	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
)

// ProfileHandler serves the per-user config and catalog
type ProfileHandler struct {
	service     *engine.Service
	defaultUser string
}

func NewProfileHandler(svc *engine.Service, defaultUser string) *ProfileHandler {
	return &ProfileHandler{service: svc, defaultUser: defaultUser}
}

// ProfileResponse is the body of GET /estimator/profile
type ProfileResponse struct {
	Config       types.EstimatorConfig `json:"config"`
	CatalogCount int                   `json:"catalog_count"`
	Catalog      types.Catalog         `json:"catalog"`
}

// ConfigRequest is the body of PUT /estimator/config
type ConfigRequest struct {
	Config map[string]any `json:"config"`
}

// CatalogRequest is the body of PUT /estimator/catalog
type CatalogRequest struct {
	Items []map[string]any `json:"items"`
}

// Get returns the stored profile or defaults
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Store().GetProfile(r.Context(), UserID(r, h.defaultUser))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ProfileResponse{
		Config:       profile.Config,
		CatalogCount: len(profile.Catalog),
		Catalog:      profile.Catalog,
	})
}

// PutConfig merges a config patch
func (h *ProfileHandler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if req.Config == nil {
		WriteValidationError(w, "config must be an object", nil)
		return
	}

	user := UserID(r, h.defaultUser)
	cfg, err := h.service.Store().SaveConfig(r.Context(), user, req.Config)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{"user": user, "keys": len(req.Config)}).Info("Config updated")
	WriteJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

// PutCatalog replaces the whole catalog
func (h *ProfileHandler) PutCatalog(w http.ResponseWriter, r *http.Request) {
	var req CatalogRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if req.Items == nil {
		WriteValidationError(w, "items must be an array", nil)
		return
	}

	user := UserID(r, h.defaultUser)
	catalog, err := h.service.Store().ReplaceCatalog(r.Context(), user, req.Items)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{"user": user, "items": len(catalog)}).Info("Catalog replaced")
	WriteJSON(w, http.StatusOK, map[string]any{
		"catalog_count": len(catalog),
		"catalog":       catalog,
	})
}
