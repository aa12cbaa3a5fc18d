package handlers

import (
	"net/http"

	"github.com/hvacbridge/estimator/pkg/diff"
	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
)

// DiffHandler compares two previously computed estimates
type DiffHandler struct {
	differ *diff.Differ
}

func NewDiffHandler() *DiffHandler {
	return &DiffHandler{differ: diff.New()}
}

// DiffRequest carries the two estimates to compare
type DiffRequest struct {
	Before *types.Estimate `json:"before"`
	After  *types.Estimate `json:"after"`
}

// DiffResponse represents the API response for diffs
type DiffResponse struct {
	Diff       *diff.DetailedDiff `json:"diff"`
	HasChanges bool               `json:"has_changes"`
}

func (h *DiffHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req DiffRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if req.Before == nil || req.After == nil {
		WriteValidationError(w, "both before and after estimates are required", nil)
		return
	}

	d := h.differ.Diff(req.Before, req.After)

	log.WithFields(log.Fields{
		"before":      d.BeforeID,
		"after":       d.AfterID,
		"total_delta": d.TotalDelta,
		"added":       len(d.AddedLines),
		"removed":     len(d.RemovedLines),
		"modified":    len(d.ModifiedLines),
	}).Info("Diff completed")

	WriteJSON(w, http.StatusOK, DiffResponse{Diff: d, HasChanges: d.HasChanges()})
}
