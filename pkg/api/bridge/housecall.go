// Package bridge serves the CRM bridge endpoints. It is a gin engine that
// the main chi router mounts under /bridge behind the bridge token.
package bridge

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hvacbridge/estimator/pkg/crm"
	"github.com/hvacbridge/estimator/pkg/engine"
	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
)

// PreviewRequest is the body of POST /bridge/housecall/preview
type PreviewRequest struct {
	Estimate *types.Estimate   `json:"estimate"`
	Options  crm.ExportOptions `json:"options"`
}

type Router struct {
	service *engine.Service
	engine  *gin.Engine
}

func New(svc *engine.Service) *Router {
	gin.SetMode(gin.ReleaseMode)
	r := &Router{service: svc, engine: gin.New()}
	r.engine.Use(gin.Recovery())

	r.engine.POST("/bridge/housecall/preview", r.preview)
	return r
}

// Handler returns the gin engine as a plain http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("BAD_REQUEST", "invalid JSON body: "+err.Error(), http.StatusBadRequest, nil))
		return
	}

	out, err := r.service.Export(req.Estimate, req.Options)
	if err != nil {
		if verr, ok := normalize.AsValidation(err); ok {
			c.JSON(http.StatusBadRequest, errorBody("VALIDATION_ERROR", verr.Message, http.StatusBadRequest, verr.Details))
			return
		}
		log.WithError(err).Warn("Housecall preview rejected")
		c.JSON(http.StatusBadRequest, errorBody("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, nil))
		return
	}

	c.JSON(http.StatusOK, out)
}

func errorBody(code, message string, status int, details map[string]any) gin.H {
	body := gin.H{"code": code, "message": message, "status": status}
	if len(details) > 0 {
		body["details"] = details
	}
	return gin.H{"error": body}
}
