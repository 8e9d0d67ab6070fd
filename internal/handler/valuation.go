package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"fairrent/internal/model"
	"fairrent/internal/service"
)

// ValuationHandler runs fair-rent estimates for a session
type ValuationHandler struct {
	sessions *service.SessionManager
	catalog  *service.LocationCatalog
}

// NewValuationHandler creates a new valuation handler
func NewValuationHandler(sessions *service.SessionManager, catalog *service.LocationCatalog) *ValuationHandler {
	return &ValuationHandler{sessions: sessions, catalog: catalog}
}

// Submit handles POST /api/v1/sessions/:id/valuation. An optional
// asking_rent is checked against the new estimate. A failed request answers
// 502 together with the unchanged view.
func (h *ValuationHandler) Submit(c *gin.Context) {
	s, ok := sessionFrom(c, h.sessions)
	if !ok {
		return
	}

	var in model.PropertyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	q, err := h.catalog.ResolveInput(in, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	asking, err := in.Asking()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The request completes even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	if _, err := s.Valuation.RequestEstimate(ctx, q); err != nil {
		c.JSON(statusFor(err), gin.H{
			"error": "Valuation failed: " + err.Error(),
			"view":  s.Valuation.View(),
		})
		return
	}

	c.JSON(http.StatusOK, s.Valuation.ViewWithAsking(asking))
}

// View handles GET /api/v1/sessions/:id/valuation. An optional asking_rent
// query parameter is checked against the current estimate.
func (h *ValuationHandler) View(c *gin.Context) {
	s, ok := sessionFrom(c, h.sessions)
	if !ok {
		return
	}
	asking, valid := model.ParseAskingRent(c.Query("asking_rent"))
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrInvalidAskingRent.Error()})
		return
	}
	c.JSON(http.StatusOK, s.Valuation.ViewWithAsking(asking))
}
