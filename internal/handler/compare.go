package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fairrent/internal/metrics"
	"fairrent/internal/model"
	"fairrent/internal/service"
)

// CompareHandler compares two properties with the local heuristic
type CompareHandler struct {
	catalog *service.LocationCatalog
}

// NewCompareHandler creates a new compare handler
func NewCompareHandler(catalog *service.LocationCatalog) *CompareHandler {
	return &CompareHandler{catalog: catalog}
}

// Compare handles POST /api/v1/compare
func (h *CompareHandler) Compare(c *gin.Context) {
	var req model.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	a, err := h.catalog.ResolveInput(req.A, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Property A: " + err.Error()})
		return
	}
	b, err := h.catalog.ResolveInput(req.B, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Property B: " + err.Error()})
		return
	}

	res := service.Compare(a, b)
	metrics.Comparisons.WithLabelValues(string(res.Winner)).Inc()
	c.JSON(http.StatusOK, service.ComparisonView(res))
}
