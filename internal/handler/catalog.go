package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fairrent/internal/model"
	"fairrent/internal/service"
)

// CatalogHandler serves the location catalog
type CatalogHandler struct {
	catalog *service.LocationCatalog
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *service.LocationCatalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Boot handles GET /api/v1/catalog and returns the full boot payload
func (h *CatalogHandler) Boot(c *gin.Context) {
	cities := h.catalog.Cities()
	localities := make(map[string][]string, len(cities))
	for _, city := range cities {
		localities[city] = h.catalog.LocalitiesFor(city)
	}
	c.JSON(http.StatusOK, model.BootPayload{Cities: cities, Localities: localities})
}

// Cities handles GET /api/v1/catalog/cities
func (h *CatalogHandler) Cities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cities": h.catalog.Cities()})
}

// Localities handles GET /api/v1/catalog/cities/:city/localities.
// Unknown cities answer with an empty list.
func (h *CatalogHandler) Localities(c *gin.Context) {
	city := c.Param("city")
	if resolved, ok := h.catalog.ResolveCity(city); ok {
		city = resolved
	}
	c.JSON(http.StatusOK, gin.H{
		"city":       city,
		"localities": h.catalog.LocalitiesFor(city),
	})
}
