package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fairrent/internal/model"
	"fairrent/internal/service"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSubmitDisabled):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidQuery),
		errors.Is(err, model.ErrInvalidBedrooms),
		errors.Is(err, model.ErrInvalidFurnishing),
		errors.Is(err, model.ErrMissingCity):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTransport), errors.Is(err, service.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// sessionFrom loads the session named by the :id path parameter, answering
// 404 when it does not exist
func sessionFrom(c *gin.Context, sessions *service.SessionManager) (*service.Session, bool) {
	s, err := sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return s, true
}
