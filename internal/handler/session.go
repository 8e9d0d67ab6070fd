package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fairrent/internal/model"
	"fairrent/internal/service"
)

// SessionHandler opens and closes advisor sessions
type SessionHandler struct {
	sessions *service.SessionManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Open handles POST /api/v1/sessions
func (h *SessionHandler) Open(c *gin.Context) {
	s := h.sessions.Open()
	c.JSON(http.StatusCreated, model.SessionResponse{SessionID: s.ID})
}

// Close handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) Close(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
