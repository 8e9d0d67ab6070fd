package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"fairrent/internal/model"
	"fairrent/internal/render"
	"fairrent/internal/service"
)

// ChatHandler drives the conversation of a session
type ChatHandler struct {
	sessions *service.SessionManager
	renderer render.Renderer
}

// NewChatHandler creates a new chat handler
func NewChatHandler(sessions *service.SessionManager, renderer render.Renderer) *ChatHandler {
	return &ChatHandler{sessions: sessions, renderer: renderer}
}

func (h *ChatHandler) view(s *service.Session) model.ChatViewResponse {
	return model.ChatViewResponse{
		Entries:    s.Conversation.Display(h.renderer),
		Transcript: s.Conversation.Transcript(),
	}
}

// View handles GET /api/v1/sessions/:id/chat
func (h *ChatHandler) View(c *gin.Context) {
	s, ok := sessionFrom(c, h.sessions)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// Submit handles POST /api/v1/sessions/:id/chat. It waits for the reply and
// answers with the updated view; a failed exchange shows up in the view as a
// diagnostic entry.
func (h *ChatHandler) Submit(c *gin.Context) {
	s, ok := sessionFrom(c, h.sessions)
	if !ok {
		return
	}

	var req model.ChatSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	ex, ok := s.Conversation.SubmitUserTurn(req.Message)
	if ok {
		// Logged by the session; the outcome is part of the view.
		_, _ = s.Conversation.RequestAssistantReply(context.WithoutCancel(c.Request.Context()), ex)
	}
	c.JSON(http.StatusOK, h.view(s))
}

// Stream handles POST /api/v1/sessions/:id/chat/stream. Events: "accepted"
// with the placeholder id, then "reply" or "severed", then "done".
func (h *ChatHandler) Stream(c *gin.Context) {
	s, ok := sessionFrom(c, h.sessions)
	if !ok {
		return
	}

	var req model.ChatSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	flusher, ok := startSSE(c)
	if !ok {
		return
	}

	ex, ok := s.Conversation.SubmitUserTurn(req.Message)
	if !ok {
		sendSSE(c, "done", nil)
		flusher.Flush()
		return
	}

	sendSSE(c, "accepted", gin.H{
		"exchange_id": ex.ID,
		"entries":     s.Conversation.Display(h.renderer),
	})
	flusher.Flush()

	reply, err := s.Conversation.RequestAssistantReply(context.WithoutCancel(c.Request.Context()), ex)
	if err != nil {
		sendSSE(c, "severed", gin.H{
			"exchange_id": ex.ID,
			"text":        service.SeveredText,
			"display":     h.renderer.Literal(service.SeveredText),
		})
	} else {
		display, rerr := h.renderer.Markdown(reply)
		if rerr != nil {
			display = h.renderer.Literal(reply)
		}
		sendSSE(c, "reply", gin.H{
			"exchange_id": ex.ID,
			"text":        reply,
			"display":     display,
		})
	}
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}
