package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fairrent/internal/model"
)

// StreamingAssistant answers chat requests, optionally streaming the text
type StreamingAssistant interface {
	Reply(ctx context.Context, req model.ChatRequest) (string, error)
	ReplyStream(ctx context.Context, req model.ChatRequest, onDelta func(string) error) (string, error)
}

// AssistantHandler exposes the built-in conversational backend
type AssistantHandler struct {
	assistant StreamingAssistant
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistant StreamingAssistant) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

func bindChatRequest(c *gin.Context) (model.ChatRequest, bool) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return req, false
	}
	if strings.TrimSpace(req.UserQuestion) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_question is required"})
		return req, false
	}
	return req, true
}

// Chat handles POST /chat
func (h *AssistantHandler) Chat(c *gin.Context) {
	req, ok := bindChatRequest(c)
	if !ok {
		return
	}

	reply, err := h.assistant.Reply(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.ChatResponse{LLMResponse: reply})
}

// ChatStream handles POST /chat/stream, relaying content as "delta" events
// and the full text in the final "done" event
func (h *AssistantHandler) ChatStream(c *gin.Context) {
	req, ok := bindChatRequest(c)
	if !ok {
		return
	}

	flusher, ok := startSSE(c)
	if !ok {
		return
	}

	full, err := h.assistant.ReplyStream(c.Request.Context(), req, func(delta string) error {
		sendSSE(c, "delta", gin.H{"content": delta})
		flusher.Flush()
		return c.Request.Context().Err()
	})
	if err != nil {
		sendSSE(c, "error", gin.H{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "done", model.ChatResponse{LLMResponse: full})
	flusher.Flush()
}
