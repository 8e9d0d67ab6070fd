package model

import (
	"encoding/json"
	"strings"
)

// Role identifies who authored a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry of the conversation transcript
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// FormatHistory serialises turns as "{role}: {text}" lines in order
func FormatHistory(turns []Turn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = string(t.Role) + ": " + t.Text
	}
	return strings.Join(lines, "\n")
}

// ChatRequest is the body sent to the conversational backend.
// MLData is the literal JSON null when no estimate exists yet.
type ChatRequest struct {
	UserQuestion string          `json:"user_question"`
	MLData       json.RawMessage `json:"ml_data"`
	ChatHistory  string          `json:"chat_history"`
	Persona      string          `json:"persona,omitempty"`
}

// ChatResponse is the conversational backend's reply
type ChatResponse struct {
	LLMResponse string `json:"llm_response"`
}

// EntryKind tells a display entry apart from transcript turns
type EntryKind string

const (
	EntryTurn        EntryKind = "turn"
	EntryPlaceholder EntryKind = "placeholder"
	EntryDiagnostic  EntryKind = "diagnostic"
)

// DisplayEntry is one row of the rendered chat view
type DisplayEntry struct {
	ID      string    `json:"id,omitempty"`
	Kind    EntryKind `json:"kind"`
	Role    Role      `json:"role,omitempty"`
	Text    string    `json:"text"`
	Display string    `json:"display"`
}
