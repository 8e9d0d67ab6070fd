package service

import (
	"encoding/json"
	"strings"
)

// StreamChunkParser converts one provider-specific SSE data payload
type StreamChunkParser interface {
	ParseChunk(data []byte) (*StreamChunk, error)
}

// Provider names reported by DetectProvider
const (
	ProviderOpenAI = "openai"
	ProviderNVIDIA = "nvidia"
	ProviderGemini = "gemini"
	ProviderOther  = "openai-compatible"
)

// DetectProvider guesses the provider from the API base URL
func DetectProvider(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://integrate.api.nvidia.com"):
		return ProviderNVIDIA
	case strings.Contains(baseURL, "api.openai.com"):
		return ProviderOpenAI
	case strings.Contains(baseURL, "generativelanguage.googleapis.com"):
		return ProviderGemini
	default:
		return ProviderOther
	}
}

// parserFor returns the chunk parser matching provider
func parserFor(provider string) StreamChunkParser {
	if provider == ProviderNVIDIA {
		return &ReasoningStreamChunkParser{}
	}
	return &OpenAIStreamChunkParser{}
}

// OpenAIStreamChunkParser parses standard OpenAI-format chunks. Gemini's
// OpenAI-compatible endpoint uses the same format.
type OpenAIStreamChunkParser struct{}

// ParseChunk implements StreamChunkParser
func (p *OpenAIStreamChunkParser) ParseChunk(data []byte) (*StreamChunk, error) {
	var raw struct {
		Choices []struct {
			Delta struct {
				Role    string `json:"role,omitempty"`
				Content string `json:"content,omitempty"`
			} `json:"delta"`
			FinishReason string `json:"finish_reason,omitempty"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	chunk := &StreamChunk{}
	if len(raw.Choices) > 0 {
		delta := raw.Choices[0].Delta
		chunk.Role = delta.Role
		chunk.Content = delta.Content
		chunk.Done = raw.Choices[0].FinishReason != ""
	}
	return chunk, nil
}

// ReasoningStreamChunkParser also extracts reasoning_content (NVIDIA/DeepSeek)
type ReasoningStreamChunkParser struct{}

// ParseChunk implements StreamChunkParser
func (p *ReasoningStreamChunkParser) ParseChunk(data []byte) (*StreamChunk, error) {
	var raw struct {
		Choices []struct {
			Delta struct {
				Role             string  `json:"role,omitempty"`
				Content          string  `json:"content,omitempty"`
				ReasoningContent *string `json:"reasoning_content,omitempty"`
			} `json:"delta"`
			FinishReason string `json:"finish_reason,omitempty"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	chunk := &StreamChunk{}
	if len(raw.Choices) > 0 {
		delta := raw.Choices[0].Delta
		chunk.Role = delta.Role
		chunk.Content = delta.Content
		if delta.ReasoningContent != nil {
			chunk.ThinkingContent = *delta.ReasoningContent
		}
		chunk.Done = raw.Choices[0].FinishReason != ""
	}
	return chunk, nil
}
