package service

import (
	"context"
)

// ChatModel is an OpenAI-compatible chat completion provider
type ChatModel interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)
	ChatCompletionStream(ctx context.Context, req ChatCompletionRequest, callback StreamCallback) error
	IsEnabled() bool
}

// StreamChunk is a provider-neutral streaming delta
type StreamChunk struct {
	Content string

	// Reasoning content, only sent by some providers (DeepSeek on NVIDIA)
	ThinkingContent string

	Role string
	Done bool
}

// StreamCallback is called for each chunk in streaming mode
type StreamCallback func(chunk *StreamChunk) error

var _ ChatModel = (*OpenAIClient)(nil)
