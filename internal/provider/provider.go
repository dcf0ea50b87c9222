package provider

import (
	"context"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response represents the output from the model.
type Response struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamFunc receives completion chunks in production order. Returning an
// error stops the stream; the partial content is discarded by the caller.
type StreamFunc func(chunk string) error

// Provider defines the interface for text-completion services.
type Provider interface {
	// Complete sends the messages and returns the full response.
	Complete(ctx context.Context, messages []Message) (*Response, error)

	// Stream sends the messages and forwards each chunk as it arrives.
	// The stream is finite and not restartable; cancellation of ctx stops
	// it promptly. The aggregated response is returned on success.
	Stream(ctx context.Context, messages []Message, fn StreamFunc) (*Response, error)

	// Name returns the provider identifier (e.g., "openai", "ollama").
	Name() string
}
