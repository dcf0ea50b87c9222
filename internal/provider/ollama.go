package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type OllamaProvider struct {
	client *api.Client
	model  string
}

func NewOllamaProvider(host, model string) (*OllamaProvider, error) {
	if model == "" {
		model = "llama3.2"
	}
	if host == "" {
		host = "http://localhost:11434"
	}
	uri, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host: %w", err)
	}

	return &OllamaProvider{
		client: api.NewClient(uri, http.DefaultClient),
		model:  model,
	}, nil
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

func (p *OllamaProvider) Complete(ctx context.Context, messages []Message) (*Response, error) {
	return p.chat(ctx, messages, nil)
}

func (p *OllamaProvider) Stream(ctx context.Context, messages []Message, fn StreamFunc) (*Response, error) {
	return p.chat(ctx, messages, fn)
}

func (p *OllamaProvider) chat(ctx context.Context, messages []Message, fn StreamFunc) (*Response, error) {
	var apiMsgs []api.Message
	for _, m := range messages {
		apiMsgs = append(apiMsgs, api.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	stream := fn != nil
	req := &api.ChatRequest{
		Model:    p.model,
		Messages: apiMsgs,
		Stream:   &stream,
	}

	var sb strings.Builder
	var totalTokens int

	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content != "" {
			if fn != nil {
				if err := fn(resp.Message.Content); err != nil {
					return err
				}
			}
			sb.WriteString(resp.Message.Content)
		}
		if resp.Done {
			totalTokens = resp.EvalCount + resp.PromptEvalCount
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}

	return &Response{
		Content: sb.String(),
		Usage:   Usage{TotalTokens: totalTokens, CompletionTokens: totalTokens},
	}, nil
}
