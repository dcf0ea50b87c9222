package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-1.5-pro-latest"
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Complete(ctx context.Context, messages []Message) (*Response, error) {
	cs, last := p.chatSession(messages)
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, fmt.Errorf("gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := &Response{Content: sb.String()}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

func (p *GeminiProvider) Stream(ctx context.Context, messages []Message, fn StreamFunc) (*Response, error) {
	cs, last := p.chatSession(messages)
	iter := cs.SendMessageStream(ctx, genai.Text(last))

	var sb strings.Builder
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gemini stream failed: %w", err)
		}
		if len(resp.Candidates) == 0 {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			text, ok := part.(genai.Text)
			if !ok || text == "" {
				continue
			}
			if err := fn(string(text)); err != nil {
				return nil, err
			}
			sb.WriteString(string(text))
		}
	}

	return &Response{Content: sb.String()}, nil
}

func (p *GeminiProvider) chatSession(messages []Message) (*genai.ChatSession, string) {
	model := p.client.GenerativeModel(p.model)
	cs := model.StartChat()

	var history []*genai.Content
	last := ""
	if len(messages) > 0 {
		for _, m := range messages[:len(messages)-1] {
			role := "user"
			if m.Role == "assistant" {
				role = "model"
			}
			history = append(history, &genai.Content{
				Role:  role,
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		}
		cs.History = history
		last = messages[len(messages)-1].Content
	}
	return cs, last
}
