package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TavilyClient gathers research findings for a topic.
type TavilyClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewTavilyClient(apiKey string) *TavilyClient {
	return &TavilyClient{
		apiKey:  apiKey,
		baseURL: "https://api.tavily.com",
		client:  &http.Client{},
	}
}

// SetBaseURL allows overriding the API endpoint (useful for tests).
func (c *TavilyClient) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeAnswer  bool     `json:"include_answer"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// Research returns findings for a topic. Without an API key a deterministic
// placeholder is returned so the rest of the workflow can be exercised.
func (c *TavilyClient) Research(ctx context.Context, topic string) (string, error) {
	if c.apiKey == "" {
		return fallbackResearch(topic), nil
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:         c.apiKey,
		Query:          topic,
		SearchDepth:    "advanced",
		IncludeAnswer:  true,
		MaxResults:     5,
		IncludeDomains: []string{"arxiv.org", "github.com", "microsoft.com", "google.com", "openai.com"},
		ExcludeDomains: []string{"youtube.com", "facebook.com", "twitter.com"},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tavily api error: %s", string(respBody))
	}

	var out tavilyResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to unmarshal tavily response: %w", err)
	}

	if out.Answer != "" {
		return out.Answer, nil
	}

	var sb strings.Builder
	sb.WriteString("Research Findings:\n\n")
	for _, r := range out.Results {
		fmt.Fprintf(&sb, "- %s\n  %s\n\n", r.Title, r.Content)
	}
	if len(out.Results) == 0 {
		return "", fmt.Errorf("tavily returned no results for %q", topic)
	}
	return sb.String(), nil
}

func fallbackResearch(topic string) string {
	return fmt.Sprintf(`Here's what we know about %s:

Key Points:
- Latest trends and developments
- Expert insights and analysis
- Real-world applications
- Future implications

The field of %s is rapidly evolving, with new developments emerging regularly.
Experts suggest focusing on practical implementations while keeping security in mind.`, topic, topic)
}
