// Package research holds the topic-discovery and research boundary clients.
// Both fall back to curated data when their API keys are unset, so the
// workflow stays usable during development.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Fallback topics used when no search API key is configured.
var curatedTopics = []string{
	"AI Security in Cloud Computing",
	"Zero Trust Architecture",
	"Machine Learning for Threat Detection",
	"AI Governance and Regulation",
	"Quantum Computing Security",
	"Large Language Models for Security",
	"The Threat Landscape of Enterprise AI",
	"Blue Teaming with Large Language Models",
	"Red Teaming with Large Language Models",
}

// SerpClient finds trending topics through a SERP-style search API.
type SerpClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSerpClient(apiKey string) *SerpClient {
	return &SerpClient{
		apiKey:  apiKey,
		baseURL: "https://serpapi.com",
		client:  &http.Client{},
	}
}

// SetBaseURL allows overriding the API endpoint (useful for tests).
func (c *SerpClient) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// TrendingTopics returns topic titles for the query. Without an API key the
// curated list is returned instead.
func (c *SerpClient) TrendingTopics(ctx context.Context, query string) ([]string, error) {
	if c.apiKey == "" {
		out := make([]string, len(curatedTopics))
		copy(out, curatedTopics)
		return out, nil
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serp request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serp api error: %s", string(body))
	}

	var out struct {
		OrganicResults []struct {
			Title string `json:"title"`
		} `json:"organic_results"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal serp response: %w", err)
	}

	var topics []string
	for _, r := range out.OrganicResults {
		if r.Title != "" {
			topics = append(topics, r.Title)
		}
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("serp returned no results for %q", query)
	}
	return topics, nil
}
