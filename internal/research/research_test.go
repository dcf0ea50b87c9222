package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSerpClient_TrendingTopics(t *testing.T) {
	t.Run("no key falls back to curated list", func(t *testing.T) {
		c := NewSerpClient("")
		topics, err := c.TrendingTopics(context.Background(), "anything")
		if err != nil {
			t.Fatalf("TrendingTopics: %v", err)
		}
		if len(topics) == 0 {
			t.Fatal("expected curated topics")
		}

		// The fallback must hand out a copy, not the shared slice.
		topics[0] = "mutated"
		again, _ := c.TrendingTopics(context.Background(), "anything")
		if again[0] == "mutated" {
			t.Error("curated list was mutated through the returned slice")
		}
	})

	t.Run("parses organic results", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search.json" {
				t.Errorf("path: %s", r.URL.Path)
			}
			if r.URL.Query().Get("engine") != "google" || r.URL.Query().Get("api_key") != "serp-key" {
				t.Errorf("query: %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"organic_results": [{"title": "Topic A"}, {"title": ""}, {"title": "Topic B"}]}`))
		}))
		defer server.Close()

		c := NewSerpClient("serp-key")
		c.SetBaseURL(server.URL)

		topics, err := c.TrendingTopics(context.Background(), "ai security")
		if err != nil {
			t.Fatalf("TrendingTopics: %v", err)
		}
		if len(topics) != 2 || topics[0] != "Topic A" || topics[1] != "Topic B" {
			t.Errorf("topics: %v", topics)
		}
	})

	t.Run("empty results is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"organic_results": []}`))
		}))
		defer server.Close()

		c := NewSerpClient("serp-key")
		c.SetBaseURL(server.URL)
		if _, err := c.TrendingTopics(context.Background(), "obscure"); err == nil {
			t.Error("expected error for empty results")
		}
	})
}

func TestTavilyClient_Research(t *testing.T) {
	t.Run("no key falls back to placeholder", func(t *testing.T) {
		c := NewTavilyClient("")
		findings, err := c.Research(context.Background(), "Zero Trust Architecture")
		if err != nil {
			t.Fatalf("Research: %v", err)
		}
		if !strings.Contains(findings, "Zero Trust Architecture") {
			t.Errorf("fallback does not mention the topic: %q", findings)
		}
	})

	t.Run("prefers the answer field", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("path: %s", r.URL.Path)
			}
			w.Write([]byte(`{"answer": "Summarized answer.", "results": [{"title": "t", "content": "c"}]}`))
		}))
		defer server.Close()

		c := NewTavilyClient("tavily-key")
		c.SetBaseURL(server.URL)

		findings, err := c.Research(context.Background(), "topic")
		if err != nil {
			t.Fatalf("Research: %v", err)
		}
		if findings != "Summarized answer." {
			t.Errorf("findings: %q", findings)
		}
	})

	t.Run("formats results when no answer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results": [{"title": "Paper", "content": "Abstract text."}]}`))
		}))
		defer server.Close()

		c := NewTavilyClient("tavily-key")
		c.SetBaseURL(server.URL)

		findings, err := c.Research(context.Background(), "topic")
		if err != nil {
			t.Fatalf("Research: %v", err)
		}
		if !strings.Contains(findings, "Paper") || !strings.Contains(findings, "Abstract text.") {
			t.Errorf("findings: %q", findings)
		}
	})

	t.Run("api error surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		c := NewTavilyClient("tavily-key")
		c.SetBaseURL(server.URL)
		if _, err := c.Research(context.Background(), "topic"); err == nil {
			t.Error("expected error for non-200 response")
		}
	})
}
