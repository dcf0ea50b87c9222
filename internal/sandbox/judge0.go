// Package sandbox is the boundary to the Judge0 remote code-execution
// service: submit a piece of code, poll the returned token until a terminal
// status is reported.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/scribe/internal/session"
)

// Judge0 status identifiers. 1 and 2 mean the submission is still running.
const (
	StatusInQueue    = 1
	StatusProcessing = 2
	StatusAccepted   = 3
	StatusTimeLimit  = 5
)

// Submission is one piece of code to run.
type Submission struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin,omitempty"`
}

// Status is the service-reported state of a submission.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Result is a poll response. Stdout/Stderr are only meaningful once the
// status is terminal.
type Result struct {
	Status        Status `json:"status"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Message       string `json:"message"`
	Time          string `json:"time"`
	Memory        int    `json:"memory"`
}

// Terminal reports whether the submission has finished.
func (r *Result) Terminal() bool {
	return r.Status.ID != StatusInQueue && r.Status.ID != StatusProcessing
}

// Outcome maps a terminal result onto the artifact's execution outcome.
func (r *Result) Outcome() session.Outcome {
	switch {
	case r.Status.ID == StatusAccepted:
		return session.OutcomeSucceeded
	case r.Status.ID == StatusTimeLimit:
		return session.OutcomeTimedOut
	case strings.Contains(strings.ToLower(r.Status.Description), "memory"),
		strings.Contains(r.Message, "SIGKILL"):
		return session.OutcomeMemoryExceeded
	default:
		return session.OutcomeFailed
	}
}

// Client talks to a Judge0 instance through the RapidAPI gateway.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}
	if baseURL == "" {
		baseURL = "https://judge0-ce.p.rapidapi.com"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}, nil
}

// SetBaseURL allows overriding the API endpoint (useful for tests).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// Submit creates a submission and returns its token.
func (c *Client) Submit(ctx context.Context, sub Submission) (string, error) {
	jsonBody, err := json.Marshal(sub)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submissions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("judge0 submit failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("judge0 api error: %s", string(body))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to unmarshal submission response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("judge0 returned no token")
	}
	return out.Token, nil
}

// Poll fetches the current status of a submission. The caller owns the
// polling loop and its budget.
func (c *Client) Poll(ctx context.Context, token string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/submissions/"+url.PathEscape(token), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("judge0 poll failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("judge0 api error: %s", string(body))
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal poll response: %w", err)
	}
	return &result, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	if u, err := url.Parse(c.baseURL); err == nil {
		req.Header.Set("X-RapidAPI-Host", u.Host)
	}
}
