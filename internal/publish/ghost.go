// Package publish is the boundary to the Ghost Admin API: convert the
// artifact's content to Lexical rich text and create a draft post.
package publish

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Draft is the remote post created for an artifact.
type Draft struct {
	ID  string
	URL string
}

// Client talks to a Ghost instance's Admin API. The API key is the
// "id:secret" pair from a Ghost custom integration.
type Client struct {
	keyID    string
	secret   []byte
	apiURL   string
	client   *http.Client
	tokenTTL time.Duration
}

func NewClient(apiKey, apiURL string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}
	if apiURL == "" {
		return nil, errors.New("API URL is required")
	}

	id, secret, ok := strings.Cut(apiKey, ":")
	if !ok {
		return nil, errors.New("API key must be in id:secret form")
	}
	secretBytes, err := hex.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("API key secret is not hex: %w", err)
	}

	return &Client{
		keyID:    id,
		secret:   secretBytes,
		apiURL:   strings.TrimRight(apiURL, "/"),
		client:   &http.Client{},
		tokenTTL: 5 * time.Minute,
	}, nil
}

// SetBaseURL allows overriding the API endpoint (useful for tests).
func (c *Client) SetBaseURL(u string) {
	c.apiURL = strings.TrimRight(u, "/")
}

// token builds the short-lived HS256 token the Admin API requires.
func (c *Client) token() (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(c.tokenTTL).Unix(),
		"aud": "/admin/",
	})
	tok.Header["kid"] = c.keyID
	return tok.SignedString(c.secret)
}

type postPayload struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Lexical    string `json:"lexical"`
	Status     string `json:"status"`
	Visibility string `json:"visibility"`
}

type postsEnvelope struct {
	Posts []struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"posts"`
}

// CreateDraft posts the Lexical content as a draft and returns the remote
// identifier.
func (c *Client) CreateDraft(ctx context.Context, title, lexical string) (*Draft, error) {
	token, err := c.token()
	if err != nil {
		return nil, fmt.Errorf("failed to sign admin token: %w", err)
	}

	body, err := json.Marshal(map[string][]postPayload{
		"posts": {{
			Title:      title,
			Slug:       Slug(title),
			Lexical:    lexical,
			Status:     "draft",
			Visibility: "public",
		}},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/ghost/api/admin/posts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ghost request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("ghost api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var envelope postsEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ghost response: %w", err)
	}
	if len(envelope.Posts) == 0 {
		return nil, fmt.Errorf("ghost returned no posts")
	}

	return &Draft{
		ID:  envelope.Posts[0].ID,
		URL: envelope.Posts[0].URL,
	}, nil
}

// Slug derives a URL slug from a post title.
func Slug(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteRune('-')
		}
	}
	return strings.Trim(sb.String(), "-")
}
