package publish

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

const testKeyID = "6540f1acd29d7e0001d6bc2e"
const testSecretHex = "6162636465666768696a6b6c6d6e6f70"

func testAPIKey() string {
	return testKeyID + ":" + testSecretHex
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		apiURL  string
		wantErr bool
	}{
		{"valid", testAPIKey(), "https://blog.example.com", false},
		{"missing key", "", "https://blog.example.com", true},
		{"missing url", testAPIKey(), "", true},
		{"no separator", "justonestring", "https://blog.example.com", true},
		{"secret not hex", "id:nothex!", "https://blog.example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.apiKey, tt.apiURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_CreateDraft(t *testing.T) {
	var authHeader string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ghost/api/admin/posts" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		authHeader = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"posts": [{"id": "123", "url": "https://blog.example.com/my-post/"}]}`))
	}))
	defer server.Close()

	c, err := NewClient(testAPIKey(), server.URL)
	if err != nil {
		t.Fatal(err)
	}

	draft, err := c.CreateDraft(context.Background(), "My Post", `{"root":{}}`)
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if draft.ID != "123" || draft.URL != "https://blog.example.com/my-post/" {
		t.Errorf("draft: %+v", draft)
	}

	t.Run("admin token", func(t *testing.T) {
		raw, ok := strings.CutPrefix(authHeader, "Ghost ")
		if !ok {
			t.Fatalf("authorization header: %q", authHeader)
		}
		secret, _ := hex.DecodeString(testSecretHex)
		tok, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return secret, nil },
			jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience("/admin/"))
		if err != nil {
			t.Fatalf("token does not verify: %v", err)
		}
		if kid := tok.Header["kid"]; kid != testKeyID {
			t.Errorf("kid header: %v", kid)
		}
	})

	t.Run("payload", func(t *testing.T) {
		var envelope map[string][]postPayload
		if err := json.Unmarshal(gotBody, &envelope); err != nil {
			t.Fatal(err)
		}
		posts := envelope["posts"]
		if len(posts) != 1 {
			t.Fatalf("expected 1 post, got %d", len(posts))
		}
		p := posts[0]
		if p.Title != "My Post" || p.Slug != "my-post" || p.Status != "draft" {
			t.Errorf("payload: %+v", p)
		}
	})
}

func TestClient_CreateDraftError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors": [{"message": "Validation error"}]}`))
	}))
	defer server.Close()

	c, _ := NewClient(testAPIKey(), server.URL)
	if _, err := c.CreateDraft(context.Background(), "Title", "{}"); err == nil {
		t.Error("expected error for non-201 response")
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"My Post", "my-post"},
		{"AI & Security: What's Next?", "ai--security-whats-next"},
		{"  spaced  ", "spaced"},
		{"snake_case_title", "snake-case-title"},
	}
	for _, tt := range tests {
		if got := Slug(tt.title); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
