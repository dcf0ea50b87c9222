package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStubProvider_Stream(t *testing.T) {
	t.Run("chunks arrive in order and rebuild the response", func(t *testing.T) {
		s := NewStubProvider("one two three")

		var chunks []string
		resp, err := s.Stream(context.Background(), []Message{{Role: "user", Content: "hi"}}, func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})
		if err != nil {
			t.Fatalf("Stream: %v", err)
		}
		if resp.Content != "one two three" {
			t.Errorf("content: %q", resp.Content)
		}
		if strings.Join(chunks, "") != resp.Content {
			t.Errorf("chunks do not rebuild content: %v", chunks)
		}
		if len(chunks) != 3 {
			t.Errorf("expected 3 chunks, got %d", len(chunks))
		}
	})

	t.Run("newlines survive the round trip", func(t *testing.T) {
		content := "Intro.\n\n```python\nprint('ok')\n```\n\nOutro."
		s := NewStubProvider(content)

		var sb strings.Builder
		resp, err := s.Stream(context.Background(), nil, func(chunk string) error {
			sb.WriteString(chunk)
			return nil
		})
		if err != nil {
			t.Fatalf("Stream: %v", err)
		}
		if resp.Content != content {
			t.Errorf("content mangled: %q", resp.Content)
		}
		if sb.String() != content {
			t.Errorf("chunks mangled: %q", sb.String())
		}
	})

	t.Run("mid-stream failure", func(t *testing.T) {
		wantErr := errors.New("provider down")
		s := NewStubProvider("a b c d")
		s.FailAfter = 2
		s.Err = wantErr

		var chunks int
		_, err := s.Stream(context.Background(), nil, func(string) error {
			chunks++
			return nil
		})
		if !errors.Is(err, wantErr) {
			t.Errorf("expected injected error, got %v", err)
		}
		if chunks != 2 {
			t.Errorf("expected 2 chunks before failure, got %d", chunks)
		}
	})

	t.Run("cancelled context stops the stream", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := NewStubProvider("never delivered")
		_, err := s.Stream(ctx, nil, func(string) error {
			t.Error("callback should not run after cancellation")
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestStubProvider_Script(t *testing.T) {
	s := NewStubProvider("first", "second")

	r1, _ := s.Complete(context.Background(), nil)
	r2, _ := s.Complete(context.Background(), nil)
	r3, _ := s.Complete(context.Background(), nil)

	if r1.Content != "first" || r2.Content != "second" {
		t.Errorf("script order: %q, %q", r1.Content, r2.Content)
	}
	if r3.Content != "second" {
		t.Errorf("expected last response to repeat, got %q", r3.Content)
	}
	if len(s.Calls) != 3 {
		t.Errorf("expected 3 recorded calls, got %d", len(s.Calls))
	}
}
