package provider

import (
	"context"
	"strings"
	"unicode"
)

// StubProvider is a scripted provider for tests. Each call consumes the next
// response; when the script runs out it repeats the last one.
type StubProvider struct {
	Responses []string
	// FailAfter, when > 0, makes Stream return Err after that many chunks.
	FailAfter int
	Err       error

	Calls [][]Message
}

func NewStubProvider(responses ...string) *StubProvider {
	if len(responses) == 0 {
		responses = []string{"stub response"}
	}
	return &StubProvider{Responses: responses}
}

func (s *StubProvider) Name() string {
	return "stub"
}

func (s *StubProvider) next() string {
	if len(s.Responses) == 0 {
		return ""
	}
	resp := s.Responses[0]
	if len(s.Responses) > 1 {
		s.Responses = s.Responses[1:]
	}
	return resp
}

func (s *StubProvider) Complete(ctx context.Context, messages []Message) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.Calls = append(s.Calls, messages)
	return &Response{Content: s.next()}, nil
}

// Stream emits the next response word by word, honoring cancellation
// between chunks. The chunks concatenate back to the exact response,
// whitespace and newlines included.
func (s *StubProvider) Stream(ctx context.Context, messages []Message, fn StreamFunc) (*Response, error) {
	s.Calls = append(s.Calls, messages)
	full := s.next()

	var sb strings.Builder
	for i, chunk := range chunkText(full) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.FailAfter > 0 && i >= s.FailAfter {
			return nil, s.Err
		}
		if err := fn(chunk); err != nil {
			return nil, err
		}
		sb.WriteString(chunk)
	}
	return &Response{Content: sb.String()}, nil
}

// chunkText splits text at whitespace-to-word boundaries so each chunk
// carries its trailing whitespace and the split is lossless.
func chunkText(text string) []string {
	var chunks []string
	start := 0
	inSpace := false
	for i, r := range text {
		if inSpace && !unicode.IsSpace(r) {
			chunks = append(chunks, text[start:i])
			start = i
		}
		inSpace = unicode.IsSpace(r)
	}
	if start < len(text) {
		chunks = append(chunks, text[start:])
	}
	return chunks
}
