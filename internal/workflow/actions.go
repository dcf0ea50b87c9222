package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/felixgeelhaar/scribe/internal/provider"
	"github.com/felixgeelhaar/scribe/internal/publish"
	"github.com/felixgeelhaar/scribe/internal/sandbox"
	"github.com/felixgeelhaar/scribe/internal/session"
	"github.com/felixgeelhaar/scribe/internal/store"
)

func (r *Runner) registerBuiltins() {
	actions := []Action{
		{
			Name:        "topics",
			Description: "Find trending topics to write about",
			Run:         runTopics,
		},
		{
			Name:        "research",
			Description: "Research a specific topic",
			Run:         runResearch,
		},
		{
			Name:        "generate",
			Description: "Generate a blog post about a topic",
			Run:         runGenerate,
		},
		{
			Name:         "validate",
			Description:  "Validate the current draft against the code policy",
			Precondition: requireArtifact(session.StatusDraft),
			Run:          runValidate,
		},
		{
			Name:         "execute",
			Description:  "Run the validated artifact's code in the sandbox",
			Precondition: requireArtifact(session.StatusValidated),
			Run:          runExecute,
		},
		{
			Name:         "publish",
			Description:  "Publish the current artifact as a blog draft",
			Precondition: r.publishPrecondition,
			Run:          runPublish,
		},
		{
			Name:        "chat",
			Description: "Free-form conversation with the assistant",
			Run:         runChat,
		},
		{
			Name:        "history",
			Description: "Show the conversation history",
			Run:         runHistory,
		},
		{
			Name:        "clear",
			Description: "Reset the session to an empty state",
			Run:         runClear,
		},
	}
	for _, a := range actions {
		if err := r.registry.Register(a); err != nil {
			panic(err)
		}
	}
}

// requireArtifact builds a precondition demanding a current artifact in the
// given status.
func requireArtifact(status session.ArtifactStatus) func(*session.Session) error {
	return func(s *session.Session) error {
		if s.Artifact == nil {
			return fmt.Errorf("no current artifact; run generate first")
		}
		if s.Artifact.Status != status {
			return fmt.Errorf("artifact is %s, expected %s", s.Artifact.Status, status)
		}
		return nil
	}
}

// publishPrecondition accepts a validated artifact or a successfully
// executed one; with PublishRequireExecuted set, only the latter. Published
// artifacts are terminal and cannot be re-posted.
func (r *Runner) publishPrecondition(s *session.Session) error {
	a := s.Artifact
	if a == nil {
		return fmt.Errorf("no current artifact; run generate first")
	}
	switch a.Status {
	case session.StatusPublished:
		return fmt.Errorf("artifact is already published as post %s", a.Publish.PostID)
	case session.StatusExecuted:
		if a.Execution == nil || a.Execution.Outcome != session.OutcomeSucceeded {
			return fmt.Errorf("artifact execution did not succeed; generate a new draft")
		}
		return nil
	case session.StatusValidated:
		if r.cfg.PublishRequireExecuted {
			return fmt.Errorf("publishing requires a successful execution")
		}
		return nil
	default:
		return fmt.Errorf("artifact is %s; validate it before publishing", a.Status)
	}
}

func runTopics(ctx context.Context, exec *Execution) (string, error) {
	r := exec.Runner
	titles, err := r.finder.TrendingTopics(ctx, "trending AI and security topics")
	if err != nil {
		return "", fmt.Errorf("topic discovery failed: %w", err)
	}

	now := time.Now().UTC()
	topics := make([]session.Topic, len(titles))
	for i, title := range titles {
		topics[i] = session.Topic{
			Title:        title,
			Source:       session.SourceSearchEngine,
			DiscoveredAt: now,
		}
	}
	exec.Session.SetTopics(topics)

	listing := FormatTopics(topics)
	exec.Session.Append(session.RoleUser, "Find trending topics")
	exec.Session.Append(session.RoleAssistant, listing)
	r.sink.Chunk(listing + "\n")
	return fmt.Sprintf("Found %d trending topics.", len(topics)), nil
}

func runResearch(ctx context.Context, exec *Execution) (string, error) {
	r := exec.Runner
	topic := strings.TrimSpace(exec.Args.Text)
	if topic == "" {
		return "", fmt.Errorf("%w: research requires a topic", ErrPreconditionNotMet)
	}

	findings, err := r.researcher.Research(ctx, topic)
	if err != nil {
		return "", fmt.Errorf("research failed: %w", err)
	}

	exec.Session.Topics = append(exec.Session.Topics, session.Topic{
		Title:        topic,
		Description:  summarize(findings, 200),
		Source:       session.SourceResearchAgent,
		DiscoveredAt: time.Now().UTC(),
	})
	exec.Session.Append(session.RoleUser, "Research the topic: "+topic)
	exec.Session.Append(session.RoleAssistant, findings)
	r.sink.Chunk(findings + "\n")
	return fmt.Sprintf("Research recorded for %q.", topic), nil
}

func runGenerate(ctx context.Context, exec *Execution) (string, error) {
	r := exec.Runner
	topic := strings.TrimSpace(exec.Args.Text)
	if topic == "" {
		return "", fmt.Errorf("%w: generate requires a topic", ErrPreconditionNotMet)
	}
	tone := exec.Args.Tone
	if tone == "" {
		tone = r.cfg.Tone
	}

	prompt := fmt.Sprintf("Generate a %s blog post about: %s", tone, topic)
	exec.Session.Append(session.RoleUser, prompt)

	resp, err := r.stream(ctx, generateMessages(exec.Session, topic, tone))
	if err != nil {
		return "", err
	}
	if resp.Content == "" {
		return "", fmt.Errorf("%w: provider returned empty content", ErrCompletion)
	}

	exec.Session.Append(session.RoleAssistant, resp.Content)
	exec.Session.ReplaceArtifact(&session.Artifact{
		Title:     topic,
		Content:   resp.Content,
		Format:    session.FormatPlain,
		Status:    session.StatusDraft,
		Tone:      tone,
		CreatedAt: time.Now().UTC(),
	})
	return fmt.Sprintf("Draft %q generated (%d bytes).", topic, len(resp.Content)), nil
}

func runValidate(ctx context.Context, exec *Execution) (string, error) {
	r := exec.Runner
	a := exec.Session.Artifact

	code := ExtractCode(a.Content)
	if v := r.guard.CheckCode(code); v != nil {
		return "", fmt.Errorf("%w: %s", ErrValidationRejected, v.Message)
	}

	a.Status = session.StatusValidated
	exec.Session.Append(session.RoleAssistant, fmt.Sprintf("Artifact %q passed validation.", a.Title))
	return fmt.Sprintf("Artifact %q validated.", a.Title), nil
}

func runExecute(ctx context.Context, exec *Execution) (string, error) {
	r := exec.Runner
	a := exec.Session.Artifact

	if r.executor == nil {
		return "", fmt.Errorf("%w: code execution requires JUDGE0_API_KEY", ErrNotConfigured)
	}
	if v := r.guard.CheckLanguage(r.cfg.LanguageID); v != nil {
		return "", fmt.Errorf("%w: %s", ErrValidationRejected, v.Message)
	}

	token, err := r.executor.Submit(ctx, sandbox.Submission{
		SourceCode: ExtractCode(a.Content),
		LanguageID: r.cfg.LanguageID,
	})
	if err != nil {
		return "", fmt.Errorf("sandbox submit failed: %w", err)
	}

	result, err := r.awaitResult(ctx, token)
	if err != nil {
		return "", err
	}

	// A non-succeeded terminal status is a recorded outcome, not an error:
	// the workflow continues with the failure captured in the artifact.
	a.Execution = result
	a.Status = session.StatusExecuted
	summary := fmt.Sprintf("Execution %s.", result.Outcome)
	if result.Stdout != "" {
		summary = fmt.Sprintf("Execution %s. Output: %s", result.Outcome, summarize(result.Stdout, 200))
	}
	exec.Session.Append(session.RoleAssistant, summary)
	return summary, nil
}

// awaitResult polls the sandbox until a terminal status or the poll budget
// runs out, in which case the outcome is timed-out rather than an error.
func (r *Runner) awaitResult(ctx context.Context, token string) (*session.ExecutionResult, error) {
	deadline := time.Now().Add(r.cfg.PollBudget)
	for {
		result, err := r.executor.Poll(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("sandbox poll failed: %w", err)
		}
		if result.Terminal() {
			return &session.ExecutionResult{
				Outcome:  result.Outcome(),
				Stdout:   result.Stdout,
				Stderr:   strings.TrimSpace(result.Stderr + "\n" + result.CompileOutput),
				Time:     result.Time,
				MemoryKB: result.Memory,
			}, nil
		}
		if time.Now().After(deadline) {
			return &session.ExecutionResult{Outcome: session.OutcomeTimedOut}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.cfg.PollInterval):
		}
	}
}

func runPublish(ctx context.Context, exec *Execution) (string, error) {
	r := exec.Runner
	a := exec.Session.Artifact

	if r.publisher == nil {
		return "", fmt.Errorf("%w: publishing requires GHOST_API_KEY and GHOST_API_URL", ErrNotConfigured)
	}

	title := a.Title
	if t := strings.TrimSpace(exec.Args.Text); t != "" {
		title = t
	}

	lexical, err := publish.FromMarkdown(a.Content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPublish, err)
	}

	draft, err := r.publisher.CreateDraft(ctx, title, lexical)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPublish, err)
	}

	a.Publish = &session.PublishResult{PostID: draft.ID, URL: draft.URL}
	a.Status = session.StatusPublished
	exec.Session.Append(session.RoleAssistant, fmt.Sprintf("Published draft %q as post %s.", title, draft.ID))

	if r.archive != nil {
		err := r.archive.RecordPost(&store.PublishedPost{
			PostID:      draft.ID,
			Title:       title,
			URL:         draft.URL,
			Tone:        a.Tone,
			PublishedAt: time.Now().UTC(),
		})
		if err != nil {
			// The remote draft exists; losing the archive row is not worth
			// failing the command over.
			r.obs.Log().Warn().Err(err).Msg("failed to archive published post")
		}
	}

	return fmt.Sprintf("Draft %q published as post %s.", title, draft.ID), nil
}

func runChat(ctx context.Context, exec *Execution) (string, error) {
	r := exec.Runner
	input := strings.TrimSpace(exec.Args.Text)
	if input == "" {
		return "", fmt.Errorf("%w: chat requires input", ErrPreconditionNotMet)
	}

	exec.Session.Append(session.RoleUser, input)
	resp, err := r.stream(ctx, conversationMessages(exec.Session))
	if err != nil {
		return "", err
	}
	exec.Session.Append(session.RoleAssistant, resp.Content)
	return resp.Content, nil
}

func runHistory(ctx context.Context, exec *Execution) (string, error) {
	if len(exec.Session.Turns) == 0 {
		return "No conversation history.", nil
	}
	var sb strings.Builder
	for _, turn := range exec.Session.Turns {
		fmt.Fprintf(&sb, "[%s] %s:\n%s\n\n", turn.Timestamp.Format(time.RFC3339), turn.Role, turn.Content)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func runClear(ctx context.Context, exec *Execution) (string, error) {
	*exec.Session = *session.New()
	return "Session cleared.", nil
}

const assistantInstructions = `You are an AI blogging assistant that specializes in creating high-quality blog posts about AI and security topics.
Always maintain a professional tone and ensure all content is properly sourced.
When generating blog posts, include an engaging title, a clear introduction, well-structured main content, a proper conclusion, and source citations.`

// generateMessages builds the completion request for a post: the standing
// instructions, the most recent research findings if any, and the request.
func generateMessages(s *session.Session, topic, tone string) []provider.Message {
	messages := []provider.Message{
		{Role: "system", Content: assistantInstructions},
	}
	if findings := latestResearch(s, topic); findings != "" {
		messages = append(messages, provider.Message{
			Role:    "user",
			Content: "Research findings to base the post on:\n" + findings,
		})
	}
	messages = append(messages, provider.Message{
		Role:    "user",
		Content: fmt.Sprintf("Write a %s blog post about: %s", tone, topic),
	})
	return messages
}

// conversationMessages replays the session log for a free-form chat turn.
func conversationMessages(s *session.Session) []provider.Message {
	messages := []provider.Message{
		{Role: "system", Content: assistantInstructions},
	}
	for _, turn := range s.Turns {
		messages = append(messages, provider.Message{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	return messages
}

// latestResearch returns the newest research turn preceding a generate, so
// a research -> generate sequence grounds the post.
func latestResearch(s *session.Session, topic string) string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		turn := s.Turns[i]
		if turn.Role != session.RoleAssistant {
			continue
		}
		if i > 0 && strings.HasPrefix(s.Turns[i-1].Content, "Research the topic:") {
			return turn.Content
		}
	}
	return ""
}

// FormatTopics renders topics as the numbered list shown to the user.
func FormatTopics(topics []session.Topic) string {
	var sb strings.Builder
	for i, t := range topics {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, t.Title)
	}
	return strings.TrimRight(sb.String(), "\n")
}

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\n(.*?)```")

// ExtractCode pulls fenced code blocks out of generated content. Content
// without fences is treated as code wholesale, which is what the
// execute-a-snippet flow produces.
func ExtractCode(content string) string {
	matches := fencedBlock.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return content
	}
	var blocks []string
	for _, m := range matches {
		blocks = append(blocks, strings.TrimRight(m[1], "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// ExtractTopics parses numbered "1. Title" lines out of generated text, the
// way topic listings come back from the model.
func ExtractTopics(content string) []string {
	var topics []string
	numbered := regexp.MustCompile(`^\d+\.?\s+(.+)$`)
	cleanup := regexp.MustCompile("[*#`]")
	for _, line := range strings.Split(content, "\n") {
		m := numbered.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		topic := strings.TrimSpace(cleanup.ReplaceAllString(m[1], ""))
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}

func summarize(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}
