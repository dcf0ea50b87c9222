// Package session defines the persisted workflow state: the conversation
// log, discovered topics, and the single current artifact.
package session

import "time"

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in the conversation log.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TopicSource identifies where a topic came from.
type TopicSource string

const (
	SourceSearchEngine  TopicSource = "search-engine"
	SourceResearchAgent TopicSource = "research-agent"
)

// Topic is a discovered subject to write about. Immutable once stored;
// only removable via an explicit clear.
type Topic struct {
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Source       TopicSource `json:"source"`
	DiscoveredAt time.Time   `json:"discovered_at"`
}

// ArtifactStatus tracks the artifact through the workflow:
// draft -> validated -> executed -> published.
type ArtifactStatus string

const (
	StatusDraft     ArtifactStatus = "draft"
	StatusValidated ArtifactStatus = "validated"
	StatusExecuted  ArtifactStatus = "executed"
	StatusPublished ArtifactStatus = "published"
)

// Format tags the artifact's content representation.
type Format string

const (
	FormatPlain   Format = "plain"
	FormatLexical Format = "lexical"
)

// Outcome is the terminal result of a sandbox execution.
type Outcome string

const (
	OutcomeSucceeded      Outcome = "succeeded"
	OutcomeFailed         Outcome = "failed"
	OutcomeTimedOut       Outcome = "timed-out"
	OutcomeMemoryExceeded Outcome = "memory-exceeded"
)

// ExecutionResult records what the sandbox reported for the artifact's code.
type ExecutionResult struct {
	Outcome  Outcome `json:"outcome"`
	Stdout   string  `json:"stdout,omitempty"`
	Stderr   string  `json:"stderr,omitempty"`
	Time     string  `json:"time,omitempty"`   // seconds, as reported
	MemoryKB int     `json:"memory,omitempty"` // kilobytes, as reported
}

// PublishResult records the remote draft created for the artifact.
type PublishResult struct {
	PostID string `json:"post_id"`
	URL    string `json:"url,omitempty"`
}

// Artifact is the single current generated-content item. A new generate
// replaces it wholesale; no history is kept beyond the conversation log.
type Artifact struct {
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Format    Format           `json:"format"`
	Status    ArtifactStatus   `json:"status"`
	Tone      string           `json:"tone,omitempty"`
	Execution *ExecutionResult `json:"execution,omitempty"`
	Publish   *PublishResult   `json:"publish,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Session is the unit of persisted state for one user's ongoing workflow.
type Session struct {
	Turns     []Turn    `json:"turns"`
	Topics    []Topic   `json:"topics"`
	Artifact  *Artifact `json:"artifact,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty default session.
func New() *Session {
	return &Session{
		Turns:     []Turn{},
		Topics:    []Topic{},
		UpdatedAt: time.Now().UTC(),
	}
}

// Append adds a conversation turn.
func (s *Session) Append(role Role, content string) {
	s.Turns = append(s.Turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	s.UpdatedAt = time.Now().UTC()
}

// SetTopics replaces the stored topic list, as a fresh discovery does.
func (s *Session) SetTopics(topics []Topic) {
	s.Topics = topics
	s.UpdatedAt = time.Now().UTC()
}

// ReplaceArtifact installs a new current artifact, discarding the prior one.
func (s *Session) ReplaceArtifact(a *Artifact) {
	s.Artifact = a
	s.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy. The runner mutates a clone and persists it only
// on success, so a failed or cancelled action never leaks partial state.
func (s *Session) Clone() *Session {
	c := &Session{
		Turns:     make([]Turn, len(s.Turns)),
		Topics:    make([]Topic, len(s.Topics)),
		UpdatedAt: s.UpdatedAt,
	}
	copy(c.Turns, s.Turns)
	copy(c.Topics, s.Topics)
	if s.Artifact != nil {
		a := *s.Artifact
		if s.Artifact.Execution != nil {
			e := *s.Artifact.Execution
			a.Execution = &e
		}
		if s.Artifact.Publish != nil {
			p := *s.Artifact.Publish
			a.Publish = &p
		}
		c.Artifact = &a
	}
	return c
}
