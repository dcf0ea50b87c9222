// Package config builds the immutable runtime configuration: environment
// variables layered over an optional ~/.scribe/config.yaml file, validated
// before any command runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values
const (
	DefaultProvider        = "openai"
	DefaultOpenAIModel     = "gpt-4o"
	DefaultAzureAPIVersion = "2024-08-01-preview"
	DefaultTone            = "technical"
	DefaultLanguageID      = 71 // Python 3 on Judge0
	DefaultJudge0BaseURL   = "https://judge0-ce.p.rapidapi.com"
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultPollBudget      = 60 * time.Second
)

// Config holds all settings for a scribe invocation. It is constructed once
// at startup and never mutated afterwards.
type Config struct {
	// Completion provider
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	AzureEndpoint   string `yaml:"azure_endpoint"`
	AzureDeployment string `yaml:"azure_deployment"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	OllamaHost      string `yaml:"ollama_host"`

	// Sandbox execution
	Judge0APIKey  string        `yaml:"judge0_api_key"`
	Judge0BaseURL string        `yaml:"judge0_base_url"`
	LanguageID    int           `yaml:"language_id"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	PollBudget    time.Duration `yaml:"poll_budget"`

	// Publishing
	GhostAPIKey string `yaml:"ghost_api_key"`
	GhostAPIURL string `yaml:"ghost_api_url"`

	// Discovery and research
	SerpAPIKey   string `yaml:"serpapi_key"`
	TavilyAPIKey string `yaml:"tavily_api_key"`

	// Workflow policy
	Tone                   string `yaml:"tone"`
	PublishRequireExecuted bool   `yaml:"publish_require_executed"`
	PolicyPath             string `yaml:"policy_path"`

	// State layout
	StatePath   string `yaml:"state_path"`
	ArchivePath string `yaml:"archive_path"`
}

// Error is a fatal configuration problem detected at startup, before any
// workflow command runs.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Load builds the configuration from the optional config file overlaid with
// environment variables. Environment always wins.
func Load() (*Config, error) {
	home, _ := os.UserHomeDir()
	scribeDir := filepath.Join(home, ".scribe")

	cfg := &Config{
		Provider:      DefaultProvider,
		Judge0BaseURL: DefaultJudge0BaseURL,
		LanguageID:    DefaultLanguageID,
		PollInterval:  DefaultPollInterval,
		PollBudget:    DefaultPollBudget,
		Tone:          DefaultTone,
		StatePath:     filepath.Join(scribeDir, "session.json"),
		ArchivePath:   filepath.Join(scribeDir, "scribe.db"),
	}

	if err := cfg.overlayFile(filepath.Join(scribeDir, "config.yaml")); err != nil {
		return nil, err
	}
	cfg.overlayEnv()
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &Error{Field: "config.yaml", Reason: err.Error()}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &Error{Field: "config.yaml", Reason: "unparseable: " + err.Error()}
	}
	return nil
}

func (c *Config) overlayEnv() {
	setEnv(&c.Provider, "SCRIBE_PROVIDER")
	setEnv(&c.Model, "SCRIBE_MODEL")
	setEnv(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setEnv(&c.OpenAIBaseURL, "OPENAI_BASE_URL")
	setEnv(&c.AzureEndpoint, "AZURE_OPENAI_ENDPOINT")
	setEnv(&c.AzureDeployment, "AZURE_OPENAI_DEPLOYMENT")
	if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	setEnv(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setEnv(&c.OllamaHost, "OLLAMA_HOST")
	setEnv(&c.Judge0APIKey, "JUDGE0_API_KEY")
	setEnv(&c.Judge0BaseURL, "JUDGE0_BASE_URL")
	setEnvInt(&c.LanguageID, "JUDGE0_LANGUAGE_ID")
	setEnvDuration(&c.PollInterval, "SCRIBE_POLL_INTERVAL")
	setEnvDuration(&c.PollBudget, "SCRIBE_POLL_BUDGET")
	setEnv(&c.GhostAPIKey, "GHOST_API_KEY")
	setEnv(&c.GhostAPIURL, "GHOST_API_URL")
	setEnv(&c.SerpAPIKey, "SERPAPI_KEY")
	setEnv(&c.TavilyAPIKey, "TAVILY_API_KEY")
	setEnv(&c.Tone, "SCRIBE_TONE")
	setEnv(&c.PolicyPath, "SCRIBE_POLICY")
	setEnv(&c.StatePath, "SCRIBE_STATE_PATH")
	setEnv(&c.ArchivePath, "SCRIBE_ARCHIVE_PATH")
	if v := os.Getenv("SCRIBE_PUBLISH_REQUIRE_EXECUTED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.PublishRequireExecuted = b
		}
	}
}

// Domain names a group of settings a command depends on.
type Domain string

const (
	DomainCompletion Domain = "completion"
	DomainSandbox    Domain = "sandbox"
	DomainPublish    Domain = "publish"
)

// ValidateFor checks that the credentials a command domain needs are
// present. A failure here aborts before any workflow command runs.
func (c *Config) ValidateFor(domains ...Domain) error {
	for _, d := range domains {
		switch d {
		case DomainCompletion:
			switch c.Provider {
			case "openai", "azure":
				if c.OpenAIAPIKey == "" {
					return &Error{Field: "OPENAI_API_KEY", Reason: "required for provider " + c.Provider}
				}
				if c.Provider == "azure" && c.AzureEndpoint == "" {
					return &Error{Field: "AZURE_OPENAI_ENDPOINT", Reason: "required for provider azure"}
				}
			case "gemini":
				if c.GeminiAPIKey == "" {
					return &Error{Field: "GEMINI_API_KEY", Reason: "required for provider gemini"}
				}
			case "ollama", "stub":
				// Local providers need no credentials.
			default:
				return &Error{Field: "SCRIBE_PROVIDER", Reason: "unknown provider " + c.Provider}
			}
		case DomainSandbox:
			if c.Judge0APIKey == "" {
				return &Error{Field: "JUDGE0_API_KEY", Reason: "required for code execution"}
			}
		case DomainPublish:
			if c.GhostAPIKey == "" {
				return &Error{Field: "GHOST_API_KEY", Reason: "required for publishing"}
			}
			if c.GhostAPIURL == "" {
				return &Error{Field: "GHOST_API_URL", Reason: "required for publishing"}
			}
		}
	}
	return nil
}

func setEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setEnvInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setEnvDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
