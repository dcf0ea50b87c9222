package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolateHome points the loader at an empty home directory so a developer's
// real ~/.scribe/config.yaml cannot leak into tests.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"SCRIBE_PROVIDER", "SCRIBE_MODEL", "SCRIBE_TONE", "SCRIBE_POLICY",
		"OPENAI_API_KEY", "AZURE_OPENAI_API_KEY", "GEMINI_API_KEY",
		"JUDGE0_API_KEY", "GHOST_API_KEY", "GHOST_API_URL",
	} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoad_Defaults(t *testing.T) {
	isolateHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != DefaultProvider {
		t.Errorf("provider: %q", cfg.Provider)
	}
	if cfg.LanguageID != 71 {
		t.Errorf("language id: %d", cfg.LanguageID)
	}
	if cfg.PollInterval != 500*time.Millisecond || cfg.PollBudget != 60*time.Second {
		t.Errorf("poll settings: %v / %v", cfg.PollInterval, cfg.PollBudget)
	}
	if filepath.Base(cfg.StatePath) != "session.json" {
		t.Errorf("state path: %q", cfg.StatePath)
	}
}

func TestLoad_FileOverlay(t *testing.T) {
	home := isolateHome(t)

	dir := filepath.Join(home, ".scribe")
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	content := "provider: ollama\ntone: casual\nollama_host: http://box:11434\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "ollama" || cfg.Tone != "casual" || cfg.OllamaHost != "http://box:11434" {
		t.Errorf("file overlay not applied: %+v", cfg)
	}
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	home := isolateHome(t)

	dir := filepath.Join(home, ".scribe")
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("provider: ollama\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCRIBE_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "gemini" {
		t.Errorf("env should win: %q", cfg.Provider)
	}
	if cfg.GeminiAPIKey != "g-key" {
		t.Errorf("env key not applied: %q", cfg.GeminiAPIKey)
	}
}

func TestLoad_UnparseableFile(t *testing.T) {
	home := isolateHome(t)

	dir := filepath.Join(home, ".scribe")
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(":\n\t- bad"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load()
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *config.Error, got %v", err)
	}
}

func TestValidateFor(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		domains []Domain
		field   string // expected failing field, "" means valid
	}{
		{
			name:    "openai without key",
			mutate:  func(c *Config) { c.Provider = "openai" },
			domains: []Domain{DomainCompletion},
			field:   "OPENAI_API_KEY",
		},
		{
			name:    "openai with key",
			mutate:  func(c *Config) { c.Provider = "openai"; c.OpenAIAPIKey = "sk-x" },
			domains: []Domain{DomainCompletion},
		},
		{
			name:    "azure needs endpoint",
			mutate:  func(c *Config) { c.Provider = "azure"; c.OpenAIAPIKey = "k" },
			domains: []Domain{DomainCompletion},
			field:   "AZURE_OPENAI_ENDPOINT",
		},
		{
			name:    "ollama needs nothing",
			mutate:  func(c *Config) { c.Provider = "ollama" },
			domains: []Domain{DomainCompletion},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "parrot" },
			domains: []Domain{DomainCompletion},
			field:   "SCRIBE_PROVIDER",
		},
		{
			name:    "sandbox needs judge0 key",
			mutate:  func(c *Config) {},
			domains: []Domain{DomainSandbox},
			field:   "JUDGE0_API_KEY",
		},
		{
			name:    "publish needs ghost key and url",
			mutate:  func(c *Config) { c.GhostAPIKey = "id:abcd" },
			domains: []Domain{DomainPublish},
			field:   "GHOST_API_URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: DefaultProvider}
			tt.mutate(cfg)

			err := cfg.ValidateFor(tt.domains...)
			if tt.field == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *config.Error, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}
