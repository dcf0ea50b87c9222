package cli

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/scribe/internal/config"
	"github.com/felixgeelhaar/scribe/internal/credential"
	"github.com/felixgeelhaar/scribe/internal/guard"
	"github.com/felixgeelhaar/scribe/internal/observe"
	"github.com/felixgeelhaar/scribe/internal/provider"
	"github.com/felixgeelhaar/scribe/internal/publish"
	"github.com/felixgeelhaar/scribe/internal/research"
	"github.com/felixgeelhaar/scribe/internal/sandbox"
	"github.com/felixgeelhaar/scribe/internal/store"
	"github.com/felixgeelhaar/scribe/internal/workflow"
)

// app bundles everything one command invocation needs. Built fresh per
// command, torn down when the command returns.
type app struct {
	cfg     *config.Config
	obs     *observe.Observer
	store   *store.FileStore
	archive *store.Archive
	runner  *workflow.Runner
}

// newApp loads configuration, validates the credentials the command's
// domains need, and wires the runner. Configuration problems are fatal
// before any workflow action runs.
func newApp(domains ...config.Domain) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	archive, err := store.NewArchive(cfg.ArchivePath)
	if err != nil {
		return nil, err
	}
	overlayArchive(cfg, archive)

	if err := cfg.ValidateFor(domains...); err != nil {
		archive.Close()
		return nil, err
	}

	var obs *observe.Observer
	if ciMode {
		obs = observe.NewJSON(os.Stderr, verbose)
	} else {
		obs = observe.New(os.Stderr, verbose)
	}

	policy := guard.DefaultPolicy
	if cfg.PolicyPath != "" {
		policy, err = guard.LoadPolicy(cfg.PolicyPath)
		if err != nil {
			archive.Close()
			return nil, err
		}
	}

	p, err := buildProvider(cfg)
	if err != nil {
		archive.Close()
		return nil, err
	}

	deps := workflow.Deps{
		Config:     cfg,
		Observer:   obs,
		Store:      store.NewFileStore(cfg.StatePath),
		Guard:      guard.New(policy),
		Provider:   p,
		Finder:     research.NewSerpClient(cfg.SerpAPIKey),
		Researcher: research.NewTavilyClient(cfg.TavilyAPIKey),
		Archive:    archive,
	}
	if cfg.Judge0APIKey != "" {
		deps.Executor, err = sandbox.NewClient(cfg.Judge0APIKey, cfg.Judge0BaseURL)
		if err != nil {
			archive.Close()
			return nil, err
		}
	}
	if cfg.GhostAPIKey != "" && cfg.GhostAPIURL != "" {
		deps.Publisher, err = publish.NewClient(cfg.GhostAPIKey, cfg.GhostAPIURL)
		if err != nil {
			archive.Close()
			return nil, err
		}
	}

	return &app{
		cfg:     cfg,
		obs:     obs,
		store:   deps.Store,
		archive: archive,
		runner:  workflow.New(deps),
	}, nil
}

func (a *app) close() {
	if a.archive != nil {
		a.archive.Close()
	}
}

// archiveKeys maps stored configuration keys onto Config fields. Stored
// values only fill fields the environment and config file left blank.
func overlayArchive(cfg *config.Config, archive *store.Archive) {
	creds, _ := credential.NewManager()
	fill := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		val, err := archive.GetConfig(key)
		if err != nil || val == "" {
			return
		}
		if creds != nil && credential.IsEncrypted(val) {
			if plain, err := creds.Decrypt(val); err == nil {
				val = plain
			}
		}
		*dst = val
	}

	fill(&cfg.OpenAIAPIKey, "openai.api_key")
	fill(&cfg.GeminiAPIKey, "gemini.api_key")
	fill(&cfg.Judge0APIKey, "judge0.api_key")
	fill(&cfg.GhostAPIKey, "ghost.api_key")
	fill(&cfg.GhostAPIURL, "ghost.api_url")
	fill(&cfg.SerpAPIKey, "serpapi.api_key")
	fill(&cfg.TavilyAPIKey, "tavily.api_key")
}

func buildProvider(cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return provider.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model)
	case "azure":
		return provider.NewAzureProvider(cfg.OpenAIAPIKey, cfg.AzureEndpoint, cfg.AzureDeployment)
	case "gemini":
		return provider.NewGeminiProvider(cfg.GeminiAPIKey, cfg.Model)
	case "ollama":
		return provider.NewOllamaProvider(cfg.OllamaHost, cfg.Model)
	case "stub":
		return provider.NewStubProvider(), nil
	default:
		return nil, &config.Error{Field: "SCRIBE_PROVIDER", Reason: "unknown provider " + cfg.Provider}
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
