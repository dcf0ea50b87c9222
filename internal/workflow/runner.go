// Package workflow sequences user commands into actions: resolve the action,
// check its session preconditions, call the external capability adapters,
// normalize the result into the session, and persist, all or nothing.
package workflow

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/scribe/internal/config"
	"github.com/felixgeelhaar/scribe/internal/guard"
	"github.com/felixgeelhaar/scribe/internal/observe"
	"github.com/felixgeelhaar/scribe/internal/provider"
	"github.com/felixgeelhaar/scribe/internal/publish"
	"github.com/felixgeelhaar/scribe/internal/sandbox"
	"github.com/felixgeelhaar/scribe/internal/store"
	"github.com/felixgeelhaar/scribe/internal/ui"
)

// Executor is the sandbox boundary: submit code, poll for a result. The
// execute action owns the poll loop and its budget.
type Executor interface {
	Submit(ctx context.Context, sub sandbox.Submission) (string, error)
	Poll(ctx context.Context, token string) (*sandbox.Result, error)
}

// Publisher is the blog platform boundary.
type Publisher interface {
	CreateDraft(ctx context.Context, title, lexical string) (*publish.Draft, error)
}

// TopicFinder discovers trending topics.
type TopicFinder interface {
	TrendingTopics(ctx context.Context, query string) ([]string, error)
}

// Researcher gathers findings for one topic.
type Researcher interface {
	Research(ctx context.Context, topic string) (string, error)
}

// Archiver records publish outcomes outside the session. Optional.
type Archiver interface {
	RecordPost(p *store.PublishedPost) error
}

// Deps wires the runner to its collaborators.
type Deps struct {
	Config     *config.Config
	Observer   *observe.Observer
	Store      *store.FileStore
	Guard      *guard.Guard
	Provider   provider.Provider
	Executor   Executor
	Publisher  Publisher
	Finder     TopicFinder
	Researcher Researcher
	Archive    Archiver
	Sink       ui.Sink
}

// Runner executes one command at a time against one session record.
type Runner struct {
	cfg        *config.Config
	obs        *observe.Observer
	store      *store.FileStore
	guard      *guard.Guard
	provider   provider.Provider
	executor   Executor
	publisher  Publisher
	finder     TopicFinder
	researcher Researcher
	archive    Archiver
	sink       ui.Sink
	registry   *Registry
}

func New(d Deps) *Runner {
	r := &Runner{
		cfg:        d.Config,
		obs:        d.Observer,
		store:      d.Store,
		guard:      d.Guard,
		provider:   d.Provider,
		executor:   d.Executor,
		publisher:  d.Publisher,
		finder:     d.Finder,
		researcher: d.Researcher,
		archive:    d.Archive,
		sink:       d.Sink,
		registry:   NewRegistry(),
	}
	if r.sink == nil {
		r.sink = ui.SilentSink{}
	}
	r.registerBuiltins()
	return r
}

// SetSink redirects streamed output, e.g. into the interactive TUI.
func (r *Runner) SetSink(s ui.Sink) {
	if s != nil {
		r.sink = s
	}
}

// Registry exposes the action table, mainly for listing commands.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run executes one named action. On any error (precondition failure,
// adapter failure, cancellation) the persisted session is left exactly as
// it was before the call: handlers mutate a deep copy, and the copy is
// saved only after the handler returns cleanly.
func (r *Runner) Run(ctx context.Context, name string, args Args) (string, error) {
	ctx, span := r.obs.StartSpan(ctx, "action."+name)
	defer span.End()

	action, err := r.registry.Resolve(name)
	if err != nil {
		return "", err
	}

	current, err := r.store.Load()
	if err != nil {
		return "", err
	}

	if action.Precondition != nil {
		if perr := action.Precondition(current); perr != nil {
			return "", fmt.Errorf("%w: %v", ErrPreconditionNotMet, perr)
		}
	}

	work := current.Clone()
	summary, err := action.Run(ctx, &Execution{Runner: r, Session: work, Args: args})
	if err != nil {
		r.obs.Log().Warn().Str("action", name).Err(err).Msg("action failed, session unchanged")
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := r.store.Save(work); err != nil {
		return "", err
	}

	r.obs.Log().Info().Str("action", name).Msg("action completed")
	return summary, nil
}

// stream forwards provider output chunk by chunk to the sink, in production
// order, stopping promptly on cancellation.
func (r *Runner) stream(ctx context.Context, messages []provider.Message) (*provider.Response, error) {
	resp, err := r.provider.Stream(ctx, messages, func(chunk string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.sink.Chunk(chunk)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrCompletion, err)
	}
	return resp, nil
}
