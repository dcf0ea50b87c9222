package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/scribe/internal/session"
)

// Args carries the free-form argument text of a command plus the few typed
// options the CLI exposes.
type Args struct {
	Text string // topic, title, or free-form input
	Tone string // generate only; empty means the configured default
}

// Execution is the per-run context handed to an action handler. Session is
// a working copy: the runner persists it only when the handler succeeds.
type Execution struct {
	Runner  *Runner
	Session *session.Session
	Args    Args
}

// Handler runs one action against the working session and returns a
// human-readable summary.
type Handler func(ctx context.Context, exec *Execution) (string, error)

// Action is one named, registered unit of workflow behavior.
type Action struct {
	Name        string
	Description string
	// Precondition inspects the loaded session before the working copy is
	// made. A non-nil return fails the run with ErrPreconditionNotMet and
	// leaves the session untouched.
	Precondition func(s *session.Session) error
	Run          Handler
}

// Registry is the fixed lookup table of actions, populated at process
// start.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds an action. Registering the same name twice is a programming
// error.
func (r *Registry) Register(a Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[a.Name]; exists {
		return fmt.Errorf("action %q already registered", a.Name)
	}
	r.actions[a.Name] = a
	return nil
}

// Resolve looks up an action by name.
func (r *Registry) Resolve(name string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actions[name]
	if !ok {
		return Action{}, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	return a, nil
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
