package commitquest

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/commitquest/internal/interpreter"
	"github.com/aretw0/commitquest/internal/logging"
	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/ports"
)

// DefaultTimeout is the backend call bound used when none is configured.
const DefaultTimeout = interpreter.DefaultTimeout

// Engine is the high-level entry point of the library.
// It wraps the interpreter and is safe for concurrent use across sessions.
type Engine struct {
	interpreter *interpreter.Engine
	backend     ports.Backend
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	timeout     time.Duration
	welcome     bool
	projectDir  string
	autoCommit  bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithBackend sets the commit message generator.
func WithBackend(b ports.Backend) Option {
	return func(e *Engine) {
		e.backend = b
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
// Calling it more than once merges the hooks in order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithTimeout bounds every backend call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithWelcomeOnClear controls whether clear (and Start) seed the welcome entry.
func WithWelcomeOnClear(enabled bool) Option {
	return func(e *Engine) {
		e.welcome = enabled
	}
}

// WithProjectDir sets the project directory forwarded to the backend.
func WithProjectDir(dir string) Option {
	return func(e *Engine) {
		e.projectDir = dir
	}
}

// WithAutoCommit asks the backend to commit the generated message.
func WithAutoCommit(enabled bool) Option {
	return func(e *Engine) {
		e.autoCommit = enabled
	}
}

// New initializes an Engine.
// Without WithBackend every generation fails with a configuration error entry.
func New(opts ...Option) *Engine {
	eng := &Engine{
		timeout: DefaultTimeout,
		welcome: true,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	eng.interpreter = interpreter.NewEngine(eng.backend,
		interpreter.WithLogger(eng.logger),
		interpreter.WithLifecycleHooks(eng.hooks),
		interpreter.WithTimeout(eng.timeout),
		interpreter.WithWelcomeOnClear(eng.welcome),
		interpreter.WithProjectDir(eng.projectDir),
		interpreter.WithAutoCommit(eng.autoCommit),
	)
	return eng
}

// Start creates the initial state of a session.
func (e *Engine) Start(sessionID string) *domain.State {
	return e.interpreter.Start(sessionID)
}

// Submit interprets one line of input and returns the next state.
// The error is non-nil only when ctx ends during a backend call, in which
// case the returned state is the one passed in.
func (e *Engine) Submit(ctx context.Context, state *domain.State, raw string) (*domain.State, error) {
	return e.interpreter.Submit(ctx, state, raw)
}

// Help returns the fixed help text.
func (e *Engine) Help() string {
	return interpreter.HelpText
}

// Welcome returns the welcome text seeded into fresh sessions.
func (e *Engine) Welcome() string {
	return interpreter.WelcomeText
}

// Backend returns the configured backend, or nil.
func (e *Engine) Backend() ports.Backend {
	return e.backend
}
