package interpreter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/commitquest/internal/logging"
	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/ports"
)

// DefaultTimeout bounds every backend call unless overridden.
const DefaultTimeout = 5 * time.Second

const (
	opGenerate = "generate"
	opSetup    = "setup"
)

// Engine is the command interpreter and wizard step-machine.
// It holds no session data: every call takes a state and returns the next one.
type Engine struct {
	backend        ports.Backend
	logger         *slog.Logger
	hooks          domain.LifecycleHooks
	timeout        time.Duration
	welcomeOnClear bool
	projectDir     string
	autoCommit     bool
	now            func() time.Time
}

// EngineOption configures the interpreter.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTimeout bounds each backend call. Zero or negative disables the bound.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithWelcomeOnClear controls whether clear restores the welcome entry.
func WithWelcomeOnClear(enabled bool) EngineOption {
	return func(e *Engine) {
		e.welcomeOnClear = enabled
	}
}

// WithProjectDir sets the directory used when the state carries none.
func WithProjectDir(dir string) EngineOption {
	return func(e *Engine) {
		e.projectDir = dir
	}
}

// WithAutoCommit asks the backend to commit the generated message.
func WithAutoCommit(enabled bool) EngineOption {
	return func(e *Engine) {
		e.autoCommit = enabled
	}
}

// NewEngine creates an interpreter bound to a backend.
// A nil backend is allowed: every call then fails with a ConfigurationError.
func NewEngine(backend ports.Backend, opts ...EngineOption) *Engine {
	e := &Engine{
		backend:        backend,
		logger:         logging.NewNop(),
		timeout:        DefaultTimeout,
		welcomeOnClear: true,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start returns the canonical state of a fresh session.
func (e *Engine) Start(sessionID string) *domain.State {
	state := e.canonical(sessionID)
	state.ProjectDir = e.projectDir
	return state
}

func (e *Engine) canonical(sessionID string) *domain.State {
	if e.welcomeOnClear {
		return domain.NewState(sessionID, domain.SystemEntry(WelcomeText))
	}
	return domain.NewState(sessionID)
}

// Submit interprets one line of user input against state.
//
// Interpretation problems never surface as errors: they become transcript
// entries. The only error returned is the context's, when ctx ends while a
// backend call is outstanding; state is then returned untouched.
func (e *Engine) Submit(ctx context.Context, state *domain.State, raw string) (*domain.State, error) {
	if state == nil {
		state = e.Start("")
	}
	input := strings.TrimSpace(raw)
	if input == "" {
		return state, nil
	}

	cmd := domain.ParseCommand(input, state.Stage)
	e.emitSubmit(ctx, state, cmd)

	if _, ok := cmd.(domain.Clear); ok {
		next := e.canonical(state.SessionID)
		next.ProjectDir = state.ProjectDir
		e.emitTransition(ctx, state, next)
		return next, nil
	}

	next := state.Append(domain.UserEntry(input))

	switch c := cmd.(type) {
	case domain.Help:
		return next.Append(domain.SystemEntry(HelpText)), nil
	case domain.Unknown:
		e.logger.Debug("unknown command", "session_id", state.SessionID, "input", c.Raw)
		return next.Append(domain.ErrorEntry(unknownCommand(c.Raw))), nil
	case domain.Generate:
		return e.moveTo(ctx, next, domain.AwaitingClass{}, domain.SystemEntry(classPrompt())), nil
	case domain.Setup:
		return e.setup(ctx, state, next, c)
	case domain.WizardAnswer:
		return e.answer(ctx, state, next, c.Raw)
	}
	return next, nil
}

func (e *Engine) answer(ctx context.Context, original, next *domain.State, raw string) (*domain.State, error) {
	switch stage := next.Stage.(type) {
	case domain.AwaitingClass:
		ct, ok := domain.ParseCommitType(raw)
		if !ok {
			err := &domain.InputError{Step: domain.StepAwaitingClass, Input: raw, Reason: invalidClass(raw)}
			e.logger.Debug("input rejected", "session_id", next.SessionID, "step", err.Step, "err", err)
			return next.Append(domain.ErrorEntry(err.Error())), nil
		}
		return e.moveTo(ctx, next, domain.AwaitingMessage{CommitType: ct}, domain.SystemEntry(messagePrompt(ct))), nil
	case domain.AwaitingMessage:
		return e.generate(ctx, original, next, stage.CommitType, raw)
	}
	return next.Append(domain.ErrorEntry(unknownCommand(raw))), nil
}

func (e *Engine) generate(ctx context.Context, original, next *domain.State, ct domain.CommitType, message string) (*domain.State, error) {
	req := domain.GenerationRequest{
		CommitType:    ct,
		CustomMessage: message,
		ProjectDir:    e.dirFor(next),
		AutoCommit:    e.autoCommit,
	}
	res, err := call(ctx, e, next.SessionID, opGenerate, func(ctx context.Context, b ports.Backend) (domain.GenerationResult, error) {
		return b.GenerateCommitMessage(ctx, req)
	})
	if ctx.Err() != nil {
		return original, ctx.Err()
	}
	if err != nil {
		return e.moveTo(ctx, next, domain.Idle{}, domain.ErrorEntry(FormatFailure(err))), nil
	}
	return e.moveTo(ctx, next, domain.Idle{}, domain.SystemEntry(FormatResult(res))), nil
}

func (e *Engine) setup(ctx context.Context, original, next *domain.State, cmd domain.Setup) (*domain.State, error) {
	dir := cmd.Dir
	if dir == "" {
		dir = e.dirFor(next)
	}
	req := domain.SetupRequest{ProjectDir: dir, CreateConfig: "true"}
	res, err := call(ctx, e, next.SessionID, opSetup, func(ctx context.Context, b ports.Backend) (domain.SetupResult, error) {
		return b.Setup(ctx, req)
	})
	if ctx.Err() != nil {
		return original, ctx.Err()
	}
	if err != nil {
		return e.moveTo(ctx, next, domain.Idle{}, domain.ErrorEntry(FormatFailure(err))), nil
	}
	after := e.moveTo(ctx, next, domain.AwaitingClass{}, domain.SystemEntry(FormatSetup(res)))
	after.ProjectDir = dir
	return after, nil
}

func (e *Engine) dirFor(state *domain.State) string {
	if state.ProjectDir != "" {
		return state.ProjectDir
	}
	return e.projectDir
}

// moveTo returns a copy of state at stage with entries appended.
func (e *Engine) moveTo(ctx context.Context, state *domain.State, stage domain.Stage, entries ...domain.Entry) *domain.State {
	next := state.Append(entries...)
	next.Stage = stage
	e.emitTransition(ctx, state, next)
	return next
}

// call runs fn against the backend under the engine timeout.
// The backend is not trusted to honour ctx: a late reply is dropped.
func call[T any](ctx context.Context, e *Engine, sessionID, op string, fn func(context.Context, ports.Backend) (T, error)) (T, error) {
	var zero T
	if e.backend == nil {
		return zero, domain.NewConfigurationError("backend", "no backend configured")
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := e.now()
	e.emitCall(ctx, e.hooks.OnCallStart, &domain.CallEvent{EventBase: e.base(domain.EventCallStart, sessionID), Op: op})

	type reply struct {
		val T
		err error
	}
	done := make(chan reply, 1)
	go func() {
		v, err := fn(callCtx, e.backend)
		done <- reply{v, err}
	}()

	var (
		val T
		err error
	)
	select {
	case r := <-done:
		val, err = r.val, r.err
		if err != nil && callCtx.Err() != nil && ctx.Err() == nil {
			err = e.timeoutError(op, callCtx.Err())
		}
	case <-callCtx.Done():
		err = callCtx.Err()
		if ctx.Err() == nil {
			err = e.timeoutError(op, err)
		}
	}
	err = asTransport(op, err)

	e.emitCall(ctx, e.hooks.OnCallReturn, &domain.CallEvent{
		EventBase: e.base(domain.EventCallReturn, sessionID),
		Op:        op,
		Duration:  e.now().Sub(start),
		IsError:   err != nil,
		Err:       err,
	})
	if err != nil {
		e.logger.Warn("backend call failed", "session_id", sessionID, "op", op, "err", err)
		return zero, err
	}
	return val, nil
}

func (e *Engine) timeoutError(op string, cause error) error {
	return &domain.TransportError{
		Op:     op,
		Cause:  cause,
		Detail: "no response within " + e.timeout.String(),
	}
}
