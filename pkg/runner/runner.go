package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/commitquest/internal/logging"
	"github.com/aretw0/commitquest/pkg/adapters/memory"
	"github.com/aretw0/commitquest/pkg/ports"
	"github.com/aretw0/commitquest/pkg/session"
)

// Farewell is printed when the user leaves with exit or quit.
const Farewell = "Farewell, brave coder! Until next time."

// CancelledNotice is printed when an interrupt aborts a call in flight.
const CancelledNotice = "Request cancelled. Press Ctrl+C again to leave."

// Runner handles the read, submit, print loop of one session.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on stdin/stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Store is the persistence adapter for resumable sessions.
	// If nil, the session is kept in memory.
	Store ports.StateStore

	// SessionID names the session. A random one is generated when empty.
	SessionID string

	// Renderer styles entries when the default text handler is used.
	Renderer ContentRenderer

	engine session.Engine
}

// NewRunner creates a Runner driving engine.
func NewRunner(engine session.Engine, opts ...Option) *Runner {
	r := &Runner{engine: engine}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.Store == nil {
		r.Store = memory.NewStore()
	}
	if r.SessionID == "" {
		r.SessionID = uuid.NewString()
	}
	return r
}

// Run executes the loop until the user leaves, input ends, or ctx is done.
// An interrupt while a backend call is in flight cancels that call only; an
// interrupt at the prompt ends the loop. Leaving is not an error.
func (r *Runner) Run(ctx context.Context) error {
	handler := r.resolveHandler()
	manager := session.NewManager(r.Store, r.engine, session.WithLogger(r.Logger))

	state, err := manager.LoadOrStart(ctx, r.SessionID)
	if err != nil {
		return fmt.Errorf("failed to start session %s: %w", r.SessionID, err)
	}
	r.Logger.Debug("session ready", "session_id", r.SessionID, "entries", len(state.Transcript))

	if err := handler.Output(ctx, state.Transcript, true); err != nil {
		return fmt.Errorf("output error: %w", err)
	}

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	for {
		line, err := handler.Input(signals.Context())
		if err != nil {
			signals.CheckRace()
			if errors.Is(err, io.EOF) || signals.Context().Err() != nil {
				r.Logger.Debug("input closed", "session_id", r.SessionID, "err", err)
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		if IsExit(line) {
			return handler.SystemOutput(ctx, Farewell)
		}

		_, diff, err := manager.Submit(signals.Context(), r.SessionID, line)
		if err != nil {
			if signals.Interrupted() {
				r.Logger.Debug("call interrupted", "session_id", r.SessionID)
				signals.Reset()
				if err := handler.SystemOutput(ctx, CancelledNotice); err != nil {
					return err
				}
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("submit error: %w", err)
		}
		if diff == nil {
			continue
		}

		if err := handler.Output(ctx, diff.Appended, diff.Reset); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

// IsExit reports whether line asks to leave the session.
func IsExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true
	}
	return false
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	// Memoize so repeated Run calls share one input pump.
	r.Handler = NewTextHandler(nil, nil, WithTextHandlerRenderer(r.Renderer))
	return r.Handler
}
