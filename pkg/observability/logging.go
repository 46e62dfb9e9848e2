package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/commitquest/pkg/domain"
)

// LogHooks returns hooks that write each lifecycle event at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			logger.DebugContext(ctx, "submit", "session_id", e.SessionID, "command", e.Command, "step", e.Step.String())
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.DebugContext(ctx, "transition", "session_id", e.SessionID, "from", e.From.String(), "to", e.To.String())
		},
		OnCallStart: func(ctx context.Context, e *domain.CallEvent) {
			logger.DebugContext(ctx, "backend call", "session_id", e.SessionID, "op", e.Op)
		},
		OnCallReturn: func(ctx context.Context, e *domain.CallEvent) {
			if e.IsError {
				logger.DebugContext(ctx, "backend return (error)", "session_id", e.SessionID, "op", e.Op, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "backend return", "session_id", e.SessionID, "op", e.Op, "duration", e.Duration)
		},
	}
}
