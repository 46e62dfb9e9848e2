package interpreter

import (
	"context"
	"errors"

	"github.com/aretw0/commitquest/pkg/domain"
)

func (e *Engine) base(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, SessionID: sessionID}
}

func (e *Engine) emitSubmit(ctx context.Context, state *domain.State, cmd domain.Command) {
	if e.hooks.OnSubmit == nil {
		return
	}
	e.hooks.OnSubmit(ctx, &domain.SubmitEvent{
		EventBase: e.base(domain.EventSubmit, state.SessionID),
		Command:   commandName(cmd),
		Step:      state.Step(),
	})
}

func (e *Engine) emitTransition(ctx context.Context, from, to *domain.State) {
	if e.hooks.OnTransition == nil || from.Step() == to.Step() {
		return
	}
	e.hooks.OnTransition(ctx, &domain.TransitionEvent{
		EventBase: e.base(domain.EventTransition, to.SessionID),
		From:      from.Step(),
		To:        to.Step(),
	})
}

func (e *Engine) emitCall(ctx context.Context, hook func(context.Context, *domain.CallEvent), ev *domain.CallEvent) {
	if hook != nil {
		hook(ctx, ev)
	}
}

// commandName is the low-cardinality label used by hooks and metrics.
func commandName(cmd domain.Command) string {
	switch cmd.(type) {
	case domain.Generate:
		return domain.KeywordGenerate
	case domain.Setup:
		return domain.KeywordSetup
	case domain.Help:
		return domain.KeywordHelp
	case domain.Clear:
		return domain.KeywordClear
	case domain.WizardAnswer:
		return "answer"
	default:
		return "unknown"
	}
}

// asTransport keeps typed backend errors and wraps anything else.
func asTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *domain.TransportError
	var ce *domain.ConfigurationError
	if errors.As(err, &te) || errors.As(err, &ce) {
		return err
	}
	return &domain.TransportError{Op: op, Cause: err}
}
