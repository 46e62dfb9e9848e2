package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSubmit     EventType = "submit"
	EventTransition EventType = "transition"
	EventCallStart  EventType = "call_start"
	EventCallReturn EventType = "call_return"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// SubmitEvent is emitted once per non-empty submission.
type SubmitEvent struct {
	EventBase
	Command string `json:"command"`
	Step    Step   `json:"step"`
}

// TransitionEvent is emitted when the wizard step changes.
type TransitionEvent struct {
	EventBase
	From Step `json:"from"`
	To   Step `json:"to"`
}

// CallEvent describes a backend call.
type CallEvent struct {
	EventBase
	Op       string        `json:"op"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for interpreter observability.
type LifecycleHooks struct {
	OnSubmit     func(context.Context, *SubmitEvent)
	OnTransition func(context.Context, *TransitionEvent)
	OnCallStart  func(context.Context, *CallEvent)
	OnCallReturn func(context.Context, *CallEvent)
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSubmit:     chain(h.OnSubmit, other.OnSubmit),
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnCallStart:  chain(h.OnCallStart, other.OnCallStart),
		OnCallReturn: chain(h.OnCallReturn, other.OnCallReturn),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e T) {
		a(ctx, e)
		b(ctx, e)
	}
}
