package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventTransitionStart EventType = "transition_start"
	EventTransitionEnd   EventType = "transition_end"
	EventExitComplete    EventType = "exit_complete"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	PresenceKey string    `json:"presence_key"`
}

// Base returns the common fields.
func (b *EventBase) Base() *EventBase { return b }

// LifecycleEvent is implemented by every event published by a coordinator.
type LifecycleEvent interface {
	Base() *EventBase
}

// TransitionEvent represents the start or the end of a node transition.
type TransitionEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	Phase    Phase    `json:"phase"`
	Index    int      `json:"index"`
	Disposal Disposal `json:"disposal,omitempty"`
	Err      string   `json:"err,omitempty"`
}

// CompletionEvent marks the end of a coordinator's full exit cascade.
type CompletionEvent struct {
	EventBase
	Nodes int `json:"nodes"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTransitionStart func(context.Context, *TransitionEvent)
	OnTransitionEnd   func(context.Context, *TransitionEvent)
	OnExitComplete    func(context.Context, *CompletionEvent)
}

// ChainHooks returns hooks that call every non-nil callback of each argument in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransitionStart: func(ctx context.Context, e *TransitionEvent) {
			for _, h := range hooks {
				if h.OnTransitionStart != nil {
					h.OnTransitionStart(ctx, e)
				}
			}
		},
		OnTransitionEnd: func(ctx context.Context, e *TransitionEvent) {
			for _, h := range hooks {
				if h.OnTransitionEnd != nil {
					h.OnTransitionEnd(ctx, e)
				}
			}
		},
		OnExitComplete: func(ctx context.Context, e *CompletionEvent) {
			for _, h := range hooks {
				if h.OnExitComplete != nil {
					h.OnExitComplete(ctx, e)
				}
			}
		},
	}
}
