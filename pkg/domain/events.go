package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventReconcile EventType = "reconcile"
	EventSubmit    EventType = "submit"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ReconcileEvent is emitted after a text node finished reconciling one edit.
type ReconcileEvent struct {
	EventBase
	NodeID    string        `json:"node_id"`
	Variables int           `json:"variables"`
	Passes    int           `json:"passes"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// SubmitEvent is emitted after a pipeline submission completed or failed.
type SubmitEvent struct {
	EventBase
	Nodes    int           `json:"nodes"`
	Edges    int           `json:"edges"`
	IsDAG    bool          `json:"is_dag"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for editor observability.
type LifecycleHooks struct {
	OnReconcile func(context.Context, *ReconcileEvent)
	OnSubmit    func(context.Context, *SubmitEvent)
}

// Merge returns hooks that call h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnReconcile: chain(h.OnReconcile, other.OnReconcile),
		OnSubmit:    chain(h.OnSubmit, other.OnSubmit),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
