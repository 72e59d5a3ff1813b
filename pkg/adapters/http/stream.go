package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/vikashrahii/pipeline/pkg/domain"
)

// allTopics receives every broadcast regardless of node.
const allTopics = ""

// StreamManager fans editor events out to SSE subscribers, per node id.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // topic -> set of channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for topic (a node id, or "" for everything).
// The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(topic string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan<- string]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[topic]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, topic)
			}
		}
	}
}

// Broadcast sends msg to subscribers of topic and to global subscribers.
// Slow subscribers lose messages instead of blocking the editor.
func (sm *StreamManager) Broadcast(topic, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	send := func(t string) {
		for ch := range sm.subscribers[t] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: Client buffer full, dropping message", "topic", t)
			}
		}
	}
	if topic != allTopics {
		send(topic)
	}
	send(allTopics)
}

type reconcileMessage struct {
	*domain.ReconcileEvent
	Error string `json:"error,omitempty"`
}

type submitMessage struct {
	*domain.SubmitEvent
	Error string `json:"error,omitempty"`
}

// Hooks publishes reconcile events on the node's topic and submit events globally.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnReconcile: func(_ context.Context, e *domain.ReconcileEvent) {
			msg := reconcileMessage{ReconcileEvent: e}
			if e.Err != nil {
				msg.Error = e.Err.Error()
			}
			sm.publish(e.NodeID, msg)
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			msg := submitMessage{SubmitEvent: e}
			if e.Err != nil {
				msg.Error = e.Err.Error()
			}
			sm.publish(allTopics, msg)
		},
	}
}

func (sm *StreamManager) publish(topic string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("SSE: Failed to encode event", "err", err)
		return
	}
	sm.Broadcast(topic, string(b))
}
