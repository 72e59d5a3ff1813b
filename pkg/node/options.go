package node

import (
	"log/slog"

	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/layout"
)

// Option configures a TextNode.
type Option func(*TextNode)

// WithText sets the initial text. An empty string falls back to DefaultText.
func WithText(text string) Option {
	return func(n *TextNode) {
		n.initial = text
	}
}

// WithMeasurer replaces the default LineMeasurer.
func WithMeasurer(m layout.Measurer) Option {
	return func(n *TextNode) {
		if m != nil {
			n.measurer = m
		}
	}
}

// WithLogger sets the logger for reconciliation events.
func WithLogger(logger *slog.Logger) Option {
	return func(n *TextNode) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithHooks registers lifecycle hooks. Repeated calls are merged in order.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(n *TextNode) {
		n.hooks = n.hooks.Merge(hooks)
	}
}
