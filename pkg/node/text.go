package node

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/vikashrahii/pipeline/internal/logging"
	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/layout"
	"github.com/vikashrahii/pipeline/pkg/ports"
	"github.com/vikashrahii/pipeline/pkg/template"
)

// DefaultText is the text of a freshly created node.
const DefaultText = "{{input}}"

// View is the reconciled, renderable state of a text node.
type View struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Variables []string     `json:"variables"`
	Ports     layout.Ports `json:"ports"`
	Size      layout.Size  `json:"size"`

	// Passes is the number of layout passes the last reconciliation took (1 or 2).
	Passes int `json:"passes"`
}

func (v View) clone() View {
	v.Variables = append(make([]string, 0, len(v.Variables)), v.Variables...)
	v.Ports = v.Ports.Clone()
	return v
}

// TextNode is a template text node bound to a graph store.
// It is safe for concurrent use; edits are reconciled one at a time.
type TextNode struct {
	id       string
	store    ports.GraphStore
	measurer layout.Measurer
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	initial  string

	mu       sync.Mutex
	view     View
	measured float64
}

// New creates a text node and runs its first reconciliation with the initial text.
// The node record must already exist in store.
func New(ctx context.Context, id string, store ports.GraphStore, opts ...Option) (*TextNode, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: node id is required", domain.ErrInvalidRecord)
	}
	if store == nil {
		return nil, fmt.Errorf("node %s: graph store is required", id)
	}

	n := &TextNode{
		id:       id,
		store:    store,
		measurer: layout.NewLineMeasurer(),
		logger:   logging.NewNop(),
		initial:  DefaultText,
		measured: layout.MinContentHeight,
	}
	for _, opt := range opts {
		opt(n)
	}

	text := n.initial
	if text == "" {
		text = DefaultText
	}
	if _, err := n.SetText(ctx, text); err != nil {
		return nil, err
	}
	return n, nil
}

// ID returns the node id.
func (n *TextNode) ID() string {
	return n.id
}

// View returns the last reconciled view.
func (n *TextNode) View() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view.clone()
}

// Summary returns the line shown under the text area, e.g. "Variables detected: a, b".
// It is empty when the text has no variables.
func (n *TextNode) Summary() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return template.Summary(n.view.Variables)
}

// SetText replaces the node's text and reconciles every derived field.
//
// If publishing to the store fails the error wraps domain.ErrStoreWrite and the
// node keeps its previous view; the returned View is that previous view.
func (n *TextNode) SetText(ctx context.Context, text string) (View, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	start := time.Now()
	variables := template.ExtractVariables(text)

	if err := n.publish(ctx, text, variables); err != nil {
		n.logger.Error("Failed to publish text node fields", "node_id", n.id, "err", err)
		n.emit(ctx, len(variables), 0, time.Since(start), err)
		return n.view.clone(), err
	}

	derived := layout.DerivePorts(n.id, variables)
	size := layout.ComputeSize(text, n.measured, len(variables))
	passes := 1

	measured := sanitizeHeight(n.measurer.Measure(text, size.Width))
	if measured != n.measured {
		size = layout.ComputeSize(text, measured, len(variables))
		passes = 2
	}
	n.measured = measured

	n.view = View{
		ID:        n.id,
		Text:      text,
		Variables: variables,
		Ports:     derived,
		Size:      size,
		Passes:    passes,
	}

	n.logger.Debug("Text node reconciled",
		"node_id", n.id,
		"variables", len(variables),
		"passes", passes,
		"width", size.Width,
		"height", size.Height,
	)
	n.emit(ctx, len(variables), passes, time.Since(start), nil)
	return n.view.clone(), nil
}

// publish writes both fields on every edit, text first.
func (n *TextNode) publish(ctx context.Context, text string, variables []string) error {
	if err := n.store.UpdateNodeField(ctx, n.id, domain.FieldText, text); err != nil {
		return fmt.Errorf("%w: node %s field %s: %w", domain.ErrStoreWrite, n.id, domain.FieldText, err)
	}
	vars := append(make([]string, 0, len(variables)), variables...)
	if err := n.store.UpdateNodeField(ctx, n.id, domain.FieldVariables, vars); err != nil {
		return fmt.Errorf("%w: node %s field %s: %w", domain.ErrStoreWrite, n.id, domain.FieldVariables, err)
	}
	return nil
}

func (n *TextNode) emit(ctx context.Context, variables, passes int, d time.Duration, err error) {
	if n.hooks.OnReconcile == nil {
		return
	}
	n.hooks.OnReconcile(ctx, &domain.ReconcileEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventReconcile},
		NodeID:    n.id,
		Variables: variables,
		Passes:    passes,
		Duration:  d,
		Err:       err,
	})
}

// sanitizeHeight maps unusable measurements to zero, which adds no height.
func sanitizeHeight(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return 0
	}
	return h
}
