package pipeline

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vikashrahii/pipeline/internal/logging"
	"github.com/vikashrahii/pipeline/pkg/adapters/memory"
	"github.com/vikashrahii/pipeline/pkg/canvas"
	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/layout"
	"github.com/vikashrahii/pipeline/pkg/node"
	"github.com/vikashrahii/pipeline/pkg/ports"
	"github.com/vikashrahii/pipeline/pkg/submit"
)

// Editor is the high-level entry point of the library. It combines a canvas of
// live nodes over a graph store with a client for the remote validator.
type Editor struct {
	canvas *canvas.Canvas
	client *submit.Client
	store  ports.GraphStore
	logger *slog.Logger
}

type config struct {
	store      ports.GraphStore
	locker     ports.DistributedLocker
	endpoint   string
	httpClient *http.Client
	notifier   submit.Notifier
	measurer   layout.Measurer
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

// Option defines a functional option for configuring the Editor.
type Option func(*config)

// WithStore sets the graph store. The default is an in-memory store.
func WithStore(store ports.GraphStore) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithLocker enables cross-process per-node locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *config) {
		c.locker = locker
	}
}

// WithValidatorEndpoint sets the URL pipelines are submitted to.
func WithValidatorEndpoint(endpoint string) Option {
	return func(c *config) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient sets the HTTP client used for submissions.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// WithNotifier sets where submission notices are shown.
func WithNotifier(n submit.Notifier) Option {
	return func(c *config) {
		c.notifier = n
	}
}

// WithMeasurer sets the text area measurer of every text node.
func WithMeasurer(m layout.Measurer) Option {
	return func(c *config) {
		c.measurer = m
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithLogger sets a structured logger for the editor and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New creates an Editor.
func New(opts ...Option) *Editor {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = memory.NewStore()
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}

	nodeOpts := []node.Option{node.WithLogger(cfg.logger), node.WithHooks(cfg.hooks)}
	if cfg.measurer != nil {
		nodeOpts = append(nodeOpts, node.WithMeasurer(cfg.measurer))
	}
	canvasOpts := []canvas.Option{canvas.WithLogger(cfg.logger), canvas.WithNodeOptions(nodeOpts...)}
	if cfg.locker != nil {
		canvasOpts = append(canvasOpts, canvas.WithLocker(cfg.locker))
	}

	client := submit.New(
		submit.WithEndpoint(cfg.endpoint),
		submit.WithHTTPClient(cfg.httpClient),
		submit.WithNotifier(cfg.notifier),
		submit.WithLogger(cfg.logger),
		submit.WithHooks(cfg.hooks),
	)

	return &Editor{
		canvas: canvas.New(cfg.store, canvasOpts...),
		client: client,
		store:  cfg.store,
		logger: cfg.logger,
	}
}

// Store returns the graph store.
func (e *Editor) Store() ports.GraphStore { return e.store }

// Canvas returns the underlying canvas.
func (e *Editor) Canvas() *canvas.Canvas { return e.canvas }

// Client returns the submission client.
func (e *Editor) Client() *submit.Client { return e.client }

// AddTextNode mounts a text node, restoring its text if the store already has it.
func (e *Editor) AddTextNode(ctx context.Context, id string, pos domain.Position) (node.View, error) {
	return e.canvas.AddTextNode(ctx, id, pos)
}

// AddNode stores an opaque node of any other type.
func (e *Editor) AddNode(ctx context.Context, rec domain.NodeRecord) error {
	return e.canvas.AddNode(ctx, rec)
}

// EditText replaces a text node's text and returns the reconciled view.
func (e *Editor) EditText(ctx context.Context, id, text string) (node.View, error) {
	return e.canvas.EditText(ctx, id, text)
}

// View returns the last reconciled view of a text node.
func (e *Editor) View(id string) (node.View, error) {
	return e.canvas.View(id)
}

// Summary returns the "Variables detected" line of a text node.
func (e *Editor) Summary(id string) (string, error) {
	return e.canvas.Summary(id)
}

// RemoveNode deletes a node with its edges.
func (e *Editor) RemoveNode(ctx context.Context, id string) error {
	return e.canvas.RemoveNode(ctx, id)
}

// Connect adds an edge, assigning an id when it has none.
func (e *Editor) Connect(ctx context.Context, edge domain.EdgeRecord) (domain.EdgeRecord, error) {
	return e.canvas.Connect(ctx, edge)
}

// Disconnect removes an edge.
func (e *Editor) Disconnect(ctx context.Context, edgeID string) error {
	return e.canvas.Disconnect(ctx, edgeID)
}

// DanglingEdges reports edges into a text node whose port no longer exists.
func (e *Editor) DanglingEdges(ctx context.Context, nodeID string) ([]domain.EdgeRecord, error) {
	return e.canvas.DanglingEdges(ctx, nodeID)
}

// Graph returns a snapshot of the pipeline.
func (e *Editor) Graph(ctx context.Context) (domain.Graph, error) {
	return e.canvas.Graph(ctx)
}

// Load adds all nodes and edges of g to the editor.
func (e *Editor) Load(ctx context.Context, g domain.Graph) error {
	return e.canvas.Load(ctx, g)
}

// Submit sends the current graph to the validator.
func (e *Editor) Submit(ctx context.Context) (*submit.Result, error) {
	return e.client.Submit(ctx, e.store)
}

// SubmitAndNotify submits and shows exactly one notice with the outcome.
func (e *Editor) SubmitAndNotify(ctx context.Context) (*submit.Result, error) {
	return e.client.SubmitAndNotify(ctx, e.store)
}

// Ping checks that the validator is reachable.
func (e *Editor) Ping(ctx context.Context) error {
	return e.client.Ping(ctx)
}
