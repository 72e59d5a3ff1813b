package canvas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vikashrahii/pipeline/internal/logging"
	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/node"
	"github.com/vikashrahii/pipeline/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed process can hold a node's distributed lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Canvas orchestrates node access, ensuring edits to one node are reconciled one at a time.
// It uses reference counting to garbage collect unused locks.
type Canvas struct {
	store ports.GraphStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active per-node locks

	nodesMu sync.RWMutex
	nodes   map[string]*node.TextNode

	locker   ports.DistributedLocker
	lockTTL  time.Duration
	logger   *slog.Logger
	nodeOpts []node.Option
}

// Option configures the Canvas.
type Option func(*Canvas)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Canvas) {
		c.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(c *Canvas) {
		if ttl > 0 {
			c.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Canvas.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Canvas) {
		c.logger = logger
	}
}

// WithNodeOptions sets options applied to every text node the canvas mounts.
func WithNodeOptions(opts ...node.Option) Option {
	return func(c *Canvas) {
		c.nodeOpts = append(c.nodeOpts, opts...)
	}
}

// New creates a Canvas backed by store.
func New(store ports.GraphStore, opts ...Option) *Canvas {
	c := &Canvas{
		store:   store,
		locks:   make(map[string]*lockEntry),
		nodes:   make(map[string]*node.TextNode),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (c *Canvas) acquire(id string) *lockEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.locks[id]
	if !exists {
		entry = &lockEntry{}
		c.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (c *Canvas) release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(c.locks, id)
	}
}

// WithLock executes fn while holding the lock for node id.
func (c *Canvas) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := c.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		c.release(id)
	}()

	if c.locker != nil {
		unlock, err := c.locker.Lock(ctx, id, c.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				c.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"node_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Store returns the underlying graph store.
func (c *Canvas) Store() ports.GraphStore {
	return c.store
}

// AddTextNode mounts a text node. If the store already holds a text record for id,
// the node is restored from its text field; otherwise a new record is created
// at pos and the node starts with the default text. A stored record of another
// type is refused with domain.ErrInvalidRecord.
func (c *Canvas) AddTextNode(ctx context.Context, id string, pos domain.Position) (node.View, error) {
	var view node.View
	err := c.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		view, err = c.mount(ctx, id, pos)
		return err
	})
	return view, err
}

// mount builds the text node for id. The caller holds id's lock.
func (c *Canvas) mount(ctx context.Context, id string, pos domain.Position) (node.View, error) {
	if _, live := c.textNode(id); live {
		return node.View{}, fmt.Errorf("%w: %s", domain.ErrDuplicateNode, id)
	}

	opts := append([]node.Option(nil), c.nodeOpts...)
	prior, found, err := c.store.NodeField(ctx, id, domain.FieldText)
	switch {
	case errors.Is(err, domain.ErrNodeNotFound):
		rec := domain.NodeRecord{ID: id, Type: domain.NodeTypeText, Position: pos}
		if err := c.store.PutNode(ctx, rec); err != nil {
			return node.View{}, fmt.Errorf("failed to create node %s: %w", id, err)
		}
	case err != nil:
		return node.View{}, fmt.Errorf("failed to read node %s: %w", id, err)
	default:
		if err := c.requireTextRecord(ctx, id); err != nil {
			return node.View{}, err
		}
		if text, ok := prior.(string); ok && found {
			opts = append(opts, node.WithText(text))
		}
	}

	n, err := node.New(ctx, id, c.store, opts...)
	if err != nil {
		return node.View{}, err
	}

	c.nodesMu.Lock()
	c.nodes[id] = n
	c.nodesMu.Unlock()

	c.logger.Debug("Text node mounted", "node_id", id, "restored", found)
	return n.View(), nil
}

// requireTextRecord fails unless the stored record for id is a text node.
func (c *Canvas) requireTextRecord(ctx context.Context, id string) error {
	g, err := c.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read node %s: %w", id, err)
	}
	rec, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	if rec.Type != domain.NodeTypeText {
		return fmt.Errorf("%w: node %s is a %q node, not text", domain.ErrInvalidRecord, id, rec.Type)
	}
	return nil
}

// AddNode stores an opaque (non-text) node record.
func (c *Canvas) AddNode(ctx context.Context, rec domain.NodeRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: node id is required", domain.ErrInvalidRecord)
	}
	if rec.Type == domain.NodeTypeText {
		return fmt.Errorf("%w: text node %s must be added with AddTextNode", domain.ErrInvalidRecord, rec.ID)
	}
	return c.WithLock(ctx, rec.ID, func(ctx context.Context) error {
		if _, live := c.textNode(rec.ID); live {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateNode, rec.ID)
		}
		return c.store.PutNode(ctx, rec)
	})
}

// EditText replaces the text of a mounted text node and returns the reconciled view.
func (c *Canvas) EditText(ctx context.Context, id, text string) (node.View, error) {
	var view node.View
	err := c.WithLock(ctx, id, func(ctx context.Context) error {
		n, ok := c.textNode(id)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
		}
		var err error
		view, err = n.SetText(ctx, text)
		return err
	})
	return view, err
}

// View returns the last reconciled view of a mounted text node.
func (c *Canvas) View(id string) (node.View, error) {
	n, ok := c.textNode(id)
	if !ok {
		return node.View{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return n.View(), nil
}

// Summary returns the variable summary line of a mounted text node.
func (c *Canvas) Summary(id string) (string, error) {
	n, ok := c.textNode(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return n.Summary(), nil
}

// TextNodes returns the ids of mounted text nodes, sorted.
func (c *Canvas) TextNodes() []string {
	c.nodesMu.RLock()
	defer c.nodesMu.RUnlock()

	ids := make([]string, 0, len(c.nodes))
	for id := range c.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RemoveNode unmounts a node and deletes it with its incident edges.
func (c *Canvas) RemoveNode(ctx context.Context, id string) error {
	return c.WithLock(ctx, id, func(ctx context.Context) error {
		if err := c.store.DeleteNode(ctx, id); err != nil {
			return fmt.Errorf("failed to delete node %s: %w", id, err)
		}
		c.nodesMu.Lock()
		delete(c.nodes, id)
		c.nodesMu.Unlock()
		return nil
	})
}

// Graph returns a snapshot of the whole pipeline.
func (c *Canvas) Graph(ctx context.Context) (domain.Graph, error) {
	g, err := c.store.Snapshot(ctx)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("failed to snapshot graph: %w", err)
	}
	return g.Normalize(), nil
}

// Load adds every node and edge of g. Text nodes are mounted from their stored text.
func (c *Canvas) Load(ctx context.Context, g domain.Graph) error {
	for _, rec := range g.Nodes {
		if rec.Type != domain.NodeTypeText {
			if err := c.AddNode(ctx, rec); err != nil {
				return err
			}
			continue
		}
		if err := c.WithLock(ctx, rec.ID, func(ctx context.Context) error {
			if _, live := c.textNode(rec.ID); live {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateNode, rec.ID)
			}
			if err := c.store.PutNode(ctx, rec); err != nil {
				return fmt.Errorf("failed to store node %s: %w", rec.ID, err)
			}
			_, err := c.mount(ctx, rec.ID, rec.Position)
			return err
		}); err != nil {
			return err
		}
	}
	for _, e := range g.Edges {
		if _, err := c.Connect(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (c *Canvas) textNode(id string) (*node.TextNode, bool) {
	c.nodesMu.RLock()
	defer c.nodesMu.RUnlock()
	n, ok := c.nodes[id]
	return n, ok
}
