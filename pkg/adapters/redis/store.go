package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vikashrahii/pipeline/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Key layout under the prefix:
//
//	nodes       HASH  node id -> JSON record without data
//	node-index  ZSET  node id scored by insertion sequence
//	data:<id>   HASH  field -> JSON value
//	edges       HASH  edge id -> JSON record
//	edge-index  ZSET  edge id scored by insertion sequence
//	seq         STRING counter
const defaultPrefix = "pipeline:graph:"

// updateFieldScript writes a data field only if the node exists, in one round trip.
var updateFieldScript = backend.NewScript(`
if redis.call("hexists", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("hset", KEYS[2], ARGV[2], ARGV[3])
return 1
`)

// putEdgeScript stores an edge only if both endpoints exist. It returns 0 on
// success, 1 when the source is missing and 2 when the target is missing.
var putEdgeScript = backend.NewScript(`
for i = 1, 2 do
	if redis.call("hexists", KEYS[1], ARGV[i]) == 0 then
		return i
	end
end
local seq = redis.call("incr", KEYS[4])
redis.call("hset", KEYS[2], ARGV[3], ARGV[4])
redis.call("zadd", KEYS[3], "NX", tostring(seq), ARGV[3])
return 0
`)

// maxTxAttempts bounds the retries of an optimistic transaction.
const maxTxAttempts = 16

// Store implements ports.GraphStore using Redis, so several editor processes
// can share one pipeline graph.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix for the graph.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) nodesKey() string { return s.prefix + "nodes" }
func (s *Store) nodeIndexKey() string { return s.prefix + "node-index" }
func (s *Store) dataKey(id string) string { return s.prefix + "data:" + id }
func (s *Store) edgesKey() string { return s.prefix + "edges" }
func (s *Store) edgeIndexKey() string { return s.prefix + "edge-index" }
func (s *Store) seqKey() string { return s.prefix + "seq" }

// UpdateNodeField sets one data field of an existing node.
func (s *Store) UpdateNodeField(ctx context.Context, nodeID, field string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal field %s: %w", field, err)
	}

	keys := []string{s.nodesKey(), s.dataKey(nodeID)}
	written, err := updateFieldScript.Run(ctx, s.client, keys, nodeID, field, data).Int()
	if err != nil {
		return fmt.Errorf("failed to write field to redis: %w", err)
	}
	if written == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	return nil
}

// NodeField reads one data field.
func (s *Store) NodeField(ctx context.Context, nodeID, field string) (any, bool, error) {
	raw, err := s.client.HGet(ctx, s.dataKey(nodeID), field).Result()
	if errors.Is(err, backend.Nil) {
		exists, err := s.client.HExists(ctx, s.nodesKey(), nodeID).Result()
		if err != nil {
			return nil, false, fmt.Errorf("failed to check node in redis: %w", err)
		}
		if !exists {
			return nil, false, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
		}
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get field from redis: %w", err)
	}

	var val any
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal field %s: %w", field, err)
	}
	return val, true, nil
}

// PutNode adds or replaces a node record. Replacing resets the node's data to node.Data.
func (s *Store) PutNode(ctx context.Context, node domain.NodeRecord) error {
	if node.ID == "" {
		return fmt.Errorf("%w: node id is required", domain.ErrInvalidRecord)
	}

	meta := node
	meta.Data = nil
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}

	fields := make([]any, 0, 2*len(node.Data))
	for k, v := range node.Data {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal field %s: %w", k, err)
		}
		fields = append(fields, k, b)
	}

	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate sequence: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.nodesKey(), node.ID, metaJSON)
	pipe.ZAddNX(ctx, s.nodeIndexKey(), backend.Z{Score: float64(seq), Member: node.ID})
	pipe.Del(ctx, s.dataKey(node.ID))
	if len(fields) > 0 {
		pipe.HSet(ctx, s.dataKey(node.ID), fields...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save node to redis: %w", err)
	}
	return nil
}

// DeleteNode removes a node, its data and incident edges. The edge list is
// watched so an edge stored concurrently is either seen here or rejected.
func (s *Store) DeleteNode(ctx context.Context, nodeID string) error {
	err := s.watch(ctx, func(tx *backend.Tx) error {
		raw, err := tx.HGetAll(ctx, s.edgesKey()).Result()
		if err != nil {
			return fmt.Errorf("failed to list edges: %w", err)
		}
		edges, err := decodeEdges(raw)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.HDel(ctx, s.nodesKey(), nodeID)
			pipe.ZRem(ctx, s.nodeIndexKey(), nodeID)
			pipe.Del(ctx, s.dataKey(nodeID))
			for id, e := range edges {
				if e.Source == nodeID || e.Target == nodeID {
					pipe.HDel(ctx, s.edgesKey(), id)
					pipe.ZRem(ctx, s.edgeIndexKey(), id)
				}
			}
			return nil
		})
		return err
	}, s.edgesKey())
	if err != nil {
		return fmt.Errorf("failed to delete node from redis: %w", err)
	}
	return nil
}

// PutEdge adds or replaces an edge between two existing nodes. The endpoint
// check and the write run in one script.
func (s *Store) PutEdge(ctx context.Context, edge domain.EdgeRecord) error {
	if edge.ID == "" || edge.Source == "" || edge.Target == "" {
		return fmt.Errorf("%w: edge id, source and target are required", domain.ErrInvalidRecord)
	}

	data, err := json.Marshal(edge)
	if err != nil {
		return fmt.Errorf("failed to marshal edge: %w", err)
	}

	keys := []string{s.nodesKey(), s.edgesKey(), s.edgeIndexKey(), s.seqKey()}
	missing, err := putEdgeScript.Run(ctx, s.client, keys, edge.Source, edge.Target, edge.ID, data).Int()
	if err != nil {
		return fmt.Errorf("failed to save edge to redis: %w", err)
	}
	switch missing {
	case 1:
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, edge.Source)
	case 2:
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, edge.Target)
	}
	return nil
}

// DeleteEdge removes an edge.
func (s *Store) DeleteEdge(ctx context.Context, edgeID string) error {
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, s.edgesKey(), edgeID)
	pipe.ZRem(ctx, s.edgeIndexKey(), edgeID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete edge from redis: %w", err)
	}
	return nil
}

// Snapshot reads the whole graph. Structure keys are watched from the start and
// each node's data key before it is read; the read is retried if any of them
// changes before it completes.
func (s *Store) Snapshot(ctx context.Context) (domain.Graph, error) {
	var g domain.Graph
	err := s.watch(ctx, func(tx *backend.Tx) error {
		var err error
		if g, err = s.readGraph(ctx, tx); err != nil {
			return err
		}
		// EXEC fails with TxFailedErr when a watched key changed since it was watched.
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Ping(ctx)
			return nil
		})
		return err
	}, s.nodesKey(), s.nodeIndexKey(), s.edgesKey(), s.edgeIndexKey())
	if err != nil {
		return domain.Graph{}, fmt.Errorf("failed to read graph from redis: %w", err)
	}
	return g, nil
}

func (s *Store) readGraph(ctx context.Context, tx *backend.Tx) (domain.Graph, error) {
	pipe := tx.Pipeline()
	nodeOrder := pipe.ZRange(ctx, s.nodeIndexKey(), 0, -1)
	nodes := pipe.HGetAll(ctx, s.nodesKey())
	edgeOrder := pipe.ZRange(ctx, s.edgeIndexKey(), 0, -1)
	edges := pipe.HGetAll(ctx, s.edgesKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Graph{}, err
	}

	ids := make([]string, 0, len(nodeOrder.Val()))
	dataKeys := make([]string, 0, len(nodeOrder.Val()))
	for _, id := range nodeOrder.Val() {
		if _, ok := nodes.Val()[id]; ok {
			ids = append(ids, id)
			dataKeys = append(dataKeys, s.dataKey(id))
		}
	}

	dataCmds := make([]*backend.MapStringStringCmd, len(ids))
	if len(ids) > 0 {
		if err := tx.Watch(ctx, dataKeys...).Err(); err != nil {
			return domain.Graph{}, err
		}
		dataPipe := tx.Pipeline()
		for i, key := range dataKeys {
			dataCmds[i] = dataPipe.HGetAll(ctx, key)
		}
		if _, err := dataPipe.Exec(ctx); err != nil {
			return domain.Graph{}, err
		}
	}

	g := domain.Graph{
		Nodes: make([]domain.NodeRecord, 0, len(ids)),
		Edges: make([]domain.EdgeRecord, 0, len(edgeOrder.Val())),
	}
	for i, id := range ids {
		var rec domain.NodeRecord
		if err := json.Unmarshal([]byte(nodes.Val()[id]), &rec); err != nil {
			return domain.Graph{}, fmt.Errorf("failed to unmarshal node %s: %w", id, err)
		}
		rec.Data = make(map[string]any, len(dataCmds[i].Val()))
		for field, raw := range dataCmds[i].Val() {
			var val any
			if err := json.Unmarshal([]byte(raw), &val); err != nil {
				return domain.Graph{}, fmt.Errorf("failed to unmarshal field %s of %s: %w", field, id, err)
			}
			rec.Data[field] = val
		}
		g.Nodes = append(g.Nodes, rec)
	}

	for _, id := range edgeOrder.Val() {
		raw, ok := edges.Val()[id]
		if !ok {
			continue
		}
		var e domain.EdgeRecord
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return domain.Graph{}, fmt.Errorf("failed to unmarshal edge %s: %w", id, err)
		}
		g.Edges = append(g.Edges, e)
	}
	return g, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// watch runs fn as an optimistic transaction over keys, retrying while
// another client changes them first.
func (s *Store) watch(ctx context.Context, fn func(*backend.Tx) error, keys ...string) error {
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, backend.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", maxTxAttempts, backend.TxFailedErr)
}

func decodeEdges(raw map[string]string) (map[string]domain.EdgeRecord, error) {
	edges := make(map[string]domain.EdgeRecord, len(raw))
	for id, v := range raw {
		var e domain.EdgeRecord
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal edge %s: %w", id, err)
		}
		edges[id] = e
	}
	return edges, nil
}
