package domain

import "errors"

// ErrNodeNotFound is returned when a node id is not present in the graph.
var ErrNodeNotFound = errors.New("node not found")

// ErrEdgeNotFound is returned when an edge id is not present in the graph.
var ErrEdgeNotFound = errors.New("edge not found")

// ErrDuplicateNode is returned when a live node is added twice.
var ErrDuplicateNode = errors.New("node already exists")

// ErrInvalidRecord is returned when a node or edge record is missing required fields.
var ErrInvalidRecord = errors.New("invalid graph record")

// ErrStoreWrite wraps failures publishing derived fields to the graph store.
var ErrStoreWrite = errors.New("graph store write failed")
