// Package submit sends a pipeline graph to the remote validator and reports its verdict.
//
// The wire contract is a multipart form with a single "pipeline" field holding the
// JSON graph; the validator answers with node and edge counts and whether the
// graph is acyclic. Submission only reads the graph, so failures never require
// rolling back node state.
package submit
