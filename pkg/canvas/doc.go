/*
Package canvas owns the live nodes of a pipeline and serializes edits to them.

A Canvas pairs a GraphStore with the TextNodes currently mounted on it. Every
operation on a node id runs under a per-id lock, so two edits to the same node
never reconcile at the same time, while edits to different nodes proceed in
parallel. With WithLocker, the same guarantee extends across processes sharing
one store.

Edges attached to a text node's input ports are kept by id when an edit removes
the variable behind the port. DanglingEdges reports them.
*/
package canvas
