/*
Package domain contains the core records shared by the pipeline editor.

It defines the shape of a pipeline graph as the canvas and the remote validator see it,
the field names text nodes publish, and the sentinel errors returned across packages.
This package is kept pure and free of I/O; stores, transports and renderers live in
adapters.

# Key Entities

  - NodeRecord: A node as stored in the graph (id, type, position, data fields).
  - EdgeRecord: A connection between a source handle and a target handle.
  - Graph: The full set of nodes and edges, the unit of submission.
  - TextData: The typed view of a text node's data fields.
  - LifecycleHooks: Callbacks for reconciliation and submission events.
*/
package domain
