/*
Package ports defines the driven ports (interfaces) of the pipeline editor.

These interfaces decouple text nodes and the canvas from the storage backend,
so the same editing core runs against an in-process map or a shared Redis.

# Key Interfaces

  - GraphStore: The process-wide pipeline graph, written field by field by nodes
    and read as a whole by the submission client.
  - DistributedLocker: Cross-process locking used to serialize edits to a node.
*/
package ports
