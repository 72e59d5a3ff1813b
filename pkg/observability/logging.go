package observability

import (
	"context"
	"log/slog"

	"github.com/vikashrahii/pipeline/pkg/domain"
)

// LoggingHooks logs reconciliations at debug level and submissions at info level.
// Failures are logged at warn; the component that failed logs its own details.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnReconcile: func(ctx context.Context, e *domain.ReconcileEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "reconcile_failed", "node_id", e.NodeID, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "reconcile",
				"node_id", e.NodeID,
				"variables", e.Variables,
				"passes", e.Passes,
				"duration", e.Duration,
			)
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "submit_failed", "nodes", e.Nodes, "edges", e.Edges, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "submit",
				"nodes", e.Nodes,
				"edges", e.Edges,
				"is_dag", e.IsDAG,
				"duration", e.Duration,
			)
		},
	}
}
