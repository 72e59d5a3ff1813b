/*
Package observability turns editor lifecycle events into logs and Prometheus metrics.

Both LoggingHooks and Metrics.Hooks return domain.LifecycleHooks, so they can be
merged and handed to text nodes and the submission client alike.
*/
package observability
