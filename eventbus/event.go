// Package eventbus implements the module's in-process publish/subscribe
// spine: typed topics, per-subscriber type/source filters, a bounded
// buffer in which a critical event arriving at capacity evicts the oldest
// non-critical event, and subscriber error quarantine. An optional Redis-backed bridge mirrors
// the connection-option and fail-fast-ping pattern of a typical Redis
// client wrapper, generalized from caching to pub/sub fan-out.
package eventbus

import "time"

// Event is a single published occurrence, namespaced by Type using the
// prefixes planner.*, plan.*, step.*, tool.*, agent.*, and the singleton
// system.memory.leak.detected topic.
type Event struct {
	Type          string
	Source        string
	CorrelationID string
	ExecutionID   string
	TenantID      string
	Data          map[string]any
	Critical      bool
	Timestamp     time.Time
}

// Stats summarizes bus activity for observability.
type Stats struct {
	ActiveListeners int
	Published       int64
	Dropped         int64
	Errors          int64
}
