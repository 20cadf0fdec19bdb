// Package plan defines the shared data model for goals, plans, steps, tool
// calls, and executions. It has no dependency on planner, scheduler, or the
// observability packages so that all of them can depend on it without
// import cycles.
package plan

import "github.com/google/uuid"

// NewID generates a new globally unique identifier for plans, steps,
// executions, traces, spans, and correlation IDs.
func NewID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}

// NewCorrelationID generates an identifier used to tie together a plan,
// its execution, timeline, spans, and events.
func NewCorrelationID() string {
	return NewID("corr")
}
