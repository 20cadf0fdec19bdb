package plan

// DependencyType classifies a ToolDependency edge.
type DependencyType string

const (
	DependencyRequired DependencyType = "required"
	DependencyOptional DependencyType = "optional"
)

// FailureAction controls what the scheduler does when a step referenced by
// a ToolDependency fails.
type FailureAction string

const (
	FailureStop     FailureAction = "stop"
	FailureContinue FailureAction = "continue"
	FailureRetry    FailureAction = "retry"
	FailureFallback FailureAction = "fallback"
)

// ToolCall is the flattened, scheduler-facing view of a PlanStep bound to a
// concrete tool invocation.
//
// Invariant: every ToolCall.CallID corresponds to exactly one PlanStep.ID
// in the plan it was extracted from.
type ToolCall struct {
	CallID        string
	ToolName      string
	Arguments     map[string]any
	CorrelationID string
	Metadata      map[string]any
}

// ToolDependency describes one dependency edge in tool-call terms, derived
// from a PlanStep's Dependencies list by the depgraph package.
type ToolDependency struct {
	ToolName      string
	Type          DependencyType
	Condition     string
	FailureAction FailureAction
	FallbackTool  string
}
