package scheduler

import "github.com/flowcortex/agentcore/plan"

// failureAction classifies what the driver does after a step fails,
// derived from the step's own fields rather than a separate stored
// field: PlanStep carries RetryLimit and Critical, and depgraph already
// establishes the "${tool}_lite" fallback-tool naming convention for
// steps with RetryLimit > 1, so the scheduler reuses both to pick a
// policy without requiring the planner to stamp an explicit
// failureAction onto every step.
type failureAction string

const (
	actionRetry    failureAction = "retry"
	actionFallback failureAction = "fallback"
	actionContinue failureAction = "continue"
	actionStop     failureAction = "stop"
)

// decideFailureAction picks the policy for a step's Nth failed attempt
// (1-indexed) and whether a fallback has already been tried.
func decideFailureAction(step plan.PlanStep, attempt int, fallbackUsed bool) failureAction {
	if step.RetryLimit > 0 && attempt <= step.RetryLimit {
		return actionRetry
	}
	if step.RetryLimit > 1 && !fallbackUsed {
		return actionFallback
	}
	if step.Critical {
		return actionStop
	}
	return actionContinue
}

// fallbackToolName mirrors the "${tool}_lite" fallback convention that
// depgraph.Extract applies.
func fallbackToolName(toolName string) string {
	return toolName + "_lite"
}

// dependencySatisfied reports whether depState lets a waiting step become
// ready, given whether the dependency step is critical. A critical
// dependency that ended done-failed blocks readiness (and triggers a stop
// cascade elsewhere); a non-critical one is treated as "continue".
func dependencySatisfied(depState plan.StepState, depCritical bool) bool {
	switch depState {
	case plan.StepDone:
		return true
	case plan.StepDoneFail:
		return !depCritical
	default:
		return false
	}
}
