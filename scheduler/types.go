// Package scheduler drives a Plan's step DAG to completion: admission
// control honoring dependencies and resourceRequirements hints (a step's
// CanRunInParallel flag is not consulted), retries with backoff, fallback
// substitution, timeouts, and
// cooperative cancellation. It publishes lifecycle events onto the event
// bus, feeds the timeline manager, and wraps every step in a tracer span.
// Ready-task selection and dependency-level grouping run inside a single
// message-passing driver goroutine per execution: the driver sends an
// admission decision and listens on a result channel for each outcome,
// rather than mutating shared state from multiple goroutines.
package scheduler

import (
	"time"

	"github.com/flowcortex/agentcore/plan"
)

// Progress summarizes an execution's step-state distribution.
type Progress struct {
	Total           int
	Pending         int
	Ready           int
	Running         int
	Done            int
	Failed          int
	Skipped         int
	Cancelled       int
	PercentComplete float64
}

// Analytics aggregates execution metrics exposed via Handle.Analytics.
type Analytics struct {
	TotalSteps          int
	CompletedSteps      int
	FailedSteps         int
	SuccessRate         float64
	AverageStepDuration time.Duration
	PerStepDuration     map[string]time.Duration
	ResourceUtilization map[string]float64
	DataPointsProcessed int64
}

// ReplanContext records the circumstances of an initiateReplan call.
type ReplanContext struct {
	ReplanID        string
	Timestamp       time.Time
	Reason          string
	TriggerPhase    string
	OriginalPlanID  string
	Strategy        plan.Strategy
	ContextAtReplan map[string]any
}

// stepOutcome is sent on a Handle's result channel by a step runner
// goroutine when a step finishes, is cancelled, or times out.
type stepOutcome struct {
	stepID    string
	result    plan.StepResult
	err       error
	timedOut  bool
	cancelled bool
}

// resourceWeight maps a ResourceLevel to an admission-control unit.
func resourceWeight(level plan.ResourceLevel) int {
	switch level {
	case plan.ResourceHigh:
		return 3
	case plan.ResourceMedium:
		return 2
	case plan.ResourceLow:
		return 1
	default:
		return 0
	}
}
