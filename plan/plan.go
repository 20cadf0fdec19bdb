package plan

import "time"

// Strategy names the reasoning strategy that produced a Plan.
type Strategy string

const (
	StrategyLinear Strategy = "linear"
	StrategyTree   Strategy = "tree"
	StrategyGraph  Strategy = "graph"
	StrategyMulti  Strategy = "multi"
)

// Status tracks the lifecycle of a Plan.
type Status string

const (
	StatusCreated   Status = "created"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Complexity categorizes a step's expected cost.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ResourceLevel is a coarse advisory used by the scheduler's admission
// control when ResourceAware mode is enabled.
type ResourceLevel string

const (
	ResourceLow    ResourceLevel = "low"
	ResourceMedium ResourceLevel = "medium"
	ResourceHigh   ResourceLevel = "high"
)

// ResourceRequirements advertises the relative memory/cpu/network weight
// of a step, used by the scheduler to refuse admission under resourceCaps.
type ResourceRequirements struct {
	Memory  ResourceLevel
	CPU     ResourceLevel
	Network ResourceLevel
}

// ExecutionHint carries strategy advice from the planner to the scheduler,
// e.g. "parallelizable", "sequential", "conditional".
type ExecutionHint string

// Goal is a user-provided string, or an ordered list of sub-goals. It is
// immutable input to the planner.
type Goal struct {
	Text      string
	SubGoals  []string
	Metadata  map[string]any
}

// IsList reports whether the goal was provided as an ordered list of
// sub-goals rather than a single free-text objective.
func (g Goal) IsList() bool {
	return len(g.SubGoals) > 0
}

// NewGoal builds a single free-text Goal.
func NewGoal(text string) Goal {
	return Goal{Text: text, Metadata: map[string]any{}}
}

// NewListGoal builds a Goal from an ordered list of sub-goals.
func NewListGoal(subGoals []string) Goal {
	return Goal{SubGoals: subGoals, Metadata: map[string]any{}}
}

// PlanStep is a single unit of work inside a Plan.
//
// Invariant: Dependencies must name IDs that exist within the same Plan,
// and the dependency graph formed by all steps of a Plan must be acyclic.
type PlanStep struct {
	ID                   string
	Description          string
	ToolID               string
	AgentID              string
	Params               map[string]any
	Dependencies         []string
	EstimatedDuration    time.Duration
	Complexity           Complexity
	Critical             bool
	RetryLimit           int
	ExecutionHint        ExecutionHint
	CanRunInParallel     bool
	ResourceRequirements ResourceRequirements
	Timeout              time.Duration
}

// Plan is an identified DAG of steps produced by a planning strategy to
// accomplish a Goal.
//
// Invariant: ID is globally unique. Once Status leaves StatusCreated,
// Steps is immutable in shape — only per-step runtime fields held
// elsewhere (in an Execution) may change.
type Plan struct {
	ID        string
	Goal      Goal
	Strategy  Strategy
	Steps     []PlanStep
	Status    Status
	CreatedAt time.Time
	Metadata  map[string]any
}

// StepByID returns a pointer to the step with the given ID, or nil.
func (p *Plan) StepByID(id string) *PlanStep {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			return &p.Steps[i]
		}
	}
	return nil
}

// New creates a new Plan in StatusCreated for the given goal and strategy.
func New(goal Goal, strategy Strategy) *Plan {
	return &Plan{
		ID:        NewID("plan"),
		Goal:      goal,
		Strategy:  strategy,
		Status:    StatusCreated,
		CreatedAt: time.Now(),
		Steps:     []PlanStep{},
		Metadata:  map[string]any{},
	}
}
