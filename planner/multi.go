package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowcortex/agentcore/plan"
)

// interconnectionKeywords hint that a goal's sub-parts relate to each
// other and benefit from the graph strategy's cross-edges.
var interconnectionKeywords = []string{"relate", "connect", "compare", "cross-reference", "correlate", "between"}

const longGoalWordThreshold = 18

// MultiStrategy selects linear, tree, or graph per call, either via a
// caller-supplied decision function or a length/keyword heuristic.
type MultiStrategy struct {
	Linear Strategy
	Tree   Strategy
	Graph  Strategy

	// Warnings receives non-fatal validation complaints; nil is fine.
	Warnings func(msg string)
}

var _ Strategy = (*MultiStrategy)(nil)

// NewMultiStrategy builds a MultiStrategy over the three built-in
// deterministic strategies.
func NewMultiStrategy() *MultiStrategy {
	return &MultiStrategy{Linear: LinearStrategy{}, Tree: TreeStrategy{}, Graph: GraphStrategy{}}
}

func (m *MultiStrategy) decideStrategy(goal plan.Goal, pctx PlanningContext, opts Options) string {
	if opts.DecideStrategy != nil {
		return opts.DecideStrategy(goal, pctx)
	}

	text := strings.ToLower(goal.Text)
	for _, kw := range interconnectionKeywords {
		if strings.Contains(text, kw) {
			return "graph"
		}
	}

	wordCount := len(strings.Fields(goal.Text))
	if goal.IsList() {
		wordCount = len(goal.SubGoals)
	}
	if wordCount > longGoalWordThreshold {
		return "tree"
	}

	return "linear"
}

func (m *MultiStrategy) warn(format string, args ...any) {
	if m.Warnings != nil {
		m.Warnings(fmt.Sprintf(format, args...))
	}
}

// validatePlanShape is the multi strategy's lightweight schema check: a
// non-empty plan with unique step IDs and dependencies resolving within
// the plan. Failure is reported through Warnings only, never as an error.
func (m *MultiStrategy) validatePlanShape(p *plan.Plan) {
	seen := make(map[string]struct{}, len(p.Steps))
	for _, s := range p.Steps {
		if _, dup := seen[s.ID]; dup {
			m.warn("multi strategy: duplicate step id %q in produced plan", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	for _, s := range p.Steps {
		for _, dep := range s.Dependencies {
			if _, ok := seen[dep]; !ok {
				m.warn("multi strategy: step %q depends on unknown step %q", s.ID, dep)
			}
		}
	}
}

func (m *MultiStrategy) CreatePlan(ctx context.Context, goal plan.Goal, pctx PlanningContext, opts Options) (*plan.Plan, error) {
	chosen := m.decideStrategy(goal, pctx, opts)

	var strat Strategy
	switch chosen {
	case "tree":
		strat = m.Tree
	case "graph":
		strat = m.Graph
	default:
		strat = m.Linear
	}

	p, err := strat.CreatePlan(ctx, goal, pctx, opts)
	if err != nil {
		return nil, err
	}
	p.Strategy = plan.StrategyMulti
	p.Metadata["selectedStrategy"] = chosen

	if opts.ValidateSchema {
		m.validatePlanShape(p)
	}

	return p, nil
}

func (m *MultiStrategy) AnalyzeParallelism(p *plan.Plan) ParallelismAnalysis {
	return analyzeParallelismByHints(p)
}

func (m *MultiStrategy) EstimateComplexity(p *plan.Plan) ComplexityEstimate {
	return estimateComplexityByDuration(p)
}

func (m *MultiStrategy) SuggestOptimizations(p *plan.Plan) []Optimization {
	return suggestOptimizationsGeneric(p)
}
