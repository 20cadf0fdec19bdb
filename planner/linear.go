package planner

import (
	"context"

	"github.com/flowcortex/agentcore/plan"
)

// linearPhases are the heuristic phases a free-text goal is decomposed
// into when it isn't already a list.
var linearPhases = []string{"analyze", "identify", "execute", "verify", "summarize"}

// LinearStrategy produces a sequential chain of steps, each depending on
// the one before it.
type LinearStrategy struct{}

var _ Strategy = LinearStrategy{}

func (LinearStrategy) CreatePlan(_ context.Context, goal plan.Goal, _ PlanningContext, opts Options) (*plan.Plan, error) {
	p := plan.New(goal, plan.StrategyLinear)

	var descriptions []string
	if goal.IsList() {
		descriptions = goal.SubGoals
	} else if goal.Text == "" {
		return p, nil
	} else {
		max := opts.maxStepsOrDefault()
		if max > len(linearPhases) {
			max = len(linearPhases)
		}
		for _, phase := range linearPhases[:max] {
			descriptions = append(descriptions, phase+": "+goal.Text)
		}
	}

	var prev string
	for i, desc := range descriptions {
		step := plan.PlanStep{
			ID:          plan.NewID("step"),
			Description: desc,
			Complexity:  plan.ComplexityMedium,
		}
		if prev != "" {
			step.Dependencies = []string{prev}
		}
		if i == len(descriptions)-1 {
			step.Critical = true
		}
		p.Steps = append(p.Steps, step)
		prev = step.ID
	}

	return p, nil
}

func (LinearStrategy) AnalyzeParallelism(p *plan.Plan) ParallelismAnalysis {
	// A linear chain is sequential by construction.
	ids := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		ids = append(ids, s.ID)
	}
	return ParallelismAnalysis{Sequential: ids}
}

func (LinearStrategy) EstimateComplexity(p *plan.Plan) ComplexityEstimate {
	return estimateComplexityByDuration(p)
}

func (LinearStrategy) SuggestOptimizations(p *plan.Plan) []Optimization {
	return suggestOptimizationsGeneric(p)
}
