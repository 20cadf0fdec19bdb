package planner

import (
	"context"
	"fmt"

	"github.com/flowcortex/agentcore/plan"
)

// TreeStrategy creates a root analysis step plus beamWidth*depth
// exploration steps, terminated by a synthesis step depending on every
// leaf. Critical is set on leaves and on synthesis.
type TreeStrategy struct{}

var _ Strategy = TreeStrategy{}

func (TreeStrategy) CreatePlan(_ context.Context, goal plan.Goal, _ PlanningContext, opts Options) (*plan.Plan, error) {
	p := plan.New(goal, plan.StrategyTree)

	root := plan.PlanStep{
		ID:          plan.NewID("step"),
		Description: "analyze: " + goalLabel(goal),
		Complexity:  plan.ComplexityMedium,
	}
	p.Steps = append(p.Steps, root)

	beamWidth := opts.beamWidthOrDefault()
	depth := opts.depthOrDefault()

	// levelParents[i] holds the step ID each beam in level i+1 depends on.
	levelParents := []string{root.ID}
	var leaves []string

	for d := 0; d < depth; d++ {
		nextParents := make([]string, 0, beamWidth)
		isLastLevel := d == depth-1
		for b := 0; b < beamWidth; b++ {
			parent := levelParents[b%len(levelParents)]
			label := labelFor(goal, b)
			step := plan.PlanStep{
				ID:               plan.NewID("step"),
				Description:      fmt.Sprintf("explore[%d.%d]: %s", d, b, label),
				Dependencies:     []string{parent},
				Complexity:       plan.ComplexityMedium,
				CanRunInParallel: true,
				Critical:         isLastLevel,
			}
			p.Steps = append(p.Steps, step)
			nextParents = append(nextParents, step.ID)
			if isLastLevel {
				leaves = append(leaves, step.ID)
			}
		}
		levelParents = nextParents
	}

	if len(leaves) == 0 {
		leaves = []string{root.ID}
	}

	synthesis := plan.PlanStep{
		ID:           plan.NewID("step"),
		Description:  "synthesis: combine exploration results",
		Dependencies: leaves,
		Complexity:   plan.ComplexityHigh,
		Critical:     true,
	}
	p.Steps = append(p.Steps, synthesis)

	return p, nil
}

func goalLabel(g plan.Goal) string {
	if g.IsList() {
		return "multi-path goal"
	}
	return g.Text
}

func labelFor(g plan.Goal, index int) string {
	if g.IsList() && index < len(g.SubGoals) {
		return g.SubGoals[index]
	}
	return goalLabel(g)
}

func (TreeStrategy) AnalyzeParallelism(p *plan.Plan) ParallelismAnalysis {
	return analyzeParallelismByHints(p)
}

func (TreeStrategy) EstimateComplexity(p *plan.Plan) ComplexityEstimate {
	return estimateComplexityByDuration(p)
}

func (TreeStrategy) SuggestOptimizations(p *plan.Plan) []Optimization {
	return suggestOptimizationsGeneric(p)
}
