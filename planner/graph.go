package planner

import (
	"context"

	"github.com/flowcortex/agentcore/plan"
)

// GraphStrategy produces the fixed topology (analyze, context, decompose,
// explore-A, explore-B, connect, synthesize, validate) with cross-edges,
// or for list goals a node per goal plus a "connections" aggregation node
// depending on all of them.
type GraphStrategy struct{}

var _ Strategy = GraphStrategy{}

func (GraphStrategy) CreatePlan(_ context.Context, goal plan.Goal, _ PlanningContext, _ Options) (*plan.Plan, error) {
	p := plan.New(goal, plan.StrategyGraph)

	if goal.IsList() {
		ids := make([]string, 0, len(goal.SubGoals))
		for _, g := range goal.SubGoals {
			step := plan.PlanStep{
				ID:               plan.NewID("step"),
				Description:      g,
				Complexity:       plan.ComplexityMedium,
				CanRunInParallel: true,
			}
			p.Steps = append(p.Steps, step)
			ids = append(ids, step.ID)
		}
		p.Steps = append(p.Steps, plan.PlanStep{
			ID:           plan.NewID("step"),
			Description:  "connections: aggregate goal outcomes",
			Dependencies: ids,
			Complexity:   plan.ComplexityHigh,
			Critical:     true,
		})
		return p, nil
	}

	text := goal.Text
	analyze := plan.PlanStep{ID: plan.NewID("step"), Description: "analyze: " + text, Complexity: plan.ComplexityMedium}
	ctxStep := plan.PlanStep{ID: plan.NewID("step"), Description: "context: gather background for " + text, Dependencies: []string{analyze.ID}, Complexity: plan.ComplexityLow}
	decompose := plan.PlanStep{ID: plan.NewID("step"), Description: "decompose: " + text, Dependencies: []string{ctxStep.ID}, Complexity: plan.ComplexityMedium}
	exploreA := plan.PlanStep{ID: plan.NewID("step"), Description: "explore-A: " + text, Dependencies: []string{decompose.ID}, Complexity: plan.ComplexityMedium, CanRunInParallel: true}
	exploreB := plan.PlanStep{ID: plan.NewID("step"), Description: "explore-B: " + text, Dependencies: []string{decompose.ID}, Complexity: plan.ComplexityMedium, CanRunInParallel: true}
	connect := plan.PlanStep{ID: plan.NewID("step"), Description: "connect: relate exploration branches", Dependencies: []string{exploreA.ID, exploreB.ID}, Complexity: plan.ComplexityMedium}
	synthesize := plan.PlanStep{ID: plan.NewID("step"), Description: "synthesize: " + text, Dependencies: []string{connect.ID, ctxStep.ID}, Complexity: plan.ComplexityHigh, Critical: true}
	validate := plan.PlanStep{ID: plan.NewID("step"), Description: "validate: " + text, Dependencies: []string{synthesize.ID}, Complexity: plan.ComplexityLow, Critical: true}

	p.Steps = append(p.Steps, analyze, ctxStep, decompose, exploreA, exploreB, connect, synthesize, validate)
	return p, nil
}

func (GraphStrategy) AnalyzeParallelism(p *plan.Plan) ParallelismAnalysis {
	return analyzeParallelismByHints(p)
}

func (GraphStrategy) EstimateComplexity(p *plan.Plan) ComplexityEstimate {
	return estimateComplexityByDuration(p)
}

func (GraphStrategy) SuggestOptimizations(p *plan.Plan) []Optimization {
	return suggestOptimizationsGeneric(p)
}

