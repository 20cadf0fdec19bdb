package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flowcortex/agentcore/plan"
)

func TestEstimateComplexityByDurationSumsWeights(t *testing.T) {
	p := plan.New(plan.NewGoal("x"), plan.StrategyLinear)
	p.Steps = []plan.PlanStep{
		{ID: "a", Complexity: plan.ComplexityLow},
		{ID: "b", Complexity: plan.ComplexityHigh, Critical: true},
	}
	est := estimateComplexityByDuration(p)
	assert.Equal(t, 9*time.Second, est.TimeEstimate)
	assert.Equal(t, "medium", est.RiskLevel)
}

func TestSuggestOptimizationsGenericDetectsDuplicates(t *testing.T) {
	p := plan.New(plan.NewGoal("x"), plan.StrategyLinear)
	p.Steps = []plan.PlanStep{
		{ID: "a", Description: "fetch data"},
		{ID: "b", Description: "fetch data"},
	}
	opts := suggestOptimizationsGeneric(p)
	var kinds []string
	for _, o := range opts {
		kinds = append(kinds, o.Kind)
	}
	assert.Contains(t, kinds, "merge")
}

func TestAnalyzeParallelismByHintsGroupsIndependentSteps(t *testing.T) {
	p := plan.New(plan.NewGoal("x"), plan.StrategyLinear)
	p.Steps = []plan.PlanStep{
		{ID: "a", CanRunInParallel: true},
		{ID: "b", CanRunInParallel: true},
		{ID: "c", Dependencies: []string{"a"}},
	}
	analysis := analyzeParallelismByHints(p)
	assert.Len(t, analysis.Parallelizable, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, analysis.Parallelizable[0])
	assert.Equal(t, []string{"c"}, analysis.Sequential)
}
