package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcortex/agentcore/agenterrors"
	"github.com/flowcortex/agentcore/plan"
)

func newTestPlanner() *Planner {
	return New(NewRegistry(0), Callbacks{}, nil)
}

func TestCreatePlanLinearDefault(t *testing.T) {
	p := newTestPlanner()
	result, err := p.CreatePlan(context.Background(), "agent-1", plan.NewGoal("summarize report"), PlanningContext{}, Options{MaxSteps: 3})
	require.NoError(t, err)
	assert.Len(t, result.Steps, 3)
	assert.Empty(t, result.Steps[0].Dependencies)
	assert.Equal(t, []string{result.Steps[0].ID}, result.Steps[1].Dependencies)
}

func TestCreatePlanUnknownStrategy(t *testing.T) {
	p := newTestPlanner()
	_, err := p.CreatePlan(context.Background(), "agent-1", plan.NewGoal("x"), PlanningContext{}, Options{StrategyName: "nonexistent"})
	require.Error(t, err)
	assert.ErrorIs(t, err, agenterrors.ErrStrategyNotFound)
}

func TestCreatePlanEmptyGoalYieldsNoSteps(t *testing.T) {
	p := newTestPlanner()
	result, err := p.CreatePlan(context.Background(), "agent-1", plan.NewGoal(""), PlanningContext{}, Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Steps)
}

func TestTreeStrategyLeavesAndSynthesis(t *testing.T) {
	p := newTestPlanner()
	result, err := p.CreatePlan(context.Background(), "agent-1", plan.NewListGoal([]string{"path A", "path B", "path C"}), PlanningContext{}, Options{StrategyName: "tree", BeamWidth: 3, Depth: 1})
	require.NoError(t, err)

	// root + 3 leaves + synthesis
	assert.Len(t, result.Steps, 5)
	synthesis := result.Steps[len(result.Steps)-1]
	assert.True(t, synthesis.Critical)
	assert.Len(t, synthesis.Dependencies, 3)
}

func TestGraphStrategyListGoalProducesConnectionsNode(t *testing.T) {
	p := newTestPlanner()
	result, err := p.CreatePlan(context.Background(), "agent-1", plan.NewListGoal([]string{"a", "b"}), PlanningContext{}, Options{StrategyName: "graph"})
	require.NoError(t, err)
	last := result.Steps[len(result.Steps)-1]
	assert.Equal(t, "connections: aggregate goal outcomes", last.Description)
	assert.Len(t, last.Dependencies, 2)
}

func TestMultiStrategySelectsGraphOnInterconnectionKeyword(t *testing.T) {
	p := newTestPlanner()
	result, err := p.CreatePlan(context.Background(), "agent-1", plan.NewGoal("compare these two datasets"), PlanningContext{}, Options{StrategyName: "multi"})
	require.NoError(t, err)
	assert.Equal(t, "graph", result.Metadata["selectedStrategy"])
}

func TestSetAndGetAgentStrategy(t *testing.T) {
	p := newTestPlanner()
	assert.Equal(t, "linear", p.GetAgentStrategy("agent-1"))
	p.SetAgentStrategy("agent-1", "graph")
	assert.Equal(t, "graph", p.GetAgentStrategy("agent-1"))
}

func TestReplanSwapsRegistryAtomically(t *testing.T) {
	var replannedReason string
	p := New(NewRegistry(0), Callbacks{OnReplan: func(_ *plan.Plan, reason string) { replannedReason = reason }}, nil)

	original, err := p.CreatePlan(context.Background(), "agent-1", plan.NewGoal("do the thing"), PlanningContext{}, Options{MaxSteps: 2})
	require.NoError(t, err)

	successor, err := p.Replan(context.Background(), "agent-1", original.ID, "goal changed", nil, PlanningContext{}, Options{})
	require.NoError(t, err)

	assert.Nil(t, p.Registry().Get(original.ID))
	assert.NotNil(t, p.Registry().Get(successor.ID))
	assert.Equal(t, "goal changed", replannedReason)
}

func TestCallbacksFireInOrderAndSurvivePanic(t *testing.T) {
	var events []string
	cb := Callbacks{
		OnPlanStart:    func(plan.Goal, PlanningContext, string) { events = append(events, "start") },
		OnPlanStep:     func(plan.PlanStep, int, *plan.Plan) { panic("boom") },
		OnPlanComplete: func(*plan.Plan) { events = append(events, "complete") },
	}
	p := New(NewRegistry(0), cb, nil)

	_, err := p.CreatePlan(context.Background(), "agent-1", plan.NewGoal("x"), PlanningContext{}, Options{MaxSteps: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "complete"}, events)
}

func TestHasCycleDetectsMutualDependency(t *testing.T) {
	p := plan.New(plan.NewGoal("x"), plan.StrategyLinear)
	p.Steps = []plan.PlanStep{{ID: "a", Dependencies: []string{"b"}}, {ID: "b", Dependencies: []string{"a"}}}
	assert.True(t, hasCycle(p))
}
