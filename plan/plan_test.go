package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGoalVariants(t *testing.T) {
	g := NewGoal("summarize report")
	assert.False(t, g.IsList())

	lg := NewListGoal([]string{"path A", "path B"})
	assert.True(t, lg.IsList())
	assert.Len(t, lg.SubGoals, 2)
}

func TestNewPlanDefaults(t *testing.T) {
	p := New(NewGoal("do it"), StrategyLinear)
	require.NotEmpty(t, p.ID)
	assert.Equal(t, StatusCreated, p.Status)
	assert.Empty(t, p.Steps)
	assert.NotNil(t, p.Metadata)
}

func TestStepByID(t *testing.T) {
	p := New(NewGoal("do it"), StrategyLinear)
	p.Steps = append(p.Steps, PlanStep{ID: "s1"}, PlanStep{ID: "s2"})

	require.NotNil(t, p.StepByID("s2"))
	assert.Nil(t, p.StepByID("missing"))
}

func TestExecutionStatusTerminal(t *testing.T) {
	assert.True(t, ExecutionCompleted.Terminal())
	assert.True(t, ExecutionFailed.Terminal())
	assert.True(t, ExecutionCancelled.Terminal())
	assert.True(t, ExecutionTimeout.Terminal())
	assert.False(t, ExecutionRunning.Terminal())
	assert.False(t, ExecutionPending.Terminal())
}

func TestNewExecution(t *testing.T) {
	p := New(NewGoal("goal"), StrategyLinear)
	e := NewExecution(p)

	assert.Equal(t, p.ID, e.PlanID)
	assert.Equal(t, ExecutionPending, e.Status)
	assert.NotEmpty(t, e.CorrelationID)
}
