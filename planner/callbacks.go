package planner

import (
	"github.com/flowcortex/agentcore/agenterrors"
	"github.com/flowcortex/agentcore/plan"
)

// Callbacks are optional lifecycle hooks fired in the documented order:
// OnPlanStart, OnPlanStep (once per produced step), then exactly one of
// OnPlanComplete/OnPlanError, and OnReplan on a successful Replan. Every
// call is wrapped in panic recovery (agenterrors.SafeCall) so a
// misbehaving callback can never corrupt the plan registry.
type Callbacks struct {
	OnPlanStart    func(goal plan.Goal, pctx PlanningContext, strategyName string)
	OnPlanStep     func(step plan.PlanStep, index int, p *plan.Plan)
	OnPlanComplete func(p *plan.Plan)
	OnPlanError    func(err error, p *plan.Plan)
	OnReplan       func(p *plan.Plan, reason string)
}

func (c Callbacks) fireStart(goal plan.Goal, pctx PlanningContext, strategyName string) {
	if c.OnPlanStart == nil {
		return
	}
	_ = agenterrors.SafeCall(func() error {
		c.OnPlanStart(goal, pctx, strategyName)
		return nil
	})
}

func (c Callbacks) fireStep(step plan.PlanStep, index int, p *plan.Plan) {
	if c.OnPlanStep == nil {
		return
	}
	_ = agenterrors.SafeCall(func() error {
		c.OnPlanStep(step, index, p)
		return nil
	})
}

func (c Callbacks) fireComplete(p *plan.Plan) {
	if c.OnPlanComplete == nil {
		return
	}
	_ = agenterrors.SafeCall(func() error {
		c.OnPlanComplete(p)
		return nil
	})
}

func (c Callbacks) fireError(err error, p *plan.Plan) {
	if c.OnPlanError == nil {
		return
	}
	_ = agenterrors.SafeCall(func() error {
		c.OnPlanError(err, p)
		return nil
	})
}

func (c Callbacks) fireReplan(p *plan.Plan, reason string) {
	if c.OnReplan == nil {
		return
	}
	_ = agenterrors.SafeCall(func() error {
		c.OnReplan(p, reason)
		return nil
	})
}
