package planner

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowcortex/agentcore/agenterrors"
	"github.com/flowcortex/agentcore/agentlog"
	"github.com/flowcortex/agentcore/plan"
)

// Planner owns the strategy registry, per-agent strategy defaults, the
// plan registry, and the lifecycle callbacks fired around every
// CreatePlan/Replan call.
type Planner struct {
	mu             sync.RWMutex
	strategies     map[string]Strategy
	agentStrategy  map[string]string
	registry       *Registry
	callbacks      Callbacks
	defaultName    string
	log            agentlog.Logger
}

// New builds a Planner pre-registered with the four built-in strategies
// (linear, tree, graph, multi), defaulting to "linear" when a caller
// doesn't name one.
func New(registry *Registry, callbacks Callbacks, log agentlog.Logger) *Planner {
	if log == nil {
		log = agentlog.NoopLogger{}
	}
	p := &Planner{
		strategies:    make(map[string]Strategy),
		agentStrategy: make(map[string]string),
		registry:      registry,
		callbacks:     callbacks,
		defaultName:   "linear",
		log:           log,
	}
	p.RegisterStrategy("linear", LinearStrategy{})
	p.RegisterStrategy("tree", TreeStrategy{})
	p.RegisterStrategy("graph", GraphStrategy{})
	p.RegisterStrategy("multi", NewMultiStrategy())
	return p
}

// RegisterStrategy adds or replaces a named strategy.
func (p *Planner) RegisterStrategy(name string, s Strategy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strategies[name] = s
}

// SetAgentStrategy records the default strategy name used for CreatePlan
// calls scoped to agentID when the caller doesn't name one explicitly.
func (p *Planner) SetAgentStrategy(agentID, strategyName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.agentStrategy[agentID] = strategyName
}

// GetAgentStrategy returns the strategy name configured for agentID, or
// the planner-wide default when none was set.
func (p *Planner) GetAgentStrategy(agentID string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if name, ok := p.agentStrategy[agentID]; ok {
		return name
	}
	return p.defaultName
}

func (p *Planner) resolveStrategy(name string) (Strategy, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", agenterrors.ErrStrategyNotFound, name)
	}
	return s, nil
}

// CreatePlan resolves a strategy (by opts.StrategyName, falling back to
// agentID's default, falling back to the planner default), fires the
// lifecycle callbacks in order, validates the produced plan is acyclic,
// and registers it.
func (p *Planner) CreatePlan(ctx context.Context, agentID string, goal plan.Goal, pctx PlanningContext, opts Options) (*plan.Plan, error) {
	name := opts.StrategyName
	if name == "" {
		name = p.GetAgentStrategy(agentID)
	}

	strat, err := p.resolveStrategy(name)
	if err != nil {
		return nil, err
	}

	p.callbacks.fireStart(goal, pctx, name)

	result, err := strat.CreatePlan(ctx, goal, pctx, opts)
	if err != nil {
		wrapped := agenterrors.WithContext(err, "planner.CreatePlan", map[string]any{"strategy": name})
		p.callbacks.fireError(wrapped, nil)
		return nil, wrapped
	}

	if hasCycle(result) {
		cycErr := fmt.Errorf("%w: strategy %q produced a cyclic dependency graph", agenterrors.ErrInvalidPlan, name)
		p.callbacks.fireError(cycErr, result)
		return nil, cycErr
	}

	for i, step := range result.Steps {
		p.callbacks.fireStep(step, i, result)
	}

	p.registry.Put(result)
	p.callbacks.fireComplete(result)

	p.log.Debug(ctx, "plan created", agentlog.F("planId", result.ID), agentlog.F("strategy", name), agentlog.F("steps", len(result.Steps)))
	return result, nil
}

// Replan creates a successor plan for planID via the same strategy that
// produced it (or opts.StrategyName if given), atomically swapping the
// registry entry and firing OnReplan on success. The caller decides
// in-flight step handling for the superseded execution; Replan itself
// only concerns the plan object.
func (p *Planner) Replan(ctx context.Context, agentID, planID, reason string, newGoal *plan.Goal, pctx PlanningContext, opts Options) (*plan.Plan, error) {
	old := p.registry.Get(planID)
	if old == nil {
		return nil, fmt.Errorf("%w: plan %q not found", agenterrors.ErrInvalidPlan, planID)
	}

	goal := old.Goal
	if newGoal != nil {
		goal = *newGoal
	}

	if opts.StrategyName == "" {
		opts.StrategyName = string(old.Strategy)
		if _, err := p.resolveStrategy(opts.StrategyName); err != nil {
			opts.StrategyName = p.GetAgentStrategy(agentID)
		}
	}

	strat, err := p.resolveStrategy(opts.StrategyName)
	if err != nil {
		return nil, err
	}

	p.callbacks.fireStart(goal, pctx, opts.StrategyName)

	successor, err := strat.CreatePlan(ctx, goal, pctx, opts)
	if err != nil {
		wrapped := agenterrors.WithContext(err, "planner.Replan", map[string]any{"planId": planID, "reason": reason})
		p.callbacks.fireError(wrapped, old)
		return nil, wrapped
	}

	if hasCycle(successor) {
		cycErr := fmt.Errorf("%w: replan of %q produced a cyclic dependency graph", agenterrors.ErrInvalidPlan, planID)
		p.callbacks.fireError(cycErr, successor)
		return nil, cycErr
	}

	for i, step := range successor.Steps {
		p.callbacks.fireStep(step, i, successor)
	}

	p.registry.Replace(planID, successor)
	p.callbacks.fireComplete(successor)
	p.callbacks.fireReplan(successor, reason)

	p.log.Debug(ctx, "plan replaced", agentlog.F("oldPlanId", planID), agentlog.F("newPlanId", successor.ID), agentlog.F("reason", reason))
	return successor, nil
}

// Registry exposes the planner's underlying plan registry, e.g. for the
// scheduler to look up a plan by ID.
func (p *Planner) Registry() *Registry {
	return p.registry
}

// hasCycle runs DFS white/gray/black coloring over a plan's step
// dependency graph.
func hasCycle(p *plan.Plan) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(p.Steps))
	byID := make(map[string]*plan.PlanStep, len(p.Steps))
	for i := range p.Steps {
		byID[p.Steps[i].ID] = &p.Steps[i]
		color[p.Steps[i].ID] = white
	}

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		step := byID[id]
		if step != nil {
			for _, dep := range step.Dependencies {
				switch color[dep] {
				case gray:
					return true
				case white:
					if visit(dep) {
						return true
					}
				}
			}
		}
		color[id] = black
		return false
	}

	for id := range byID {
		if color[id] == white {
			if visit(id) {
				return true
			}
		}
	}
	return false
}
