// Package planner turns a Goal into an executable Plan. It generalizes a
// single LLM-driven decomposition step into a small capability interface
// with four built-in, deterministic strategies (linear, tree, graph,
// multi) over the dependency-level groupings a planning step produces.
package planner

import (
	"context"
	"time"

	"github.com/flowcortex/agentcore/plan"
)

// PlanningContext carries caller-supplied enrichment for a CreatePlan
// call: prior session data, tenant scoping, and free-form hints a
// strategy may read. It deliberately does not specify a schema for
// Metadata, mirroring plan.SessionStore's "reads but does not specify a
// schema" contract.
type PlanningContext struct {
	TenantID      string
	CorrelationID string
	History       []string
	Metadata      map[string]any
}

// Options configures a single CreatePlan/Replan call.
type Options struct {
	// StrategyName selects a registered strategy by name. Empty means
	// "use the agent's configured default, falling back to linear".
	StrategyName string

	MaxSteps  int
	BeamWidth int
	Depth     int

	// DecideStrategy lets a caller override the multi-strategy's
	// heuristic strategy selection.
	DecideStrategy func(goal plan.Goal, pctx PlanningContext) string

	// ValidateSchema asks the multi strategy to validate the produced
	// plan; a failure is logged as a warning and never fails creation.
	ValidateSchema bool
}

func (o Options) maxStepsOrDefault() int {
	if o.MaxSteps > 0 {
		return o.MaxSteps
	}
	return 5
}

func (o Options) beamWidthOrDefault() int {
	if o.BeamWidth > 0 {
		return o.BeamWidth
	}
	return 2
}

func (o Options) depthOrDefault() int {
	if o.Depth > 0 {
		return o.Depth
	}
	return 1
}

// ParallelismAnalysis partitions a plan's steps into groups that can run
// concurrently and a residual sequential chain.
type ParallelismAnalysis struct {
	Parallelizable [][]string
	Sequential     []string
}

// ComplexityEstimate summarizes the predicted cost and risk of executing
// a plan.
type ComplexityEstimate struct {
	TimeEstimate time.Duration
	RiskLevel    string // low | medium | high
	Confidence   float64
}

// Optimization is a single suggested change to a plan, with an estimated
// fractional improvement and the tradeoff it implies.
type Optimization struct {
	Kind             string // parallelize | merge | cache | batch
	Description      string
	PotentialSavings float64
	Tradeoffs        string
}

// Strategy is the capability set every planning algorithm implements.
// Built-in strategies (linear, tree, graph, multi) and any host-supplied
// strategy registered via Planner.RegisterStrategy satisfy it.
type Strategy interface {
	CreatePlan(ctx context.Context, goal plan.Goal, pctx PlanningContext, opts Options) (*plan.Plan, error)
	AnalyzeParallelism(p *plan.Plan) ParallelismAnalysis
	EstimateComplexity(p *plan.Plan) ComplexityEstimate
	SuggestOptimizations(p *plan.Plan) []Optimization
}

func durationWeight(c plan.Complexity) time.Duration {
	switch c {
	case plan.ComplexityHigh:
		return 8 * time.Second
	case plan.ComplexityMedium:
		return 3 * time.Second
	default:
		return time.Second
	}
}

// analyzeParallelismByHints is shared by every built-in strategy: steps
// with no dependencies and CanRunInParallel set form one parallel group,
// and every other step goes to the sequential list. Tool names are not
// inspected.
func analyzeParallelismByHints(p *plan.Plan) ParallelismAnalysis {
	depFree := make([]string, 0, len(p.Steps))
	sequential := make([]string, 0)
	for _, s := range p.Steps {
		if len(s.Dependencies) == 0 && s.CanRunInParallel {
			depFree = append(depFree, s.ID)
		} else {
			sequential = append(sequential, s.ID)
		}
	}

	var groups [][]string
	if len(depFree) > 0 {
		groups = append(groups, depFree)
	}
	return ParallelismAnalysis{Parallelizable: groups, Sequential: sequential}
}

// estimateComplexityByDuration is shared by every built-in strategy: a
// duration-weighted sum over step complexity, with confidence shrinking
// as the plan grows and as unknown resource requirements accumulate.
func estimateComplexityByDuration(p *plan.Plan) ComplexityEstimate {
	var total time.Duration
	criticalCount := 0
	unknownReqs := 0
	for _, s := range p.Steps {
		d := s.EstimatedDuration
		if d == 0 {
			d = durationWeight(s.Complexity)
		}
		total += d
		if s.Critical {
			criticalCount++
		}
		if s.ResourceRequirements == (plan.ResourceRequirements{}) {
			unknownReqs++
		}
	}

	risk := "low"
	if len(p.Steps) > 0 {
		ratio := float64(criticalCount) / float64(len(p.Steps))
		switch {
		case ratio > 0.5:
			risk = "high"
		case ratio > 0.2:
			risk = "medium"
		}
	}

	confidence := 1.0
	confidence -= float64(len(p.Steps)) * 0.02
	confidence -= float64(unknownReqs) * 0.03
	if confidence < 0.1 {
		confidence = 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return ComplexityEstimate{TimeEstimate: total, RiskLevel: risk, Confidence: confidence}
}

// suggestOptimizationsGeneric is shared by every built-in strategy:
// independent-cluster parallelization, duplicate-description merging,
// high-duration caching, and large-plan batching.
func suggestOptimizationsGeneric(p *plan.Plan) []Optimization {
	var out []Optimization

	par := analyzeParallelismByHints(p)
	for _, group := range par.Parallelizable {
		if len(group) > 1 {
			out = append(out, Optimization{
				Kind:             "parallelize",
				Description:      "independent steps can run concurrently",
				PotentialSavings: 0.3,
				Tradeoffs:        "higher peak resource usage",
			})
			break
		}
	}

	seen := make(map[string]int)
	for _, s := range p.Steps {
		seen[s.Description]++
	}
	for _, count := range seen {
		if count > 1 {
			out = append(out, Optimization{
				Kind:             "merge",
				Description:      "duplicate step descriptions can be merged",
				PotentialSavings: 0.15,
				Tradeoffs:        "loses per-occurrence result granularity",
			})
			break
		}
	}

	for _, s := range p.Steps {
		if s.EstimatedDuration >= 5*time.Second {
			out = append(out, Optimization{
				Kind:             "cache",
				Description:      "long-running step result can be cached across replans",
				PotentialSavings: 0.4,
				Tradeoffs:        "risk of serving stale results",
			})
			break
		}
	}

	if len(p.Steps) > 10 {
		out = append(out, Optimization{
			Kind:             "batch",
			Description:      "large plan can be split into execution batches",
			PotentialSavings: 0.1,
			Tradeoffs:        "adds batch coordination overhead",
		})
	}

	return out
}
