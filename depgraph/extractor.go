// Package depgraph extracts a Plan's tool-call dependency graph: the set
// of steps that look like tool invocations, the ToolDependency edges
// between them, and any warnings about dangling or cyclic edges. It
// never fails on a cycle — the scheduler is the authority on execution
// order; depgraph only reports what it sees. Cycle detection is a
// standard DFS white/gray/black colouring, generalized from task-tree
// validation to cross-step dependency extraction with a warning-only
// failure mode.
package depgraph

import (
	"regexp"
	"strings"

	"github.com/flowcortex/agentcore/plan"
)

// toolVerbPattern matches a leading verb that marks a step description
// as tool-like.
var toolVerbPattern = regexp.MustCompile(`(?i)^(call|invoke|execute|run|get|post|put|delete|build|test|deploy|fetch|process|analyze|generate)\b`)

// functionCallPattern matches "name(args)" style descriptions.
var functionCallPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*\(.*\)$`)

var sanitizePattern = regexp.MustCompile(`[^a-z0-9_]+`)

// Options configures an Extract call.
type Options struct {
	// ExcludeNonCritical drops non-critical steps from the tool-call set
	// before dependency extraction.
	ExcludeNonCritical bool
	// DefaultFailureAction is used for required dependencies; optional
	// dependencies always use plan.FailureActionContinue.
	DefaultFailureAction plan.FailureAction
	// ValidateCircular enables the DFS cycle scan; warnings only.
	ValidateCircular bool
}

func (o Options) defaultFailureActionOrStop() plan.FailureAction {
	if o.DefaultFailureAction == "" {
		return plan.FailureStop
	}
	return o.DefaultFailureAction
}

// Result is the extractor's output.
type Result struct {
	ToolCalls    []plan.ToolCall
	Dependencies []plan.ToolDependency
	Warnings     []string
	StepMap      map[string]*plan.PlanStep
}

// isToolLike reports whether a step looks like a tool invocation: it has
// a bound ToolID, or its description matches a leading tool verb or
// function-call syntax.
func isToolLike(s plan.PlanStep) bool {
	if s.ToolID != "" {
		return true
	}
	desc := strings.TrimSpace(s.Description)
	return toolVerbPattern.MatchString(desc) || functionCallPattern.MatchString(desc)
}

// deriveToolName prefers an explicit ToolID, falling back to the first
// word of the description, sanitized to [a-z0-9_].
func deriveToolName(s plan.PlanStep) string {
	name := s.ToolID
	if name == "" {
		fields := strings.Fields(s.Description)
		if len(fields) > 0 {
			name = fields[0]
		}
	}
	name = strings.ToLower(name)
	name = sanitizePattern.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "unknown_tool"
	}
	return name
}

// Extract builds the dependency graph for p's tool-like steps.
func Extract(p *plan.Plan, opts Options) Result {
	result := Result{StepMap: make(map[string]*plan.PlanStep, len(p.Steps))}

	included := make(map[string]plan.PlanStep)
	toolNames := make(map[string]string)

	for i := range p.Steps {
		step := p.Steps[i]
		result.StepMap[step.ID] = &p.Steps[i]

		if !isToolLike(step) {
			continue
		}
		if opts.ExcludeNonCritical && !step.Critical {
			continue
		}

		toolName := deriveToolName(step)
		toolNames[step.ID] = toolName
		included[step.ID] = step

		call := plan.ToolCall{
			CallID:   step.ID,
			ToolName: toolName,
			Arguments: step.Params,
		}
		result.ToolCalls = append(result.ToolCalls, call)
	}

	for id, step := range included {
		toolName := toolNames[id]
		for _, depID := range step.Dependencies {
			depStep, exists := result.StepMap[depID]
			if !exists {
				result.Warnings = append(result.Warnings, "dependency of step "+id+" references unknown step "+depID)
				continue
			}
			if _, stillIncluded := included[depID]; !stillIncluded {
				result.Warnings = append(result.Warnings, "dependency of step "+id+" references filtered-out step "+depID)
				continue
			}

			depType := plan.DependencyRequired
			failureAction := opts.defaultFailureActionOrStop()
			if !step.Critical {
				depType = plan.DependencyOptional
				failureAction = plan.FailureContinue
			}

			dep := plan.ToolDependency{
				ToolName:      toolName,
				Type:          depType,
				FailureAction: failureAction,
			}
			if depStep.RetryLimit > 1 {
				dep.FallbackTool = toolName + "_lite"
			}

			result.Dependencies = append(result.Dependencies, dep)
		}
	}

	if opts.ValidateCircular {
		result.Warnings = append(result.Warnings, detectCycles(p, included)...)
	}

	return result
}

// detectCycles runs DFS white/gray/black coloring over the dependency
// edges between included steps, emitting one warning per back edge
// naming the offending tool rather than failing extraction.
func detectCycles(p *plan.Plan, included map[string]plan.PlanStep) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(included))
	for id := range included {
		color[id] = white
	}

	var warnings []string
	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		step := included[id]
		for _, dep := range step.Dependencies {
			if _, ok := included[dep]; !ok {
				continue
			}
			switch color[dep] {
			case gray:
				warnings = append(warnings, "cyclic dependency detected involving tool "+deriveToolName(included[id])+" -> "+deriveToolName(included[dep]))
			case white:
				visit(dep)
			}
		}
		color[id] = black
	}

	for id := range included {
		if color[id] == white {
			visit(id)
		}
	}
	return warnings
}
