package plan

import (
	"context"
	"time"
)

// ToolCallContext carries the cancellation token, correlation IDs, and
// deadline the scheduler threads into every tool invocation. The tool
// runner implementation itself — HTTP adapters, subprocess shells, RPC
// clients — is out of this module's scope.
type ToolCallContext struct {
	Context       context.Context
	CorrelationID string
	ExecutionID   string
	TenantID      string
	Deadline      time.Time
}

// ToolRunner is the external collaborator that actually performs a tool
// call. Cancellation of ToolCallContext.Context must cause prompt
// completion with a cancellation error; implementations must not assume
// idempotence.
type ToolRunner interface {
	Invoke(ctx ToolCallContext, toolName string, arguments map[string]any) (any, error)
}

// LLMUsage reports token accounting for a single generation, mirrored onto
// tracer llm.generation spans as gen_ai.usage.* attributes.
type LLMUsage struct {
	InputTokens  int
	OutputTokens int
}

// LLMResult is the response shape from the consumed LLM client interface.
type LLMResult struct {
	Output string
	Usage  LLMUsage
	Model  string
}

// LLMOptions configures a single generation call.
type LLMOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// LLMClient is the external collaborator used by planning strategies that
// call out for goal decomposition. Errors propagate as planner errors.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, opts LLMOptions) (LLMResult, error)
}

// SessionStore is the external collaborator for enrichment-context
// key/value reads and writes. The core reads but does not specify a
// schema for the stored values.
type SessionStore interface {
	Get(ctx context.Context, sessionID, key string) (any, bool, error)
	Set(ctx context.Context, sessionID, key string, value any) error
}
