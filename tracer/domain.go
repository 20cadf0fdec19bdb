package tracer

import (
	"context"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/flowcortex/agentcore/plan"
)

// CorrelationContextProvider builds a ContextProvider that injects the
// three standard correlation attributes from a lookup function, for use
// when the caller threads tenant/correlation/execution IDs through
// context.Context values rather than explicit parameters.
func CorrelationContextProvider(tenantID, correlationID, executionID func(ctx context.Context) string) ContextProvider {
	return func(ctx context.Context) map[string]string {
		attrs := map[string]string{}
		if tenantID != nil {
			if v := tenantID(ctx); v != "" {
				attrs["tenant.id"] = v
			}
		}
		if correlationID != nil {
			if v := correlationID(ctx); v != "" {
				attrs["correlation.id"] = v
			}
		}
		if executionID != nil {
			if v := executionID(ctx); v != "" {
				attrs["execution.id"] = v
			}
		}
		return attrs
	}
}

// StartAgentSpan starts an "agent.<phase>" span, e.g. "agent.thinking".
func (t *Tracer) StartAgentSpan(ctx context.Context, phase string, attrs map[string]any) (context.Context, SpanHandle) {
	return t.StartSpan(ctx, "agent."+phase, SpanOptions{Kind: oteltrace.SpanKindInternal, Attributes: attrs})
}

// StartToolSpan starts a "tool.execute" span carrying the attributes the
// scheduler arms before invoking a tool: tool name, call ID, timeout, and
// correlation identifiers.
func (t *Tracer) StartToolSpan(ctx context.Context, toolName, callID string, timeoutMs int64, tenantID, correlationID, executionID string) (context.Context, SpanHandle) {
	attrs := map[string]any{
		"tool.name":      toolName,
		"callId":         callID,
		"timeoutMs":      timeoutMs,
		"tenant.id":      tenantID,
		"correlation.id": correlationID,
		"execution.id":   executionID,
	}
	return t.StartSpan(ctx, "tool.execute", SpanOptions{Kind: oteltrace.SpanKindClient, Attributes: attrs})
}

// StartLLMSpan starts an "llm.generation" span carrying OpenTelemetry's
// gen_ai.* semantic-convention request attributes (model, max tokens,
// temperature); token usage is added with RecordLLMUsage once the
// generation completes.
func (t *Tracer) StartLLMSpan(ctx context.Context, model string, opts plan.LLMOptions) (context.Context, SpanHandle) {
	attrs := map[string]any{
		"gen_ai.model.name":        model,
		"gen_ai.request.max_tokens": opts.MaxTokens,
		"gen_ai.request.temperature": opts.Temperature,
	}
	return t.StartSpan(ctx, "llm.generation", SpanOptions{Kind: oteltrace.SpanKindClient, Attributes: attrs})
}

// RecordLLMUsage annotates an in-flight llm.generation span with the
// token-accounting attributes once a generation completes.
func RecordLLMUsage(span SpanHandle, usage plan.LLMUsage) {
	span.SetAttributes(map[string]any{
		"gen_ai.usage.input_tokens":  usage.InputTokens,
		"gen_ai.usage.output_tokens": usage.OutputTokens,
	})
}
