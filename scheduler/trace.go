package scheduler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/flowcortex/agentcore/plan"
	"github.com/flowcortex/agentcore/tracer"
)

func (s *Scheduler) traceStart(ctx context.Context, h *Handle, step plan.PlanStep, toolName string, timeout time.Duration) (context.Context, tracer.SpanHandle) {
	if s.trace == nil {
		return ctx, noopSpanHandle{}
	}
	return s.trace.StartToolSpan(ctx, toolName, step.ID, timeout.Milliseconds(), "", h.exec.CorrelationID, h.exec.ExecutionID)
}

func codesError() codes.Code { return codes.Error }

// noopSpanHandle is used when no tracer was configured.
type noopSpanHandle struct{}

func (noopSpanHandle) SetAttribute(string, any)          {}
func (noopSpanHandle) SetAttributes(map[string]any)      {}
func (noopSpanHandle) SetStatus(codes.Code, string)      {}
func (noopSpanHandle) RecordException(error)             {}
func (noopSpanHandle) AddEvent(string, map[string]any)   {}
func (noopSpanHandle) End()                              {}
