// Package agenterrors implements the module's error taxonomy: input,
// planning, execution, recoverable infrastructure, unrecoverable
// infrastructure, and observability error kinds, plus a
// CodedError/ErrorContext/PanicError trio for structured logging.
package agenterrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the taxonomy buckets from the
// design's error-handling section.
type Kind string

const (
	KindInput               Kind = "input"
	KindPlanning            Kind = "planning"
	KindExecution           Kind = "execution"
	KindRecoverableInfra    Kind = "recoverable_infrastructure"
	KindUnrecoverableInfra  Kind = "unrecoverable_infrastructure"
	KindObservability       Kind = "observability"
)

// Sentinel errors for the input-error category: these are surfaced
// synchronously to the caller and the plan is never registered.
var (
	ErrStrategyNotFound = errors.New("planner: strategy not found\n\n" +
		"Fix:\n" +
		"  1. Register it first: planner.RegisterStrategy(name, strategy)\n" +
		"  2. Check for a typo in the strategy name passed to CreatePlan")

	ErrInvalidPlan = errors.New("planner: invalid plan\n\n" +
		"Fix:\n" +
		"  1. A custom strategy introduced a cyclic dependency between steps\n" +
		"  2. Verify every PlanStep.Dependencies entry names an existing step ID")

	ErrCyclicDependency = errors.New("planner: cyclic dependency detected in plan steps")

	ErrEmptyGoal = errors.New("planner: goal is empty")
)

// Sentinel errors for the execution-error category, raised by the
// scheduler.
var (
	ErrStepTimeout      = errors.New("scheduler: step timed out")
	ErrExecutionTimeout = errors.New("scheduler: execution timed out")
	ErrCancelled        = errors.New("scheduler: execution cancelled")
	ErrMaxRetries       = errors.New("scheduler: maximum retry attempts exceeded")
	ErrDependencyFailed = errors.New("scheduler: dependency failed")
)

// CodedError carries a stable, programmatically matchable code alongside a
// human message.
type CodedError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s/%s] %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Kind, e.Code, e.Message)
}

func (e *CodedError) Unwrap() error { return e.Err }

// NewCodedError constructs a CodedError.
func NewCodedError(kind Kind, code, message string, err error) *CodedError {
	return &CodedError{Kind: kind, Code: code, Message: message, Err: err}
}

// Retryable reports whether the error's kind is retryable. Recoverable
// infrastructure errors (timeouts, rate limits) and execution errors are;
// input, planning and all other kinds are not.
func (e *CodedError) Retryable() bool {
	switch e.Kind {
	case KindRecoverableInfra, KindExecution:
		return true
	default:
		return false
	}
}

// IsCodedError reports whether err is, or wraps, a *CodedError.
func IsCodedError(err error) bool {
	var ce *CodedError
	return errors.As(err, &ce)
}

// GetErrorCode extracts the code from err if it is a *CodedError.
func GetErrorCode(err error) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// ErrorContext wraps an error with the operation being attempted and
// free-form debugging details.
type ErrorContext struct {
	Operation string
	Details   map[string]any
	Err       error
}

func (e *ErrorContext) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	msg := fmt.Sprintf("%s: %v", e.Operation, e.Err)
	for k, v := range e.Details {
		msg += fmt.Sprintf(" %s=%v", k, v)
	}
	return msg
}

func (e *ErrorContext) Unwrap() error { return e.Err }

// WithContext wraps err with an operation description and details. Returns
// nil if err is nil.
func WithContext(err error, operation string, details map[string]any) error {
	if err == nil {
		return nil
	}
	return &ErrorContext{Operation: operation, Details: details, Err: err}
}

// PanicError represents an error recovered from a panic, carrying the
// panic value and a stack trace for diagnostics.
type PanicError struct {
	Value      any
	StackTrace string
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic recovered: %v", e.Value) }
func (e *PanicError) Unwrap() error { return nil }
