package error

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by their nature and appropriate handling strategy.
type ErrorCategory int

const (
	// ErrCategoryUser represents errors caused by invalid input: a malformed
	// config value, an unknown scenario op, a failed scenario expectation.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryTransient represents temporary errors that might succeed on retry.
	ErrCategoryTransient

	// ErrCategorySystem represents errors requiring operator intervention.
	// Examples: unreadable config file, metrics listener that cannot bind.
	ErrCategorySystem

	// ErrCategoryData represents errors in decoded documents (YAML that does
	// not match the expected shape).
	ErrCategoryData

	// ErrCategoryConcurrency represents coordination failures surfaced to the
	// outer layers, such as a stress run that observed two lock owners.
	ErrCategoryConcurrency
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryUser:
		return "user"
	case ErrCategoryTransient:
		return "transient"
	case ErrCategorySystem:
		return "system"
	case ErrCategoryData:
		return "data"
	case ErrCategoryConcurrency:
		return "concurrency"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Error codes used across the outer layers.
const (
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeConfigRead          = "CONFIG_READ"
	CodeScenarioParse       = "SCENARIO_PARSE"
	CodeScenarioUnknownOp   = "SCENARIO_UNKNOWN_OP"
	CodeScenarioExpectation = "SCENARIO_EXPECTATION"
	CodeMetricsServe        = "METRICS_SERVE"
	CodeInvariantViolated   = "INVARIANT_VIOLATED"
)

// CoordError is a structured error with context about where it originated.
type CoordError struct {
	// Code is a unique identifier for this error type (e.g., "CONFIG_INVALID").
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	Detail string

	// Hint suggests how the caller might fix the problem.
	Hint string

	// Operation identifies what was being performed, e.g. "LoadConfig".
	Operation string

	// Component identifies where the error originated, e.g. "ScenarioRunner".
	Component string

	// Cause is the underlying error, if any.
	Cause error

	// Stack contains the call stack where this error was created.
	Stack []uintptr
}

// New creates a new CoordError with the specified category, code and message.
func New(category ErrorCategory, code, message string) *CoordError {
	return &CoordError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// Newf is New with a formatted message.
func Newf(category ErrorCategory, code, format string, args ...any) *CoordError {
	return &CoordError{
		Code:     code,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Stack:    captureStack(),
	}
}

// Wrap wraps an existing error with context information.
// If the error is already a CoordError, it enriches the existing error with
// operation and component context (only if not already set).
func Wrap(err error, code, operation, component string) *CoordError {
	if err == nil {
		return nil
	}

	var ce *CoordError
	if errors.As(err, &ce) {
		if ce.Operation == "" {
			ce.Operation = operation
		}
		if ce.Component == "" {
			ce.Component = component
		}
		return ce
	}

	return &CoordError{
		Code:      code,
		Category:  ErrCategorySystem,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// WithDetail sets Detail and returns the receiver for chaining.
func (e *CoordError) WithDetail(format string, args ...any) *CoordError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint sets Hint and returns the receiver for chaining.
func (e *CoordError) WithHint(hint string) *CoordError {
	e.Hint = hint
	return e
}

// captureStack skips captureStack, New/Wrap and runtime.Callers itself.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard Go error interface
//
// The format follows the pattern:
// [CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *CoordError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error.
func (e *CoordError) Unwrap() error {
	return e.Cause
}

// HasCode reports whether any CoordError in err's chain carries code.
func HasCode(err error, code string) bool {
	var ce *CoordError
	for err != nil {
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Code == code {
			return true
		}
		err = ce.Cause
	}
	return false
}

// FormatStack returns a human-readable stack trace for debugging purposes.
func (e *CoordError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n",
			f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}
