package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors for loop-level failures that do not carry per-call context.
var (
	// ErrMaxIterations indicates the run exhausted its iteration budget
	// without the model returning a toolless response.
	ErrMaxIterations = errors.New("max iterations exceeded")

	// ErrCancelled indicates the run's context was cancelled while the
	// loop was suspended at an iteration boundary, a tool dispatch, or an
	// approval wait.
	ErrCancelled = errors.New("run cancelled")

	// ErrUnknownApproval indicates RespondToolApproval referenced an
	// approval ID with no registered sink (already resolved, expired, or
	// never issued).
	ErrUnknownApproval = errors.New("unknown approval id")
)

// ErrorCode classifies a run's terminal failure for ErrorPayload.Code.
type ErrorCode string

const (
	CodeLLMError     ErrorCode = "llm_error"
	CodeToolError    ErrorCode = "tool_error"
	CodePathViolation ErrorCode = "path_violation"
	CodeConfigError  ErrorCode = "config_error"
	CodeMaxIterations ErrorCode = "max_iterations"
	CodeCancelled    ErrorCode = "cancelled"
)

// RunError wraps a terminal run failure with the code used to populate
// ErrorPayload.Code, keeping the underlying cause available via Unwrap.
type RunError struct {
	Code  ErrorCode
	Cause error
}

func (e *RunError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return string(e.Code)
}

func (e *RunError) Unwrap() error {
	return e.Cause
}

// NewRunError wraps cause under the given code. A nil cause is replaced by
// the code's own string so Error() is never empty.
func NewRunError(code ErrorCode, cause error) *RunError {
	return &RunError{Code: code, Cause: cause}
}

// LlmError wraps a failure from the LLM Client Contract (§4.6).
func LlmError(cause error) *RunError { return NewRunError(CodeLLMError, cause) }

// ToolErrorCode wraps a tool dispatch failure that aborted the run rather
// than becoming an IsError tool result (context cancellation mid-dispatch).
func ToolErrorCode(cause error) *RunError { return NewRunError(CodeToolError, cause) }

// PathViolation wraps a workspace-escape rejection surfaced from the Path
// Safety Layer as a run-terminating error rather than a tool result, used
// only for violations detected before a tool call is dispatchable (e.g. an
// invalid configured workspace).
func PathViolation(cause error) *RunError { return NewRunError(CodePathViolation, cause) }

// ConfigError wraps an AgentConfig.Validate failure.
func ConfigError(cause error) *RunError { return NewRunError(CodeConfigError, cause) }
