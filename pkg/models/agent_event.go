package models

import "time"

// AgentEvent is the unified event envelope emitted by a run: exactly one
// payload field is non-nil, selected by Type. Sequence is monotonic within
// a run and gives ordering guarantees across the channel boundary.
type AgentEvent struct {
	Version  int            `json:"version"`
	Type     AgentEventType `json:"type"`
	Time     time.Time      `json:"time"`
	Sequence uint64         `json:"seq"`
	RunID    string         `json:"run_id"`

	Start                *StartPayload                `json:"start,omitempty"`
	ToolCallStart        *ToolCallStartPayload         `json:"tool_call_start,omitempty"`
	ToolCallComplete     *ToolCallCompletePayload      `json:"tool_call_complete,omitempty"`
	TextChunk            *TextChunkPayload             `json:"text_chunk,omitempty"`
	Complete             *CompletePayload              `json:"complete,omitempty"`
	Error                *ErrorPayload                 `json:"error,omitempty"`
	Cancelled            *CancelledPayload             `json:"cancelled,omitempty"`
	ToolApprovalRequired *ToolApprovalRequiredPayload  `json:"tool_approval_required,omitempty"`
	ToolSkipped          *ToolSkippedPayload           `json:"tool_skipped,omitempty"`
}

// AgentEventType discriminates AgentEvent.
type AgentEventType string

const (
	EventStart                AgentEventType = "start"
	EventToolCallStart        AgentEventType = "tool_call_start"
	EventToolCallComplete     AgentEventType = "tool_call_complete"
	EventTextChunk            AgentEventType = "text_chunk"
	EventComplete             AgentEventType = "complete"
	EventError                AgentEventType = "error"
	EventCancelled            AgentEventType = "cancelled"
	EventToolApprovalRequired AgentEventType = "tool_approval_required"
	EventToolSkipped          AgentEventType = "tool_skipped"
)

// StartPayload announces the beginning of a run.
type StartPayload struct {
	SessionID string   `json:"session_id"`
	Provider  Provider `json:"provider"`
	Model     string   `json:"model"`
	Task      string   `json:"task"`
}

// ToolCallStartPayload is emitted immediately before a tool call is
// dispatched (post-approval, if approval was required).
type ToolCallStartPayload struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Args       string `json:"args"`
}

// ToolCallCompletePayload carries the outcome of a dispatched tool call.
type ToolCallCompletePayload struct {
	ToolCallID string        `json:"tool_call_id"`
	Name       string        `json:"name"`
	Result     string        `json:"result"`
	IsError    bool          `json:"is_error"`
	Truncated  bool          `json:"truncated"`
	Duration   time.Duration `json:"duration"`
}

// TextChunkPayload carries one piece of assistant-authored text.
type TextChunkPayload struct {
	Text string `json:"text"`
}

// CompletePayload marks successful run termination.
type CompletePayload struct {
	FinalText     string `json:"final_text"`
	Iterations    int    `json:"iterations"`
	ToolCallCount int    `json:"tool_call_count"`
	TotalTokens   int    `json:"total_tokens"`
}

// ErrorPayload marks run termination due to an unrecoverable error.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// CancelledPayload marks run termination due to caller cancellation.
type CancelledPayload struct {
	Reason string `json:"reason,omitempty"`
}

// ToolApprovalRequiredPayload is emitted when a tool call is gated by the
// configured ApprovalMode and the run is suspended awaiting a decision.
type ToolApprovalRequiredPayload struct {
	ApprovalID string   `json:"approval_id"`
	ToolCallID string   `json:"tool_call_id"`
	Name       string   `json:"name"`
	Args       string   `json:"args"`
	Risk       ToolRisk `json:"risk"`
}

// ToolSkippedPayload is emitted when a pending tool call is denied approval
// or is dropped (e.g. superseded by steering) instead of executed.
type ToolSkippedPayload struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}
