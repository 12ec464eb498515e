// Package agent implements the Agent Loop (SPEC_FULL.md §4.7): the
// conversation-orchestration state machine that drives an llm.Client
// through iterations, dispatches tool calls sequentially through
// tools.Dispatcher, gates risky calls behind the ApprovalStore, and emits
// AgentEvents to an EventSink in strict per-run source order.
//
// Grounded on the teacher's internal/agent/loop.go phase structure
// (Init -> Stream -> ExecuteTools -> Continue/Complete) and
// internal/agent/approval.go's single-shot channel + TTL registration-
// before-emission pattern. This is a deliberate [REDESIGN] from the
// teacher: tool calls within one iteration are dispatched one at a time in
// source order (see §5, "Tool-call execution within an iteration is
// strictly sequential") rather than the teacher's concurrent
// semaphore-bounded ExecuteAll, since the teacher's own executor.go
// concurrency model does not match this module's invariant.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/vswrite/agent-core/internal/llm"
	"github.com/vswrite/agent-core/internal/tools"
	"github.com/vswrite/agent-core/pkg/models"
)

// RunResult summarizes a completed (or failed) run for the Command Surface.
type RunResult struct {
	Content       string
	Iterations    int
	ToolCallCount int
	TotalTokens   int
}

// Loop drives one run at a time; a single Loop value is reused across
// concurrent runs (it holds no per-run mutable state of its own).
type Loop struct {
	client     llm.Client
	dispatcher *tools.Dispatcher
	approvals  *ApprovalStore
}

// NewLoop builds a Loop. approvals may be nil, in which case any tool call
// requiring approval is denied immediately (no UI to ask).
func NewLoop(client llm.Client, dispatcher *tools.Dispatcher, approvals *ApprovalStore) *Loop {
	return &Loop{client: client, dispatcher: dispatcher, approvals: approvals}
}

// Run executes one agent run to completion, failure, or cancellation,
// emitting AgentEvents to sink along the way. priorMessages is the
// conversation history to resume (empty for a fresh session); task is
// appended as the final user turn before the first iteration.
func (l *Loop) Run(ctx context.Context, runID string, cfg models.AgentConfig, systemPrompt, task string, priorMessages []models.Message, sink EventSink) (RunResult, error) {
	emitter := newEventEmitter(runID, sink)

	conversation := make([]models.Message, 0, len(priorMessages)+1)
	conversation = append(conversation, priorMessages...)
	conversation = append(conversation, models.Message{Role: models.RoleUser, Content: task})

	toolSchemas := l.dispatcher.Schemas()

	emitter.emit(ctx, models.EventStart, func(e *models.AgentEvent) {
		e.Start = &models.StartPayload{Provider: cfg.Provider, Model: cfg.Model, Task: task}
	})

	result := RunResult{}

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			l.emitCancelled(ctx, emitter, err)
			return result, NewRunError(CodeCancelled, err)
		}

		resp, err := l.client.Chat(ctx, systemPrompt, conversation, toolSchemas, cfg.Model, cfg.MaxTokens)
		if err != nil {
			runErr := LlmError(err)
			l.emitError(ctx, emitter, runErr)
			return result, runErr
		}
		result.Iterations = iter + 1
		if resp.Usage != nil {
			result.TotalTokens += resp.Usage.InputTokens + resp.Usage.OutputTokens
		}

		if resp.Content != "" {
			emitter.emit(ctx, models.EventTextChunk, func(e *models.AgentEvent) {
				e.TextChunk = &models.TextChunkPayload{Text: resp.Content}
			})
		}

		if len(resp.ToolCalls) == 0 {
			result.Content = resp.Content
			emitter.emit(ctx, models.EventComplete, func(e *models.AgentEvent) {
				e.Complete = &models.CompletePayload{
					FinalText:     resp.Content,
					Iterations:    result.Iterations,
					ToolCallCount: result.ToolCallCount,
					TotalTokens:   result.TotalTokens,
				}
			})
			return result, nil
		}

		conversation = append(conversation, models.Message{
			Role:      models.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				l.emitCancelled(ctx, emitter, err)
				return result, NewRunError(CodeCancelled, err)
			}

			toolMsg, counted := l.dispatchOne(ctx, emitter, cfg, tc)
			conversation = append(conversation, toolMsg)
			if counted {
				result.ToolCallCount++
			}
		}
	}

	runErr := NewRunError(CodeMaxIterations, ErrMaxIterations)
	l.emitError(ctx, emitter, runErr)
	return result, runErr
}

// dispatchOne runs the approval-gate-then-dispatch sequence for a single
// tool call (§4.7 step 3.a-g) and returns the RoleTool message to append to
// the conversation, plus whether the call counted toward ToolCallCount
// (dry-run and denied calls do not).
func (l *Loop) dispatchOne(ctx context.Context, emitter *eventEmitter, cfg models.AgentConfig, tc models.ToolCall) (models.Message, bool) {
	risk := models.RiskForTool(tc.Name)

	if cfg.ApprovalMode == models.ApprovalDryRun {
		emitter.emit(ctx, models.EventToolSkipped, func(e *models.AgentEvent) {
			e.ToolSkipped = &models.ToolSkippedPayload{ToolCallID: tc.ID, Name: tc.Name, Reason: "dry run"}
		})
		return models.Message{Role: models.RoleTool, ToolCallID: tc.ID, Content: "would execute (dry run)"}, false
	}

	if cfg.ApprovalMode.NeedsApproval(risk) {
		approved := l.awaitApproval(ctx, emitter, tc, risk)
		if !approved {
			msg := "tool call denied"
			emitter.emit(ctx, models.EventToolCallComplete, func(e *models.AgentEvent) {
				e.ToolCallComplete = &models.ToolCallCompletePayload{ToolCallID: tc.ID, Name: tc.Name, Result: msg, IsError: true}
			})
			return models.Message{Role: models.RoleTool, ToolCallID: tc.ID, Content: msg}, false
		}
	}

	emitter.emit(ctx, models.EventToolCallStart, func(e *models.AgentEvent) {
		e.ToolCallStart = &models.ToolCallStartPayload{ToolCallID: tc.ID, Name: tc.Name, Args: tc.Args}
	})

	started := time.Now()
	res := l.dispatcher.Dispatch(ctx, tc)
	duration := time.Since(started)

	emitter.emit(ctx, models.EventToolCallComplete, func(e *models.AgentEvent) {
		e.ToolCallComplete = &models.ToolCallCompletePayload{
			ToolCallID: tc.ID,
			Name:       tc.Name,
			Result:     res.Content,
			IsError:    res.IsError,
			Truncated:  res.Truncated,
			Duration:   duration,
		}
	})

	return models.Message{Role: models.RoleTool, ToolCallID: tc.ID, Content: res.Content}, true
}

// awaitApproval mints an approval ID, registers its sink before emitting
// ToolApprovalRequired (so a reply racing in immediately after the event
// is never lost), and waits for a decision, cancellation, or timeout.
func (l *Loop) awaitApproval(ctx context.Context, emitter *eventEmitter, tc models.ToolCall, risk models.ToolRisk) bool {
	if l.approvals == nil {
		emitter.emit(ctx, models.EventToolApprovalRequired, func(e *models.AgentEvent) {
			e.ToolApprovalRequired = &models.ToolApprovalRequiredPayload{ToolCallID: tc.ID, Name: tc.Name, Args: tc.Args, Risk: risk}
		})
		return false
	}

	approvalID := fmt.Sprintf("%s-approval", tc.ID)
	ch := l.approvals.Register(approvalID)
	emitter.emit(ctx, models.EventToolApprovalRequired, func(e *models.AgentEvent) {
		e.ToolApprovalRequired = &models.ToolApprovalRequiredPayload{ApprovalID: approvalID, ToolCallID: tc.ID, Name: tc.Name, Args: tc.Args, Risk: risk}
	})
	approved := l.approvals.Wait(ctx, ch)
	l.approvals.Remove(approvalID)
	return approved
}

// emitError always emits against a background context: a terminal error
// event must reach the sink even when the run's own ctx is already done,
// matching the teacher's "never drop terminal events" rule for its
// backpressure/chunk-adapter sinks.
func (l *Loop) emitError(ctx context.Context, emitter *eventEmitter, err *RunError) {
	_ = ctx
	emitter.emit(context.Background(), models.EventError, func(e *models.AgentEvent) {
		e.Error = &models.ErrorPayload{Message: err.Error(), Code: string(err.Code)}
	})
}

func (l *Loop) emitCancelled(ctx context.Context, emitter *eventEmitter, cause error) {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	emitter.emit(context.Background(), models.EventCancelled, func(e *models.AgentEvent) {
		e.Cancelled = &models.CancelledPayload{Reason: reason}
	})
}
