// Package commands implements the Command Surface (SPEC_FULL.md §4.10):
// the IPC-facing entry points a host process (the CLI, or a desktop
// shell's bridge) calls into. It owns the process-wide shared state named
// in §5 — the running-tasks map, the approval store, the extension
// registry, the session/audit store — and enforces the input-validation
// and concurrency-cap rules every entry point must apply before doing any
// work.
//
// Grounded on the teacher's cmd/nexus/commands.go registration style for
// the command-surface shape, and internal/agent/runtime.go's
// running-task-map-with-cancel-func pattern for CancelAgentTask, scaled
// down to this module's exclusive-lock/short-critical-section rule (§5:
// "Approval map and running-tasks map: exclusive lock, writer-only,
// wrapped in the shortest possible critical sections").
package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vswrite/agent-core/internal/agent"
	"github.com/vswrite/agent-core/internal/extensions"
	"github.com/vswrite/agent-core/internal/llm"
	"github.com/vswrite/agent-core/internal/observability"
	"github.com/vswrite/agent-core/internal/security"
	"github.com/vswrite/agent-core/internal/sessionstore"
	"github.com/vswrite/agent-core/internal/tools"
	"github.com/vswrite/agent-core/pkg/models"
)

// MaxConcurrentRuns bounds simultaneously active RunAgent calls (§5).
const MaxConcurrentRuns = 3

const (
	maxTaskChars         = 100000
	maxSystemPromptChars = 50000
	maxMessages          = 100
	// MaxAuditQueryLimit is the hard cap on any single audit-log query
	// (§4.10 "Session/audit queries with a 500-entry hard cap").
	MaxAuditQueryLimit = 500
)

// Surface holds every process-wide shared resource the command entry
// points coordinate over. A single Surface is shared by every concurrent
// caller.
type Surface struct {
	approvals *agent.ApprovalStore
	sessions  *sessionstore.Store
	registry  *extensions.Registry
	installer extensions.Installer
	metrics   *observability.Metrics

	mu           sync.Mutex // guards runningTasks only; short critical sections
	runningTasks map[string]*runningTask
}

type runningTask struct {
	cancel    context.CancelFunc
	sessionID string
}

// NewSurface builds a Surface. registry may be nil if no extensions are
// configured; installer's zero value is a no-op installer with no bundled
// directory. metrics may be nil, in which case RunAgent and
// RespondToolApproval skip instrumentation entirely.
func NewSurface(registry *extensions.Registry, installer extensions.Installer, metrics *observability.Metrics) *Surface {
	return &Surface{
		approvals:    agent.NewApprovalStore(),
		sessions:     sessionstore.New(),
		registry:     registry,
		installer:    installer,
		metrics:      metrics,
		runningTasks: make(map[string]*runningTask),
	}
}

// Approvals exposes the shared ApprovalStore so a caller can register a
// pending approval before a run reaches it. Tests and the CLI both need
// this to wire up RespondToolApproval.
func (s *Surface) Approvals() *agent.ApprovalStore { return s.approvals }

// Sessions exposes the shared Store for direct session/audit queries.
func (s *Surface) Sessions() *sessionstore.Store { return s.sessions }

// RunAgentResult is the IPC-facing result of one RunAgent call.
type RunAgentResult struct {
	TaskID        string
	Success       bool
	Response      string
	Error         string
	ToolCallCount int
}

// providerForLLM maps the data-model Provider (used in configs and
// sessions) to the llm package's own Provider enum (used to select a
// Client implementation). The two differ only in the Claude/Anthropic
// name: the data model calls it "claude" since that's the model family a
// config author writes, while the llm package calls it "anthropic" since
// that's the SDK it wraps.
func providerForLLM(p models.Provider) llm.Provider {
	switch p {
	case models.ProviderClaude:
		return llm.ProviderAnthropic
	case models.ProviderOpenAI:
		return llm.ProviderOpenAI
	case models.ProviderOpenRouter:
		return llm.ProviderOpenRouter
	case models.ProviderOllama:
		return llm.ProviderOllama
	default:
		return llm.Provider(p)
	}
}

// RunAgent validates task, runs the input through one Agent Loop
// invocation to completion, failure, or cancellation, and returns the
// summarized result. sink receives the run's AgentEvents as they occur,
// including the Start event carrying the run id a caller needs to later
// call CancelAgentTask.
//
// Config errors (oversized input, invalid config, an unresolvable
// workspace, or the concurrency cap) abort before any event is emitted,
// per §7: "Config errors abort immediately, before any event is emitted,
// at command-surface input validation."
func (s *Surface) RunAgent(ctx context.Context, task, systemPrompt, workspace string, messages []models.Message, config models.AgentConfig, sink agent.EventSink) (RunAgentResult, error) {
	if n := len(task); n == 0 || n > maxTaskChars {
		return RunAgentResult{}, fmt.Errorf("commands: task must be 1-%d chars, got %d", maxTaskChars, n)
	}
	if n := len(systemPrompt); n > maxSystemPromptChars {
		return RunAgentResult{}, fmt.Errorf("commands: system prompt must be <=%d chars, got %d", maxSystemPromptChars, n)
	}
	if n := len(messages); n > maxMessages {
		return RunAgentResult{}, fmt.Errorf("commands: messages must be <=%d, got %d", maxMessages, n)
	}
	if err := config.Validate(); err != nil {
		return RunAgentResult{}, err
	}

	workspaceCanon, err := security.SafePath(workspace, ".")
	if err != nil {
		return RunAgentResult{}, fmt.Errorf("commands: invalid workspace: %w", err)
	}

	runID := uuid.NewString()
	if err := s.reserveSlot(runID); err != nil {
		return RunAgentResult{}, err
	}
	defer s.releaseSlot(runID)

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.runningTasks[runID].cancel = cancel
	s.mu.Unlock()
	defer cancel()

	// s.registry is a *extensions.Registry; if it's nil, pass an
	// explicitly nil interface value rather than the typed nil pointer,
	// or d.extensions != nil inside the dispatcher would be true for a
	// nil *Registry and it would panic dereferencing it.
	var ext tools.ExtensionExecutor
	if s.registry != nil {
		ext = s.registry
	}
	dispatcher, err := tools.NewDispatcher(workspaceCanon, ext)
	if err != nil {
		return RunAgentResult{}, fmt.Errorf("commands: build dispatcher: %w", err)
	}
	client, err := llm.New(providerForLLM(config.Provider), config.APIKey, config.BaseURL)
	if err != nil {
		return RunAgentResult{}, fmt.Errorf("commands: build llm client: %w", err)
	}

	session := s.sessions.Create(models.Session{
		ID:           runID,
		Workspace:    workspaceCanon,
		Provider:     config.Provider,
		Model:        config.Model,
		ApprovalMode: config.ApprovalMode,
		Task:         task,
	})

	if s.metrics != nil {
		s.metrics.RunStarted()
	}
	startedAt := time.Now()

	loop := agent.NewLoop(client, dispatcher, s.approvals)
	result, runErr := loop.Run(runCtx, runID, config, systemPrompt, task, messages, sink)

	session.ToolCallCount = result.ToolCallCount
	session.TotalTokens = result.TotalTokens
	switch {
	case runErr == nil:
		session.Status = models.SessionCompleted
	case runCtx.Err() != nil:
		session.Status = models.SessionCancelled
	default:
		session.Status = models.SessionFailed
		session.Error = runErr.Error()
	}
	s.sessions.Update(session)
	s.sessions.RecordEvent(runID, "run_end", string(session.Status), runErr == nil)

	if s.metrics != nil {
		s.metrics.RunFinished(string(session.Status), time.Since(startedAt).Seconds())
		if result.TotalTokens > 0 {
			s.metrics.RecordTokens(string(config.Provider), config.Model, result.TotalTokens, 0)
		}
	}

	out := RunAgentResult{
		TaskID:        runID,
		Success:       runErr == nil,
		Response:      result.Content,
		ToolCallCount: result.ToolCallCount,
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	return out, nil
}

// reserveSlot performs the double-checked concurrency-cap check: count
// running tasks and insert a placeholder for runID in the same critical
// section, so two concurrent RunAgent calls can never both observe
// capacity under the cap and both proceed (§8 invariant 6).
func (s *Surface) reserveSlot(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runningTasks) >= MaxConcurrentRuns {
		return fmt.Errorf("commands: at capacity (%d running tasks, max %d)", len(s.runningTasks), MaxConcurrentRuns)
	}
	s.runningTasks[runID] = &runningTask{sessionID: runID}
	return nil
}

func (s *Surface) releaseSlot(runID string) {
	s.mu.Lock()
	delete(s.runningTasks, runID)
	s.mu.Unlock()
}

// CancelAgentTask cancels the run identified by taskID, if still running.
// Cancellation is cooperative: the loop observes ctx at its next
// suspension point (§5).
func (s *Surface) CancelAgentTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.runningTasks[taskID]
	if !ok || t.cancel == nil {
		return fmt.Errorf("commands: no running task %q", taskID)
	}
	t.cancel()
	return nil
}

// ListRunningTasks returns the task ids currently executing.
func (s *Surface) ListRunningTasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.runningTasks))
	for id := range s.runningTasks {
		ids = append(ids, id)
	}
	return ids
}

// CapacityInfo reports current concurrency-cap usage.
type CapacityInfo struct {
	Running int
	Max     int
}

// GetAgentRunCapacity reports how many of MaxConcurrentRuns slots are in use.
func (s *Surface) GetAgentRunCapacity() CapacityInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CapacityInfo{Running: len(s.runningTasks), Max: MaxConcurrentRuns}
}

// RespondToolApproval delivers an approval decision to the pending sink
// registered under approvalID, erroring if no such sink is registered
// (already resolved, timed out, or never existed).
func (s *Surface) RespondToolApproval(approvalID string, approved bool) error {
	if err := s.approvals.Resolve(approvalID, approved); err != nil {
		return err
	}
	if s.metrics != nil {
		outcome := "denied"
		if approved {
			outcome = "approved"
		}
		s.metrics.RecordApproval(outcome)
	}
	return nil
}
