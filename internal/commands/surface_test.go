package commands

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vswrite/agent-core/internal/agent"
	"github.com/vswrite/agent-core/internal/extensions"
	"github.com/vswrite/agent-core/internal/observability"
	"github.com/vswrite/agent-core/pkg/models"
)

func newTestSurface() *Surface {
	return NewSurface(extensions.NewRegistry(nil), extensions.Installer{}, observability.NewMetrics(prometheus.NewRegistry()))
}

func baseConfig() models.AgentConfig {
	return models.AgentConfig{
		Provider:      models.ProviderOllama,
		Model:         "llama3.1",
		Temperature:   0.2,
		MaxTokens:     1024,
		MaxIterations: 3,
		ShellTimeout:  10,
		ApprovalMode:  models.ApprovalDryRun,
	}
}

func TestRunAgentRejectsOversizedTask(t *testing.T) {
	s := newTestSurface()
	_, err := s.RunAgent(context.Background(), strings.Repeat("a", maxTaskChars+1), "", t.TempDir(), nil, baseConfig(), agent.NopSink{})
	if err == nil {
		t.Fatal("expected an error for an oversized task")
	}
}

func TestRunAgentRejectsEmptyTask(t *testing.T) {
	s := newTestSurface()
	_, err := s.RunAgent(context.Background(), "", "", t.TempDir(), nil, baseConfig(), agent.NopSink{})
	if err == nil {
		t.Fatal("expected an error for an empty task")
	}
}

func TestRunAgentRejectsOversizedSystemPrompt(t *testing.T) {
	s := newTestSurface()
	_, err := s.RunAgent(context.Background(), "do something", strings.Repeat("a", maxSystemPromptChars+1), t.TempDir(), nil, baseConfig(), agent.NopSink{})
	if err == nil {
		t.Fatal("expected an error for an oversized system prompt")
	}
}

func TestRunAgentRejectsTooManyMessages(t *testing.T) {
	s := newTestSurface()
	messages := make([]models.Message, maxMessages+1)
	_, err := s.RunAgent(context.Background(), "do something", "", t.TempDir(), messages, baseConfig(), agent.NopSink{})
	if err == nil {
		t.Fatal("expected an error for too many prior messages")
	}
}

func TestRunAgentRejectsInvalidConfig(t *testing.T) {
	s := newTestSurface()
	cfg := baseConfig()
	cfg.MaxTokens = -1
	_, err := s.RunAgent(context.Background(), "do something", "", t.TempDir(), nil, cfg, agent.NopSink{})
	if err == nil {
		t.Fatal("expected an error for an invalid config")
	}
}

func TestRunAgentRejectsUnresolvableWorkspace(t *testing.T) {
	s := newTestSurface()
	_, err := s.RunAgent(context.Background(), "do something", "", "/nonexistent/workspace/path", nil, baseConfig(), agent.NopSink{})
	if err == nil {
		t.Fatal("expected an error for a workspace that doesn't exist")
	}
}

func TestRunAgentReleasesSlotAfterUnreachableProvider(t *testing.T) {
	s := newTestSurface()
	cfg := baseConfig()
	cfg.BaseURL = "http://127.0.0.1:1"

	result, err := s.RunAgent(context.Background(), "do something", "", t.TempDir(), nil, cfg, agent.NopSink{})
	if err != nil {
		t.Fatalf("RunAgent itself should not error on a run-time failure, got %v", err)
	}
	if result.Success {
		t.Fatal("expected the run to fail against an unreachable provider")
	}
	if result.Error == "" {
		t.Fatal("expected a populated error message")
	}

	cap := s.GetAgentRunCapacity()
	if cap.Running != 0 {
		t.Fatalf("expected the slot to be released after the run finished, got %d running", cap.Running)
	}

	sess, ok := s.GetSession(result.TaskID)
	if !ok {
		t.Fatal("expected a session to be recorded for the run")
	}
	if sess.Status != models.SessionFailed {
		t.Fatalf("expected session status Failed, got %v", sess.Status)
	}
}

func TestReserveSlotEnforcesConcurrencyCap(t *testing.T) {
	s := newTestSurface()
	for i := 0; i < MaxConcurrentRuns; i++ {
		if err := s.reserveSlot("task-" + string(rune('a'+i))); err != nil {
			t.Fatalf("expected slot %d to be reserved, got %v", i, err)
		}
	}
	if err := s.reserveSlot("one-too-many"); err == nil {
		t.Fatal("expected reserving beyond MaxConcurrentRuns to fail")
	}
}

func TestCancelAgentTaskUnknownTaskErrors(t *testing.T) {
	s := newTestSurface()
	if err := s.CancelAgentTask("does-not-exist"); err == nil {
		t.Fatal("expected an error cancelling an unknown task")
	}
}

func TestGetAgentRunCapacityReflectsReservations(t *testing.T) {
	s := newTestSurface()
	_ = s.reserveSlot("task-1")
	cap := s.GetAgentRunCapacity()
	if cap.Running != 1 || cap.Max != MaxConcurrentRuns {
		t.Fatalf("unexpected capacity: %+v", cap)
	}
}

func TestRespondToolApprovalUnknownIDErrors(t *testing.T) {
	s := newTestSurface()
	if err := s.RespondToolApproval("missing-id", true); err == nil {
		t.Fatal("expected an error resolving an unregistered approval id")
	}
}

func TestGetAuditLogClampsToMaxLimit(t *testing.T) {
	s := newTestSurface()
	for i := 0; i < MaxAuditQueryLimit+50; i++ {
		s.sessions.RecordEvent("sess-x", "tool_call", "ok", true)
	}
	got := s.GetAuditLog("sess-x", MaxAuditQueryLimit+1000)
	if len(got) != MaxAuditQueryLimit {
		t.Fatalf("expected audit query clamped to %d, got %d", MaxAuditQueryLimit, len(got))
	}
}

func TestListExtensionsEmptyRegistry(t *testing.T) {
	s := newTestSurface()
	if got := s.ListExtensions(); len(got) != 0 {
		t.Fatalf("expected no extensions loaded, got %v", got)
	}
}

func TestRunAgentRecordsRunMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSurface(extensions.NewRegistry(nil), extensions.Installer{}, observability.NewMetrics(reg))
	cfg := baseConfig()
	cfg.BaseURL = "http://127.0.0.1:1"

	if _, err := s.RunAgent(context.Background(), "do something", "", t.TempDir(), nil, cfg, agent.NopSink{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if count := testutil.CollectAndCount(s.metrics.RunsTotal); count != 1 {
		t.Fatalf("expected one runs_total label combination recorded, got %d", count)
	}
	if got := testutil.ToFloat64(s.metrics.ActiveRuns); got != 0 {
		t.Fatalf("expected ActiveRuns back to 0 after the run finished, got %v", got)
	}
}

func TestRespondToolApprovalNilMetricsDoesNotPanic(t *testing.T) {
	s := NewSurface(extensions.NewRegistry(nil), extensions.Installer{}, nil)
	s.approvals.Register("task-1")
	if err := s.RespondToolApproval("task-1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
