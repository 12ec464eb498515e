package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRunFinishedRecordsStatusAndDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RunStarted()
	m.RunFinished("completed", 1.5)

	if count := testutil.CollectAndCount(m.RunsTotal); count != 1 {
		t.Fatalf("expected 1 status label combination, got %d", count)
	}
	expected := `
		# HELP agentcore_runs_total Total number of agent runs by terminal status
		# TYPE agentcore_runs_total counter
		agentcore_runs_total{status="completed"} 1
	`
	if err := testutil.CollectAndCompare(m.RunsTotal, strings.NewReader(expected), "agentcore_runs_total"); err != nil {
		t.Errorf("unexpected metric value: %v", err)
	}
	if got := testutil.ToFloat64(m.ActiveRuns); got != 0 {
		t.Fatalf("expected ActiveRuns back to 0 after RunFinished, got %v", got)
	}
}

func TestRunStartedIncrementsActiveRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RunStarted()
	m.RunStarted()
	if got := testutil.ToFloat64(m.ActiveRuns); got != 2 {
		t.Fatalf("expected ActiveRuns=2, got %v", got)
	}
}

func TestRecordToolCallLabelsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordToolCall("read_file", "success")
	m.RecordToolCall("run_shell", "error")

	if count := testutil.CollectAndCount(m.ToolCallsTotal); count != 2 {
		t.Fatalf("expected 2 label combinations, got %d", count)
	}
}

func TestRecordApprovalLabelsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordApproval("approved")
	m.RecordApproval("denied")
	m.RecordApproval("approved")

	expected := `
		# HELP agentcore_approvals_total Total number of tool-call approval decisions by outcome
		# TYPE agentcore_approvals_total counter
		agentcore_approvals_total{outcome="approved"} 2
		agentcore_approvals_total{outcome="denied"} 1
	`
	if err := testutil.CollectAndCompare(m.ApprovalsTotal, strings.NewReader(expected), "agentcore_approvals_total"); err != nil {
		t.Errorf("unexpected metric value: %v", err)
	}
}

func TestRecordTokensSkipsZeroCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordTokens("openai", "gpt-4o", 100, 0)
	if count := testutil.CollectAndCount(m.LLMTokensUsed); count != 1 {
		t.Fatalf("expected only the input-token label to be recorded, got %d combinations", count)
	}
}
