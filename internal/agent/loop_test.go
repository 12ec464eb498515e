package agent

import (
	"context"
	"testing"
	"time"

	"github.com/vswrite/agent-core/internal/llm"
	"github.com/vswrite/agent-core/internal/tools"
	"github.com/vswrite/agent-core/pkg/models"
)

// scriptedClient replays a fixed sequence of ChatResponses, one per call,
// so tests can drive the loop through exact iteration scenarios.
type scriptedClient struct {
	responses []llm.ChatResponse
	calls     int
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) Chat(ctx context.Context, system string, messages []models.Message, toolSchemas []models.ToolSchema, model string, maxTokens int) (llm.ChatResponse, error) {
	if c.calls >= len(c.responses) {
		return llm.ChatResponse{}, nil
	}
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

func newTestDispatcher(t *testing.T) *tools.Dispatcher {
	t.Helper()
	d, err := tools.NewDispatcher(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func baseConfig() models.AgentConfig {
	return models.AgentConfig{
		Provider:      models.ProviderOpenAI,
		Model:         "gpt-4o",
		MaxTokens:     1024,
		MaxIterations: 10,
		ApprovalMode:  models.ApprovalAutoApprove,
	}
}

func TestLoopCompletesWithNoToolCalls(t *testing.T) {
	client := &scriptedClient{responses: []llm.ChatResponse{
		{Content: "hello there", Usage: &llm.Usage{InputTokens: 5, OutputTokens: 3}},
	}}
	l := NewLoop(client, newTestDispatcher(t), NewApprovalStore())
	sink := &RecordingSink{}

	result, err := l.Run(context.Background(), "run-1", baseConfig(), "be helpful", "say hi", nil, sink)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Content != "hello there" || result.Iterations != 1 || result.TotalTokens != 8 {
		t.Fatalf("unexpected result: %+v", result)
	}

	var sawStart, sawComplete bool
	for _, e := range sink.Events {
		switch e.Type {
		case models.EventStart:
			sawStart = true
		case models.EventComplete:
			sawComplete = true
			if e.Complete.FinalText != "hello there" {
				t.Fatalf("unexpected complete payload: %+v", e.Complete)
			}
		}
	}
	if !sawStart || !sawComplete {
		t.Fatalf("expected start and complete events, got %+v", sink.Events)
	}
}

func TestLoopDispatchesToolThenCompletes(t *testing.T) {
	client := &scriptedClient{responses: []llm.ChatResponse{
		{ToolCalls: []models.ToolCall{{ID: "call-1", Name: "list_dir", Args: `{"path":"."}`}}},
		{Content: "done"},
	}}
	l := NewLoop(client, newTestDispatcher(t), NewApprovalStore())
	sink := &RecordingSink{}

	result, err := l.Run(context.Background(), "run-2", baseConfig(), "", "list files", nil, sink)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.ToolCallCount != 1 || result.Iterations != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	var sawStart, sawComplete bool
	for _, e := range sink.Events {
		if e.Type == models.EventToolCallStart {
			sawStart = true
		}
		if e.Type == models.EventToolCallComplete {
			sawComplete = true
		}
	}
	if !sawStart || !sawComplete {
		t.Fatalf("expected tool call lifecycle events, got %+v", sink.Events)
	}
}

func TestLoopDryRunSkipsExecution(t *testing.T) {
	client := &scriptedClient{responses: []llm.ChatResponse{
		{ToolCalls: []models.ToolCall{{ID: "call-1", Name: "delete_file", Args: `{"path":"x"}`}}},
		{Content: "done"},
	}}
	cfg := baseConfig()
	cfg.ApprovalMode = models.ApprovalDryRun
	l := NewLoop(client, newTestDispatcher(t), NewApprovalStore())
	sink := &RecordingSink{}

	if _, err := l.Run(context.Background(), "run-3", cfg, "", "delete x", nil, sink); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var sawSkipped bool
	for _, e := range sink.Events {
		if e.Type == models.EventToolSkipped {
			sawSkipped = true
		}
		if e.Type == models.EventToolCallStart {
			t.Fatalf("dry run must not dispatch the tool, got ToolCallStart event")
		}
	}
	if !sawSkipped {
		t.Fatalf("expected a ToolSkipped event, got %+v", sink.Events)
	}
}

func TestLoopDeniedApprovalSkipsToolAndContinues(t *testing.T) {
	client := &scriptedClient{responses: []llm.ChatResponse{
		{ToolCalls: []models.ToolCall{{ID: "call-1", Name: "run_shell", Args: `{"command":"ls"}`}}},
		{Content: "ok without it"},
	}}
	cfg := baseConfig()
	cfg.ApprovalMode = models.ApprovalApproveAll

	store := NewApprovalStore()
	l := NewLoop(client, newTestDispatcher(t), store)
	sink := &RecordingSink{}

	done := make(chan struct{})
	var result RunResult
	var runErr error
	go func() {
		result, runErr = l.Run(context.Background(), "run-4", cfg, "", "run ls", nil, sink)
		close(done)
	}()

	approvalID := "call-1-approval"
	for i := 0; i < 500; i++ {
		if err := store.Resolve(approvalID, false); err == nil {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	<-done

	if runErr != nil {
		t.Fatalf("Run returned error: %v", runErr)
	}
	if result.ToolCallCount != 0 {
		t.Fatalf("denied tool call must not count toward ToolCallCount, got %d", result.ToolCallCount)
	}

	var sawApprovalRequired bool
	for _, e := range sink.Events {
		if e.Type == models.EventToolApprovalRequired {
			sawApprovalRequired = true
			if e.ToolApprovalRequired.ApprovalID != approvalID {
				t.Fatalf("unexpected approval id: %+v", e.ToolApprovalRequired)
			}
		}
	}
	if !sawApprovalRequired {
		t.Fatalf("expected a ToolApprovalRequired event, got %+v", sink.Events)
	}
}

func TestLoopMaxIterationsEmitsError(t *testing.T) {
	resp := llm.ChatResponse{ToolCalls: []models.ToolCall{{ID: "c", Name: "list_dir", Args: `{}`}}}
	client := &scriptedClient{responses: []llm.ChatResponse{resp, resp, resp}}
	cfg := baseConfig()
	cfg.MaxIterations = 3
	l := NewLoop(client, newTestDispatcher(t), NewApprovalStore())
	sink := &RecordingSink{}

	_, err := l.Run(context.Background(), "run-5", cfg, "", "loop forever", nil, sink)
	if err == nil {
		t.Fatal("expected max-iterations error")
	}
	runErr, ok := err.(*RunError)
	if !ok || runErr.Code != CodeMaxIterations {
		t.Fatalf("expected CodeMaxIterations error, got %v", err)
	}
}

func TestLoopCancelledContextAbortsRun(t *testing.T) {
	client := &scriptedClient{responses: []llm.ChatResponse{{Content: "unreachable"}}}
	l := NewLoop(client, newTestDispatcher(t), NewApprovalStore())
	sink := &RecordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Run(ctx, "run-6", baseConfig(), "", "task", nil, sink)
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
	runErr, ok := err.(*RunError)
	if !ok || runErr.Code != CodeCancelled {
		t.Fatalf("expected CodeCancelled error, got %v", err)
	}

	var sawCancelled bool
	for _, e := range sink.Events {
		if e.Type == models.EventCancelled {
			sawCancelled = true
		}
	}
	if !sawCancelled {
		t.Fatalf("expected a Cancelled event, got %+v", sink.Events)
	}
}
