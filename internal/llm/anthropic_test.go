package llm

import (
	"testing"

	"github.com/vswrite/agent-core/pkg/models"
)

func TestCombineSystemTextJoinsSystemAndDeveloperMessages(t *testing.T) {
	messages := []models.Message{
		{Role: models.RoleSystem, Content: "be helpful"},
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleDeveloper, Content: "be terse"},
	}
	got := combineSystemText("top-level", messages)
	want := "top-level\n\nbe helpful\n\nbe terse"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestConvertAnthropicMessagesSkipsSystemAndDeveloper(t *testing.T) {
	messages := []models.Message{
		{Role: models.RoleSystem, Content: "be helpful"},
		{Role: models.RoleUser, Content: "hi"},
	}
	out, err := convertAnthropicMessages(messages)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected system message to be skipped, got %d messages", len(out))
	}
}

func TestConvertAnthropicMessagesRejectsMalformedToolArgs(t *testing.T) {
	messages := []models.Message{
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "1", Name: "x", Args: "{not json"}}},
	}
	if _, err := convertAnthropicMessages(messages); err == nil {
		t.Fatal("expected error for malformed tool call args")
	}
}
