package llm

import (
	"encoding/json"
	"testing"

	"github.com/vswrite/agent-core/pkg/models"
)

func TestBuildOllamaMessagesFoldsToolRoleAndSystem(t *testing.T) {
	messages := []models.Message{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "1", Name: "read_file", Args: `{"path":"a"}`}}},
		{Role: models.RoleTool, ToolCallID: "1", Content: "file contents"},
		{Role: models.RoleDeveloper, Content: "be concise"},
	}
	out := buildOllamaMessages("you are an assistant", messages)

	if out[0].Role != "system" || out[0].Content != "you are an assistant" {
		t.Fatalf("expected leading system message, got %+v", out[0])
	}
	foundToolResult := false
	for _, m := range out {
		if m.Role == "user" && m.Content == "[tool result] file contents" {
			foundToolResult = true
		}
	}
	if !foundToolResult {
		t.Fatalf("expected tool result folded into a user message, got %+v", out)
	}

	var sawAssistantCall bool
	for _, m := range out {
		if m.Role == "assistant" && len(m.ToolCalls) == 1 && m.ToolCalls[0].Function.Name == "read_file" {
			sawAssistantCall = true
		}
	}
	if !sawAssistantCall {
		t.Fatalf("expected assistant tool call preserved, got %+v", out)
	}
}

func TestBuildOllamaToolsPassesSchemaThrough(t *testing.T) {
	schemas := []models.ToolSchema{
		{Name: "read_file", Description: "reads a file", Parameters: json.RawMessage(`{"type":"object"}`)},
	}
	out := buildOllamaTools(schemas)
	if len(out) != 1 || out[0].Function.Name != "read_file" {
		t.Fatalf("unexpected tools: %+v", out)
	}
}
