package llm

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vswrite/agent-core/pkg/models"
)

func TestOpenAIConvertMessagesToolRoleAndID(t *testing.T) {
	c := &OpenAIClient{name: "openai"}
	messages := []models.Message{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleTool, ToolCallID: "abc", Content: "result"},
	}
	out := c.convertMessages("system prompt", messages)
	if out[0].Role != openai.ChatMessageRoleSystem || out[0].Content != "system prompt" {
		t.Fatalf("expected leading system message, got %+v", out[0])
	}
	var found bool
	for _, m := range out {
		if m.Role == openai.ChatMessageRoleTool && m.ToolCallID == "abc" && m.Content == "result" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected tool message with matching id, got %+v", out)
	}
}

func TestOpenAIConvertMessagesFoldsDeveloperForOpenRouter(t *testing.T) {
	c := &OpenAIClient{name: "openrouter", foldDeveloper: true}
	out := c.convertMessages("", []models.Message{{Role: models.RoleDeveloper, Content: "be terse"}})
	if out[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("expected developer folded to system, got role %q", out[0].Role)
	}
}

func TestConvertOpenAIToolsFallsBackOnInvalidSchema(t *testing.T) {
	tools := []models.ToolSchema{{Name: "x", Description: "d", Parameters: json.RawMessage(`not-json`)}}
	out := convertOpenAITools(tools)
	if out[0].Function.Parameters == nil {
		t.Fatalf("expected fallback schema, got nil")
	}
}

func TestIsRetryableError(t *testing.T) {
	if !isRetryableError(errText("rate limit exceeded")) {
		t.Fatal("expected rate limit to be retryable")
	}
	if isRetryableError(errText("invalid api key")) {
		t.Fatal("expected auth error to be non-retryable")
	}
}

type errText string

func (e errText) Error() string { return string(e) }
