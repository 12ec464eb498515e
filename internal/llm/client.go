// Package llm implements the provider-agnostic, non-streaming LLM Client
// Contract: one Chat call per agent-loop iteration, rather than the
// token-by-token channel interface the teacher's providers package uses.
// A full response (possibly containing tool calls) is always available
// before the agent loop decides whether to execute tools or finish.
package llm

import (
	"context"

	"github.com/vswrite/agent-core/pkg/models"
)

// Usage reports token accounting for one Chat call, when the provider
// supplies it.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ChatResponse is a provider's full reply to one Chat call.
type ChatResponse struct {
	Content      string           `json:"content"`
	ToolCalls    []models.ToolCall `json:"tool_calls,omitempty"`
	Usage        *Usage           `json:"usage,omitempty"`
	FinishReason string           `json:"finish_reason"`
}

// Client is the provider-agnostic contract the agent loop drives. Every
// provider (OpenAI, Claude, OpenRouter, Ollama) implements this with its
// own message/tool format conversion and model-family quirks, but none of
// them stream: Chat blocks until the full response is ready.
type Client interface {
	// Chat sends system plus messages with the given tool schemas and model,
	// and returns the complete response.
	Chat(ctx context.Context, system string, messages []models.Message, tools []models.ToolSchema, model string, maxTokens int) (ChatResponse, error)
	// Name identifies the provider for logging and error wrapping.
	Name() string
}
