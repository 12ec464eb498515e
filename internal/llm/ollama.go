package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vswrite/agent-core/pkg/models"
)

// OllamaClient implements Client against a local Ollama server's
// non-streaming /api/chat endpoint ("stream": false). Ollama has no
// top-level system slot; system/developer messages are sent inline with
// role "system", and a tool message carries the originating tool's name
// instead of a tool_call_id (Ollama has no concept of the latter).
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewOllamaClient builds a Client against baseURL (default
// http://localhost:11434 if empty).
func NewOllamaClient(baseURL string) *OllamaClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{httpClient: &http.Client{Timeout: 2 * time.Minute}, baseURL: baseURL}
}

func (c *OllamaClient) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Tools    []ollamaTool        `json:"tools,omitempty"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content,omitempty"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaTool struct {
	Type     string             `json:"type"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type ollamaChatResponse struct {
	Message struct {
		Content   string           `json:"content"`
		ToolCalls []ollamaToolCall `json:"tool_calls"`
	} `json:"message"`
	Done            bool   `json:"done"`
	Error           string `json:"error"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func (c *OllamaClient) Chat(ctx context.Context, system string, messages []models.Message, tools []models.ToolSchema, model string, maxTokens int) (ChatResponse, error) {
	payload := ollamaChatRequest{Model: model, Stream: false, Messages: buildOllamaMessages(system, messages)}
	if len(tools) > 0 {
		payload.Tools = buildOllamaTools(tools)
	}
	if maxTokens > 0 {
		payload.Options = map[string]any{"num_predict": maxTokens}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("ollama: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("ollama: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return ChatResponse{}, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var decoded ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ChatResponse{}, fmt.Errorf("ollama: decode response: %w", err)
	}
	if decoded.Error != "" {
		return ChatResponse{}, fmt.Errorf("ollama: %s", decoded.Error)
	}

	out := ChatResponse{
		Content:      decoded.Message.Content,
		Usage:        &Usage{InputTokens: decoded.PromptEvalCount, OutputTokens: decoded.EvalCount},
		FinishReason: "stop",
	}
	for i, tc := range decoded.Message.ToolCalls {
		args := tc.Function.Arguments
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			ID:   fmt.Sprintf("ollama-call-%d", i),
			Name: tc.Function.Name,
			Args: string(args),
		})
	}
	if len(out.ToolCalls) > 0 {
		out.FinishReason = "tool_calls"
	}
	return out, nil
}

// buildOllamaMessages drops the tool role entirely: Ollama's chat API has
// no tool_call_id concept, so a tool result is folded back in as a plain
// user message naming which call it answers.
func buildOllamaMessages(system string, messages []models.Message) []ollamaChatMessage {
	out := make([]ollamaChatMessage, 0, len(messages)+1)
	if strings.TrimSpace(system) != "" {
		out = append(out, ollamaChatMessage{Role: "system", Content: system})
	}
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleTool:
			out = append(out, ollamaChatMessage{Role: "user", Content: "[tool result] " + msg.Content})
		case models.RoleAssistant:
			m := ollamaChatMessage{Role: "assistant", Content: msg.Content}
			for _, tc := range msg.ToolCalls {
				args := json.RawMessage(tc.Args)
				if len(args) == 0 {
					args = json.RawMessage("{}")
				}
				var call ollamaToolCall
				call.Function.Name = tc.Name
				call.Function.Arguments = args
				m.ToolCalls = append(m.ToolCalls, call)
			}
			out = append(out, m)
		case models.RoleSystem, models.RoleDeveloper:
			out = append(out, ollamaChatMessage{Role: "system", Content: msg.Content})
		default:
			out = append(out, ollamaChatMessage{Role: "user", Content: msg.Content})
		}
	}
	return out
}

func buildOllamaTools(tools []models.ToolSchema) []ollamaTool {
	out := make([]ollamaTool, len(tools))
	for i, t := range tools {
		out[i] = ollamaTool{Type: "function", Function: ollamaToolFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters}}
	}
	return out
}
