package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vswrite/agent-core/pkg/models"
)

// OpenAIClient implements Client against OpenAI's chat completions API,
// and doubles as the OpenRouter client (same wire format, different base
// URL and a folded developer->system role per NewOpenRouterClient).
type OpenAIClient struct {
	client       *openai.Client
	name         string
	foldDeveloper bool
	maxRetries   int
	retryDelay   time.Duration
}

// NewOpenAIClient builds a Client against the default OpenAI API.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{client: openai.NewClient(apiKey), name: "openai", maxRetries: 3, retryDelay: time.Second}
}

// NewOpenRouterClient builds a Client against OpenRouter's OpenAI-
// compatible endpoint. OpenRouter folds the "developer" role into
// "system" since many routed models don't recognize a separate developer
// role.
func NewOpenRouterClient(apiKey, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	cfg.BaseURL = baseURL
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), name: "openrouter", foldDeveloper: true, maxRetries: 3, retryDelay: time.Second}
}

func (c *OpenAIClient) Name() string { return c.name }

func (c *OpenAIClient) Chat(ctx context.Context, system string, messages []models.Message, tools []models.ToolSchema, model string, maxTokens int) (ChatResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: c.convertMessages(system, messages),
	}
	if len(tools) > 0 {
		req.Tools = convertOpenAITools(tools)
	}
	if isOSeriesOrGPT5(model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	var resp openai.ChatCompletionResponse
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ChatResponse{}, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}
		resp, lastErr = c.client.CreateChatCompletion(ctx, req)
		if lastErr == nil {
			break
		}
		if !isRetryableError(lastErr) {
			return ChatResponse{}, fmt.Errorf("%s: non-retryable error: %w", c.name, lastErr)
		}
	}
	if lastErr != nil {
		return ChatResponse{}, fmt.Errorf("%s: max retries exceeded: %w", c.name, lastErr)
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, fmt.Errorf("%s: empty response", c.name)
	}

	choice := resp.Choices[0]
	out := ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage:        &Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: tc.Function.Arguments})
	}
	return out, nil
}

func (c *OpenAIClient) convertMessages(system string, messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, msg := range messages {
		role := string(msg.Role)
		if c.foldDeveloper && msg.Role == models.RoleDeveloper {
			role = openai.ChatMessageRoleSystem
		}
		switch msg.Role {
		case models.RoleTool:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleTool, Content: msg.Content, ToolCallID: msg.ToolCallID})
		case models.RoleAssistant:
			oaiMsg := openai.ChatCompletionMessage{Role: role, Content: msg.Content}
			for _, tc := range msg.ToolCalls {
				oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
					ID: tc.ID, Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: tc.Name, Arguments: tc.Args},
				})
			}
			out = append(out, oaiMsg)
		default:
			out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
		}
	}
	return out
}

func convertOpenAITools(tools []models.ToolSchema) []openai.Tool {
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		var schema map[string]any
		if err := json.Unmarshal(t.Parameters, &schema); err != nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			},
		}
	}
	return out
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"rate limit", "429", "500", "502", "503", "504", "timeout", "deadline exceeded"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
