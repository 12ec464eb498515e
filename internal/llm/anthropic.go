package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/vswrite/agent-core/pkg/models"
)

// AnthropicClient implements Client against the Messages API. Claude has
// no separate system-message slot per message; every RoleSystem and
// RoleDeveloper message is concatenated into the single top-level
// System field instead.
type AnthropicClient struct {
	client     anthropic.Client
	maxRetries int
	retryDelay time.Duration
}

// NewAnthropicClient builds a Client against the Anthropic API.
func NewAnthropicClient(apiKey, baseURL string) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...), maxRetries: 3, retryDelay: time.Second}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

func (c *AnthropicClient) Chat(ctx context.Context, system string, messages []models.Message, tools []models.ToolSchema, model string, maxTokens int) (ChatResponse, error) {
	combinedSystem := combineSystemText(system, messages)

	msgs, err := convertAnthropicMessages(messages)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("anthropic: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if combinedSystem != "" {
		params.System = []anthropic.TextBlockParam{{Text: combinedSystem}}
	}
	if len(tools) > 0 {
		toolParams, err := convertAnthropicTools(tools)
		if err != nil {
			return ChatResponse{}, fmt.Errorf("anthropic: %w", err)
		}
		params.Tools = toolParams
	}

	var resp *anthropic.Message
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ChatResponse{}, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}
		resp, lastErr = c.client.Messages.New(ctx, params)
		if lastErr == nil {
			break
		}
		if !isRetryableError(lastErr) {
			return ChatResponse{}, fmt.Errorf("anthropic: non-retryable error: %w", lastErr)
		}
	}
	if lastErr != nil {
		return ChatResponse{}, fmt.Errorf("anthropic: max retries exceeded: %w", lastErr)
	}

	out := ChatResponse{
		FinishReason: string(resp.StopReason),
		Usage:        &Usage{InputTokens: int(resp.Usage.InputTokens), OutputTokens: int(resp.Usage.OutputTokens)},
	}
	var text strings.Builder
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, models.ToolCall{
				ID:   variant.ID,
				Name: variant.Name,
				Args: string(variant.Input),
			})
		}
	}
	out.Content = text.String()
	return out, nil
}

// combineSystemText concatenates system plus every RoleSystem/RoleDeveloper
// message, since Claude takes exactly one top-level system string.
func combineSystemText(system string, messages []models.Message) string {
	var parts []string
	if strings.TrimSpace(system) != "" {
		parts = append(parts, system)
	}
	for _, m := range messages {
		if (m.Role == models.RoleSystem || m.Role == models.RoleDeveloper) && m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func convertAnthropicMessages(messages []models.Message) ([]anthropic.MessageParam, error) {
	var out []anthropic.MessageParam
	for _, msg := range messages {
		if msg.Role == models.RoleSystem || msg.Role == models.RoleDeveloper {
			continue
		}
		var content []anthropic.ContentBlockParamUnion
		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}
		if msg.Role == models.RoleTool {
			content = append(content, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
		}
		for _, tc := range msg.ToolCalls {
			var input map[string]any
			if tc.Args != "" {
				if err := json.Unmarshal([]byte(tc.Args), &input); err != nil {
					return nil, fmt.Errorf("invalid tool call input for %s: %w", tc.Name, err)
				}
			}
			content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
		}
		if len(content) == 0 {
			continue
		}
		if msg.Role == models.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(content...))
		} else {
			out = append(out, anthropic.NewUserMessage(content...))
		}
	}
	return out, nil
}

func convertAnthropicTools(tools []models.ToolSchema) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(t.Parameters, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", t.Name, err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s", t.Name)
		}
		toolParam.OfTool.Description = anthropic.String(t.Description)
		out = append(out, toolParam)
	}
	return out, nil
}
