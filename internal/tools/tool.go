// Package tools implements the Tool Dispatcher: the fixed built-in tool
// surface (file and shell tools) plus schema validation and routing shared
// with extension-contributed tools.
package tools

import (
	"context"
	"encoding/json"

	"github.com/vswrite/agent-core/pkg/models"
)

// Tool is one dispatchable tool implementation. Execute receives the
// workspace root (already validated to exist) and the raw JSON argument
// object; it returns the tool-result content or an error, which the
// dispatcher wraps into a models.ToolResult.
type Tool interface {
	Name() string
	Description() string
	ParametersSchema() json.RawMessage
	Execute(ctx context.Context, workspace string, args json.RawMessage) (string, error)
}

// Schema returns the models.ToolSchema advertised to the LLM for a Tool.
func Schema(t Tool) models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.ParametersSchema(),
	}
}

func objectSchema(properties map[string]any, required []string) json.RawMessage {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}
