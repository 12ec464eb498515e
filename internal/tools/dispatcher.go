package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/vswrite/agent-core/pkg/models"
)

// ExtensionExecutor dispatches a tool call to the Extension Registry when
// the name is not one of the fixed built-ins. It is satisfied by
// internal/extensions.Registry.
type ExtensionExecutor interface {
	ExecuteTool(ctx context.Context, name string, args json.RawMessage) (string, error)
	HasTool(name string) bool
	ToolSchemas() []models.ToolSchema
}

// Dispatcher routes tool calls to the fixed built-in surface or, if unknown,
// to an injected ExtensionExecutor.
type Dispatcher struct {
	workspace  string
	builtins   map[string]Tool
	schemas    map[string]*jsonschema.Schema
	extensions ExtensionExecutor
}

// NewDispatcher builds the fixed built-in tool surface scoped to workspace.
func NewDispatcher(workspace string, extensions ExtensionExecutor) (*Dispatcher, error) {
	d := &Dispatcher{
		workspace:  workspace,
		builtins:   map[string]Tool{},
		schemas:    map[string]*jsonschema.Schema{},
		extensions: extensions,
	}
	for _, t := range []Tool{
		&ReadFileTool{Workspace: workspace},
		&WriteFileTool{Workspace: workspace},
		&AppendFileTool{Workspace: workspace},
		&DeleteFileTool{Workspace: workspace},
		&ListDirTool{Workspace: workspace},
		&GlobTool{Workspace: workspace},
		&GrepTool{Workspace: workspace},
		&RunShellTool{Workspace: workspace},
	} {
		if err := d.register(t); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Dispatcher) register(t Tool) error {
	compiled, err := compileSchema(t.Name(), t.ParametersSchema())
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", t.Name(), err)
	}
	d.builtins[t.Name()] = t
	d.schemas[t.Name()] = compiled
	return nil
}

func compileSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	resourceName := "mem://" + name + ".json"
	if err := compiler.AddResource(resourceName, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(resourceName)
}

// Schemas returns the ToolSchema for every built-in plus every
// extension-registered tool, for advertising to the LLM.
func (d *Dispatcher) Schemas() []models.ToolSchema {
	out := make([]models.ToolSchema, 0, len(d.builtins))
	for _, t := range d.builtins {
		out = append(out, Schema(t))
	}
	if d.extensions != nil {
		out = append(out, d.extensions.ToolSchemas()...)
	}
	return out
}

// Dispatch executes one tool call and returns the resulting ToolResult.
// It never returns a Go error for tool-level failures — those are encoded
// as IsError results, per the "tool error becomes a tool-result message"
// contract in spec §4.2. A non-nil error return means ctx was cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, call models.ToolCall) models.ToolResult {
	args, ok := call.ParsedArgs()
	if !ok {
		return errorResult(call.ID, "malformed tool arguments")
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return errorResult(call.ID, "encode tool arguments: "+err.Error())
	}

	tool, builtin := d.builtins[call.Name]
	if builtin {
		if schema, ok := d.schemas[call.Name]; ok {
			var doc any
			if err := json.Unmarshal(argsJSON, &doc); err == nil {
				if err := schema.Validate(doc); err != nil {
					return errorResult(call.ID, "invalid arguments: "+err.Error())
				}
			}
		}
		return d.runWithGuard(ctx, call, func(ctx context.Context) (string, error) {
			return tool.Execute(ctx, d.workspace, argsJSON)
		})
	}

	if d.extensions != nil && d.extensions.HasTool(call.Name) {
		return d.runWithGuard(ctx, call, func(ctx context.Context) (string, error) {
			return d.extensions.ExecuteTool(ctx, call.Name, argsJSON)
		})
	}

	return errorResult(call.ID, fmt.Sprintf("unknown tool %q", call.Name))
}

const perToolTimeout = 60 * time.Second
const preEventTruncateBytes = 8000

// runWithGuard executes fn with a bounded per-call timeout, recovering from
// panics as error results so one tool's bug cannot crash a run, then
// truncates long output before it is wrapped into an event.
func (d *Dispatcher) runWithGuard(ctx context.Context, call models.ToolCall, fn func(context.Context) (string, error)) (result models.ToolResult) {
	toolCtx, cancel := context.WithTimeout(ctx, perToolTimeout)
	defer cancel()

	type outcome struct {
		content string
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		content, err := fn(toolCtx)
		select {
		case done <- outcome{content: content, err: err}:
		default:
		}
	}()

	select {
	case <-toolCtx.Done():
		if toolCtx.Err() == context.DeadlineExceeded {
			return errorResult(call.ID, "tool execution timed out")
		}
		return errorResult(call.ID, "tool execution canceled")
	case o := <-done:
		if o.err != nil {
			return errorResult(call.ID, o.err.Error())
		}
		return truncatedResult(call.ID, o.content)
	}
}

func errorResult(toolCallID, message string) models.ToolResult {
	return models.ToolResult{ToolCallID: toolCallID, Content: message, IsError: true}
}

func truncatedResult(toolCallID, content string) models.ToolResult {
	if len(content) <= preEventTruncateBytes {
		return models.ToolResult{ToolCallID: toolCallID, Content: content}
	}
	return models.ToolResult{
		ToolCallID: toolCallID,
		Content:    content[:preEventTruncateBytes] + "\n[truncated]",
		Truncated:  true,
	}
}
