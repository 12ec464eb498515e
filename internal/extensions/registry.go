// Package extensions implements the Extension Registry: discovery,
// loading, and invocation of manifest-described Lua extension bundles.
// It satisfies tools.ExtensionExecutor, letting the Tool Dispatcher route
// namespaced tool calls here without depending on this package.
package extensions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vswrite/agent-core/internal/script"
	"github.com/vswrite/agent-core/pkg/models"
)

// Registry holds every currently loaded extension bundle and routes
// namespaced tool calls and lifecycle hooks to the Script Sandbox Host.
// Many readers (tool dispatch, schema listing) contend with rare writers
// (load/unload), so access is guarded by an RWMutex.
type Registry struct {
	mu      sync.RWMutex
	host    *script.Host
	bundles map[string]*bundle // extension id -> bundle
}

// NewRegistry builds an empty registry that executes extension scripts
// through host.
func NewRegistry(host *script.Host) *Registry {
	return &Registry{host: host, bundles: map[string]*bundle{}}
}

// Load reads and validates the manifest and scripts under dir and
// registers the extension, replacing any previously loaded bundle with
// the same id.
func (r *Registry) Load(dir string) (string, error) {
	b, err := readBundle(dir)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.bundles[b.manifest.ID] = b
	r.mu.Unlock()
	return b.manifest.ID, nil
}

// Unload removes a loaded extension's mappings. It is not an error to
// unload an id that was never loaded.
func (r *Registry) Unload(id string) {
	r.mu.Lock()
	delete(r.bundles, id)
	r.mu.Unlock()
}

// Loaded reports whether id currently has a loaded bundle.
func (r *Registry) Loaded(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bundles[id]
	return ok
}

// Manifest returns the manifest for a loaded extension.
func (r *Registry) Manifest(id string) (models.ExtensionManifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bundles[id]
	if !ok {
		return models.ExtensionManifest{}, false
	}
	return b.manifest, true
}

// ListIDs returns the ids of every currently loaded extension, sorted.
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.bundles))
	for id := range r.bundles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Schemas builds a models.ToolSchema for every tool with a loaded script
// across every registered extension, namespaced "<extensionId>:<name>"
// with the description prefixed "[<extensionName>]".
func (r *Registry) Schemas() []models.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ToolSchema, 0)
	for _, b := range r.bundles {
		for _, t := range b.manifest.Tools {
			if _, ok := b.scripts[t.Name]; !ok {
				continue
			}
			out = append(out, models.ToolSchema{
				Name:        qualifiedName(b.manifest.ID, t.Name),
				Description: fmt.Sprintf("[%s] %s", b.manifest.Name, t.Description),
				Parameters:  t.ParamSchema(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HasTool reports whether name (already namespaced "extensionId:toolName")
// resolves to a loaded extension tool.
func (r *Registry) HasTool(name string) bool {
	extID, toolName, ok := splitQualified(name)
	if !ok {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bundles[extID]
	if !ok {
		return false
	}
	_, ok = b.scripts[toolName]
	return ok
}

// ExecuteTool runs the Lua function backing name. The function name
// defaults to the local tool name, or the manifest's explicit
// luaFunction override.
func (r *Registry) ExecuteTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	extID, toolName, ok := splitQualified(name)
	if !ok {
		return "", fmt.Errorf("tool name %q is not a namespaced extension tool", name)
	}

	r.mu.RLock()
	b, ok := r.bundles[extID]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("extension %q is not loaded", extID)
	}
	source, ok := b.scripts[toolName]
	if !ok {
		return "", fmt.Errorf("extension %q has no tool %q", extID, toolName)
	}

	functionName := toolName
	for _, t := range b.manifest.Tools {
		if t.Name == toolName && t.LuaFunction != "" {
			functionName = t.LuaFunction
			break
		}
	}

	return r.host.Call(ctx, source, functionName, string(args))
}

// HookOutcome is one extension's result from ExecuteHookAll.
type HookOutcome struct {
	ExtensionID string
	Result      string
	Err         error
}

// ExecuteHook invokes hook's well-known function in id's hooks.lua.
// Refuses if the manifest did not opt into the hook or hooks.lua is
// absent.
func (r *Registry) ExecuteHook(ctx context.Context, id, hook, argsJSON string) (string, error) {
	r.mu.RLock()
	b, ok := r.bundles[id]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("extension %q is not loaded", id)
	}
	if !b.manifest.Lifecycle.Enabled(hook) {
		return "", fmt.Errorf("extension %q did not opt into hook %q", id, hook)
	}
	if b.hooks == "" {
		return "", fmt.Errorf("extension %q has no hooks.lua", id)
	}
	fnName, ok := models.HookFunctionName(hook)
	if !ok {
		return "", fmt.Errorf("unknown hook %q", hook)
	}
	return r.host.Call(ctx, b.hooks, fnName, argsJSON)
}

// ExecuteHookAll fans hook out across every registered extension that
// opted into it. One extension's failure does not prevent others from
// running; each outcome is reported independently.
func (r *Registry) ExecuteHookAll(ctx context.Context, hook, argsJSON string) []HookOutcome {
	r.mu.RLock()
	ids := make([]string, 0, len(r.bundles))
	for id, b := range r.bundles {
		if b.manifest.Lifecycle.Enabled(hook) && b.hooks != "" {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()
	sort.Strings(ids)

	outcomes := make([]HookOutcome, 0, len(ids))
	for _, id := range ids {
		result, err := r.ExecuteHook(ctx, id, hook, argsJSON)
		outcomes = append(outcomes, HookOutcome{ExtensionID: id, Result: result, Err: err})
	}
	return outcomes
}

func qualifiedName(extensionID, toolName string) string {
	return extensionID + ":" + toolName
}

// splitQualified splits "extensionId:toolName" on the first colon. A name
// with no colon is never an extension tool and falls through to "unknown
// tool" at the dispatcher.
func splitQualified(name string) (extensionID, toolName string, ok bool) {
	idx := strings.Index(name, ":")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}
