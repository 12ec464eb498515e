package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// extensionIDPattern is the full allowed grammar for ExtensionManifest.ID.
var extensionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ToolDefinition is one tool entry inside an extension manifest.
type ToolDefinition struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	LuaScript     string          `json:"luaScript,omitempty"`
	LuaFunction   string          `json:"luaFunction,omitempty"`
	PythonModule  string          `json:"pythonModule,omitempty"`
	PythonFunction string         `json:"pythonFunction,omitempty"`
	Parameters    json.RawMessage `json:"parameters,omitempty"`
	Schema        json.RawMessage `json:"schema,omitempty"`
}

// ParamSchema returns whichever of Parameters/Schema is populated, or an
// empty-object schema if neither is (§4.4 Schemas()).
func (t ToolDefinition) ParamSchema() json.RawMessage {
	if len(t.Parameters) > 0 {
		return t.Parameters
	}
	if len(t.Schema) > 0 {
		return t.Schema
	}
	return json.RawMessage(`{"type":"object","properties":{}}`)
}

// IsLegacyPython reports whether this tool is implemented in the
// (unsupported) Python style rather than Lua. Such tools are noted and
// skipped during registration (§4.4 Load).
func (t ToolDefinition) IsLegacyPython() bool {
	return t.LuaScript == "" && (t.PythonModule != "" || t.PythonFunction != "")
}

// ExtensionLifecycle is the flat set of lifecycle hooks an extension opts
// into. Each true flag means hooks.lua defines the matching well-known
// function.
type ExtensionLifecycle struct {
	Activate     bool `json:"activate,omitempty"`
	Deactivate   bool `json:"deactivate,omitempty"`
	ProjectOpen  bool `json:"project_open,omitempty"`
	ProjectClose bool `json:"project_close,omitempty"`
	SectionSave  bool `json:"section_save,omitempty"`
	EntityChange bool `json:"entity_change,omitempty"`
}

// HookFunctionName maps a hook key to its well-known Lua entry point.
func HookFunctionName(hook string) (string, bool) {
	switch hook {
	case "activate":
		return "on_activate", true
	case "deactivate":
		return "on_deactivate", true
	case "project_open":
		return "on_project_open", true
	case "project_close":
		return "on_project_close", true
	case "section_save":
		return "on_section_save", true
	case "entity_change":
		return "on_entity_change", true
	default:
		return "", false
	}
}

// Enabled reports whether the manifest opted into the named hook.
func (l ExtensionLifecycle) Enabled(hook string) bool {
	switch hook {
	case "activate":
		return l.Activate
	case "deactivate":
		return l.Deactivate
	case "project_open":
		return l.ProjectOpen
	case "project_close":
		return l.ProjectClose
	case "section_save":
		return l.SectionSave
	case "entity_change":
		return l.EntityChange
	default:
		return false
	}
}

// ExtensionManifest is the parsed manifest.json describing an extension
// bundle: identity, declared tools, lifecycle hooks, and an optional
// signature.
type ExtensionManifest struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Description string              `json:"description,omitempty"`
	Tools       []ToolDefinition    `json:"tools"`
	Lifecycle   ExtensionLifecycle  `json:"lifecycle,omitempty"`
	Signature   string              `json:"signature,omitempty"`
	PublicKeyID string              `json:"publicKeyId,omitempty"`
	PublicKey   string              `json:"publicKey,omitempty"`
}

// ValidateID checks the manifest id against the constrained grammar:
// [A-Za-z0-9_-]{1,64}, no "..", no leading path separator.
func ValidateExtensionID(id string) error {
	if id == "" {
		return fmt.Errorf("extension id is empty")
	}
	if strings.HasPrefix(id, "/") || strings.HasPrefix(id, "\\") {
		return fmt.Errorf("extension id %q has a leading separator", id)
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("extension id %q contains '..'", id)
	}
	if !extensionIDPattern.MatchString(id) {
		return fmt.Errorf("extension id %q does not match [A-Za-z0-9_-]{1,64}", id)
	}
	return nil
}

// Validate checks manifest-level invariants beyond the id grammar.
func (m ExtensionManifest) Validate() error {
	if err := ValidateExtensionID(m.ID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("manifest %s: name is required", m.ID)
	}
	if strings.TrimSpace(m.Version) == "" {
		return fmt.Errorf("manifest %s: version is required", m.ID)
	}
	seen := make(map[string]struct{}, len(m.Tools))
	for _, t := range m.Tools {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("manifest %s: tool with empty name", m.ID)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("manifest %s: duplicate tool name %q", m.ID, t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}
