package extensions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vswrite/agent-core/internal/script"
	"github.com/vswrite/agent-core/internal/store"
	"github.com/vswrite/agent-core/internal/tools"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	workspace := t.TempDir()
	ws, err := filepath.EvalSymlinks(workspace)
	if err != nil {
		t.Fatal(err)
	}
	disp, err := tools.NewDispatcher(ws, nil)
	if err != nil {
		t.Fatal(err)
	}
	host := &script.Host{Workspace: ws, ShellTimeout: 30, Dispatcher: disp, Store: store.New(ws)}
	return NewRegistry(host), ws
}

func writeExtension(t *testing.T, dir string, manifest string, toolScript string, hooks string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFilename), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if toolScript != "" {
		if err := os.WriteFile(filepath.Join(dir, "word_count.lua"), []byte(toolScript), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if hooks != "" {
		if err := os.WriteFile(filepath.Join(dir, hooksFilename), []byte(hooks), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

const sampleManifest = `{
  "id": "sample-ext",
  "name": "Sample Extension",
  "version": "1.0.0",
  "tools": [
    {"name": "word_count", "description": "counts words", "luaScript": "word_count.lua"}
  ],
  "lifecycle": {"activate": true}
}`

const sampleToolScript = `
function word_count(args)
  local n = 0
  for _ in string.gmatch(args.text or "", "%S+") do
    n = n + 1
  end
  return n
end
`

const sampleHooks = `
function on_activate(args)
  return "activated"
end
`

func TestRegistryLoadAndExecuteTool(t *testing.T) {
	reg, ws := newTestRegistry(t)
	dir := filepath.Join(ws, "bundled", "sample-ext")
	writeExtension(t, dir, sampleManifest, sampleToolScript, sampleHooks)

	id, err := reg.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if id != "sample-ext" {
		t.Fatalf("expected id sample-ext, got %q", id)
	}

	if !reg.HasTool("sample-ext:word_count") {
		t.Fatalf("expected sample-ext:word_count to be registered")
	}

	out, err := reg.ExecuteTool(context.Background(), "sample-ext:word_count", []byte(`{"text":"one two three"}`))
	if err != nil {
		t.Fatalf("execute tool: %v", err)
	}
	if out != "3" {
		t.Fatalf("expected 3, got %q", out)
	}
}

func TestRegistrySchemasNamespacedAndPrefixed(t *testing.T) {
	reg, ws := newTestRegistry(t)
	dir := filepath.Join(ws, "bundled", "sample-ext")
	writeExtension(t, dir, sampleManifest, sampleToolScript, "")

	if _, err := reg.Load(dir); err != nil {
		t.Fatal(err)
	}
	schemas := reg.Schemas()
	if len(schemas) != 1 {
		t.Fatalf("expected 1 schema, got %d", len(schemas))
	}
	if schemas[0].Name != "sample-ext:word_count" {
		t.Fatalf("expected namespaced name, got %q", schemas[0].Name)
	}
	if schemas[0].Description != "[Sample Extension] counts words" {
		t.Fatalf("expected prefixed description, got %q", schemas[0].Description)
	}
}

func TestRegistryExecuteHookRefusesUndeclaredHook(t *testing.T) {
	reg, ws := newTestRegistry(t)
	dir := filepath.Join(ws, "bundled", "sample-ext")
	writeExtension(t, dir, sampleManifest, sampleToolScript, sampleHooks)
	id, err := reg.Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := reg.ExecuteHook(context.Background(), id, "deactivate", ""); err == nil {
		t.Fatal("expected error for hook the manifest did not opt into")
	}

	out, err := reg.ExecuteHook(context.Background(), id, "activate", "")
	if err != nil {
		t.Fatalf("execute hook: %v", err)
	}
	if out != "activated" {
		t.Fatalf("expected 'activated', got %q", out)
	}
}

func TestRegistryUnloadRemovesTool(t *testing.T) {
	reg, ws := newTestRegistry(t)
	dir := filepath.Join(ws, "bundled", "sample-ext")
	writeExtension(t, dir, sampleManifest, sampleToolScript, "")
	id, err := reg.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	reg.Unload(id)
	if reg.HasTool("sample-ext:word_count") {
		t.Fatal("expected tool to be gone after unload")
	}
	if reg.Loaded(id) {
		t.Fatal("expected extension to be unloaded")
	}
}

func TestRegistryLoadRejectsScriptEscapingBundle(t *testing.T) {
	reg, ws := newTestRegistry(t)
	dir := filepath.Join(ws, "bundled", "escape-ext")
	manifest := `{
  "id": "escape-ext",
  "name": "Escape",
  "version": "1.0.0",
  "tools": [{"name": "bad", "description": "x", "luaScript": "../../etc/passwd"}]
}`
	writeExtension(t, dir, manifest, "", "")
	if _, err := reg.Load(dir); err == nil {
		t.Fatal("expected error for script path escaping the extension directory")
	}
}
