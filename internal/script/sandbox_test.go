package script

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vswrite/agent-core/internal/store"
	"github.com/vswrite/agent-core/internal/tools"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	dir := t.TempDir()
	ws, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("eval symlinks: %v", err)
	}
	disp, err := tools.NewDispatcher(ws, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return &Host{Workspace: ws, ShellTimeout: 30, Dispatcher: disp, Store: store.New(ws)}
}

func TestSandboxWriteThenReadFile(t *testing.T) {
	h := newTestHost(t)
	script := `
function run(args)
  tools.write_file("note.txt", "hello from lua")
  return tools.read_file("note.txt", 1, 10)
end
`
	out, err := h.Call(context.Background(), script, "run", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "hello from lua") {
		t.Fatalf("expected content in result, got %q", out)
	}
}

func TestSandboxDangerousGlobalsRemoved(t *testing.T) {
	h := newTestHost(t)
	script := `
function run(args)
  if os ~= nil then return "os leaked" end
  if io ~= nil then return "io leaked" end
  if load ~= nil then return "load leaked" end
  if rawget ~= nil then return "rawget leaked" end
  return "clean"
end
`
	out, err := h.Call(context.Background(), script, "run", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "clean" {
		t.Fatalf("expected sandbox clean, got %q", out)
	}
}

func TestSandboxEntitiesListAllEmpty(t *testing.T) {
	h := newTestHost(t)
	script := `
function run(args)
  return tools.entities.list_all()
end
`
	out, err := h.Call(context.Background(), script, "run", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "null" && out != "[]" {
		t.Fatalf("expected empty result for no entities dir, got %q", out)
	}
}

func TestSandboxEntitiesGetByID(t *testing.T) {
	h := newTestHost(t)
	if err := os.MkdirAll(filepath.Join(h.Workspace, "entities"), 0o755); err != nil {
		t.Fatal(err)
	}
	entityYAML := "id: ent-1\nname: Protagonist\ntype: concept\n"
	if err := os.WriteFile(filepath.Join(h.Workspace, "entities", "ent-1.yaml"), []byte(entityYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	script := `
function run(args)
  return tools.entities.get("ent-1")
end
`
	out, err := h.Call(context.Background(), script, "run", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Protagonist") {
		t.Fatalf("expected entity content, got %q", out)
	}
}

func TestSandboxJSONEncodeDecodeRoundTrip(t *testing.T) {
	h := newTestHost(t)
	script := `
function run(args)
  local decoded = json_decode('{"a":1,"b":"two"}')
  return json_encode(decoded)
end
`
	out, err := h.Call(context.Background(), script, "run", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"a"`) || !strings.Contains(out, `"two"`) {
		t.Fatalf("unexpected round-trip output: %q", out)
	}
}
