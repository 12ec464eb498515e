package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func tempWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("eval symlinks: %v", err)
	}
	return resolved
}

func TestReadFileToolLineNumberingAndOffset(t *testing.T) {
	ws := tempWorkspace(t)
	content := "one\ntwo\nthree\nfour\n"
	if err := os.WriteFile(filepath.Join(ws, "f.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	tool := &ReadFileTool{Workspace: ws}
	args, _ := json.Marshal(map[string]any{"path": "f.txt", "offset": 2, "limit": 2})
	out, err := tool.Execute(context.Background(), ws, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "     2\ttwo\n     3\tthree\n"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func TestReadFileToolOffsetBeyondEOF(t *testing.T) {
	ws := tempWorkspace(t)
	if err := os.WriteFile(filepath.Join(ws, "f.txt"), []byte("only line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tool := &ReadFileTool{Workspace: ws}
	args, _ := json.Marshal(map[string]any{"path": "f.txt", "offset": 10})
	if _, err := tool.Execute(context.Background(), ws, args); err == nil {
		t.Fatal("expected beyond-file-end error")
	}
}

func TestWriteThenAppendFile(t *testing.T) {
	ws := tempWorkspace(t)
	wt := &WriteFileTool{Workspace: ws}
	args, _ := json.Marshal(map[string]any{"path": "nested/a.txt", "content": "hello"})
	if _, err := wt.Execute(context.Background(), ws, args); err != nil {
		t.Fatalf("write: %v", err)
	}
	at := &AppendFileTool{Workspace: ws}
	args2, _ := json.Marshal(map[string]any{"path": "nested/a.txt", "content": " world"})
	if _, err := at.Execute(context.Background(), ws, args2); err != nil {
		t.Fatalf("append: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(ws, "nested", "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Fatalf("got %q", string(data))
	}
}

func TestDeleteFileRefusesDirectory(t *testing.T) {
	ws := tempWorkspace(t)
	if err := os.Mkdir(filepath.Join(ws, "d"), 0o755); err != nil {
		t.Fatal(err)
	}
	dt := &DeleteFileTool{Workspace: ws}
	args, _ := json.Marshal(map[string]any{"path": "d"})
	if _, err := dt.Execute(context.Background(), ws, args); err == nil {
		t.Fatal("expected directory deletion to be refused")
	}
}

func TestListDirOrdersDirsBeforeFiles(t *testing.T) {
	ws := tempWorkspace(t)
	os.Mkdir(filepath.Join(ws, "zdir"), 0o755)
	os.WriteFile(filepath.Join(ws, "afile.txt"), []byte("x"), 0o644)
	lt := &ListDirTool{Workspace: ws}
	args, _ := json.Marshal(map[string]any{"path": "."})
	out, err := lt.Execute(context.Background(), ws, args)
	if err != nil {
		t.Fatal(err)
	}
	var listing []string
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatal(err)
	}
	if len(listing) != 2 || listing[0] != "zdir/" || listing[1] != "afile.txt" {
		t.Fatalf("unexpected listing order: %v", listing)
	}
}

func TestGrepFindsCaseInsensitiveMatch(t *testing.T) {
	ws := tempWorkspace(t)
	os.WriteFile(filepath.Join(ws, "a.go"), []byte("package main\n// TODO fix\n"), 0o644)
	gt := &GrepTool{Workspace: ws}
	args, _ := json.Marshal(map[string]any{"pattern": "todo"})
	out, err := gt.Execute(context.Background(), ws, args)
	if err != nil {
		t.Fatal(err)
	}
	var result struct {
		Matches []grepMatch `json:"matches"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 1 || result.Matches[0].Line != 2 {
		t.Fatalf("unexpected matches: %+v", result.Matches)
	}
}
