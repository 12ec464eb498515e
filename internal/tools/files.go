package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vswrite/agent-core/internal/security"
)

const (
	maxLineChars = 2000
	globCap      = 500
	grepCap      = 100
	grepLineCap  = 200
)

var textLikeExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".go": true, ".py": true,
	".js": true, ".ts": true, ".jsx": true, ".tsx": true, ".json": true,
	".yaml": true, ".yml": true, ".toml": true, ".rs": true, ".c": true,
	".h": true, ".cpp": true, ".hpp": true, ".java": true, ".rb": true,
	".sh": true, ".css": true, ".html": true, ".xml": true, ".sql": true,
	".lua": true, ".cfg": true, ".ini": true,
}

var skippedDirNames = map[string]bool{
	"node_modules": true, "target": true, "__pycache__": true, ".git": true,
}

// ReadFileTool implements read_file: line-numbered, line-offset/limit text read.
type ReadFileTool struct{ Workspace string }

func (t *ReadFileTool) Name() string        { return "read_file" }
func (t *ReadFileTool) Description() string { return "Read a text file by line, with offset and limit." }
func (t *ReadFileTool) ParametersSchema() json.RawMessage {
	return objectSchema(map[string]any{
		"path":   map[string]any{"type": "string", "description": "Workspace-relative path."},
		"offset": map[string]any{"type": "integer", "description": "1-based starting line (default 1).", "minimum": 1},
		"limit":  map[string]any{"type": "integer", "description": "Maximum lines to return (default 4000).", "minimum": 1},
	}, []string{"path"})
}

func (t *ReadFileTool) Execute(ctx context.Context, workspace string, args json.RawMessage) (string, error) {
	var in struct {
		Path   string `json:"path"`
		Offset int    `json:"offset"`
		Limit  int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if in.Offset <= 0 {
		in.Offset = 1
	}
	if in.Limit <= 0 {
		in.Limit = 4000
	}

	resolved, err := security.SafePath(workspace, in.Path)
	if err != nil {
		return "", err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var out strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	emitted := 0
	for scanner.Scan() {
		lineNo++
		if lineNo < in.Offset {
			continue
		}
		if emitted >= in.Limit {
			break
		}
		line := scanner.Text()
		if len(line) > maxLineChars {
			line = line[:maxLineChars] + "[truncated]"
		}
		fmt.Fprintf(&out, "%6d\t%s\n", lineNo, line)
		emitted++
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if emitted == 0 && lineNo < in.Offset {
		return "", fmt.Errorf("offset %d is beyond file end", in.Offset)
	}
	return out.String(), nil
}

// WriteFileTool implements write_file: create-or-truncate, creating parents.
type WriteFileTool struct{ Workspace string }

func (t *WriteFileTool) Name() string        { return "write_file" }
func (t *WriteFileTool) Description() string { return "Write (overwrite) a text file, creating parent directories." }
func (t *WriteFileTool) ParametersSchema() json.RawMessage {
	return objectSchema(map[string]any{
		"path":    map[string]any{"type": "string", "description": "Workspace-relative path."},
		"content": map[string]any{"type": "string", "description": "Content to write."},
	}, []string{"path", "content"})
}

func (t *WriteFileTool) Execute(ctx context.Context, workspace string, args json.RawMessage) (string, error) {
	var in struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	resolved, err := security.SafePath(workspace, in.Path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(in.Content), 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return fmt.Sprintf("wrote %d bytes", len(in.Content)), nil
}

// AppendFileTool implements append_file: create-if-missing append.
type AppendFileTool struct{ Workspace string }

func (t *AppendFileTool) Name() string        { return "append_file" }
func (t *AppendFileTool) Description() string { return "Append text to a file, creating it if missing." }
func (t *AppendFileTool) ParametersSchema() json.RawMessage {
	return objectSchema(map[string]any{
		"path":    map[string]any{"type": "string", "description": "Workspace-relative path."},
		"content": map[string]any{"type": "string", "description": "Content to append."},
	}, []string{"path", "content"})
}

func (t *AppendFileTool) Execute(ctx context.Context, workspace string, args json.RawMessage) (string, error) {
	var in struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	resolved, err := security.SafePath(workspace, in.Path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}
	f, err := os.OpenFile(resolved, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	n, err := f.WriteString(in.Content)
	if err != nil {
		return "", fmt.Errorf("append file: %w", err)
	}
	return fmt.Sprintf("appended %d bytes", n), nil
}

// DeleteFileTool implements delete_file: files only, refusing directories.
type DeleteFileTool struct{ Workspace string }

func (t *DeleteFileTool) Name() string        { return "delete_file" }
func (t *DeleteFileTool) Description() string { return "Delete a file (not a directory)." }
func (t *DeleteFileTool) ParametersSchema() json.RawMessage {
	return objectSchema(map[string]any{
		"path": map[string]any{"type": "string", "description": "Workspace-relative path."},
	}, []string{"path"})
}

func (t *DeleteFileTool) Execute(ctx context.Context, workspace string, args json.RawMessage) (string, error) {
	var in struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	resolved, err := security.SafePath(workspace, in.Path)
	if err != nil {
		return "", err
	}
	info, err := os.Lstat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("refusing to delete a directory")
	}
	if err := os.Remove(resolved); err != nil {
		return "", fmt.Errorf("delete file: %w", err)
	}
	return "deleted", nil
}

// ListDirTool implements list_dir: directories (trailing '/') first, then
// files, each group sorted lexicographically.
type ListDirTool struct{ Workspace string }

func (t *ListDirTool) Name() string        { return "list_dir" }
func (t *ListDirTool) Description() string { return "List a directory's immediate contents." }
func (t *ListDirTool) ParametersSchema() json.RawMessage {
	return objectSchema(map[string]any{
		"path": map[string]any{"type": "string", "description": "Workspace-relative directory (default '.')."},
	}, nil)
}

func (t *ListDirTool) Execute(ctx context.Context, workspace string, args json.RawMessage) (string, error) {
	var in struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.Path) == "" {
		in.Path = "."
	}
	resolved, err := security.SafePath(workspace, in.Path)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return "", fmt.Errorf("list directory: %w", err)
	}
	var dirs, files []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name()+"/")
		} else {
			files = append(files, e.Name())
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)
	listing := append(dirs, files...)
	payload, err := json.Marshal(listing)
	if err != nil {
		return "", fmt.Errorf("encode listing: %w", err)
	}
	return string(payload), nil
}

// GlobTool implements glob: workspace-relative matches, sorted, capped at
// globCap with a trailing "... N more" marker.
type GlobTool struct{ Workspace string }

func (t *GlobTool) Name() string        { return "glob" }
func (t *GlobTool) Description() string { return "Find files under a directory matching a glob pattern." }
func (t *GlobTool) ParametersSchema() json.RawMessage {
	return objectSchema(map[string]any{
		"pattern": map[string]any{"type": "string", "description": "Glob pattern (matched against the file name)."},
		"path":    map[string]any{"type": "string", "description": "Workspace-relative root directory (default '.')."},
	}, []string{"pattern"})
}

func (t *GlobTool) Execute(ctx context.Context, workspace string, args json.RawMessage) (string, error) {
	var in struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.Path) == "" {
		in.Path = "."
	}
	root, err := security.SafePath(workspace, in.Path)
	if err != nil {
		return "", err
	}

	var matches []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skippedDirNames[d.Name()] || strings.HasPrefix(d.Name(), ".") && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		ok, matchErr := filepath.Match(in.Pattern, d.Name())
		if matchErr != nil {
			return matchErr
		}
		if !ok {
			return nil
		}
		rel, relErr := filepath.Rel(workspace, p)
		if relErr != nil {
			return nil
		}
		matches = append(matches, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("glob: %w", err)
	}
	sort.Strings(matches)

	if len(matches) > globCap {
		more := len(matches) - globCap
		matches = matches[:globCap]
		matches = append(matches, fmt.Sprintf("... %d more", more))
	}
	payload, err := json.Marshal(matches)
	if err != nil {
		return "", fmt.Errorf("encode matches: %w", err)
	}
	return string(payload), nil
}

// GrepTool implements grep: case-insensitive substring search over
// text-like files, skipping hidden/vendor directories.
type GrepTool struct{ Workspace string }

func (t *GrepTool) Name() string        { return "grep" }
func (t *GrepTool) Description() string { return "Search for a case-insensitive substring across text files." }
func (t *GrepTool) ParametersSchema() json.RawMessage {
	return objectSchema(map[string]any{
		"pattern": map[string]any{"type": "string", "description": "Substring to search for (case-insensitive)."},
		"path":    map[string]any{"type": "string", "description": "Workspace-relative root directory (default '.')."},
	}, []string{"pattern"})
}

type grepMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

func (t *GrepTool) Execute(ctx context.Context, workspace string, args json.RawMessage) (string, error) {
	var in struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.Path) == "" {
		in.Path = "."
	}
	root, err := security.SafePath(workspace, in.Path)
	if err != nil {
		return "", err
	}
	needle := strings.ToLower(in.Pattern)

	var results []grepMatch
	truncNote := ""
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if len(results) >= grepCap {
			return filepath.SkipAll
		}
		name := d.Name()
		if d.IsDir() {
			if skippedDirNames[name] || (strings.HasPrefix(name, ".") && p != root) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != "" && !textLikeExtensions[ext] {
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		f, openErr := os.Open(p)
		if openErr != nil {
			return nil
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if strings.Contains(strings.ToLower(line), needle) {
				if len(line) > grepLineCap {
					line = line[:grepLineCap] + "[truncated]"
				}
				rel, relErr := filepath.Rel(workspace, p)
				if relErr != nil {
					rel = p
				}
				results = append(results, grepMatch{Path: filepath.ToSlash(rel), Line: lineNo, Text: line})
				if len(results) >= grepCap {
					truncNote = fmt.Sprintf("result cap of %d reached", grepCap)
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("grep: %w", err)
	}

	out := map[string]any{"matches": results}
	if truncNote != "" {
		out["truncated"] = truncNote
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode matches: %w", err)
	}
	return string(payload), nil
}
