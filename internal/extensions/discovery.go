package extensions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vswrite/agent-core/pkg/models"
)

const (
	manifestFilename = "manifest.json"
	hooksFilename    = "hooks.lua"
)

// bundle is one extension directory's parsed manifest plus the source text
// of every script it references, read once at Load time so ExecuteTool
// never touches the filesystem outside the workspace sandbox.
type bundle struct {
	dir      string
	manifest models.ExtensionManifest
	scripts  map[string]string // tool name -> lua source
	hooks    string            // hooks.lua source, "" if absent
}

// readBundle validates dir, parses its manifest.json, and loads every
// referenced Lua source file. Tools declared with a Python entry point are
// noted as unsupported and excluded from scripts rather than failing the
// whole load, per the legacy-Python skip rule.
func readBundle(dir string) (*bundle, error) {
	cleanDir, err := validateBundleDir(dir)
	if err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(cleanDir, manifestFilename)
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest models.ExtensionManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", manifestPath, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	b := &bundle{dir: cleanDir, manifest: manifest, scripts: map[string]string{}}

	for _, t := range manifest.Tools {
		if t.IsLegacyPython() {
			continue
		}
		if t.LuaScript == "" {
			continue
		}
		scriptPath, err := resolveWithinBundle(cleanDir, t.LuaScript)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		source, err := os.ReadFile(scriptPath)
		if err != nil {
			return nil, fmt.Errorf("read script for tool %s: %w", t.Name, err)
		}
		b.scripts[t.Name] = string(source)
	}

	hooksPath := filepath.Join(cleanDir, hooksFilename)
	if hooksSrc, err := os.ReadFile(hooksPath); err == nil {
		b.hooks = string(hooksSrc)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read hooks.lua: %w", err)
	}

	return b, nil
}

// validateBundleDir rejects traversal before it is ever combined with a
// manifest-declared relative script path.
func validateBundleDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("extension directory is empty")
	}
	cleaned := filepath.Clean(dir)
	if containsDotDot(cleaned) {
		return "", fmt.Errorf("extension directory %q contains '..'", dir)
	}
	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve extension directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat extension directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", dir)
	}
	return abs, nil
}

// resolveWithinBundle joins a manifest-declared relative script path onto
// the bundle directory, refusing any path that escapes it.
func resolveWithinBundle(dir, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("script path %q must be relative", rel)
	}
	joined := filepath.Clean(filepath.Join(dir, rel))
	if !strings.HasPrefix(joined, dir+string(filepath.Separator)) && joined != dir {
		return "", fmt.Errorf("script path %q escapes extension directory", rel)
	}
	return joined, nil
}

func containsDotDot(path string) bool {
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}
