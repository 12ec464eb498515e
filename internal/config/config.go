// Package config loads process-wide defaults for the Agent Loop's
// per-run models.AgentConfig, plus the Command Surface's workspace and
// extension directories, from a YAML file with an environment-variable
// overlay.
//
// Grounded on the teacher's internal/config/loader.go: YAML via
// gopkg.in/yaml.v3, os.ExpandEnv applied to the raw file bytes before
// parsing so `${VAR}` references resolve against the process
// environment, and strict decoding (yaml.Decoder.KnownFields(true)) so a
// typo'd key fails loudly rather than being silently ignored. The
// teacher's $include cross-file merge and JSON5 fallback are not carried
// forward: this module's config is a single small file, not the
// teacher's multi-hundred-line gateway config, so there is nothing to
// split across includes.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vswrite/agent-core/pkg/models"
)

// Config is the top-level file format for agentcore.yaml.
type Config struct {
	Workspace     string              `yaml:"workspace"`
	ExtensionsDir string              `yaml:"extensions_dir"`
	BundledDir    string              `yaml:"bundled_extensions_dir"`
	Defaults      models.AgentConfig  `yaml:"defaults"`
}

// Default returns the out-of-the-box configuration: Ollama (needs no API
// key), conservative iteration/token bounds, and approval required for
// anything above low risk.
func Default() Config {
	return Config{
		Workspace: ".",
		Defaults: models.AgentConfig{
			Provider:      models.ProviderOllama,
			Model:         "llama3.1",
			Temperature:   0.2,
			MaxTokens:     4096,
			MaxIterations: 25,
			ShellTimeout:  60,
			ApprovalMode:  models.ApprovalApproveWrites,
		},
	}
}

// Load reads path, expands ${VAR} references against the process
// environment, and decodes strictly into Config layered over Default().
// A missing optional field keeps its default; an unknown field is an
// error (KnownFields(true)), matching the teacher's decodeRawConfig.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))

	decoder := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return Config{}, fmt.Errorf("config: %s: expected a single YAML document", path)
	}
	return cfg, nil
}

// ApplyEnvOverlay overlays provider credentials and base URL from the
// process environment onto cfg.Defaults, via internal/credentials.Lookup.
// This runs after Load so a file-configured api_key is never silently
// discarded: the overlay only fills in a key the file left empty.
func (c Config) ApplyEnvOverlay(lookup func(models.Provider, func(string) string) (string, string, bool)) Config {
	if c.Defaults.APIKey != "" {
		return c
	}
	_, key, available := lookup(c.Defaults.Provider, os.Getenv)
	if available {
		c.Defaults.APIKey = key
	}
	return c
}
