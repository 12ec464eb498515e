// Package main provides the CLI entry point for the agent core runtime.
//
// # Basic Usage
//
// Run a task against the configured default provider:
//
//	agentcore run "summarize README.md" --workspace .
//
// Check credential and extension health:
//
//	agentcore doctor
//
// Manage loaded extensions:
//
//	agentcore extensions list
//	agentcore extensions load ./my-extension
//
// # Environment Variables
//
//   - AGENTCORE_CONFIG: path to the YAML config file (default: agentcore.yaml)
//   - ANTHROPIC_API_KEY, OPENAI_API_KEY, OPENROUTER_API_KEY: provider credentials,
//     used to fill in any provider left without an api_key in the config file
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vswrite/agent-core/internal/commands"
	"github.com/vswrite/agent-core/internal/config"
	"github.com/vswrite/agent-core/internal/credentials"
	"github.com/vswrite/agent-core/internal/extensions"
	"github.com/vswrite/agent-core/internal/observability"
)

// log is the process-wide structured logger: JSON output with API-key and
// token redaction, so a run that echoes its own config in an error message
// never leaks a credential to stderr.
var log = observability.NewLogger(observability.LogConfig{
	Level:  os.Getenv("AGENTCORE_LOG_LEVEL"),
	Format: "json",
	Output: os.Stderr,
})

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx := context.Background()
	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		log.Error(ctx, "command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agentcore",
		Short: "agentcore - single-agent tool-calling runtime",
		Long: `agentcore runs one task at a time through a tool-calling Agent Loop
against a configurable LLM provider, with sandboxed shell/file tools,
Lua extensions, and an approval gate for risky tool calls.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildRunCmd(),
		buildDoctorCmd(),
		buildExtensionsCmd(),
		buildSessionsCmd(),
	)
	return rootCmd
}

// resolveConfigPath returns the effective config path: the flag value if
// set, else AGENTCORE_CONFIG, else the package default.
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("AGENTCORE_CONFIG"); env != "" {
		return env
	}
	return "agentcore.yaml"
}

// buildSurface loads config from path, applies the environment credential
// overlay, and assembles a Surface wired with an extension registry loaded
// from cfg.ExtensionsDir (if any) and Prometheus metrics on the global
// registerer.
func buildSurface(path string) (*commands.Surface, config.Config, error) {
	cfg, registry, err := loadConfigAndExtensions(path)
	if err != nil {
		return nil, config.Config{}, err
	}

	installer := extensions.Installer{BundledRoot: cfg.BundledDir, TargetDir: cfg.ExtensionsDir}
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	return commands.NewSurface(registry, installer, metrics), cfg, nil
}

// loadConfigAndExtensions loads config from path, applies the credential
// overlay, and loads every extension bundle found directly under
// cfg.ExtensionsDir into a fresh registry.
func loadConfigAndExtensions(path string) (config.Config, *extensions.Registry, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	cfg = cfg.ApplyEnvOverlay(credentials.Lookup)

	registry := extensions.NewRegistry(nil)
	if cfg.ExtensionsDir != "" {
		entries, err := os.ReadDir(cfg.ExtensionsDir)
		if err == nil {
			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				if _, err := registry.Load(cfg.ExtensionsDir + "/" + entry.Name()); err != nil {
					log.Warn(context.Background(), "failed to load extension", "dir", entry.Name(), "error", err)
				}
			}
		} else if !os.IsNotExist(err) {
			return config.Config{}, nil, fmt.Errorf("read extensions dir: %w", err)
		}
	}
	return cfg, registry, nil
}
