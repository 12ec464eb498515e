package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vswrite/agent-core/internal/observability"
	"github.com/vswrite/agent-core/pkg/models"
)

// buildRunCmd creates the "run" command: one Agent Loop invocation to
// completion, failure, or interrupt (SIGINT/SIGTERM cancels the run).
func buildRunCmd() *cobra.Command {
	var (
		configPath    string
		workspace     string
		systemPrompt  string
		provider      string
		model         string
		temperature   float64
		maxTokens     int
		maxIterations int
		shellTimeout  int
		approvalMode  string
		baseURL       string
	)

	cmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Run one task through the Agent Loop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			surface, cfg, err := buildSurface(configPath)
			if err != nil {
				return err
			}

			agentCfg := cfg.Defaults
			if provider != "" {
				agentCfg.Provider = models.Provider(provider)
			}
			if model != "" {
				agentCfg.Model = model
			}
			if cmd.Flags().Changed("temperature") {
				agentCfg.Temperature = temperature
			}
			if cmd.Flags().Changed("max-tokens") {
				agentCfg.MaxTokens = maxTokens
			}
			if cmd.Flags().Changed("max-iterations") {
				agentCfg.MaxIterations = maxIterations
			}
			if cmd.Flags().Changed("shell-timeout") {
				agentCfg.ShellTimeout = shellTimeout
			}
			if approvalMode != "" {
				agentCfg.ApprovalMode = models.ApprovalMode(approvalMode)
			}
			if baseURL != "" {
				agentCfg.BaseURL = baseURL
			}

			ws := workspace
			if ws == "" {
				ws = cfg.Workspace
			}
			if ws == "" {
				ws, _ = os.Getwd()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			sink := &printSink{out: out}
			result, err := surface.RunAgent(ctx, args[0], systemPrompt, ws, nil, agentCfg, sink)
			if err != nil {
				return err
			}
			runCtx := observability.AddRunID(ctx, result.TaskID)
			if !result.Success {
				log.Error(runCtx, "run failed", "error", result.Error, "tool_calls", result.ToolCallCount)
				return fmt.Errorf("run failed: %s", result.Error)
			}
			log.Info(runCtx, "run completed", "tool_calls", result.ToolCallCount)
			fmt.Fprintln(out, strings.TrimRight(result.Response, "\n"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace directory (defaults to config, then cwd)")
	cmd.Flags().StringVar(&systemPrompt, "system", "", "System prompt override")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider (claude, openai, openrouter, ollama)")
	cmd.Flags().StringVar(&model, "model", "", "Model identifier")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature override")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Max response tokens override")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Max tool-call iterations override")
	cmd.Flags().IntVar(&shellTimeout, "shell-timeout", 0, "Shell tool timeout (seconds) override")
	cmd.Flags().StringVar(&approvalMode, "approval-mode", "", "auto_approve, approve_dangerous, approve_writes, approve_all, dry_run")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Override the provider's default API base URL")

	return cmd
}

// printSink renders a run's events to out as they arrive: a line per tool
// call, streamed text chunks, and a final newline before the summarized
// response run() prints itself.
type printSink struct {
	out interface{ Write([]byte) (int, error) }
}

func (s *printSink) Emit(_ context.Context, e models.AgentEvent) {
	switch e.Type {
	case models.EventToolCallStart:
		fmt.Fprintf(s.out, "-> %s(%s)\n", e.ToolCallStart.Name, e.ToolCallStart.Args)
	case models.EventToolCallComplete:
		status := "ok"
		if e.ToolCallComplete.IsError {
			status = "error"
		}
		fmt.Fprintf(s.out, "<- %s [%s]\n", e.ToolCallComplete.Name, status)
	case models.EventToolApprovalRequired:
		fmt.Fprintf(s.out, "?? approval required for %s (risk=%s, id=%s)\n",
			e.ToolApprovalRequired.Name, e.ToolApprovalRequired.Risk, e.ToolApprovalRequired.ApprovalID)
	case models.EventToolSkipped:
		fmt.Fprintf(s.out, "-- skipped %s: %s\n", e.ToolSkipped.Name, e.ToolSkipped.Reason)
	case models.EventError:
		fmt.Fprintf(s.out, "!! %s\n", e.Error.Message)
	case models.EventCancelled:
		fmt.Fprintln(s.out, "-- cancelled")
	}
}
