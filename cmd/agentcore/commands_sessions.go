package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildSessionsCmd creates the "sessions" command group.
func buildSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect run sessions and their audit logs",
	}
	cmd.AddCommand(buildSessionsListCmd(), buildSessionsShowCmd(), buildSessionsAuditCmd())
	return cmd
}

func buildSessionsListCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			surface, _, err := buildSurface(configPath)
			if err != nil {
				return err
			}
			sessions := surface.ListSessions()
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded.")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(out, "%s  %-10s %s/%s  tools=%d tokens=%d\n",
					s.ID, s.Status, s.Provider, s.Model, s.ToolCallCount, s.TotalTokens)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}

func buildSessionsShowCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session's detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			surface, _, err := buildSurface(configPath)
			if err != nil {
				return err
			}
			s, ok := surface.GetSession(args[0])
			if !ok {
				return fmt.Errorf("no such session: %s", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", s.ID)
			fmt.Fprintf(out, "Status:      %s\n", s.Status)
			fmt.Fprintf(out, "Provider:    %s\n", s.Provider)
			fmt.Fprintf(out, "Model:       %s\n", s.Model)
			fmt.Fprintf(out, "Workspace:   %s\n", s.Workspace)
			fmt.Fprintf(out, "Task:        %s\n", s.Task)
			fmt.Fprintf(out, "ToolCalls:   %d\n", s.ToolCallCount)
			fmt.Fprintf(out, "TotalTokens: %d\n", s.TotalTokens)
			if s.Error != "" {
				fmt.Fprintf(out, "Error:       %s\n", s.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}

func buildSessionsAuditCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "audit <session-id>",
		Short: "Show a session's audit log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			surface, _, err := buildSurface(configPath)
			if err != nil {
				return err
			}
			entries := surface.GetAuditLog(args[0], limit)
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No audit entries.")
				return nil
			}
			for _, e := range entries {
				status := "ok"
				if !e.Success {
					status = "fail"
				}
				fmt.Fprintf(out, "%s  %-20s %-5s %s\n", e.Timestamp.Format("15:04:05"), e.EventType, status, e.ResultSummary)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of entries")
	return cmd
}
