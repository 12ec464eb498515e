package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vswrite/agent-core/internal/credentials"
)

// buildDoctorCmd creates the "doctor" command: credential, extension,
// build, and environment health findings (SPEC_FULL.md §4.9).
func buildDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials, extensions, build, and environment health",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			_, registry, err := loadConfigAndExtensions(configPath)
			if err != nil {
				return err
			}

			report := credentials.Check(registry)
			out := cmd.OutOrStdout()
			if len(report.Findings) == 0 {
				fmt.Fprintln(out, "No issues found.")
				return nil
			}

			for _, f := range report.Findings {
				fmt.Fprintf(out, "[%s] %s: %s\n", f.Severity, f.Category, f.Message)
				if f.Remediation != "" {
					fmt.Fprintf(out, "    fix: %s\n", f.Remediation)
				}
			}
			fmt.Fprintf(out, "\n%d info, %d warning, %d error\n",
				report.Tally[credentials.SeverityInfo],
				report.Tally[credentials.SeverityWarning],
				report.Tally[credentials.SeverityError])

			if !report.OK() {
				return fmt.Errorf("doctor: %d error-level finding(s)", report.Tally[credentials.SeverityError])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}
