package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildExtensionsCmd creates the "extensions" command group.
func buildExtensionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extensions",
		Short: "Manage Lua extensions",
		Long: `Manage extension bundles that contribute Lua tools and lifecycle
hooks to the Agent Loop. Extensions are loaded from directories containing
an extension.json manifest.`,
	}
	cmd.AddCommand(
		buildExtensionsListCmd(),
		buildExtensionsLoadCmd(),
		buildExtensionsUnloadCmd(),
		buildExtensionsInstallBundledCmd(),
	)
	return cmd
}

func buildExtensionsListCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loaded extensions",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			surface, _, err := buildSurface(configPath)
			if err != nil {
				return err
			}
			ids := surface.ListExtensions()
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No extensions loaded.")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}

func buildExtensionsLoadCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "load <dir>",
		Short: "Load an extension bundle from a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			surface, _, err := buildSurface(configPath)
			if err != nil {
				return err
			}
			id, err := surface.LoadExtension(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded extension: %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}

func buildExtensionsUnloadCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "unload <id>",
		Short: "Unload an extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			surface, _, err := buildSurface(configPath)
			if err != nil {
				return err
			}
			if err := surface.UnloadExtension(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unloaded extension: %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}

func buildExtensionsInstallBundledCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "install-bundled",
		Short: "Install bundled extensions into the per-user extensions directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			surface, _, err := buildSurface(configPath)
			if err != nil {
				return err
			}
			installed, err := surface.InstallBundledExtensions()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(installed) == 0 {
				fmt.Fprintln(out, "No bundled extensions to install.")
				return nil
			}
			fmt.Fprintln(out, "Installed:")
			for _, id := range installed {
				fmt.Fprintf(out, "  - %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}
