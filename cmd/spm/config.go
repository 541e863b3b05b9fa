// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spmkit/spm/internal/config"
)

// newConfigCommand creates the `spm config` command tree.
func newConfigCommand(a *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage spm configuration",
		Long: `Manage spm configuration.

Configuration is stored in:
  - Linux: ~/.config/spm/config.cue
  - macOS: ~/Library/Application Support/spm/config.cue
  - Windows: %APPDATA%\spm\config.cue

A config.cue in the working directory is used when the user file is absent.
Every key can be overridden with an SPM_<KEY> environment variable, either
exported or listed in a .env file in the working directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, a)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig("")
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			if !created {
				fmt.Fprintf(a.stdout, "%s Configuration already exists at %s\n", warningIcon, path)
				return nil
			}
			fmt.Fprintf(a.stdout, "%s Created default configuration at %s\n", successIcon, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Config directory: %s\n", cfgDir)
			fmt.Fprintf(a.stdout, "Config file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, a *App) error {
	s, err := a.open(cmd)
	if err != nil {
		return a.fail(cmd, s, err)
	}
	cfg := s.cfg

	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)

	path, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil || path == "" {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(a.stdout)

	tempDir := string(cfg.TempDir)
	if tempDir == "" {
		tempDir = "(system default)"
	}
	exclude := strings.Join(cfg.Archive.ExcludeGlobs(), ", ")
	if exclude == "" {
		exclude = "(none)"
	}

	rows := []struct{ key, value string }{
		{"temp_dir", tempDir},
		{"archive.exclude", exclude},
		{"merge.private_marker", string(cfg.Merge.PrivateMarker)},
		{"merge.hidden_marker", string(cfg.Merge.HiddenMarker)},
		{"merge.reset_positions", fmt.Sprintf("%v", cfg.Merge.ResetPositions)},
		{"defaults.host_sprite", cfg.Defaults.HostSprite},
		{"defaults.module_sprite", cfg.Defaults.ModuleSprite},
		{"ui.color_scheme", string(cfg.UI.ColorScheme)},
		{"ui.verbose", fmt.Sprintf("%v", cfg.UI.Verbose)},
	}
	for _, row := range rows {
		fmt.Fprintf(a.stdout, "%s: %s", keyStyle.Render(row.key), valueStyle.Render(row.value))
		if s.verbose {
			fmt.Fprintf(a.stdout, " %s", VerboseStyle.Render("("+config.EnvVar(row.key)+")"))
		}
		fmt.Fprintln(a.stdout)
	}
	return nil
}
