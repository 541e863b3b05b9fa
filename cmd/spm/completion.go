// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spmkit/spm/internal/app"
)

// newCompletionCommand creates the `spm completion` command.
func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for spm.

To enable shell completions, run one of the following commands:

` + SubtitleStyle.Render("Bash:") + `
  # Add to ~/.bashrc:
  eval "$(spm completion bash)"

  # Or install system-wide:
  spm completion bash > /etc/bash_completion.d/spm

` + SubtitleStyle.Render("Zsh:") + `
  # Add to ~/.zshrc:
  eval "$(spm completion zsh)"

  # Or install to fpath:
  spm completion zsh > "${fpath[1]}/_spm"

` + SubtitleStyle.Render("Fish:") + `
  spm completion fish > ~/.config/fish/completions/spm.fish

` + SubtitleStyle.Render("PowerShell:") + `
  spm completion powershell | Out-String | Invoke-Expression

  # Or add to $PROFILE:
  spm completion powershell >> $PROFILE
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

// completeArchives completes the first argCount positional arguments with .sb3 files.
func completeArchives(argCount int) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if len(args) >= argCount {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return []cobra.Completion{"sb3"}, cobra.ShellCompDirectiveFilterFileExt
	}
}

// completeInstalledModules completes the module argument of remove from the
// host archive's registry.
func completeInstalledModules(a *App) cobra.CompletionFunc {
	archives := completeArchives(1)
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return archives(cmd, args, toComplete)
		}
		if len(args) > 1 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		s, err := a.open(cmd)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		hostSprite, _ := cmd.Flags().GetString("host-sprite")
		res, err := s.service.List(cmd.Context(), app.ListRequest{HostArchive: args[0], HostSprite: hostSprite})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		names := make([]cobra.Completion, 0, len(res.Modules))
		for _, m := range res.Modules {
			names = append(names, cobra.CompletionWithDesc(string(m.Name), string(m.Version)))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}
