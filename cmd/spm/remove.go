// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spmkit/spm/internal/app"
	"github.com/spmkit/spm/pkg/namespace"
)

// newRemoveCommand creates the `spm remove` command.
func newRemoveCommand(a *App) *cobra.Command {
	var req app.RemoveRequest

	cmd := &cobra.Command{
		Use:     "remove <host.sb3> <module>",
		Aliases: []string{"rm"},
		Short:   "Remove an installed module from a host project",
		Long: `Remove a module from a host sprite.

Every block, costume and sound the module contributed is removed, together
with its registry entry. Variables, lists and broadcasts are kept because
other scripts may still use them.`,
		Example: `  spm remove game.sb3 physics
  spm remove game.sb3 physics --host-sprite Player --dry-run`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeInstalledModules(a),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return a.fail(cmd, s, err)
			}
			req.HostArchive = args[0]
			req.Name = namespace.ModuleName(args[1])

			res, err := s.service.Remove(cmd.Context(), req)
			if err != nil {
				return a.fail(cmd, s, actionable(err, "remove module", args[1]))
			}

			fmt.Fprintf(a.stdout, "%s Removed %s from %s\n",
				successIcon, CmdStyle.Render(string(res.Module)), CmdStyle.Render(res.HostSprite))
			renderRemoval(a.stdout, res.Removal, "dropped")
			renderDestination(a.stdout, res.Output, res.DryRun)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.HostSprite, "host-sprite", "", "host sprite holding the module")
	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "write the result to this archive instead of the host")
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "remove without writing any archive")

	return cmd
}
