// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spmkit/spm/internal/app"
	"github.com/spmkit/spm/pkg/merge"
	"github.com/spmkit/spm/pkg/namespace"
	"github.com/spmkit/spm/pkg/types"
)

// newAddCommand creates the `spm add` command.
func newAddCommand(a *App) *cobra.Command {
	var req app.AddRequest
	var name, version string

	cmd := &cobra.Command{
		Use:   "add <host.sb3> <module.sb3>",
		Short: "Merge a module project into a host project",
		Long: `Merge a module sprite into a host sprite.

The module's scripts, variables, lists, broadcasts, costumes and sounds are
copied into the host sprite under the module's namespace. Adding a module that
is already installed replaces it with the new version.

The module name and version come from --name/--version, the module's
spm.toml, the registry embedded in the module sprite, or the archive file
name, in that order.`,
		Example: `  # Merge physics.sb3 into game.sb3
  spm add game.sb3 physics.sb3

  # Pick the sprites explicitly and write the result elsewhere
  spm add game.sb3 lib.sb3 --host-sprite Player --module-sprite Library --output merged.sb3

  # See what would change without writing anything
  spm add game.sb3 lib.sb3 --dry-run`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeArchives(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return a.fail(cmd, s, err)
			}
			req.HostArchive, req.ModuleArchive = args[0], args[1]
			req.Name = namespace.ModuleName(name)
			req.Version = types.SemVer(version)

			res, err := s.service.Add(cmd.Context(), req)
			if err != nil {
				return a.fail(cmd, s, actionable(err, "add module", req.ModuleArchive))
			}
			renderAddResult(a.stdout, res, s.verbose)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.HostSprite, "host-sprite", "", "host sprite receiving the module")
	cmd.Flags().StringVar(&req.ModuleSprite, "module-sprite", "", "module sprite to merge")
	cmd.Flags().StringVar(&name, "name", "", "module name (overrides spm.toml)")
	cmd.Flags().StringVar(&version, "version", "", "module version (overrides spm.toml)")
	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "write the result to this archive instead of the host")
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "merge without writing any archive")

	return cmd
}

func renderAddResult(w io.Writer, res *app.AddResult, verbose bool) {
	verb := map[merge.VersionChange]string{
		merge.ChangeInstall:   "Installed",
		merge.ChangeUpgrade:   "Upgraded",
		merge.ChangeDowngrade: "Downgraded",
		merge.ChangeReinstall: "Reinstalled",
	}[res.Change]
	if verb == "" {
		verb = "Merged"
	}

	version := string(res.Version)
	if res.PreviousVersion != "" && res.PreviousVersion != res.Version {
		version = string(res.PreviousVersion) + " → " + version
	}
	fmt.Fprintf(w, "%s %s %s %s into %s\n",
		successIcon, verb, CmdStyle.Render(string(res.Module)), SubtitleStyle.Render(version), CmdStyle.Render(res.HostSprite))

	fmt.Fprintf(w, "  %s %d block(s), %d variable(s), %d list(s), %d broadcast(s)\n",
		bulletIcon, res.BlocksAdded, res.Variables, res.Lists, res.Broadcasts)
	fmt.Fprintf(w, "  %s %d costume(s), %d sound(s)\n", bulletIcon, len(res.CostumesAdded), len(res.SoundsAdded))
	if res.BlocksFiltered > 0 {
		fmt.Fprintf(w, "  %s %d private block(s) left out\n", bulletIcon, res.BlocksFiltered)
	}
	if verbose {
		renderRemoval(w, res.Removal, "replaced")
	}
	renderDestination(w, res.Output, res.DryRun)
}

func renderRemoval(w io.Writer, r merge.Removal, verb string) {
	if r.Blocks == 0 && len(r.Costumes) == 0 && len(r.Sounds) == 0 && len(r.Payloads) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s %s %d block(s), %d costume(s), %d sound(s)\n",
		bulletIcon, verb, r.Blocks, len(r.Costumes), len(r.Sounds))
	for _, p := range r.Payloads {
		fmt.Fprintf(w, "    %s\n", VerboseStyle.Render("deleted "+p))
	}
}

func renderDestination(w io.Writer, output string, dryRun bool) {
	if dryRun {
		fmt.Fprintf(w, "%s Dry run: %s was not written\n", warningIcon, output)
		return
	}
	fmt.Fprintf(w, "%s Wrote %s\n", successIcon, output)
}
