// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"github.com/spmkit/spm/internal/app"
)

// newListCommand creates the `spm list` command.
func newListCommand(a *App) *cobra.Command {
	var req app.ListRequest
	var asJSON bool

	cmd := &cobra.Command{
		Use:               "list <host.sb3>",
		Aliases:           []string{"ls"},
		Short:             "List the modules installed in a sprite",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeArchives(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return a.fail(cmd, s, err)
			}
			req.HostArchive = args[0]

			res, err := s.service.List(cmd.Context(), req)
			if err != nil {
				return a.fail(cmd, s, actionable(err, "list modules", args[0]))
			}
			if asJSON {
				return writeJSON(a.stdout, res)
			}
			renderListResult(a.stdout, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.HostSprite, "host-sprite", "", "sprite whose modules are listed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the registry as JSON")

	return cmd
}

// newInfoCommand creates the `spm info` command.
func newInfoCommand(a *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:               "info <project.sb3>",
		Short:             "Summarize the targets of a project",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeArchives(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return a.fail(cmd, s, err)
			}
			res, err := s.service.Info(cmd.Context(), args[0])
			if err != nil {
				return a.fail(cmd, s, actionable(err, "read project", args[0]))
			}
			if asJSON {
				return writeJSON(a.stdout, res)
			}
			renderInfoResult(a.stdout, res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderListResult(w io.Writer, res *app.ListResult) {
	header := fmt.Sprintf("%s (%s)", res.Sprite, res.Name)
	if res.Version != "" {
		header += " " + string(res.Version)
	}
	fmt.Fprintln(w, TitleStyle.Render(header))
	if res.Description != "" {
		fmt.Fprintln(w, SubtitleStyle.Render(string(res.Description)))
	}
	if len(res.Modules) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(no modules installed)"))
		return
	}
	for _, m := range res.Modules {
		fmt.Fprintf(w, "  %s %s %s\n", bulletIcon, CmdStyle.Render(string(m.Name)), SubtitleStyle.Render(string(m.Version)))
	}
}

func renderInfoResult(w io.Writer, res *app.InfoResult) {
	fmt.Fprintln(w, TitleStyle.Render(res.Archive))
	for _, t := range res.Targets {
		kind := "sprite"
		if t.Stage {
			kind = "stage"
		}
		fmt.Fprintf(w, "\n%s %s\n", CmdStyle.Render(t.Name), SubtitleStyle.Render("("+kind+")"))
		fmt.Fprintf(w, "  blocks: %d  variables: %d  lists: %d  comments: %d\n", t.Blocks, t.Variables, t.Lists, t.Comments)
		fmt.Fprintf(w, "  costumes: %d  sounds: %d\n", t.Costumes, t.Sounds)

		if len(t.ModuleBlocks) > 0 {
			parts := make([]string, 0, len(t.ModuleBlocks))
			for _, owner := range slices.Sorted(maps.Keys(t.ModuleBlocks)) {
				parts = append(parts, fmt.Sprintf("%s=%d", owner, t.ModuleBlocks[owner]))
			}
			fmt.Fprintf(w, "  namespaced blocks: %s\n", strings.Join(parts, " "))
		}
		for _, m := range t.Modules {
			fmt.Fprintf(w, "  %s module %s %s\n", bulletIcon, CmdStyle.Render(string(m.Name)), SubtitleStyle.Render(string(m.Version)))
		}
	}
}
